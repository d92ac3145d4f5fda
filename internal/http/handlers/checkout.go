package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/molave0524/two-phase-cooling-education-sub004/internal/http/response"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/services"
)

type CheckoutHandler struct {
	log          *logger.Logger
	availability services.AvailabilityService
	snapshots    services.SnapshotService
	checkout     services.CheckoutService
}

func NewCheckoutHandler(
	log *logger.Logger,
	availability services.AvailabilityService,
	snapshots services.SnapshotService,
	checkout services.CheckoutService,
) *CheckoutHandler {
	return &CheckoutHandler{
		log:          log.With("handler", "CheckoutHandler"),
		availability: availability,
		snapshots:    snapshots,
		checkout:     checkout,
	}
}

// POST /api/availability
func (h *CheckoutHandler) ValidateAvailability(c *gin.Context) {
	var body struct {
		ProductIDs []uuid.UUID `json:"product_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.availability.ValidateProductsAvailable(c.Request.Context(), body.ProductIDs)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// POST /api/snapshots
//
// Dry-run snapshot construction: returns what an order line would freeze
// right now without persisting anything.
func (h *CheckoutHandler) PreviewSnapshots(c *gin.Context) {
	var body struct {
		Items []services.SnapshotRequest `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	snapshots, err := h.snapshots.CreateOrderItemSnapshots(c.Request.Context(), body.Items)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	totals := h.snapshots.CalculateOrderTotals(snapshots)
	response.RespondOK(c, gin.H{"snapshots": snapshots, "totals": totals})
}

// POST /api/orders
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	var body struct {
		Items []services.SnapshotRequest `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	order, err := h.checkout.PlaceOrder(c.Request.Context(), body.Items)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, order)
}
