package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/molave0524/two-phase-cooling-education-sub004/internal/http/response"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/services"
)

type ComponentHandler struct {
	log     *logger.Logger
	graph   services.GraphService
	pricing services.PricingService
}

func NewComponentHandler(log *logger.Logger, graph services.GraphService, pricing services.PricingService) *ComponentHandler {
	return &ComponentHandler{
		log:     log.With("handler", "ComponentHandler"),
		graph:   graph,
		pricing: pricing,
	}
}

// POST /api/products/:id/components/:componentId
func (h *ComponentHandler) AddComponent(c *gin.Context) {
	parentID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	componentID, ok := paramUUID(c, "componentId")
	if !ok {
		return
	}
	var in services.AddComponentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	edge, err := h.graph.AddComponent(c.Request.Context(), parentID, componentID, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, edge)
}

// PATCH /api/products/:id/components/:componentId
func (h *ComponentHandler) UpdateComponent(c *gin.Context) {
	parentID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	componentID, ok := paramUUID(c, "componentId")
	if !ok {
		return
	}
	var patch services.ComponentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	edge, err := h.graph.UpdateComponent(c.Request.Context(), parentID, componentID, patch)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, edge)
}

// DELETE /api/products/:id/components/:componentId
func (h *ComponentHandler) RemoveComponent(c *gin.Context) {
	parentID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	componentID, ok := paramUUID(c, "componentId")
	if !ok {
		return
	}
	if err := h.graph.RemoveComponent(c.Request.Context(), parentID, componentID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/products/:id/components
func (h *ComponentHandler) GetComponentTree(c *gin.Context) {
	parentID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	tree, err := h.graph.GetComponentTree(c.Request.Context(), parentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product_id": parentID, "components": tree})
}

// GET /api/products/:id/components/price
func (h *ComponentHandler) GetComponentsPrice(c *gin.Context) {
	parentID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	price, err := h.pricing.CalculateComponentsPrice(c.Request.Context(), parentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, price)
}
