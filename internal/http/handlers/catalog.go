package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/molave0524/two-phase-cooling-education-sub004/internal/http/response"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/services"
)

type CatalogHandler struct {
	log      *logger.Logger
	products services.ProductService
	versions services.VersionService
}

func NewCatalogHandler(log *logger.Logger, products services.ProductService, versions services.VersionService) *CatalogHandler {
	return &CatalogHandler{
		log:      log.With("handler", "CatalogHandler"),
		products: products,
		versions: versions,
	}
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var in services.CreateProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	product, err := h.products.CreateProduct(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, product)
}

// GET /api/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, product)
}

// GET /api/products/slug/:slug
func (h *CatalogHandler) GetProductBySlug(c *gin.Context) {
	product, err := h.products.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, product)
}

// PATCH /api/products/:id
//
// In-place edits are rejected with 409 once the product is referenced by
// orders; callers must switch to the versions endpoint.
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var patch services.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	product, err := h.products.UpdateProduct(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, product)
}

// POST /api/products/:id/versions
func (h *CatalogHandler) CreateProductVersion(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var patch services.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	fork, err := h.versions.CreateProductVersion(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, fork)
}

// GET /api/products/:id/in-orders
func (h *CatalogHandler) IsProductInOrders(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	inOrders, err := h.versions.IsProductInOrders(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product_id": id, "in_orders": inOrders})
}

// POST /api/products/:id/sunset
func (h *CatalogHandler) SunsetProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Reason               string     `json:"reason"`
		ReplacementProductID *uuid.UUID `json:"replacement_product_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	product, err := h.versions.SunsetProduct(c.Request.Context(), id, body.Reason, body.ReplacementProductID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, product)
}

// POST /api/products/:id/discontinue
func (h *CatalogHandler) DiscontinueProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.versions.DiscontinueProduct(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, product)
}
