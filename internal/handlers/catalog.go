package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/services"
)

type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListPromotionalImages godoc
// @Summary     List promotional images
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Success     200 {array} models.PromotionalImage
// @Router      /admin/promotional-images [get]
func (h *CatalogHandler) ListPromotionalImages(c *gin.Context) {
	images, err := h.catalog.PromotionalImages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

// CreatePromotionalImage godoc
// @Summary     Add promotional image
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreatePromotionalImageRequest true "Image"
// @Success     201 {object} models.PromotionalImage
// @Failure     400 {object} models.ErrorResponse
// @Router      /admin/promotional-images [post]
func (h *CatalogHandler) CreatePromotionalImage(c *gin.Context) {
	var req models.CreatePromotionalImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	image, err := h.catalog.AddPromotionalImage(c.Request.Context(), req.ImageURL, req.AltText)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, image)
}

// DeletePromotionalImage godoc
// @Summary     Delete promotional image
// @Tags        admin
// @Security    Bearer
// @Param       id path string true "Image ID"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/promotional-images/{id} [delete]
func (h *CatalogHandler) DeletePromotionalImage(c *gin.Context) {
	if err := h.catalog.RemovePromotionalImage(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSpecifications godoc
// @Summary     List specifications
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Success     200 {array} models.Specification
// @Router      /admin/specifications [get]
func (h *CatalogHandler) ListSpecifications(c *gin.Context) {
	specs, err := h.catalog.Specifications(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, specs)
}

// CreateSpecification godoc
// @Summary     Add specification
// @Description Icon must be one of ruler, scale, box, shield
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateSpecificationRequest true "Specification"
// @Success     201 {object} models.Specification
// @Failure     400 {object} models.ErrorResponse
// @Router      /admin/specifications [post]
func (h *CatalogHandler) CreateSpecification(c *gin.Context) {
	var req models.CreateSpecificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	spec, err := h.catalog.AddSpecification(c.Request.Context(), req.Title, req.Description, req.Icon)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, spec)
}

// DeleteSpecification godoc
// @Summary     Delete specification
// @Tags        admin
// @Security    Bearer
// @Param       id path string true "Specification ID"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/specifications/{id} [delete]
func (h *CatalogHandler) DeleteSpecification(c *gin.Context) {
	if err := h.catalog.RemoveSpecification(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
