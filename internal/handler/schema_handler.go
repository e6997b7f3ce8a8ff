package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/entity-review-api/internal/dto"
	"github.com/noah-isme/entity-review-api/internal/models"
	"github.com/noah-isme/entity-review-api/pkg/response"
)

// SchemaHandler serves the static field layout of each category.
type SchemaHandler struct{}

// NewSchemaHandler constructs the handler.
func NewSchemaHandler() *SchemaHandler {
	return &SchemaHandler{}
}

// Get godoc
// @Summary Category schema
// @Description Fields, labels and enum options used to render a review form
// @Tags Schemas
// @Produce json
// @Security BearerAuth
// @Param category path string true "asset, indication or catalyst"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schemas/{category} [get]
func (h *SchemaHandler) Get(c *gin.Context) {
	category, err := models.ParseCategory(c.Param("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	schema, err := models.SchemaFor(category)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SchemaResponse{
		Category: schema.Category,
		IDKey:    schema.IDKey,
		TitleKey: schema.TitleKey,
		RefKeys:  schema.RefKeys,
		Fields:   schema.Fields,
	}, nil)
}
