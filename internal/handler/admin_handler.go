package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/unireg-api/internal/service"
	appErrors "github.com/campusops/unireg-api/pkg/errors"
	"github.com/campusops/unireg-api/pkg/response"
)

// AdminHandler exposes the bulk data-management endpoints.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Seed godoc
// @Summary Seed sample data
// @Description Empty body seeds the built-in fixture. A partial failure still
// @Description returns 200 with the failure recorded in the report.
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body service.SeedRequest false "Optional dataset"
// @Success 200 {object} response.Envelope
// @Router /admin/seed [post]
func (h *AdminHandler) Seed(c *gin.Context) {
	var req service.SeedRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	report, err := h.admin.Seed(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Clear godoc
// @Summary Delete all data in dependency order
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/clear [post]
func (h *AdminHandler) Clear(c *gin.Context) {
	report, err := h.admin.Clear(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export the dataset
// @Tags Admin
// @Produce json
// @Param format query string false "json, csv or pdf" default(json)
// @Success 200 {object} response.Envelope
// @Router /admin/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	switch c.DefaultQuery("format", "json") {
	case "json":
		payload, err := h.admin.ExportJSON(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, payload, nil)
	case "csv":
		data, err := h.admin.ExportCSV(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="registrations.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.admin.ExportPDF(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="summary.pdf"`)
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
	}
}
