package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/unireg-api/internal/service"
	appErrors "github.com/campusops/unireg-api/pkg/errors"
	"github.com/campusops/unireg-api/pkg/response"
)

// RegistrationHandler exposes registration endpoints.
type RegistrationHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// List godoc
// @Summary List registrations with student and course context
// @Tags Registrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	regs, err := h.registrations.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, nil)
}

// Get godoc
// @Summary Get registration by id
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration id"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	reg, err := h.registrations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}

// ByStudent godoc
// @Summary List registrations for a student
// @Tags Registrations
// @Produce json
// @Param studentId path string true "Student system id"
// @Success 200 {object} response.Envelope
// @Router /registrations/student/{studentId} [get]
func (h *RegistrationHandler) ByStudent(c *gin.Context) {
	regs, err := h.registrations.ByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, nil)
}

// ByCourse godoc
// @Summary List registrations for a course
// @Tags Registrations
// @Produce json
// @Param courseId path string true "Course system id"
// @Success 200 {object} response.Envelope
// @Router /registrations/course/{courseId} [get]
func (h *RegistrationHandler) ByCourse(c *gin.Context) {
	regs, err := h.registrations.ByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, nil)
}

// Check godoc
// @Summary Check whether an active registration exists for a pair
// @Tags Registrations
// @Produce json
// @Param studentId path string true "Student system id"
// @Param courseId path string true "Course system id"
// @Success 200 {object} response.Envelope
// @Router /registrations/check/{studentId}/{courseId} [get]
func (h *RegistrationHandler) Check(c *gin.Context) {
	check, err := h.registrations.Check(c.Request.Context(), c.Param("studentId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}

// Create godoc
// @Summary Register a student to a course
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.CreateRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req service.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reg, err := h.registrations.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reg)
}

// Update godoc
// @Summary Update registration status or result
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration id"
// @Param payload body service.UpdateRegistrationRequest true "Registration payload"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id} [put]
func (h *RegistrationHandler) Update(c *gin.Context) {
	var req service.UpdateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reg, err := h.registrations.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}

// Delete godoc
// @Summary Delete registration
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration id"
// @Success 204
// @Router /registrations/{id} [delete]
func (h *RegistrationHandler) Delete(c *gin.Context) {
	if err := h.registrations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
