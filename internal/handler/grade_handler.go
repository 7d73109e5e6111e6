package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clab/student-portal-api/internal/models"
	"github.com/clab/student-portal-api/internal/service"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/response"
)

// GradeHandler wires the grade management endpoints.
type GradeHandler struct {
	service *service.GradeService
}

// NewGradeHandler creates a new handler.
func NewGradeHandler(svc *service.GradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// Create godoc
// @Summary Create a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grade/create-grade [post]
func (h *GradeHandler) Create(c *gin.Context) {
	var req models.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}

	grade, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "grade created", grade)
}

// Update godoc
// @Summary Rename a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grade id"
// @Param payload body models.CreateGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grade/update-grade/{id} [put]
func (h *GradeHandler) Update(c *gin.Context) {
	var req models.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}

	grade, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "grade updated", grade)
}

// List godoc
// @Summary List grades
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade/all-grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	grades, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", grades)
}

// GetBySlug godoc
// @Summary Get one grade by slug
// @Tags Grades
// @Produce json
// @Param slug path string true "Grade slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grade/single-grade/{slug} [get]
func (h *GradeHandler) GetBySlug(c *gin.Context) {
	grade, err := h.service.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", grade)
}

// Delete godoc
// @Summary Delete a grade and everything scoped to it
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grade id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grade/delete-grade/{id} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "grade deleted", nil)
}
