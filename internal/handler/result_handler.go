package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clab/student-portal-api/internal/models"
	"github.com/clab/student-portal-api/internal/service"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/response"
)

// ResultHandler wires the exam result endpoints.
type ResultHandler struct {
	service *service.ResultService
	users   userLoader
}

// NewResultHandler creates a new handler.
func NewResultHandler(svc *service.ResultService, users userLoader) *ResultHandler {
	return &ResultHandler{service: svc, users: users}
}

// Create godoc
// @Summary Record a result sheet
// @Tags Results
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ResultRequest true "Result payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /result/create-result [post]
func (h *ResultHandler) Create(c *gin.Context) {
	var req models.ResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid result payload"))
		return
	}

	result, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "result recorded", result)
}

// Update godoc
// @Summary Update a result sheet
// @Tags Results
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Result id"
// @Param payload body models.UpdateResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /result/update-result/{id} [put]
func (h *ResultHandler) Update(c *gin.Context) {
	var req models.UpdateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid result payload"))
		return
	}

	result, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "result updated", result)
}

// List godoc
// @Summary List every result sheet
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /result/all-result [get]
func (h *ResultHandler) List(c *gin.Context) {
	results, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", results)
}

// ListMine godoc
// @Summary List the caller's result sheets
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /result/user-result [get]
func (h *ResultHandler) ListMine(c *gin.Context) {
	user, err := loadCurrentUser(c, h.users)
	if err != nil {
		response.Error(c, err)
		return
	}

	results, err := h.service.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", results)
}

// Delete godoc
// @Summary Delete a result sheet
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param id path string true "Result id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /result/delete-result/{id} [delete]
func (h *ResultHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "result deleted", nil)
}

// Export godoc
// @Summary Export results as CSV or PDF
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /result/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	out, contentType, err := h.service.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("results-%s.%s", time.Now().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, out)
}
