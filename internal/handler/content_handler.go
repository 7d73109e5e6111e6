package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clab/student-portal-api/internal/models"
	"github.com/clab/student-portal-api/internal/service"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/response"
)

// ContentHandler wires the study-material endpoints.
type ContentHandler struct {
	service *service.ContentService
	users   userLoader
}

// NewContentHandler creates a new handler.
func NewContentHandler(svc *service.ContentService, users userLoader) *ContentHandler {
	return &ContentHandler{service: svc, users: users}
}

// Create godoc
// @Summary Create a content entry
// @Tags Contents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ContentRequest true "Content payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /content/create-content [post]
func (h *ContentHandler) Create(c *gin.Context) {
	var req models.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid content payload"))
		return
	}

	content, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "content created", content)
}

// Update godoc
// @Summary Update a content entry
// @Tags Contents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Content id"
// @Param payload body models.ContentRequest true "Content payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/update-content/{id} [put]
func (h *ContentHandler) Update(c *gin.Context) {
	var req models.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid content payload"))
		return
	}

	content, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "content updated", content)
}

// List godoc
// @Summary List every content entry
// @Tags Contents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /content/all-content [get]
func (h *ContentHandler) List(c *gin.Context) {
	contents, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", contents)
}

// ListMine godoc
// @Summary List the caller's grade content
// @Tags Contents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /content/user-content [get]
func (h *ContentHandler) ListMine(c *gin.Context) {
	user, err := loadCurrentUser(c, h.users)
	if err != nil {
		response.Error(c, err)
		return
	}

	contents, err := h.service.ListForUser(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", contents)
}

// Delete godoc
// @Summary Delete a content entry
// @Tags Contents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Content id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/delete-content/{id} [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "content deleted", nil)
}
