package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clab/student-portal-api/internal/models"
	"github.com/clab/student-portal-api/internal/service"
	"github.com/clab/student-portal-api/pkg/response"
)

// NoticeHandler wires the announcement endpoints.
type NoticeHandler struct {
	service *service.NoticeService
	users   userLoader
}

// NewNoticeHandler creates a new handler.
func NewNoticeHandler(svc *service.NoticeService, users userLoader) *NoticeHandler {
	return &NoticeHandler{service: svc, users: users}
}

func noticeInputFromForm(c *gin.Context) models.NoticeInput {
	return models.NoticeInput{
		Title:   c.PostForm("title"),
		Body:    c.PostForm("body"),
		GradeID: c.PostForm("grade_id"),
	}
}

// Create godoc
// @Summary Publish a notice
// @Description Multipart create with an optional image; empty grade means broadcast
// @Tags Notices
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notice/create-notice [post]
func (h *NoticeHandler) Create(c *gin.Context) {
	file, err := openFormFile(c, "image")
	if err != nil {
		response.Error(c, err)
		return
	}
	var image io.Reader
	if file != nil {
		defer file.Close()
		image = file
	}

	notice, err := h.service.Create(c.Request.Context(), noticeInputFromForm(c), image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "notice created", notice)
}

// Update godoc
// @Summary Update a notice
// @Tags Notices
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notice/update-notice/{id} [put]
func (h *NoticeHandler) Update(c *gin.Context) {
	file, err := openFormFile(c, "image")
	if err != nil {
		response.Error(c, err)
		return
	}
	var image io.Reader
	if file != nil {
		defer file.Close()
		image = file
	}

	notice, err := h.service.Update(c.Request.Context(), c.Param("id"), noticeInputFromForm(c), image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "notice updated", notice)
}

// List godoc
// @Summary List every notice
// @Tags Notices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notice/all-notices [get]
func (h *NoticeHandler) List(c *gin.Context) {
	notices, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", notices)
}

// ListMine godoc
// @Summary List the caller's grade notices plus broadcasts
// @Tags Notices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notice/get-notice [get]
func (h *NoticeHandler) ListMine(c *gin.Context) {
	user, err := loadCurrentUser(c, h.users)
	if err != nil {
		response.Error(c, err)
		return
	}

	notices, err := h.service.ListForUser(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", notices)
}

// Delete godoc
// @Summary Delete a notice and its image
// @Tags Notices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notice/delete-notice/{id} [delete]
func (h *NoticeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "notice deleted", nil)
}
