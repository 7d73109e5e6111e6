package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clab/student-portal-api/internal/models"
	"github.com/clab/student-portal-api/internal/service"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/response"
)

// CourseHandler wires the course catalog endpoints.
type CourseHandler struct {
	service *service.CourseService
}

// NewCourseHandler creates a new handler.
func NewCourseHandler(svc *service.CourseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

func courseInputFromForm(c *gin.Context) (models.CourseInput, error) {
	price, err := strconv.ParseFloat(c.PostForm("price"), 64)
	if err != nil {
		return models.CourseInput{}, appErrors.Clone(appErrors.ErrValidation, "price must be a number")
	}
	return models.CourseInput{
		Title:       c.PostForm("title"),
		GradeID:     c.PostForm("grade_id"),
		Price:       price,
		DateRange:   c.PostForm("date_range"),
		Description: c.PostForm("description"),
		Status:      models.CourseStatus(c.PostForm("status")),
	}, nil
}

// Create godoc
// @Summary Create a course
// @Description Multipart create with a required banner image
// @Tags Courses
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /course/create-course [post]
func (h *CourseHandler) Create(c *gin.Context) {
	input, err := courseInputFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := openFormFile(c, "banner")
	if err != nil {
		response.Error(c, err)
		return
	}
	var banner io.Reader
	if file != nil {
		defer file.Close()
		banner = file
	}

	course, err := h.service.Create(c.Request.Context(), input, banner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "course created", course)
}

// Update godoc
// @Summary Update a course
// @Description Multipart update; omitting the banner keeps the current image
// @Tags Courses
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /course/update-course/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	input, err := courseInputFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := openFormFile(c, "banner")
	if err != nil {
		response.Error(c, err)
		return
	}
	var banner io.Reader
	if file != nil {
		defer file.Close()
		banner = file
	}

	course, err := h.service.Update(c.Request.Context(), c.Param("id"), input, banner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "course updated", course)
}

// List godoc
// @Summary List the whole catalog
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /course/all-courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", courses)
}

// ListByGrade godoc
// @Summary List a grade's courses by grade slug
// @Tags Courses
// @Produce json
// @Param slug path string true "Grade slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /course/grade-course/{slug} [get]
func (h *CourseHandler) ListByGrade(c *gin.Context) {
	courses, err := h.service.ListByGradeSlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", courses)
}

// GetBySlug godoc
// @Summary Get one course by slug
// @Tags Courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /course/get-course/{slug} [get]
func (h *CourseHandler) GetBySlug(c *gin.Context) {
	course, err := h.service.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", course)
}

// Related godoc
// @Summary List a grade's other courses
// @Tags Courses
// @Produce json
// @Param cid path string true "Course id to exclude"
// @Param gid path string true "Grade id"
// @Success 200 {object} response.Envelope
// @Router /course/related-course/{cid}/{gid} [get]
func (h *CourseHandler) Related(c *gin.Context) {
	courses, err := h.service.Related(c.Request.Context(), c.Param("cid"), c.Param("gid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", courses)
}

// Delete godoc
// @Summary Delete a course, its orders and banner
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /course/delete-course/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "course deleted", nil)
}
