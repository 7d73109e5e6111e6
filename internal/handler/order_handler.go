package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clab/student-portal-api/internal/models"
	"github.com/clab/student-portal-api/internal/service"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/response"
)

// OrderHandler wires the course purchase endpoints.
type OrderHandler struct {
	service    *service.OrderService
	users      userLoader
	dashboards dashboardInvalidator
}

// NewOrderHandler creates a new handler.
func NewOrderHandler(svc *service.OrderService, users userLoader, dashboards dashboardInvalidator) *OrderHandler {
	return &OrderHandler{service: svc, users: users, dashboards: dashboards}
}

func (h *OrderHandler) invalidateDashboard(c *gin.Context) {
	if h.dashboards != nil {
		h.dashboards.Invalidate(c.Request.Context())
	}
}

// Create godoc
// @Summary Place an order
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateOrderRequest true "Order payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /order/create-order [post]
func (h *OrderHandler) Create(c *gin.Context) {
	user, err := loadCurrentUser(c, h.users)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid order payload"))
		return
	}

	order, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateDashboard(c)
	response.Created(c, "order placed", order)
}

// List godoc
// @Summary List every order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /order/all-order [get]
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", orders)
}

// ListMine godoc
// @Summary List the caller's orders
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /order/user-order [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	orders, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", orders)
}

// UpdateStatus godoc
// @Summary Approve or cancel an order
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order id"
// @Param payload body models.UpdateOrderStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /order/order-status/{id} [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid order status payload"))
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateDashboard(c)
	response.JSON(c, http.StatusOK, "order status updated", nil)
}

// Delete godoc
// @Summary Delete an order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /order/delete-order/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateDashboard(c)
	response.JSON(c, http.StatusOK, "order deleted", nil)
}
