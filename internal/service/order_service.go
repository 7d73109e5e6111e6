package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
)

type orderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	List(ctx context.Context) ([]models.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
	FindByID(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	Delete(ctx context.Context, id string) error
}

type orderCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Course, error)
}

type orderUserRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// OrderService manages course purchases and their approval workflow.
type OrderService struct {
	orders    orderRepository
	courses   orderCourseRepository
	users     orderUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOrderService constructs an OrderService instance.
func NewOrderService(orders orderRepository, courses orderCourseRepository, users orderUserRepository, validate *validator.Validate, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &OrderService{orders: orders, courses: courses, users: users, validator: validate, logger: logger}
}

// Create places an order for the calling student. New orders always
// start Pending; only an admin moves them on.
func (s *OrderService) Create(ctx context.Context, buyer *models.User, req models.CreateOrderRequest) (*models.Order, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid order payload")
	}
	if buyer.Disabled() {
		return nil, appErrors.ErrAccountDisabled
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	order := &models.Order{
		CourseID:      course.ID,
		Method:        req.Method,
		AccountNumber: req.AccountNumber,
		TrxID:         req.TrxID,
		Status:        models.OrderPending,
		BuyerID:       buyer.ID,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "transaction id already used")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create order")
	}
	order.Course = course
	return order, nil
}

// List returns every order with courses and buyers attached (admin).
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orders")
	}
	if err := s.attach(ctx, orders, true); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListMine returns the calling student's orders with courses attached.
func (s *OrderService) ListMine(ctx context.Context, buyerID string) ([]models.Order, error) {
	orders, err := s.orders.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orders")
	}
	if err := s.attach(ctx, orders, false); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus approves or cancels an order.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, req models.UpdateOrderStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid order status payload")
	}

	if err := s.orders.UpdateStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update order status")
	}
	return nil
}

// Delete removes an order.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete order")
	}
	return nil
}

func (s *OrderService) attach(ctx context.Context, orders []models.Order, withBuyers bool) error {
	courseIDs := make([]string, 0, len(orders))
	buyerIDs := make([]string, 0, len(orders))
	seenCourse := make(map[string]bool, len(orders))
	seenBuyer := make(map[string]bool, len(orders))
	for _, o := range orders {
		if !seenCourse[o.CourseID] {
			seenCourse[o.CourseID] = true
			courseIDs = append(courseIDs, o.CourseID)
		}
		if withBuyers && !seenBuyer[o.BuyerID] {
			seenBuyer[o.BuyerID] = true
			buyerIDs = append(buyerIDs, o.BuyerID)
		}
	}

	courses, err := s.courses.ListByIDs(ctx, courseIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	courseByID := make(map[string]*models.Course, len(courses))
	for i := range courses {
		courseByID[courses[i].ID] = &courses[i]
	}

	var buyerByID map[string]*models.User
	if withBuyers {
		buyers, err := s.users.ListByIDs(ctx, buyerIDs)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load buyers")
		}
		buyerByID = make(map[string]*models.User, len(buyers))
		for i := range buyers {
			buyerByID[buyers[i].ID] = &buyers[i]
		}
	}

	for i := range orders {
		orders[i].Course = courseByID[orders[i].CourseID]
		if withBuyers {
			orders[i].Buyer = buyerByID[orders[i].BuyerID]
		}
	}
	return nil
}
