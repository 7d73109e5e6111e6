package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
)

type mockOrderRepo struct {
	orders    []models.Order
	created   *models.Order
	createErr error
	statusSet models.OrderStatus
}

func (m *mockOrderRepo) Create(ctx context.Context, order *models.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	order.ID = "o-new"
	m.created = order
	return nil
}

func (m *mockOrderRepo) List(ctx context.Context) ([]models.Order, error) {
	return m.orders, nil
}

func (m *mockOrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id string) (*models.Order, error) {
	for i := range m.orders {
		if m.orders[i].ID == id {
			return &m.orders[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	for _, o := range m.orders {
		if o.ID == id {
			m.statusSet = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockOrderRepo) Delete(ctx context.Context, id string) error { return nil }

type mockOrderCourses struct {
	courses map[string]*models.Course
}

func (m *mockOrderCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockOrderCourses) ListByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	var out []models.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

type mockOrderUsers struct {
	users map[string]*models.User
}

func (m *mockOrderUsers) ListByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func newOrderFixture(repo *mockOrderRepo) *OrderService {
	courses := &mockOrderCourses{courses: map[string]*models.Course{
		"c1": {ID: "c1", Title: "Admission Math", Price: 2000},
	}}
	users := &mockOrderUsers{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Rahim"},
	}}
	return NewOrderService(repo, courses, users, validator.New(), zap.NewNop())
}

func TestOrderCreateStartsPending(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newOrderFixture(repo)
	buyer := &models.User{ID: "u1", Status: models.StatusEnabled}

	order, err := svc.Create(context.Background(), buyer, models.CreateOrderRequest{
		CourseID: "c1", Method: models.OrderMethodBkash, AccountNumber: "01700000000", TrxID: "TRX1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "u1", order.BuyerID)
	require.NotNil(t, order.Course)
	assert.Equal(t, "Admission Math", order.Course.Title)
}

func TestOrderCreateDisabledBuyer(t *testing.T) {
	svc := newOrderFixture(&mockOrderRepo{})
	buyer := &models.User{ID: "u1", Status: models.StatusDisabled}

	_, err := svc.Create(context.Background(), buyer, models.CreateOrderRequest{
		CourseID: "c1", Method: models.OrderMethodBkash, AccountNumber: "01700000000", TrxID: "TRX1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccountDisabled.Code, appErrors.FromError(err).Code)
}

func TestOrderCreateDuplicateTrx(t *testing.T) {
	repo := &mockOrderRepo{createErr: &pq.Error{Code: "23505"}}
	svc := newOrderFixture(repo)
	buyer := &models.User{ID: "u1", Status: models.StatusEnabled}

	_, err := svc.Create(context.Background(), buyer, models.CreateOrderRequest{
		CourseID: "c1", Method: models.OrderMethodBkash, AccountNumber: "01700000000", TrxID: "TRX1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestOrderCreateUnknownCourse(t *testing.T) {
	svc := newOrderFixture(&mockOrderRepo{})
	buyer := &models.User{ID: "u1", Status: models.StatusEnabled}

	_, err := svc.Create(context.Background(), buyer, models.CreateOrderRequest{
		CourseID: "missing", Method: models.OrderMethodBkash, AccountNumber: "01700000000", TrxID: "TRX1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOrderListAttachesBuyers(t *testing.T) {
	repo := &mockOrderRepo{orders: []models.Order{
		{ID: "o1", CourseID: "c1", BuyerID: "u1", Status: models.OrderPending},
	}}
	svc := newOrderFixture(repo)

	orders, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.NotNil(t, orders[0].Buyer)
	assert.Equal(t, "Rahim", orders[0].Buyer.Name)
	require.NotNil(t, orders[0].Course)
}

func TestOrderListMineSkipsBuyers(t *testing.T) {
	repo := &mockOrderRepo{orders: []models.Order{
		{ID: "o1", CourseID: "c1", BuyerID: "u1", Status: models.OrderApproved},
		{ID: "o2", CourseID: "c1", BuyerID: "u2", Status: models.OrderPending},
	}}
	svc := newOrderFixture(repo)

	orders, err := svc.ListMine(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Nil(t, orders[0].Buyer)
	require.NotNil(t, orders[0].Course)
}

func TestOrderUpdateStatus(t *testing.T) {
	repo := &mockOrderRepo{orders: []models.Order{
		{ID: "o1", CourseID: "c1", BuyerID: "u1", Status: models.OrderPending},
	}}
	svc := newOrderFixture(repo)

	err := svc.UpdateStatus(context.Background(), "o1", models.UpdateOrderStatusRequest{Status: models.OrderApproved})
	require.NoError(t, err)
	assert.Equal(t, models.OrderApproved, repo.statusSet)
}

func TestOrderUpdateStatusUnknown(t *testing.T) {
	svc := newOrderFixture(&mockOrderRepo{})

	err := svc.UpdateStatus(context.Background(), "missing", models.UpdateOrderStatusRequest{Status: models.OrderCanceled})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
