package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/clab/student-portal-api/internal/dto"
	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardRepository interface {
	CountUsers(ctx context.Context) (int, error)
	CountGrades(ctx context.Context) (int, error)
	CountCourses(ctx context.Context) (int, error)
	CountOrders(ctx context.Context) (int, error)
	CountOrdersByStatus(ctx context.Context, status models.OrderStatus) (int, error)
	UsersByGrade(ctx context.Context) ([]dto.GradeUserCount, error)
	SumPayments(ctx context.Context) (float64, error)
	SumPaymentsBetween(ctx context.Context, from, to time.Time) (float64, error)
	SumApprovedOrderSales(ctx context.Context) (float64, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// DashboardService composes the admin reporting aggregates. The result
// is cached briefly since every admin page load hits it.
type DashboardService struct {
	repo     dashboardRepository
	cache    dashboardCache
	logger   *zap.Logger
	location *time.Location
	cacheTTL time.Duration

	now func() time.Time
}

// NewDashboardService constructs a DashboardService instance. A nil
// cache disables caching.
func NewDashboardService(repo dashboardRepository, cache dashboardCache, logger *zap.Logger, location *time.Location, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &DashboardService{
		repo:     repo,
		cache:    cache,
		logger:   logger,
		location: location,
		cacheTTL: cacheTTL,
		now:      func() time.Time { return time.Now() },
	}
}

// Summary builds the dashboard payload, serving from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardResponse, error) {
	if s.cache != nil {
		var cached dto.DashboardResponse
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	resp := &dto.DashboardResponse{}
	var err error

	if resp.TotalUsers, err = s.repo.CountUsers(ctx); err != nil {
		return nil, s.fail(err, "failed to count users")
	}
	if resp.TotalGrades, err = s.repo.CountGrades(ctx); err != nil {
		return nil, s.fail(err, "failed to count grades")
	}
	if resp.TotalCourses, err = s.repo.CountCourses(ctx); err != nil {
		return nil, s.fail(err, "failed to count courses")
	}
	if resp.TotalOrders, err = s.repo.CountOrders(ctx); err != nil {
		return nil, s.fail(err, "failed to count orders")
	}
	if resp.ApprovedOrders, err = s.repo.CountOrdersByStatus(ctx, models.OrderApproved); err != nil {
		return nil, s.fail(err, "failed to count approved orders")
	}
	if resp.PendingOrders, err = s.repo.CountOrdersByStatus(ctx, models.OrderPending); err != nil {
		return nil, s.fail(err, "failed to count pending orders")
	}
	if resp.CanceledOrders, err = s.repo.CountOrdersByStatus(ctx, models.OrderCanceled); err != nil {
		return nil, s.fail(err, "failed to count canceled orders")
	}
	if resp.UsersByGrade, err = s.repo.UsersByGrade(ctx); err != nil {
		return nil, s.fail(err, "failed to break down users by grade")
	}
	if resp.TotalPayments, err = s.repo.SumPayments(ctx); err != nil {
		return nil, s.fail(err, "failed to sum payments")
	}

	// Month boundaries are computed in the configured timezone so a
	// payment at 23:30 local on the 31st stays in the local month.
	now := s.now().In(s.location)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location)
	monthEnd := monthStart.AddDate(0, 1, 0)
	resp.CurrentMonth = now.Format("January 2006")
	if resp.CurrentMonthPayment, err = s.repo.SumPaymentsBetween(ctx, monthStart, monthEnd); err != nil {
		return nil, s.fail(err, "failed to sum current month payments")
	}

	if resp.OrderSellTotal, err = s.repo.SumApprovedOrderSales(ctx); err != nil {
		return nil, s.fail(err, "failed to sum order sales")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}

	return resp, nil
}

// Invalidate drops the cached summary.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) fail(err error, msg string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
}
