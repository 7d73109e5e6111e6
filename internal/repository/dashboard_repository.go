package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clab/student-portal-api/internal/dto"
	"github.com/clab/student-portal-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// CountUsers returns the total number of accounts.
func (r *DashboardRepository) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

// CountGrades returns the total number of grades.
func (r *DashboardRepository) CountGrades(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM grades`)
}

// CountCourses returns the total number of catalog courses.
func (r *DashboardRepository) CountCourses(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM courses`)
}

// CountOrders returns the total number of orders.
func (r *DashboardRepository) CountOrders(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM orders`)
}

// CountOrdersByStatus returns the number of orders in one workflow state.
func (r *DashboardRepository) CountOrdersByStatus(ctx context.Context, status models.OrderStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM orders WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("count orders by status: %w", err)
	}
	return count, nil
}

// UsersByGrade returns the per-grade account counts, ordered by grade name.
func (r *DashboardRepository) UsersByGrade(ctx context.Context) ([]dto.GradeUserCount, error) {
	const query = `SELECT g.name AS grade, COUNT(u.id) AS total
		FROM grades g
		LEFT JOIN users u ON u.grade_id = g.id
		GROUP BY g.name
		ORDER BY g.name ASC`
	var rows []dto.GradeUserCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("users by grade: %w", err)
	}
	return rows, nil
}

// SumPayments returns the all-time tuition payment total.
func (r *DashboardRepository) SumPayments(ctx context.Context) (float64, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments`)
}

// SumPaymentsBetween returns the tuition total whose payment date falls
// in [from, to).
func (r *DashboardRepository) SumPaymentsBetween(ctx context.Context, from, to time.Time) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE payment_date >= $1 AND payment_date < $2`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, from, to); err != nil {
		return 0, fmt.Errorf("sum payments between: %w", err)
	}
	return total, nil
}

// SumApprovedOrderSales returns the course-price total of approved orders.
func (r *DashboardRepository) SumApprovedOrderSales(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(c.price), 0)
		FROM orders o
		JOIN courses c ON c.id = o.course_id
		WHERE o.status = $1`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, models.OrderApproved); err != nil {
		return 0, fmt.Errorf("sum approved order sales: %w", err)
	}
	return total, nil
}

func (r *DashboardRepository) count(ctx context.Context, query string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("dashboard count: %w", err)
	}
	return count, nil
}

func (r *DashboardRepository) sum(ctx context.Context, query string) (float64, error) {
	var total float64
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("dashboard sum: %w", err)
	}
	return total, nil
}
