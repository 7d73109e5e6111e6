package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clab/student-portal-api/internal/models"
)

func TestDashboardCountOrdersByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE status = $1`)).
		WithArgs(string(models.OrderApproved)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountOrdersByStatus(context.Background(), models.OrderApproved)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestDashboardUsersByGrade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	rows := sqlmock.NewRows([]string{"grade", "total"}).
		AddRow("Class Nine", 50).
		AddRow("Class Ten", 0)
	mock.ExpectQuery("SELECT g.name AS grade, COUNT").WillReturnRows(rows)

	out, err := repo.UsersByGrade(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Class Nine", out[0].Grade)
	assert.Equal(t, 0, out[1].Total)
}

func TestDashboardSumPaymentsBetween(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	from := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE payment_date >= $1 AND payment_date < $2`)).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(42000.0))

	total, err := repo.SumPaymentsBetween(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 42000.0, total)
}

func TestDashboardSumApprovedOrderSales(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(string(models.OrderApproved)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(18000.0))

	total, err := repo.SumApprovedOrderSales(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 18000.0, total)
}
