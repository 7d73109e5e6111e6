package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clab/student-portal-api/internal/models"
)

const paymentColumns = `id, remark, trx_id, method, amount, payment_date, user_id, grade_id, created_at, updated_at`

// PaymentRepository handles tuition payment persistence.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	const query = `INSERT INTO payments (id, remark, trx_id, method, amount, payment_date, user_id, grade_id, created_at, updated_at)
		VALUES (:id, :remark, :trx_id, :method, :amount, :payment_date, :user_id, :grade_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields; user and grade are fixed at create.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	payment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE payments SET remark = :remark, trx_id = :trx_id, method = :method, amount = :amount, payment_date = :payment_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

// List returns every payment, newest first.
func (r *PaymentRepository) List(ctx context.Context) ([]models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments ORDER BY created_at DESC`, paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// ListByUser returns one student's payments, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, fmt.Errorf("list payments by user: %w", err)
	}
	return payments, nil
}

// ListTrxIDsByPrefix returns the transaction ids starting with a prefix.
// Serial allocation scans these for the highest used suffix.
func (r *PaymentRepository) ListTrxIDsByPrefix(ctx context.Context, prefix string) ([]string, error) {
	const query = `SELECT trx_id FROM payments WHERE trx_id LIKE $1 || '%'`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, prefix); err != nil {
		return nil, fmt.Errorf("list trx ids by prefix: %w", err)
	}
	return ids, nil
}

// FindByID returns a payment by identifier.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1 LIMIT 1`, paymentColumns)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment by id: %w", err)
	}
	return &payment, nil
}

// Delete removes a payment.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return requireRowAffected(res)
}
