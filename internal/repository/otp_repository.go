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

const otpColumns = `id, name, email, code, purpose, expires_at, created_at`

// OTPRepository stores pending email verification codes.
type OTPRepository struct {
	db *sqlx.DB
}

// NewOTPRepository creates a new instance of OTPRepository.
func NewOTPRepository(db *sqlx.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create inserts a new code.
func (r *OTPRepository) Create(ctx context.Context, otp *models.OTP) error {
	if otp.ID == "" {
		otp.ID = uuid.NewString()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO otps (id, name, email, code, purpose, expires_at, created_at)
		VALUES (:id, :name, :email, :code, :purpose, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, otp); err != nil {
		return fmt.Errorf("create otp: %w", err)
	}
	return nil
}

// FindActive returns the newest unexpired code of an email for a purpose.
func (r *OTPRepository) FindActive(ctx context.Context, email string, purpose models.OTPPurpose, now time.Time) (*models.OTP, error) {
	query := fmt.Sprintf(`SELECT %s FROM otps WHERE email = $1 AND purpose = $2 AND expires_at > $3 ORDER BY created_at DESC LIMIT 1`, otpColumns)
	var otp models.OTP
	if err := r.db.GetContext(ctx, &otp, query, email, purpose, now); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active otp: %w", err)
	}
	return &otp, nil
}

// FindLatestByEmail returns the newest code of an email for a purpose
// regardless of expiry, so callers can tell a missing code from a wrong
// or expired one.
func (r *OTPRepository) FindLatestByEmail(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTP, error) {
	query := fmt.Sprintf(`SELECT %s FROM otps WHERE email = $1 AND purpose = $2 ORDER BY created_at DESC LIMIT 1`, otpColumns)
	var otp models.OTP
	if err := r.db.GetContext(ctx, &otp, query, email, purpose); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find latest otp: %w", err)
	}
	return &otp, nil
}

// ListByPurpose returns pending codes newest first. Used by admins to
// inspect registration attempts that were never completed.
func (r *OTPRepository) ListByPurpose(ctx context.Context, purpose models.OTPPurpose) ([]models.OTP, error) {
	query := fmt.Sprintf(`SELECT %s FROM otps WHERE purpose = $1 ORDER BY created_at DESC`, otpColumns)
	var otps []models.OTP
	if err := r.db.SelectContext(ctx, &otps, query, purpose); err != nil {
		return nil, fmt.Errorf("list otps: %w", err)
	}
	return otps, nil
}

// DeleteByID removes a single code.
func (r *OTPRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return requireRowAffected(res)
}

// DeleteByEmail removes every code held for an email and purpose.
func (r *OTPRepository) DeleteByEmail(ctx context.Context, email string, purpose models.OTPPurpose) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE email = $1 AND purpose = $2`, email, purpose); err != nil {
		return fmt.Errorf("delete otps by email: %w", err)
	}
	return nil
}
