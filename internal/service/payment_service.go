package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/export"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	List(ctx context.Context) ([]models.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Payment, error)
	ListTrxIDsByPrefix(ctx context.Context, prefix string) ([]string, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Delete(ctx context.Context, id string) error
}

type paymentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type paymentGradeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Grade, error)
}

// PaymentService manages tuition payment records and trx-id allocation.
type PaymentService struct {
	payments  paymentRepository
	users     paymentUserRepository
	grades    paymentGradeRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location

	now func() time.Time
}

// NewPaymentService constructs a PaymentService instance.
func NewPaymentService(payments paymentRepository, users paymentUserRepository, grades paymentGradeRepository, validate *validator.Validate, logger *zap.Logger, location *time.Location) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if location == nil {
		location = time.UTC
	}
	return &PaymentService{
		payments:  payments,
		users:     users,
		grades:    grades,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		location:  location,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create records a tuition payment.
func (s *PaymentService) Create(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	grade, err := s.grades.FindByID(ctx, req.GradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	payment := &models.Payment{
		Remark:      req.Remark,
		TrxID:       req.TrxID,
		Method:      req.Method,
		Amount:      req.Amount,
		PaymentDate: req.PaymentDate,
		UserID:      user.ID,
		GradeID:     grade.ID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		if isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "transaction id already used")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	payment.User = user
	payment.Grade = grade
	return payment, nil
}

// Update rewrites a payment's mutable fields.
func (s *PaymentService) Update(ctx context.Context, id string, req models.UpdatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	payment.Remark = req.Remark
	payment.TrxID = req.TrxID
	payment.Method = req.Method
	payment.Amount = req.Amount
	payment.PaymentDate = req.PaymentDate

	if err := s.payments.Update(ctx, payment); err != nil {
		if isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "transaction id already used")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}
	return payment, nil
}

// List returns every payment with users and grades attached (admin).
func (s *PaymentService) List(ctx context.Context) ([]models.Payment, error) {
	payments, err := s.payments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	if err := s.attach(ctx, payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// ListMine returns the calling student's payments.
func (s *PaymentService) ListMine(ctx context.Context, userID string) ([]models.Payment, error) {
	payments, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// Delete removes a payment record.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	if err := s.payments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	return nil
}

// GenerateTrxID allocates the next transaction id for a grade. The
// prefix is month abbreviation + two-digit year + grade code, the
// suffix a two-digit serial that wraps from 99 back to 1. Allocation
// is advisory: the unique index on payments.trx_id is what actually
// guards against a racing duplicate.
func (s *PaymentService) GenerateTrxID(ctx context.Context, req models.TrxGenRequest) (*models.TrxGenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trx-gen payload")
	}

	grade, err := s.grades.FindByID(ctx, req.GradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	now := s.now().In(s.location)
	prefix := strings.ToUpper(now.Format("Jan")) + now.Format("06") + gradeCode(grade.Name)

	existing, err := s.payments.ListTrxIDsByPrefix(ctx, prefix)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan transaction ids")
	}

	highest := 0
	for _, id := range existing {
		suffix := strings.TrimPrefix(id, prefix)
		if n, err := strconv.Atoi(suffix); err == nil && n > highest {
			highest = n
		}
	}
	serial := highest + 1
	if serial > 99 {
		serial = 1
	}

	return &models.TrxGenResponse{TrxID: fmt.Sprintf("%s%02d", prefix, serial)}, nil
}

// Export renders every payment as CSV or PDF.
func (s *PaymentService) Export(ctx context.Context, format string) ([]byte, string, error) {
	payments, err := s.List(ctx)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"Date", "Student", "Grade", "Remark", "Method", "Trx ID", "Amount"},
	}
	for _, p := range payments {
		row := map[string]string{
			"Date":   p.PaymentDate.In(s.location).Format("2006-01-02"),
			"Remark": p.Remark,
			"Method": string(p.Method),
			"Trx ID": p.TrxID,
			"Amount": strconv.FormatFloat(p.Amount, 'f', 2, 64),
		}
		if p.User != nil {
			row["Student"] = p.User.Name
		}
		if p.Grade != nil {
			row["Grade"] = p.Grade.Name
		}
		data.Rows = append(data.Rows, row)
	}

	switch format {
	case "pdf":
		out, err := s.pdf.Render(data, "Payment Report")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return out, "application/pdf", nil
	case "", "csv":
		out, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return out, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *PaymentService) attach(ctx context.Context, payments []models.Payment) error {
	userIDs := make([]string, 0, len(payments))
	gradeIDs := make([]string, 0, len(payments))
	seenUser := make(map[string]bool, len(payments))
	seenGrade := make(map[string]bool, len(payments))
	for _, p := range payments {
		if !seenUser[p.UserID] {
			seenUser[p.UserID] = true
			userIDs = append(userIDs, p.UserID)
		}
		if !seenGrade[p.GradeID] {
			seenGrade[p.GradeID] = true
			gradeIDs = append(gradeIDs, p.GradeID)
		}
	}

	users, err := s.users.ListByIDs(ctx, userIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}
	grades, err := s.grades.ListByIDs(ctx, gradeIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	userByID := make(map[string]*models.User, len(users))
	for i := range users {
		userByID[users[i].ID] = &users[i]
	}
	gradeByID := make(map[string]*models.Grade, len(grades))
	for i := range grades {
		gradeByID[grades[i].ID] = &grades[i]
	}
	for i := range payments {
		payments[i].User = userByID[payments[i].UserID]
		payments[i].Grade = gradeByID[payments[i].GradeID]
	}
	return nil
}

// gradeCode derives the short alphabetic code used in transaction ids:
// first letter of the first word plus the first two letters of the
// second word for multi-word names ("Class Ten" -> CTE), otherwise the
// first three letters.
func gradeCode(name string) string {
	words := strings.Fields(strings.ToUpper(name))
	switch {
	case len(words) == 0:
		return ""
	case len(words) >= 2:
		// Slice by runes so multi-byte grade names keep whole letters.
		first := []rune(words[0])
		second := []rune(words[1])
		if len(second) > 2 {
			second = second[:2]
		}
		return string(first[:1]) + string(second)
	default:
		word := []rune(words[0])
		if len(word) > 3 {
			word = word[:3]
		}
		return string(word)
	}
}
