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

type resultRepository interface {
	Create(ctx context.Context, result *models.Result) error
	Update(ctx context.Context, result *models.Result) error
	List(ctx context.Context) ([]models.Result, error)
	ListByUser(ctx context.Context, userID string) ([]models.Result, error)
	FindByID(ctx context.Context, id string) (*models.Result, error)
	Delete(ctx context.Context, id string) error
}

type resultUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type resultGradeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Grade, error)
}

// ResultService manages exam result sheets.
type ResultService struct {
	results   resultRepository
	users     resultUserRepository
	grades    resultGradeRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
}

// NewResultService constructs a ResultService instance.
func NewResultService(results resultRepository, users resultUserRepository, grades resultGradeRepository, validate *validator.Validate, logger *zap.Logger, location *time.Location) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if location == nil {
		location = time.UTC
	}
	return &ResultService{
		results:   results,
		users:     users,
		grades:    grades,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		location:  location,
	}
}

// Create records an exam result sheet.
func (s *ResultService) Create(ctx context.Context, req models.ResultRequest) (*models.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
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

	result := &models.Result{
		ExamType: req.ExamType,
		Subjects: models.SubjectMarksList(req.Subjects),
		ExamDate: req.ExamDate,
		UserID:   user.ID,
		GradeID:  grade.ID,
	}
	if err := s.results.Create(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create result")
	}
	result.User = user
	result.Grade = grade
	return result, nil
}

// Update rewrites a result sheet's mutable fields.
func (s *ResultService) Update(ctx context.Context, id string, req models.UpdateResultRequest) (*models.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}

	result, err := s.results.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}

	result.ExamType = req.ExamType
	result.Subjects = models.SubjectMarksList(req.Subjects)
	result.ExamDate = req.ExamDate

	if err := s.results.Update(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update result")
	}
	return result, nil
}

// List returns every result sheet with users and grades attached (admin).
func (s *ResultService) List(ctx context.Context) ([]models.Result, error) {
	results, err := s.results.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	if err := s.attach(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

// ListMine returns the calling student's result sheets.
func (s *ResultService) ListMine(ctx context.Context, userID string) ([]models.Result, error) {
	results, err := s.results.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}

// Delete removes a result sheet.
func (s *ResultService) Delete(ctx context.Context, id string) error {
	if err := s.results.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete result")
	}
	return nil
}

// Export renders every result sheet as CSV or PDF. Subject marks are
// flattened into "subject:marks" pairs plus a computed total.
func (s *ResultService) Export(ctx context.Context, format string) ([]byte, string, error) {
	results, err := s.List(ctx)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"Exam Date", "Exam Type", "Student", "Grade", "Subjects", "Total"},
	}
	for _, r := range results {
		pairs := make([]string, 0, len(r.Subjects))
		total := 0.0
		for _, sm := range r.Subjects {
			pairs = append(pairs, fmt.Sprintf("%s:%s", sm.Subject, strconv.FormatFloat(sm.Marks, 'f', -1, 64)))
			total += sm.Marks
		}
		row := map[string]string{
			"Exam Date": r.ExamDate.In(s.location).Format("2006-01-02"),
			"Exam Type": r.ExamType,
			"Subjects":  strings.Join(pairs, ", "),
			"Total":     strconv.FormatFloat(total, 'f', -1, 64),
		}
		if r.User != nil {
			row["Student"] = r.User.Name
		}
		if r.Grade != nil {
			row["Grade"] = r.Grade.Name
		}
		data.Rows = append(data.Rows, row)
	}

	switch format {
	case "pdf":
		out, err := s.pdf.Render(data, "Result Report")
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

func (s *ResultService) attach(ctx context.Context, results []models.Result) error {
	userIDs := make([]string, 0, len(results))
	gradeIDs := make([]string, 0, len(results))
	seenUser := make(map[string]bool, len(results))
	seenGrade := make(map[string]bool, len(results))
	for _, r := range results {
		if !seenUser[r.UserID] {
			seenUser[r.UserID] = true
			userIDs = append(userIDs, r.UserID)
		}
		if !seenGrade[r.GradeID] {
			seenGrade[r.GradeID] = true
			gradeIDs = append(gradeIDs, r.GradeID)
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
	for i := range results {
		results[i].User = userByID[results[i].UserID]
		results[i].Grade = gradeByID[results[i].GradeID]
	}
	return nil
}
