package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
)

type mockNoticeRepo struct {
	notices   []models.Notice
	created   *models.Notice
	createErr error
	updateErr error
	deleted   []string
}

func (m *mockNoticeRepo) Create(ctx context.Context, notice *models.Notice) error {
	if m.createErr != nil {
		return m.createErr
	}
	notice.ID = "n-new"
	m.created = notice
	return nil
}

func (m *mockNoticeRepo) Update(ctx context.Context, notice *models.Notice) error {
	return m.updateErr
}

func (m *mockNoticeRepo) List(ctx context.Context) ([]models.Notice, error) {
	return m.notices, nil
}

func (m *mockNoticeRepo) ListForGrade(ctx context.Context, gradeID string) ([]models.Notice, error) {
	var out []models.Notice
	for _, n := range m.notices {
		if n.GradeID == nil || *n.GradeID == gradeID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNoticeRepo) FindByID(ctx context.Context, id string) (*models.Notice, error) {
	for i := range m.notices {
		if m.notices[i].ID == id {
			return &m.notices[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockNoticeRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func newNoticeFixture(repo *mockNoticeRepo, store *mockMediaStore) *NoticeService {
	grades := &mockPaymentGrades{grades: map[string]*models.Grade{
		"g1": {ID: "g1", Name: "Class Ten", Slug: "class-ten"},
	}}
	return NewNoticeService(repo, grades, store, validator.New(), zap.NewNop())
}

func TestNoticeCreateBroadcast(t *testing.T) {
	repo := &mockNoticeRepo{}
	svc := newNoticeFixture(repo, &mockMediaStore{})

	notice, err := svc.Create(context.Background(), models.NoticeInput{
		Title: "Holiday", Body: "Closed on Sunday", GradeID: "",
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, notice.GradeID)
	assert.Nil(t, notice.Grade)
}

func TestNoticeCreateLiteralNullBroadcast(t *testing.T) {
	repo := &mockNoticeRepo{}
	svc := newNoticeFixture(repo, &mockMediaStore{})

	notice, err := svc.Create(context.Background(), models.NoticeInput{
		Title: "Holiday", Body: "Closed on Sunday", GradeID: "null",
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, notice.GradeID)
}

func TestNoticeCreateScopedToGrade(t *testing.T) {
	repo := &mockNoticeRepo{}
	svc := newNoticeFixture(repo, &mockMediaStore{})

	notice, err := svc.Create(context.Background(), models.NoticeInput{
		Title: "Exam routine", Body: "Starts Monday", GradeID: "g1",
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, notice.GradeID)
	assert.Equal(t, "g1", *notice.GradeID)
	require.NotNil(t, notice.Grade)
	assert.Equal(t, "Class Ten", notice.Grade.Name)
}

func TestNoticeCreateUnknownGrade(t *testing.T) {
	svc := newNoticeFixture(&mockNoticeRepo{}, &mockMediaStore{})

	_, err := svc.Create(context.Background(), models.NoticeInput{
		Title: "Exam routine", Body: "Starts Monday", GradeID: "missing",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNoticeCreateWithImage(t *testing.T) {
	repo := &mockNoticeRepo{}
	store := &mockMediaStore{}
	svc := newNoticeFixture(repo, store)

	notice, err := svc.Create(context.Background(), models.NoticeInput{
		Title: "Exam routine", Body: "Starts Monday", GradeID: "g1",
	}, strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.uploads)
	assert.Equal(t, "notices/new", notice.ImagePublicID)
}

func TestNoticeListForUserIncludesBroadcasts(t *testing.T) {
	g1 := "g1"
	g2 := "g2"
	repo := &mockNoticeRepo{notices: []models.Notice{
		{ID: "n1", Title: "For class ten", GradeID: &g1},
		{ID: "n2", Title: "For class nine", GradeID: &g2},
		{ID: "n3", Title: "For everyone"},
	}}
	svc := newNoticeFixture(repo, &mockMediaStore{})

	notices, err := svc.ListForUser(context.Background(), &models.User{ID: "u1", GradeID: "g1"})
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, "n1", notices[0].ID)
	assert.Equal(t, "n3", notices[1].ID)
}

func TestNoticeUpdateWriteFailureDeletesNewImage(t *testing.T) {
	repo := &mockNoticeRepo{
		notices:   []models.Notice{{ID: "n1", Title: "Old", ImagePublicID: "notices/old"}},
		updateErr: errors.New("write failed"),
	}
	store := &mockMediaStore{}
	svc := newNoticeFixture(repo, store)

	_, err := svc.Update(context.Background(), "n1", models.NoticeInput{
		Title: "New", Body: "Updated body", GradeID: "g1",
	}, strings.NewReader("img"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	// The replacement upload is removed; the image the stored row
	// still points at stays.
	assert.Equal(t, []string{"notices/new"}, store.deleted)
}

func TestNoticeDeleteRemovesImage(t *testing.T) {
	repo := &mockNoticeRepo{notices: []models.Notice{
		{ID: "n1", Title: "Old", ImagePublicID: "notices/old"},
	}}
	store := &mockMediaStore{}
	svc := newNoticeFixture(repo, store)

	err := svc.Delete(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, repo.deleted)
	assert.Equal(t, []string{"notices/old"}, store.deleted)
}
