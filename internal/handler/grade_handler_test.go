package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clab/student-portal-api/internal/models"
	"github.com/clab/student-portal-api/internal/repository"
	"github.com/clab/student-portal-api/internal/service"
	"github.com/clab/student-portal-api/pkg/media"
)

type fakeGradeRepo struct {
	grades    map[string]*models.Grade
	createErr error
	cascaded  []string
}

func (f *fakeGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	if f.createErr != nil {
		return f.createErr
	}
	grade.ID = "g-new"
	f.grades[grade.ID] = grade
	return nil
}

func (f *fakeGradeRepo) Update(ctx context.Context, grade *models.Grade) error { return nil }

func (f *fakeGradeRepo) List(ctx context.Context) ([]models.Grade, error) {
	out := make([]models.Grade, 0, len(f.grades))
	for _, g := range f.grades {
		out = append(out, *g)
	}
	return out, nil
}

func (f *fakeGradeRepo) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	grade, ok := f.grades[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return grade, nil
}

func (f *fakeGradeRepo) FindBySlug(ctx context.Context, slug string) (*models.Grade, error) {
	for _, g := range f.grades {
		if g.Slug == slug {
			return g, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGradeRepo) DeleteCascade(ctx context.Context, id string) (*repository.CascadeAssets, error) {
	delete(f.grades, id)
	f.cascaded = append(f.cascaded, id)
	return &repository.CascadeAssets{}, nil
}

type fakeStore struct{}

func (fakeStore) Upload(ctx context.Context, r io.Reader, folder string) (media.Asset, error) {
	return media.Asset{URL: "http://img/x", PublicID: "x"}, nil
}

func (fakeStore) Delete(ctx context.Context, publicID string) error { return nil }

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Error   map[string]interface{} `json:"error"`
}

func newGradeHandler(repo *fakeGradeRepo) *GradeHandler {
	svc := service.NewGradeService(repo, fakeStore{}, nil, nil)
	return NewGradeHandler(svc)
}

func TestGradeHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeGradeRepo{grades: map[string]*models.Grade{}}
	handler := newGradeHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/grade/create-grade", strings.NewReader(`{"name":"Class Ten"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	var grade models.Grade
	require.NoError(t, json.Unmarshal(env.Data, &grade))
	assert.Equal(t, "class-ten", grade.Slug)
}

func TestGradeHandlerCreateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newGradeHandler(&fakeGradeRepo{grades: map[string]*models.Grade{}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/grade/create-grade", strings.NewReader(`{"name":`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
}

func TestGradeHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeGradeRepo{grades: map[string]*models.Grade{}, createErr: &pq.Error{Code: "23505"}}
	handler := newGradeHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/grade/create-grade", strings.NewReader(`{"name":"Class Ten"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGradeHandlerDeleteMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newGradeHandler(&fakeGradeRepo{grades: map[string]*models.Grade{}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/grade/delete-grade/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGradeHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeGradeRepo{grades: map[string]*models.Grade{
		"g1": {ID: "g1", Name: "Class Ten", Slug: "class-ten"},
	}}
	handler := newGradeHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/grade/all-grades", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var grades []models.Grade
	require.NoError(t, json.Unmarshal(env.Data, &grades))
	require.Len(t, grades, 1)
	assert.Equal(t, "Class Ten", grades[0].Name)
}
