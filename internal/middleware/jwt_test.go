package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/clab/student-portal-api/internal/models"
)

type fakeUserLoader struct {
	users map[string]*models.User
}

func (f *fakeUserLoader) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func runAdmin(t *testing.T, loader *fakeUserLoader, claims *models.JWTClaims) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/all-users", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	Admin(loader)(c)
	return rec
}

func TestAdminAllowsStoredAdmin(t *testing.T) {
	loader := &fakeUserLoader{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleAdmin, Status: models.StatusEnabled},
	}}

	rec := runAdmin(t, loader, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRejectsMissingClaims(t *testing.T) {
	rec := runAdmin(t, &fakeUserLoader{users: map[string]*models.User{}}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRejectsDeletedAccount(t *testing.T) {
	rec := runAdmin(t, &fakeUserLoader{users: map[string]*models.User{}},
		&models.JWTClaims{UserID: "gone", Role: models.RoleAdmin})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRejectsDemotedAdmin(t *testing.T) {
	// The token still says admin but the stored record does not.
	loader := &fakeUserLoader{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleStudent, Status: models.StatusEnabled},
	}}

	rec := runAdmin(t, loader, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRejectsDisabledAdmin(t *testing.T) {
	loader := &fakeUserLoader{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleAdmin, Status: models.StatusDisabled},
	}}

	rec := runAdmin(t, loader, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
