package handler

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/clab/student-portal-api/internal/middleware"
	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
)

type userLoader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// dashboardInvalidator drops the cached dashboard summary after a
// write that changes its numbers.
type dashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// loadCurrentUser resolves the authenticated caller's stored record.
// Used by self-scoped routes that need more than the token claims.
// Disabled accounts are rejected here: a valid token does not outlive
// an admin block.
func loadCurrentUser(c *gin.Context, users userLoader) (*models.User, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	user, err := users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	if user.Disabled() {
		return nil, appErrors.ErrAccountDisabled
	}
	return user, nil
}
