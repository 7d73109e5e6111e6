package handler

import (
	"context"
	"database/sql"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/clab/student-portal-api/internal/models"
	"github.com/clab/student-portal-api/internal/service"
)

type fakeUserLoader struct{}

func (fakeUserLoader) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

// The route table is public API: clients hard-code these paths, so a
// rename is a breaking change. Pin every documented method+path pair.
func TestRegisterRoutesMountsDocumentedPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	authSvc := service.NewAuthService(nil, nil, nil, nil, nil, nil, nil, service.AuthConfig{TokenSecret: "secret"})
	RegisterRoutes(r, "/api/v1", Handlers{}, authSvc, fakeUserLoader{})

	mounted := make(map[string]bool)
	for _, route := range r.Routes() {
		mounted[route.Method+" "+route.Path] = true
	}

	want := []string{
		"POST /api/v1/auth/verify-otp",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/forgot-password-otp",
		"POST /api/v1/auth/forgot-password",
		"GET /api/v1/auth/profile",
		"PUT /api/v1/auth/update-profile",
		"GET /api/v1/auth/user-auth",
		"GET /api/v1/auth/admin-auth",
		"GET /api/v1/auth/all-users",
		"PUT /api/v1/auth/user-grade/:id",
		"PUT /api/v1/auth/user-status/:id",
		"DELETE /api/v1/auth/delete-user/:id",
		"GET /api/v1/auth/failed-user",
		"DELETE /api/v1/auth/delete-failed/:id",
		"GET /api/v1/auth/dashboard",
		"GET /api/v1/grade/all-grades",
		"GET /api/v1/grade/single-grade/:slug",
		"POST /api/v1/grade/create-grade",
		"PUT /api/v1/grade/update-grade/:id",
		"DELETE /api/v1/grade/delete-grade/:id",
		"GET /api/v1/course/all-courses",
		"GET /api/v1/course/grade-course/:slug",
		"GET /api/v1/course/get-course/:slug",
		"GET /api/v1/course/related-course/:cid/:gid",
		"POST /api/v1/course/create-course",
		"PUT /api/v1/course/update-course/:id",
		"DELETE /api/v1/course/delete-course/:id",
		"GET /api/v1/content/user-content",
		"GET /api/v1/content/all-content",
		"POST /api/v1/content/create-content",
		"PUT /api/v1/content/update-content/:id",
		"DELETE /api/v1/content/delete-content/:id",
		"GET /api/v1/notice/get-notice",
		"GET /api/v1/notice/all-notices",
		"POST /api/v1/notice/create-notice",
		"PUT /api/v1/notice/update-notice/:id",
		"DELETE /api/v1/notice/delete-notice/:id",
		"POST /api/v1/order/create-order",
		"GET /api/v1/order/user-order",
		"GET /api/v1/order/all-order",
		"PUT /api/v1/order/order-status/:id",
		"DELETE /api/v1/order/delete-order/:id",
		"GET /api/v1/payment/user-payment",
		"GET /api/v1/payment/all-payment",
		"POST /api/v1/payment/create-payment",
		"PUT /api/v1/payment/update-payment/:id",
		"DELETE /api/v1/payment/delete-payment/:id",
		"POST /api/v1/payment/trx-gen",
		"GET /api/v1/payment/export",
		"GET /api/v1/result/user-result",
		"GET /api/v1/result/all-result",
		"POST /api/v1/result/create-result",
		"PUT /api/v1/result/update-result/:id",
		"DELETE /api/v1/result/delete-result/:id",
		"GET /api/v1/result/export",
	}
	for _, route := range want {
		assert.Truef(t, mounted[route], "route %s not mounted", route)
	}
	assert.Len(t, mounted, len(want))
}
