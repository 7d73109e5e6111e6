package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clab/student-portal-api/internal/middleware"
	"github.com/clab/student-portal-api/internal/service"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Dashboard *DashboardHandler
	Grade     *GradeHandler
	Course    *CourseHandler
	Content   *ContentHandler
	Notice    *NoticeHandler
	Order     *OrderHandler
	Payment   *PaymentHandler
	Result    *ResultHandler
}

// RegisterRoutes mounts every route group under the API prefix. Public
// reads (grade list, course catalog) take no token; self-scoped routes
// require a session; mutations require the administrator role.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, authService *service.AuthService, users userLoader) {
	authed := middleware.JWT(authService)
	admin := middleware.Admin(users)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/verify-otp", h.Auth.RequestOTP)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/forgot-password-otp", h.Auth.ForgotPasswordOTP)
		auth.POST("/forgot-password", h.Auth.ResetPassword)

		auth.GET("/profile", authed, h.Auth.Profile)
		auth.PUT("/update-profile", authed, h.Auth.UpdateProfile)
		auth.GET("/user-auth", authed, h.Auth.UserAuth)
		auth.GET("/admin-auth", authed, admin, h.Auth.AdminAuth)

		auth.GET("/all-users", authed, admin, h.User.List)
		auth.PUT("/user-grade/:id", authed, admin, h.User.UpdateGrade)
		auth.PUT("/user-status/:id", authed, admin, h.User.UpdateStatus)
		auth.DELETE("/delete-user/:id", authed, admin, h.User.Delete)
		auth.GET("/failed-user", authed, admin, h.User.ListFailed)
		auth.DELETE("/delete-failed/:id", authed, admin, h.User.DeleteFailed)
		auth.GET("/dashboard", authed, admin, h.Dashboard.Summary)
	}

	grade := api.Group("/grade")
	{
		grade.GET("/all-grades", h.Grade.List)
		grade.GET("/single-grade/:slug", h.Grade.GetBySlug)
		grade.POST("/create-grade", authed, admin, h.Grade.Create)
		grade.PUT("/update-grade/:id", authed, admin, h.Grade.Update)
		grade.DELETE("/delete-grade/:id", authed, admin, h.Grade.Delete)
	}

	course := api.Group("/course")
	{
		course.GET("/all-courses", h.Course.List)
		course.GET("/grade-course/:slug", h.Course.ListByGrade)
		course.GET("/get-course/:slug", h.Course.GetBySlug)
		course.GET("/related-course/:cid/:gid", h.Course.Related)
		course.POST("/create-course", authed, admin, h.Course.Create)
		course.PUT("/update-course/:id", authed, admin, h.Course.Update)
		course.DELETE("/delete-course/:id", authed, admin, h.Course.Delete)
	}

	content := api.Group("/content")
	{
		content.GET("/user-content", authed, h.Content.ListMine)
		content.GET("/all-content", authed, admin, h.Content.List)
		content.POST("/create-content", authed, admin, h.Content.Create)
		content.PUT("/update-content/:id", authed, admin, h.Content.Update)
		content.DELETE("/delete-content/:id", authed, admin, h.Content.Delete)
	}

	notice := api.Group("/notice")
	{
		notice.GET("/get-notice", authed, h.Notice.ListMine)
		notice.GET("/all-notices", authed, admin, h.Notice.List)
		notice.POST("/create-notice", authed, admin, h.Notice.Create)
		notice.PUT("/update-notice/:id", authed, admin, h.Notice.Update)
		notice.DELETE("/delete-notice/:id", authed, admin, h.Notice.Delete)
	}

	order := api.Group("/order")
	{
		order.POST("/create-order", authed, h.Order.Create)
		order.GET("/user-order", authed, h.Order.ListMine)
		order.GET("/all-order", authed, admin, h.Order.List)
		order.PUT("/order-status/:id", authed, admin, h.Order.UpdateStatus)
		order.DELETE("/delete-order/:id", authed, admin, h.Order.Delete)
	}

	payment := api.Group("/payment")
	{
		payment.GET("/user-payment", authed, h.Payment.ListMine)
		payment.GET("/all-payment", authed, admin, h.Payment.List)
		payment.POST("/create-payment", authed, admin, h.Payment.Create)
		payment.PUT("/update-payment/:id", authed, admin, h.Payment.Update)
		payment.DELETE("/delete-payment/:id", authed, admin, h.Payment.Delete)
		payment.POST("/trx-gen", authed, admin, h.Payment.GenerateTrxID)
		payment.GET("/export", authed, admin, h.Payment.Export)
	}

	result := api.Group("/result")
	{
		result.GET("/user-result", authed, h.Result.ListMine)
		result.GET("/all-result", authed, admin, h.Result.List)
		result.POST("/create-result", authed, admin, h.Result.Create)
		result.PUT("/update-result/:id", authed, admin, h.Result.Update)
		result.DELETE("/delete-result/:id", authed, admin, h.Result.Delete)
		result.GET("/export", authed, admin, h.Result.Export)
	}
}
