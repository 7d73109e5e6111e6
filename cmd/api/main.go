package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/clab/student-portal-api/api/swagger"
	"github.com/clab/student-portal-api/internal/handler"
	"github.com/clab/student-portal-api/internal/middleware"
	"github.com/clab/student-portal-api/internal/repository"
	"github.com/clab/student-portal-api/internal/service"
	"github.com/clab/student-portal-api/pkg/cache"
	"github.com/clab/student-portal-api/pkg/config"
	"github.com/clab/student-portal-api/pkg/database"
	"github.com/clab/student-portal-api/pkg/logger"
	"github.com/clab/student-portal-api/pkg/mail"
	"github.com/clab/student-portal-api/pkg/media"
	corsmiddleware "github.com/clab/student-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/clab/student-portal-api/pkg/middleware/requestid"
)

// @title Student Portal API
// @version 1.0.0
// @description Backend for the student portal: registration, courses, payments and results
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logr.Sugar().Warnw("unknown timezone, falling back to UTC", "timezone", cfg.Timezone)
		location = time.UTC
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	var mailer mail.Mailer
	switch cfg.Mail.Provider {
	case "sendgrid":
		mailer = mail.NewSendGridMailer(cfg.Mail, logr)
	default:
		mailer = mail.NewConsoleMailer(logr)
	}

	var store media.Store
	switch cfg.Media.Provider {
	case "cloudinary":
		store, err = media.NewCloudinaryStore(cfg.Media)
		if err != nil {
			logr.Sugar().Fatalw("failed to init cloudinary", "error", err)
		}
	default:
		store, err = media.NewLocalStore(cfg.Media.LocalDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init local media store", "error", err)
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	contentRepo := repository.NewContentRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	resultRepo := repository.NewResultRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, otpRepo, gradeRepo, mailer, store, validate, logr, service.AuthConfig{
		TokenSecret:        cfg.JWT.Secret,
		TokenExpiry:        cfg.JWT.Expiration,
		OTPTTL:             cfg.OTP.TTL,
		OTPTemplateID:      cfg.Mail.OTPTemplateID,
		ResetOTPTemplateID: cfg.Mail.ResetOTPTemplateID,
		WelcomeTemplateID:  cfg.Mail.WelcomeTemplateID,
	})
	userSvc := service.NewUserService(userRepo, gradeRepo, otpRepo, store, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, store, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, gradeRepo, store, validate, logr)
	contentSvc := service.NewContentService(contentRepo, gradeRepo, validate, logr)
	noticeSvc := service.NewNoticeService(noticeRepo, gradeRepo, store, validate, logr)
	orderSvc := service.NewOrderService(orderRepo, courseRepo, userRepo, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, userRepo, gradeRepo, validate, logr, location)
	resultSvc := service.NewResultService(resultRepo, userRepo, gradeRepo, validate, logr, location)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheRepo, logr, location, cfg.Dashboard.CacheTTL)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc, logr),
		User:      handler.NewUserHandler(userSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Grade:     handler.NewGradeHandler(gradeSvc),
		Course:    handler.NewCourseHandler(courseSvc),
		Content:   handler.NewContentHandler(contentSvc, userRepo),
		Notice:    handler.NewNoticeHandler(noticeSvc, userRepo),
		Order:     handler.NewOrderHandler(orderSvc, userRepo, dashboardSvc),
		Payment:   handler.NewPaymentHandler(paymentSvc, dashboardSvc),
		Result:    handler.NewResultHandler(resultSvc, userRepo),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Media.Provider != "cloudinary" {
		r.Static("/media", cfg.Media.LocalDir)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc, userRepo)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
