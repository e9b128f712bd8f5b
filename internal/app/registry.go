package app

import (
	"database/sql"

	"github.com/Abhinav7558/employee-management-system/internal/auth"
	"github.com/Abhinav7558/employee-management-system/internal/auth/token"
	"github.com/Abhinav7558/employee-management-system/internal/config"
	"github.com/Abhinav7558/employee-management-system/internal/employee"
	"github.com/Abhinav7558/employee-management-system/internal/fieldtype"
	"github.com/Abhinav7558/employee-management-system/internal/formtemplate"
	"github.com/Abhinav7558/employee-management-system/internal/messaging/kafka"
	"github.com/Abhinav7558/employee-management-system/internal/middleware"
	"github.com/Abhinav7558/employee-management-system/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	// --- Shared ---
	registry, err := fieldtype.NewRegistry(fieldtype.Options{PhonePattern: cfg.Validation.PhonePattern})
	if err != nil {
		return err
	}
	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	rbacService, err := rbac.NewService(logger)
	if err != nil {
		return err
	}

	// --- Repositories ---
	authRepo := auth.NewRepository(gormDB)
	formRepo := formtemplate.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	authService := auth.NewService(
		authRepo,
		tokens,
		auth.NewPasswordPolicy(auth.DefaultMinPasswordLength),
		auth.Options{DefaultRole: cfg.Auth.DefaultRole},
		logger,
	)
	formService := formtemplate.NewService(db, formRepo, registry, outboxRepo, rdb, cfg.Cache.TemplateTTL, logger)
	employeeService := employee.NewService(db, employeeRepo, formService, registry, outboxRepo, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, logger)
	formHandler := formtemplate.NewHandler(formService, logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	// --- Routes ---
	authenticate := middleware.AuthMiddleware(tokens)

	api := router.Group("/api/v1")
	auth.RegisterRoutes(api, authHandler, authenticate)

	protected := api.Group("", authenticate, middleware.ContextLogger(logger))
	{
		formtemplate.RegisterRoutes(protected, formHandler, rbacService, rdb)
		employee.RegisterRoutes(protected, employeeHandler, rbacService, rdb)
		rbac.RegisterRoutes(protected, rbacHandler)
	}

	return nil
}
