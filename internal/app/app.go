package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Abhinav7558/employee-management-system/internal/bootstrap"
	"github.com/Abhinav7558/employee-management-system/internal/config"
	"github.com/Abhinav7558/employee-management-system/internal/database"
	"github.com/Abhinav7558/employee-management-system/internal/middleware"
	"github.com/Abhinav7558/employee-management-system/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const redisRetries = 5

// App is the assembled HTTP service.
type App struct {
	Router *gin.Engine
	Audit  bootstrap.AuditLogger

	gormDB *gorm.DB
	db     *sql.DB
	rdb    *redis.Client
}

// BuildApp connects the stores, applies migrations and registers every
// route.
func BuildApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	db, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.Redis, redisRetries, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		Router: gin.New(),
		Audit:  bootstrap.NewDBAuditLogger(gormDB, logger),
		gormDB: gormDB,
		db:     db,
		rdb:    rdb,
	}

	a.Router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.ContextLogger(logger),
		middleware.Metrics(),
	)
	a.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	a.Router.GET("/healthz", a.health)

	if err := registerModules(a.Router, cfg, db, gormDB, rdb, logger); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("application built")
	return a, nil
}

func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"database": "ok", "redis": "ok"}
	code := http.StatusOK
	if err := a.db.PingContext(ctx); err != nil {
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		status["redis"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func (a *App) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
