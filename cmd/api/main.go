package main

import (
	"log"
	"os"

	"github.com/Abhinav7558/employee-management-system/internal/app"
	"github.com/Abhinav7558/employee-management-system/internal/bootstrap"
	"github.com/Abhinav7558/employee-management-system/internal/config"
	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("EMS_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg.Log, cfg.App)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	apperror.Init()
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	application, err := app.BuildApp(cfg, logger)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}
	defer application.Close()

	bootstrap.StartHTTPServer(application.Router, cfg.Server, application.Audit)
}
