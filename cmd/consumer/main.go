package main

import (
	"log"
	"os"

	"github.com/Abhinav7558/employee-management-system/internal/app"
	"github.com/Abhinav7558/employee-management-system/internal/bootstrap"
	"github.com/Abhinav7558/employee-management-system/internal/config"

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

	if err := app.RunConsumer(cfg, logger); err != nil {
		logger.Fatal("run consumer failed", zap.Error(err))
	}
}
