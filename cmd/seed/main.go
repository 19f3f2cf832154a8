package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/voicedesk/openmic-bridge/internal/config"
	"github.com/voicedesk/openmic-bridge/internal/repository"
	"github.com/voicedesk/openmic-bridge/pkg/logger"
	"go.uber.org/zap"
)

// Provisions the default visitor and the employee directory. Safe to rerun.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: .env file not found or skipped: %v", err)
	}

	cfg := config.Load()
	if _, err := logger.Init(cfg.LogEnv); err != nil {
		log.Printf("failed to initialize zap logger, falling back to default: %v", err)
	}
	defer logger.Sync()

	db, err := repository.NewDatabaseConnection(repository.LoadDatabaseConfigFromEnv())
	if err != nil {
		logger.Base().Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Base().Fatal("failed to get underlying sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := repository.AutoMigrate(db); err != nil {
		logger.Base().Fatal("failed to run auto migration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := repository.SeedDirectory(ctx, db, cfg.DefaultCorrelationKey)
	if err != nil {
		logger.Base().Fatal("failed to seed directory", zap.Error(err))
	}

	logger.Base().Info("visitor seeded",
		zap.Uint("id", result.Visitor.ID),
		zap.String("name", result.Visitor.Name),
		zap.String("phone", result.Visitor.Phone))
	for _, e := range result.Employees {
		logger.Base().Info("employee seeded",
			zap.Uint("id", e.ID),
			zap.String("name", e.Name),
			zap.String("department", e.Department))
	}
}
