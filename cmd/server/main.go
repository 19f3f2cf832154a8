package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	httpadapter "github.com/voicedesk/openmic-bridge/internal/adapters/http"
	"github.com/voicedesk/openmic-bridge/internal/cache"
	"github.com/voicedesk/openmic-bridge/internal/config"
	"github.com/voicedesk/openmic-bridge/internal/handler"
	"github.com/voicedesk/openmic-bridge/internal/repository"
	"github.com/voicedesk/openmic-bridge/pkg/logger"
	"github.com/voicedesk/openmic-bridge/pkg/redis"
	"go.uber.org/zap"
)

// Server represents the OpenMic bridge server
type Server struct {
	config      *config.BridgeConfig
	httpServer  *http.Server
	repoManager repository.RepositoryManager
	redis       *redis.RedisService
}

// NewServer opens the directory store and wires every route.
// The returned server owns the store and the optional Redis connection.
func NewServer(cfg *config.BridgeConfig) (*Server, error) {
	repoManager, err := repository.NewRepositoryManager(repository.LoadDatabaseConfigFromEnv())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize directory store: %w", err)
	}

	server := &Server{
		config:      cfg,
		repoManager: repoManager,
	}

	var remote redis.RedisServiceInterface
	if cfg.RedisEnabled {
		redisSvc, err := redis.NewRedisService(&redis.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Base().Warn("failed to initialize redis service, employee cache runs in-process only", zap.Error(err))
		} else {
			server.redis = redisSvc
			remote = redisSvc
		}
	}
	employees := cache.NewEmployeeCache(repoManager.Employee(), remote, cfg.EmployeeCacheTTL)

	openMicClient := httpadapter.NewOpenMicClient(cfg.OpenMicBaseURL, cfg.OpenMicAPIKey, cfg.OpenMicTimeout)
	if cfg.OpenMicAPIKey == "" {
		logger.Base().Warn("OPENMIC_API_KEY is not set, admin bot routes will fail")
	}

	router := mux.NewRouter()
	handler.NewHandlerManager(cfg, repoManager, employees, openMicClient).SetupAllRoutes(router)

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server, nil
}

// Start blocks serving HTTP until the server is shut down
func (s *Server) Start() error {
	logger.Base().Info("Starting server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the store and Redis
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil {
			logger.Base().Warn("failed to close redis", zap.Error(cerr))
		}
	}
	if cerr := s.repoManager.Close(); cerr != nil {
		logger.Base().Warn("failed to close directory store", zap.Error(cerr))
	}
	return err
}

func main() {
	// Load .env file for local development if it exists
	// This will not override environment variables already set
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: .env file not found or skipped: %v", err)
	}

	cfg := config.Load()

	if _, err := logger.Init(cfg.LogEnv); err != nil {
		log.Printf("failed to initialize zap logger, falling back to default: %v", err)
	}
	defer logger.Sync()

	// Every call is attributed to this visitor until real caller identification exists
	logger.Base().Warn("resolving all calls against the default correlation key",
		zap.String("correlation_key", cfg.DefaultCorrelationKey))

	server, err := NewServer(cfg)
	if err != nil {
		logger.Base().Fatal("Failed to create server", zap.Error(err))
	}

	// signal.Notify requires the channel to be buffered
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case sig := <-stop:
		logger.Base().Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Base().Error("Server failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Base().Error("Graceful shutdown failed", zap.Error(err))
	}
	logger.Base().Info("Server stopped")
}
