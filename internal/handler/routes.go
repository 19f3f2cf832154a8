package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	httpadapter "github.com/voicedesk/openmic-bridge/internal/adapters/http"
	"github.com/voicedesk/openmic-bridge/internal/config"
	"github.com/voicedesk/openmic-bridge/internal/repository"
	"github.com/voicedesk/openmic-bridge/internal/services/callcontext"
	"github.com/voicedesk/openmic-bridge/pkg/logger"
	"go.uber.org/zap"
)

// HandlerManager manages all handlers and their dependencies
type HandlerManager struct {
	config        *config.BridgeConfig
	repoManager   repository.RepositoryManager
	callContext   CallContextService
	openMicClient httpadapter.OpenMicAPI
}

// NewHandlerManager wires the call context service over the store.
// employees overrides the store's employee repository (for the cache) when non-nil.
func NewHandlerManager(cfg *config.BridgeConfig, repoManager repository.RepositoryManager, employees repository.EmployeeRepository, openMicClient httpadapter.OpenMicAPI) *HandlerManager {
	service := callcontext.NewService(repoManager, employees, cfg.DefaultCorrelationKey)

	return &HandlerManager{
		config:        cfg,
		repoManager:   repoManager,
		callContext:   service,
		openMicClient: openMicClient,
	}
}

// SetupAllRoutes sets up all routes with middleware
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	// Apply global middleware
	router.Use(CORSMiddleware)
	router.Use(RequestIDMiddleware)
	router.Use(GlobalLoggingMiddleware)

	hm.SetupHealthRoutes(router)
	hm.SetupHookRoutes(router)
	hm.SetupAPIRoutes(router)

	// Preflight requests for paths whose routes do not accept OPTIONS
	router.Methods(http.MethodOptions).HandlerFunc(handleCORS)

	logger.Base().Info("all application routes registered")
}

// SetupHealthRoutes sets up liveness and readiness probes
func (hm *HandlerManager) SetupHealthRoutes(router *mux.Router) {
	NewHealthHandler(hm.repoManager).SetupHealthRoutes(router)
}

// SetupHookRoutes mounts the OpenMic webhooks at the root and under /api/hooks
func (hm *HandlerManager) SetupHookRoutes(router *mux.Router) {
	hookHandler := NewHookHandler(hm.callContext)
	hookHandler.SetupHookRoutes(router)

	hooksRouter := router.PathPrefix("/api/hooks").Subrouter()
	hooksRouter.Use(ValidationMiddleware)
	hookHandler.SetupHookRoutes(hooksRouter)

	logger.Base().Info("webhook routes registered",
		zap.String("correlation_key", hm.config.DefaultCorrelationKey))
}

// SetupAPIRoutes sets up the admin proxy routes
func (hm *HandlerManager) SetupAPIRoutes(router *mux.Router) {
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(ValidationMiddleware)

	if hm.config.AdminSecretKey != "" {
		apiRouter.Use(APIKeyMiddleware(hm.config.AdminSecretKey))
		logger.Base().Info("admin api protected with api key middleware")
	} else {
		logger.Base().Info("admin api registered without api key (development mode)")
	}

	NewBotHandler(hm.openMicClient).SetupBotRoutes(apiRouter.PathPrefix("/bot").Subrouter())
	NewCallLogHandler(hm.openMicClient).SetupCallLogRoutes(apiRouter.PathPrefix("/call").Subrouter())

	logger.Base().Info("admin api routes registered")
}
