package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/voicedesk/openmic-bridge/internal/domain"
	"github.com/voicedesk/openmic-bridge/internal/services/callcontext"
	"github.com/voicedesk/openmic-bridge/pkg/logger"
	"go.uber.org/zap"
)

// CallContextService is what the webhooks need from the call context layer
type CallContextService interface {
	ResolvePrecallContext(ctx context.Context, event *domain.PrecallRequest) (*domain.DynamicVariables, error)
	ResolveEmployee(ctx context.Context, employeeID uint) (*domain.EmployeeSummary, error)
	RecordCall(ctx context.Context, req *domain.PostcallRequest) error
}

// HookHandler serves the OpenMic precall, in-call and postcall webhooks
type HookHandler struct {
	service CallContextService
}

// NewHookHandler creates a new webhook handler
func NewHookHandler(service CallContextService) *HookHandler {
	return &HookHandler{service: service}
}

// Precall returns the dynamic variables for the agent prompt.
// The body is optional; when present it must be valid JSON.
func (h *HookHandler) Precall(w http.ResponseWriter, r *http.Request) {
	var req domain.PrecallRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	vars, err := h.service.ResolvePrecallContext(r.Context(), &req)
	if err != nil {
		logger.Error(r.Context(), "precall context resolution failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to resolve call context")
		return
	}

	writeJSON(w, http.StatusOK, domain.PrecallResponse{
		Call: domain.PrecallCall{DynamicVariables: *vars},
	})
}

// GetData resolves an employee for the live conversation
func (h *HookHandler) GetData(w http.ResponseWriter, r *http.Request) {
	var req domain.EmployeeLookupRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.ResolveEmployee(r.Context(), uint(req.EmployeeID))
	if err != nil {
		logger.Error(r.Context(), "employee lookup failed",
			zap.Uint("employee_id", uint(req.EmployeeID)),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get employee data")
		return
	}

	writeJSON(w, http.StatusOK, domain.EmployeeLookupResponse{Result: *result})
}

// Postcall records the summary of a finished call
func (h *HookHandler) Postcall(w http.ResponseWriter, r *http.Request) {
	var req domain.PostcallRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.RecordCall(r.Context(), &req); err != nil {
		if errors.Is(err, callcontext.ErrVisitorNotFound) {
			logger.Warn(r.Context(), "postcall for unknown visitor")
			writeError(w, http.StatusNotFound, "Visitor not found")
			return
		}
		logger.Error(r.Context(), "failed to record call", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to post data")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// SetupHookRoutes registers the webhooks on router
func (h *HookHandler) SetupHookRoutes(router *mux.Router) {
	router.HandleFunc("/precall", h.Precall).Methods(http.MethodPost)
	router.HandleFunc("/getData", h.GetData).Methods(http.MethodPost)
	router.HandleFunc("/postcall", h.Postcall).Methods(http.MethodPost)
}
