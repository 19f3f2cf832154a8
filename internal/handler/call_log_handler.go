package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	httpadapter "github.com/voicedesk/openmic-bridge/internal/adapters/http"
)

// CallLogHandler exposes OpenMic call logs and transcripts
type CallLogHandler struct {
	client httpadapter.OpenMicAPI
}

// NewCallLogHandler creates a new call log handler
func NewCallLogHandler(client httpadapter.OpenMicAPI) *CallLogHandler {
	return &CallLogHandler{client: client}
}

// GetCallLogs godoc
// @Summary List the calls of a bot
// @Tags calls
// @Produce json
// @Param botID path string true "Bot UID"
// @Router /api/call/logs/{botID} [get]
func (h *CallLogHandler) GetCallLogs(w http.ResponseWriter, r *http.Request) {
	botID := mux.Vars(r)["botID"]
	if botID == "" {
		writeError(w, http.StatusBadRequest, "Bot ID not found")
		return
	}

	resp, err := h.client.ListCalls(r.Context(), botID)
	if err != nil {
		writeUpstreamFailure(w, r, err, "Failed to fetch call logs")
		return
	}
	relayUpstream(w, resp)
}

// GetCallHistory godoc
// @Summary Get a single call with its transcript
// @Tags calls
// @Produce json
// @Param callID path string true "Call ID"
// @Router /api/call/history/{callID} [get]
func (h *CallLogHandler) GetCallHistory(w http.ResponseWriter, r *http.Request) {
	callID := mux.Vars(r)["callID"]
	if callID == "" {
		writeError(w, http.StatusBadRequest, "Call ID not found")
		return
	}

	resp, err := h.client.GetCall(r.Context(), callID)
	if err != nil {
		writeUpstreamFailure(w, r, err, "Failed to fetch call history")
		return
	}
	relayUpstream(w, resp)
}

// SetupCallLogRoutes registers the call routes on a /call subrouter
func (h *CallLogHandler) SetupCallLogRoutes(router *mux.Router) {
	router.HandleFunc("/logs/{botID}", h.GetCallLogs).Methods(http.MethodGet)
	router.HandleFunc("/history/{callID}", h.GetCallHistory).Methods(http.MethodGet)
}
