package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	httpadapter "github.com/voicedesk/openmic-bridge/internal/adapters/http"
	"github.com/voicedesk/openmic-bridge/internal/domain"
	"github.com/voicedesk/openmic-bridge/pkg/logger"
	"go.uber.org/zap"
)

// BotHandler proxies bot management to the OpenMic API
type BotHandler struct {
	client httpadapter.OpenMicAPI
}

// NewBotHandler creates a new bot handler
func NewBotHandler(client httpadapter.OpenMicAPI) *BotHandler {
	return &BotHandler{client: client}
}

// CreateBot godoc
// @Summary Create a bot
// @Description Create an OpenMic bot with fixed post-call evaluation settings
// @Tags bots
// @Accept json
// @Produce json
// @Param bot body domain.BotRequest true "Bot definition"
// @Success 200 {object} map[string]interface{} "OpenMic response"
// @Failure 400 {object} domain.ErrorResponse "Invalid request body"
// @Failure 500 {object} domain.ErrorResponse "OpenMic API key not configured"
// @Router /api/bot/create [post]
func (h *BotHandler) CreateBot(w http.ResponseWriter, r *http.Request) {
	var req domain.BotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.client.CreateBot(r.Context(), &req)
	if err != nil {
		writeUpstreamFailure(w, r, err, "Failed to create bot")
		return
	}
	relayUpstream(w, resp)
}

// UpdateBot godoc
// @Summary Update a bot
// @Tags bots
// @Accept json
// @Produce json
// @Param uid path string true "Bot UID"
// @Param bot body domain.BotRequest true "Bot definition"
// @Router /api/bot/update/{uid} [patch]
func (h *BotHandler) UpdateBot(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	var req domain.BotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.client.UpdateBot(r.Context(), uid, &req)
	if err != nil {
		writeUpstreamFailure(w, r, err, "Failed to update bot")
		return
	}
	relayUpstream(w, resp)
}

// DeleteBot godoc
// @Summary Delete a bot
// @Tags bots
// @Produce json
// @Param uid path string true "Bot UID"
// @Success 200 {object} map[string]string "Successfully deleted"
// @Router /api/bot/delete/{uid} [delete]
func (h *BotHandler) DeleteBot(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	resp, err := h.client.DeleteBot(r.Context(), uid)
	if err != nil {
		writeUpstreamFailure(w, r, err, "Failed to delete bot")
		return
	}
	if !resp.IsSuccess() {
		relayUpstream(w, resp)
		return
	}

	logger.Info(r.Context(), "bot deleted", zap.String("uid", uid))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully deleted"})
}

// ListBots godoc
// @Summary List bots
// @Description Page through bots, 10 per page
// @Tags bots
// @Produce json
// @Param page query int false "Page number, starting at 1"
// @Router /api/bot/list [get]
func (h *BotHandler) ListBots(w http.ResponseWriter, r *http.Request) {
	resp, err := h.client.ListBots(r.Context(), parsePage(r.URL.Query().Get("page")))
	if err != nil {
		writeUpstreamFailure(w, r, err, "Internal server error")
		return
	}
	if !resp.IsSuccess() {
		writeJSON(w, resp.StatusCode, domain.ErrorResponse{
			Error:   "OpenMic responded with error",
			Details: string(resp.Body),
		})
		return
	}
	relayUpstream(w, resp)
}

// SetupBotRoutes registers the bot routes on a /bot subrouter
func (h *BotHandler) SetupBotRoutes(router *mux.Router) {
	router.HandleFunc("/create", h.CreateBot).Methods(http.MethodPost)
	router.HandleFunc("/update/{uid}", h.UpdateBot).Methods(http.MethodPatch)
	router.HandleFunc("/delete/{uid}", h.DeleteBot).Methods(http.MethodDelete)
	router.HandleFunc("/list", h.ListBots).Methods(http.MethodGet)
}

// parsePage falls back to the first page for anything that is not a positive integer
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func writeUpstreamFailure(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, httpadapter.ErrAPIKeyNotConfigured) {
		writeError(w, http.StatusInternalServerError, httpadapter.ErrAPIKeyNotConfigured.Error())
		return
	}
	logger.Error(r.Context(), message, zap.Error(err))
	writeError(w, http.StatusInternalServerError, message)
}

// relayUpstream writes the OpenMic status and JSON body through unchanged
func relayUpstream(w http.ResponseWriter, resp *httpadapter.UpstreamResponse) {
	if len(resp.Body) == 0 {
		w.WriteHeader(resp.StatusCode)
		return
	}
	if !json.Valid(resp.Body) {
		writeJSON(w, http.StatusBadGateway, domain.ErrorResponse{
			Error:   "Invalid response from OpenMic",
			Details: string(resp.Body),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		logger.Base().Warn("failed to relay upstream response", zap.Int("status", resp.StatusCode), zap.Error(err))
	}
}
