package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	httpadapter "github.com/voicedesk/openmic-bridge/internal/adapters/http"
	"github.com/voicedesk/openmic-bridge/internal/domain"
	"github.com/voicedesk/openmic-bridge/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeOpenMic struct {
	resp     *httpadapter.UpstreamResponse
	err      error
	lastUID  string
	lastPage int
	lastBot  *domain.BotRequest
	lastID   string
}

func (f *fakeOpenMic) CreateBot(ctx context.Context, req *domain.BotRequest) (*httpadapter.UpstreamResponse, error) {
	f.lastBot = req
	return f.resp, f.err
}

func (f *fakeOpenMic) UpdateBot(ctx context.Context, uid string, req *domain.BotRequest) (*httpadapter.UpstreamResponse, error) {
	f.lastUID = uid
	f.lastBot = req
	return f.resp, f.err
}

func (f *fakeOpenMic) DeleteBot(ctx context.Context, uid string) (*httpadapter.UpstreamResponse, error) {
	f.lastUID = uid
	return f.resp, f.err
}

func (f *fakeOpenMic) ListBots(ctx context.Context, page int) (*httpadapter.UpstreamResponse, error) {
	f.lastPage = page
	return f.resp, f.err
}

func (f *fakeOpenMic) ListCalls(ctx context.Context, botID string) (*httpadapter.UpstreamResponse, error) {
	f.lastID = botID
	return f.resp, f.err
}

func (f *fakeOpenMic) GetCall(ctx context.Context, callID string) (*httpadapter.UpstreamResponse, error) {
	f.lastID = callID
	return f.resp, f.err
}

func upstream(status int, body string) *httpadapter.UpstreamResponse {
	return &httpadapter.UpstreamResponse{StatusCode: status, Body: []byte(body)}
}

func newAdminRouter(client httpadapter.OpenMicAPI) *mux.Router {
	router := mux.NewRouter()
	NewBotHandler(client).SetupBotRoutes(router.PathPrefix("/api/bot").Subrouter())
	NewCallLogHandler(client).SetupCallLogRoutes(router.PathPrefix("/api/call").Subrouter())
	return router
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateBot_RelaysUpstream(t *testing.T) {
	client := &fakeOpenMic{resp: upstream(http.StatusCreated, `{"uid":"bot_1"}`)}

	rec := serve(newAdminRouter(client), http.MethodPost, "/api/bot/create",
		`{"name":"Reception","prompt":"p","first_message":"hi","summary_prompt":"s"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"uid":"bot_1"}`, rec.Body.String())
	require.NotNil(t, client.lastBot)
	assert.Equal(t, "Reception", client.lastBot.Name)
	assert.Equal(t, "s", client.lastBot.SummaryPrompt)
}

func TestCreateBot_MissingAPIKey(t *testing.T) {
	client := &fakeOpenMic{err: httpadapter.ErrAPIKeyNotConfigured}

	rec := serve(newAdminRouter(client), http.MethodPost, "/api/bot/create", `{"name":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"OpenMic API key not configured"}`, rec.Body.String())
}

func TestCreateBot_TransportFailure(t *testing.T) {
	client := &fakeOpenMic{err: errors.New("dial tcp: timeout")}

	rec := serve(newAdminRouter(client), http.MethodPost, "/api/bot/create", `{"name":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to create bot"}`, rec.Body.String())
}

func TestUpdateBot_PassesUID(t *testing.T) {
	client := &fakeOpenMic{resp: upstream(http.StatusOK, `{"uid":"bot_1"}`)}

	rec := serve(newAdminRouter(client), http.MethodPatch, "/api/bot/update/bot_1", `{"name":"Renamed"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bot_1", client.lastUID)
	assert.Equal(t, "Renamed", client.lastBot.Name)
}

func TestDeleteBot(t *testing.T) {
	client := &fakeOpenMic{resp: upstream(http.StatusNoContent, ``)}

	rec := serve(newAdminRouter(client), http.MethodDelete, "/api/bot/delete/bot_1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bot_1", client.lastUID)
	assert.JSONEq(t, `{"message":"Successfully deleted"}`, rec.Body.String())
}

func TestDeleteBot_UpstreamError(t *testing.T) {
	client := &fakeOpenMic{resp: upstream(http.StatusNotFound, `{"error":"bot not found"}`)}

	rec := serve(newAdminRouter(client), http.MethodDelete, "/api/bot/delete/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"bot not found"}`, rec.Body.String())
}

func TestListBots_Page(t *testing.T) {
	tests := []struct {
		query    string
		expected int
	}{
		{query: "", expected: 1},
		{query: "?page=3", expected: 3},
		{query: "?page=abc", expected: 1},
		{query: "?page=-2", expected: 1},
	}

	for _, tt := range tests {
		client := &fakeOpenMic{resp: upstream(http.StatusOK, `{"bots":[]}`)}

		rec := serve(newAdminRouter(client), http.MethodGet, "/api/bot/list"+tt.query, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tt.expected, client.lastPage, tt.query)
	}
}

func TestListBots_UpstreamError(t *testing.T) {
	client := &fakeOpenMic{resp: upstream(http.StatusUnauthorized, `invalid token`)}

	rec := serve(newAdminRouter(client), http.MethodGet, "/api/bot/list?page=1", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"OpenMic responded with error","details":"invalid token"}`, rec.Body.String())
}

func TestCallLogs(t *testing.T) {
	client := &fakeOpenMic{resp: upstream(http.StatusOK, `{"calls":[{"id":"call_9"}]}`)}
	router := newAdminRouter(client)

	rec := serve(router, http.MethodGet, "/api/call/logs/bot_1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bot_1", client.lastID)
	assert.JSONEq(t, `{"calls":[{"id":"call_9"}]}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/call/history/call_9", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "call_9", client.lastID)
}

func TestRelayUpstream_NonJSONBody(t *testing.T) {
	client := &fakeOpenMic{resp: upstream(http.StatusOK, `<html>gateway</html>`)}

	rec := serve(newAdminRouter(client), http.MethodGet, "/api/call/history/call_9", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid response from OpenMic")
}

// brokenPipeWriter accepts headers but fails every body write
type brokenPipeWriter struct {
	header http.Header
	status int
}

func (w *brokenPipeWriter) Header() http.Header { return w.header }
func (w *brokenPipeWriter) WriteHeader(status int) { w.status = status }
func (w *brokenPipeWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRelayUpstream_LogsWriteFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger.SetBase(zap.New(core))
	t.Cleanup(func() { logger.SetBase(zap.NewNop()) })

	w := &brokenPipeWriter{header: http.Header{}}
	relayUpstream(w, upstream(http.StatusCreated, `{"uid":"bot_1"}`))

	assert.Equal(t, http.StatusCreated, w.status)
	entries := logs.FilterMessage("failed to relay upstream response").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusCreated), entries[0].ContextMap()["status"])
}
