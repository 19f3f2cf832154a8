package http

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jinzhu/copier"
	"github.com/voicedesk/openmic-bridge/internal/domain"
	"github.com/voicedesk/openmic-bridge/pkg/logger"
	"go.uber.org/zap"
)

// ErrAPIKeyNotConfigured is returned by every call when no OpenMic API key is set
var ErrAPIKeyNotConfigured = errors.New("OpenMic API key not configured")

// UpstreamResponse is an OpenMic reply relayed as-is to the admin caller
type UpstreamResponse struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports a 2xx upstream status
func (r *UpstreamResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// OpenMicAPI is the subset of the OpenMic REST API used by the admin handlers
type OpenMicAPI interface {
	CreateBot(ctx context.Context, req *domain.BotRequest) (*UpstreamResponse, error)
	UpdateBot(ctx context.Context, uid string, req *domain.BotRequest) (*UpstreamResponse, error)
	DeleteBot(ctx context.Context, uid string) (*UpstreamResponse, error)
	ListBots(ctx context.Context, page int) (*UpstreamResponse, error)
	ListCalls(ctx context.Context, botID string) (*UpstreamResponse, error)
	GetCall(ctx context.Context, callID string) (*UpstreamResponse, error)
}

// OpenMicClient handles communication with the OpenMic API
type OpenMicClient struct {
	httpClient *resty.Client
	apiKey     string
}

var _ OpenMicAPI = (*OpenMicClient)(nil)

// NewOpenMicClient creates a new OpenMic API client
func NewOpenMicClient(baseURL, apiKey string, timeout time.Duration) *OpenMicClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &OpenMicClient{
		httpClient: client,
		apiKey:     apiKey,
	}
}

// BuildUpstreamBot maps the admin payload onto the OpenMic bot body with the fixed evaluation settings
func BuildUpstreamBot(req *domain.BotRequest) (*domain.UpstreamBot, error) {
	var bot domain.UpstreamBot
	if err := copier.Copy(&bot, req); err != nil {
		return nil, fmt.Errorf("failed to build bot payload: %w", err)
	}
	bot.PostCallSettings = domain.PostCallSettings{
		SummaryPrompt:               req.SummaryPrompt,
		SuccessEvaluationPrompt:     domain.DefaultSuccessEvaluationPrompt,
		SuccessEvaluationRubricType: domain.DefaultSuccessRubricType,
	}
	return &bot, nil
}

// CreateBot creates a bot
func (c *OpenMicClient) CreateBot(ctx context.Context, req *domain.BotRequest) (*UpstreamResponse, error) {
	bot, err := BuildUpstreamBot(req)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, resty.MethodPost, "/bots", bot, nil)
}

// UpdateBot patches an existing bot
func (c *OpenMicClient) UpdateBot(ctx context.Context, uid string, req *domain.BotRequest) (*UpstreamResponse, error) {
	bot, err := BuildUpstreamBot(req)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, resty.MethodPatch, "/bots/"+url.PathEscape(uid), bot, nil)
}

// DeleteBot deletes a bot
func (c *OpenMicClient) DeleteBot(ctx context.Context, uid string) (*UpstreamResponse, error) {
	return c.do(ctx, resty.MethodDelete, "/bots/"+url.PathEscape(uid), nil, nil)
}

// ListBots fetches one page of bots. Pages start at 1.
func (c *OpenMicClient) ListBots(ctx context.Context, page int) (*UpstreamResponse, error) {
	if page < 1 {
		page = 1
	}
	query := map[string]string{
		"limit":  strconv.Itoa(domain.BotListPageSize),
		"offset": strconv.Itoa((page - 1) * domain.BotListPageSize),
	}
	return c.do(ctx, resty.MethodGet, "/bots", nil, query)
}

// ListCalls fetches the call logs of a bot
func (c *OpenMicClient) ListCalls(ctx context.Context, botID string) (*UpstreamResponse, error) {
	return c.do(ctx, resty.MethodGet, "/calls", nil, map[string]string{"bot_id": botID})
}

// GetCall fetches a single call with its transcript
func (c *OpenMicClient) GetCall(ctx context.Context, callID string) (*UpstreamResponse, error) {
	return c.do(ctx, resty.MethodGet, "/call/"+url.PathEscape(callID), nil, nil)
}

func (c *OpenMicClient) do(ctx context.Context, method, path string, body interface{}, query map[string]string) (*UpstreamResponse, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyNotConfigured
	}

	req := c.httpClient.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		logger.Error(ctx, "OpenMic API call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("failed to call OpenMic API: %w", err)
	}

	logger.Debug(ctx, "OpenMic API call completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("latency", time.Since(start)))

	return &UpstreamResponse{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}
