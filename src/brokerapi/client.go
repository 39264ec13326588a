package brokerapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

const (
	tokenEndpoint = "/oauth2/token"

	// TokenRefreshMargin is how long before expiry a token is treated as stale.
	TokenRefreshMargin = 300 * time.Second
)

// Client talks to the brokerage REST API. It owns the access token and the rate
// limiter; every request, including token fetches, takes a rate-limit slot first.
type Client struct {
	transport     Transport
	limiter       *RateLimiter
	appKey        string
	appSecret     string
	accountNumber string
	timeout       time.Duration

	tokenMu    sync.Mutex
	token      *eventmodels.AccessToken
	tokenGroup singleflight.Group

	now            func() time.Time
	requestCounter metric.Int64Counter
}

type apiErrorDTO struct {
	Message string `json:"message"`
}

func (c *Client) AccountNumber() string {
	return c.accountNumber
}

func (c *Client) RemainingCalls() int {
	return c.limiter.RemainingCalls()
}

// RateLimit returns the limiter's window: at most maxCalls per period.
func (c *Client) RateLimit() (maxCalls int, period time.Duration) {
	return c.limiter.MaxCalls(), c.limiter.Period()
}

func (c *Client) cachedToken() (string, bool) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token.IsValid(c.now(), TokenRefreshMargin) {
		return c.token.Token, true
	}

	return "", false
}

// invalidateToken drops the cached token, unless it has already been replaced by a
// token other than the one that was rejected.
func (c *Client) invalidateToken(rejected string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != nil && (rejected == "" || c.token.Token == rejected) {
		c.token = nil
	}
}

// GetToken returns a token valid for at least TokenRefreshMargin. Concurrent callers
// that find the token stale share a single fetch.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if tok, ok := c.cachedToken(); ok {
		return tok, nil
	}

	// The shared fetch outlives any single caller; each caller only stops waiting.
	ch := c.tokenGroup.DoChan("token", func() (interface{}, error) {
		if tok, ok := c.cachedToken(); ok {
			return tok, nil
		}

		fetchCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.timeout)
			defer cancel()
		}

		token, err := c.fetchToken(fetchCtx)
		if err != nil {
			return "", err
		}

		c.tokenMu.Lock()
		c.token = &token
		c.tokenMu.Unlock()

		log.WithField("expires_at", token.ExpiresAt).Info("brokerapi: access token refreshed")

		return token.Token, nil
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("GetToken: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("GetToken: failed to fetch token: %w", res.Err)
		}
		return res.Val.(string), nil
	}
}

func (c *Client) fetchToken(ctx context.Context) (eventmodels.AccessToken, error) {
	payload := eventmodels.TokenRequestDTO{
		GrantType: "client_credentials",
		AppKey:    c.appKey,
		AppSecret: c.appSecret,
	}

	body, _, err := c.rawRequest(ctx, http.MethodPost, tokenEndpoint, nil, payload, false)
	if err != nil {
		return eventmodels.AccessToken{}, err
	}

	var dto eventmodels.TokenResponseDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return eventmodels.AccessToken{}, fmt.Errorf("fetchToken: failed to decode token response: %w", err)
	}

	if dto.AccessToken == "" {
		return eventmodels.AccessToken{}, fmt.Errorf("fetchToken: token response has no access_token")
	}

	return dto.ToModel(c.now()), nil
}

// Request performs an API call and returns the raw JSON body of a 2xx response. An
// authenticated call that fails with 401 is retried exactly once with a fresh token.
func (c *Client) Request(ctx context.Context, method, endpoint string, query url.Values, body interface{}, useAuth bool) ([]byte, error) {
	tracer := otel.GetTracerProvider().Tracer("brokerapi")
	ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", method, endpoint))
	defer span.End()

	res, usedToken, err := c.rawRequest(ctx, method, endpoint, query, body, useAuth)
	if err != nil && useAuth && errors.Is(err, ErrAuthentication) {
		log.WithContext(ctx).Warnf("brokerapi: %s %s unauthorized, refreshing token and retrying once", method, endpoint)

		c.invalidateToken(usedToken)
		res, _, err = c.rawRequest(ctx, method, endpoint, query, body, useAuth)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return res, nil
}

func (c *Client) rawRequest(ctx context.Context, method, endpoint string, query url.Values, body interface{}, useAuth bool) ([]byte, string, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, "", fmt.Errorf("rawRequest: failed to acquire rate limit slot: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	var token string
	if useAuth {
		var err error
		if token, err = c.GetToken(ctx); err != nil {
			return nil, "", err
		}

		headers.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		headers.Set("appkey", c.appKey)
		headers.Set("appsecret", c.appSecret)
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, token, fmt.Errorf("rawRequest: failed to encode body: %w", err)
		}
	}

	res, err := c.transport.Send(ctx, TransportRequest{
		Method:  method,
		Path:    endpoint,
		Query:   query,
		Body:    payload,
		Headers: headers,
		Timeout: c.timeout,
	})

	if err != nil {
		c.countRequest(ctx, method, endpoint, 0)
		return nil, token, newTransportError(err)
	}

	c.countRequest(ctx, method, endpoint, res.StatusCode)

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return res.Body, token, nil
	}

	return nil, token, newApiError(res.StatusCode, errorMessage(res))
}

func (c *Client) countRequest(ctx context.Context, method, endpoint string, status int) {
	if c.requestCounter == nil {
		return
	}

	c.requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("endpoint", endpoint),
		attribute.Int("status", status),
	))
}

func errorMessage(res TransportResponse) string {
	var dto apiErrorDTO
	if err := json.Unmarshal(res.Body, &dto); err == nil && dto.Message != "" {
		return dto.Message
	}

	if text := strings.TrimSpace(string(res.Body)); text != "" {
		return text
	}

	return http.StatusText(res.StatusCode)
}

func (c *Client) Close() error {
	return c.transport.Close()
}

func NewClient(transport Transport, limiter *RateLimiter, cfg eventmodels.BrokerConfig) *Client {
	counter, err := otel.Meter("brokerapi").Int64Counter("broker_api_requests",
		metric.WithDescription("Requests sent to the brokerage API, by status code"))
	if err != nil {
		log.Warnf("NewClient: failed to create request counter: %v", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = eventmodels.DefaultRequestTimeout
	}

	return &Client{
		transport:      transport,
		limiter:        limiter,
		appKey:         cfg.AppKey,
		appSecret:      cfg.AppSecret,
		accountNumber:  cfg.AccountNumber,
		timeout:        timeout,
		now:            time.Now,
		requestCounter: counter,
	}
}
