package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/core/ports/gateways"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientConfig configures the processor REST client.
type ClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// HTTPClient talks to the payment processor's REST API.
// Every mutating call carries an Idempotency-Key header so retries are safe.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ gateways.PaymentProcessor = (*HTTPClient)(nil)

// NewHTTPClient builds a client. When a token URL is configured, requests are
// authenticated with the OAuth2 client credentials flow.
func NewHTTPClient(cfg ClientConfig, logger *slog.Logger) *HTTPClient {
	base := &http.Client{Timeout: cfg.Timeout}
	client := base
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		client = cc.Client(tokenCtx)
		client.Timeout = cfg.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{baseURL: cfg.BaseURL, client: client, logger: logger}
}

type moneyPayload struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type createPayload struct {
	moneyPayload
	Metadata map[string]string `json:"metadata,omitempty"`
}

type transferPayload struct {
	moneyPayload
	Destination string `json:"destination"`
}

type referenceResponse struct {
	ID string `json:"id"`
}

type holdResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	CapturedCents int64  `json:"captured_cents"`
	FailureReason string `json:"failure_reason"`
}

func toMoneyPayload(m domain.Money) moneyPayload {
	return moneyPayload{AmountCents: m.Cents(), Currency: string(m.Currency())}
}

func (c *HTTPClient) CreateCharge(ctx context.Context, amount domain.Money, metadata map[string]string, idempotencyKey string) (string, error) {
	var out referenceResponse
	if err := c.do(ctx, http.MethodPost, "/v1/charges", idempotencyKey, createPayload{toMoneyPayload(amount), metadata}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *HTTPClient) CreateHold(ctx context.Context, amount domain.Money, metadata map[string]string, idempotencyKey string) (string, error) {
	var out referenceResponse
	if err := c.do(ctx, http.MethodPost, "/v1/holds", idempotencyKey, createPayload{toMoneyPayload(amount), metadata}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *HTTPClient) CaptureHold(ctx context.Context, holdRef string, amount domain.Money, idempotencyKey string) error {
	path := "/v1/holds/" + url.PathEscape(holdRef) + "/capture"
	return c.do(ctx, http.MethodPost, path, idempotencyKey, toMoneyPayload(amount), nil)
}

func (c *HTTPClient) ReleaseHold(ctx context.Context, holdRef string, idempotencyKey string) error {
	path := "/v1/holds/" + url.PathEscape(holdRef) + "/release"
	return c.do(ctx, http.MethodPost, path, idempotencyKey, struct{}{}, nil)
}

func (c *HTTPClient) LookupHold(ctx context.Context, idempotencyKey string) (*gateways.Hold, error) {
	var out holdResponse
	path := "/v1/holds?idempotency_key=" + url.QueryEscape(idempotencyKey)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &gateways.Hold{
		Reference:     out.ID,
		State:         gateways.HoldState(out.Status),
		CapturedCents: out.CapturedCents,
		FailureReason: out.FailureReason,
	}, nil
}

func (c *HTTPClient) Transfer(ctx context.Context, account string, amount domain.Money, idempotencyKey string) (string, error) {
	var out referenceResponse
	if err := c.do(ctx, http.MethodPost, "/v1/transfers", idempotencyKey, transferPayload{toMoneyPayload(amount), account}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// do sends one request and classifies the result:
// 2xx is success, 404 on a lookup is ErrHoldNotFound, other 4xx are declines,
// and 408, 429, 5xx or transport failures leave the outcome unknown.
func (c *HTTPClient) do(ctx context.Context, method, path, idempotencyKey string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode processor request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build processor request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Processor request failed", slog.String("method", method), slog.String("path", path),
			slog.String("idempotency_key", idempotencyKey), slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", gateways.ErrProcessorUnavailable, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	c.logger.DebugContext(ctx, "Processor request completed", slog.String("method", method), slog.String("path", path),
		slog.Int("status", resp.StatusCode), slog.Duration("latency", time.Since(start)),
		slog.String("idempotency_key", idempotencyKey))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			// The call went through; only the answer is unreadable.
			return fmt.Errorf("%w: decode response: %v", gateways.ErrProcessorUnavailable, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound && method == http.MethodGet:
		return gateways.ErrHoldNotFound
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", gateways.ErrProcessorUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d: %s", gateways.ErrProcessorDeclined, resp.StatusCode, declineMessage(respBody))
	}
}

func declineMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
