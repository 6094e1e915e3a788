package processor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/core/ports/gateways"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(ClientConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, nil)
}

func TestHTTPClient_CreateHoldSendsIdempotencyKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/holds", r.URL.Path)
		assert.Equal(t, "deposit:d1", r.Header.Get("Idempotency-Key"))

		var body createPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(20000), body.AmountCents)
		assert.Equal(t, "EUR", body.Currency)
		assert.Equal(t, "b1", body.Metadata["booking_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"hold_123"}`))
	})

	ref, err := client.CreateHold(context.Background(), domain.MustMoney(20000, "EUR"), map[string]string{"booking_id": "b1"}, "deposit:d1")
	require.NoError(t, err)
	assert.Equal(t, "hold_123", ref)
}

func TestHTTPClient_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"declined", http.StatusPaymentRequired, gateways.ErrProcessorDeclined},
		{"bad request", http.StatusBadRequest, gateways.ErrProcessorDeclined},
		{"server error", http.StatusBadGateway, gateways.ErrProcessorUnavailable},
		{"rate limited", http.StatusTooManyRequests, gateways.ErrProcessorUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			})
			_, err := client.Transfer(context.Background(), "acct_1", domain.MustMoney(100, "USD"), "payout:b1")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHTTPClient_LookupHold(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.URL.Query().Get("idempotency_key") == "deposit:missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":"hold_1","status":"captured","captured_cents":5000}`))
	})

	hold, err := client.LookupHold(context.Background(), "deposit:d1")
	require.NoError(t, err)
	assert.Equal(t, gateways.Hold{Reference: "hold_1", State: gateways.HoldStateCaptured, CapturedCents: 5000}, *hold)

	_, err = client.LookupHold(context.Background(), "deposit:missing")
	assert.ErrorIs(t, err, gateways.ErrHoldNotFound)
}

func TestHTTPClient_TimeoutIsUnknownOutcome(t *testing.T) {
	// The server would otherwise wait on a request it never reads.
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := client.CaptureHold(ctx, "hold_1", domain.MustMoney(100, "EUR"), "deposit:d1:capture")
	assert.ErrorIs(t, err, gateways.ErrProcessorUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
