package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/service"
)

var fastRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Linear:       true,
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "secret", User: "alice"}, WithReadRetry(fastRetry))
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		cfg     Config
	}{
		{name: "valid", cfg: Config{BaseURL: "https://api.example.com", User: "alice"}},
		{name: "missing url", cfg: Config{User: "alice"}, wantErr: common.ErrMissingConfig},
		{name: "bad scheme", cfg: Config{BaseURL: "ftp://x", User: "alice"}, wantErr: common.ErrInvalidConfig},
		{name: "missing user", cfg: Config{BaseURL: "https://api.example.com"}, wantErr: common.ErrMissingConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_FetchListings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "alice", r.Header.Get("X-User"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"listings":[{"item_id":"1","title":"Lamp","sku":"AMZ-B08ABC1234","price":"12.50","views":3}]}`))
	})

	listings, err := client.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "1", listings[0].ItemID)
	require.NotNil(t, listings[0].Views)
	assert.Equal(t, 3, *listings[0].Views)
}

func TestClient_FetchListingsIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchListings(context.Background())
	var netErr *common.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, common.IsUnreachable(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_AuthError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.FetchListings(context.Background())
	var authErr *common.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "fetch listings", authErr.Op)
}

func TestClient_BalanceRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, model.CreditBalance{Plan: "pro", AvailableCredits: 40, UsedCredits: 10})
	})

	balance, err := client.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, balance.AvailableCredits)
	assert.Equal(t, "pro", balance.Plan)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_HealthGivesUp(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.Health(context.Background())
	require.ErrorIs(t, err, common.ErrMaxRetries)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ConsumeInsufficientCredits(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req consumeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 25, req.Credits)
		writeJSON(w, http.StatusPaymentRequired, model.CreditBalance{AvailableCredits: 5})
	})

	_, err := client.Consume(context.Background(), 25)
	var creditErr *common.CreditError
	require.ErrorAs(t, err, &creditErr)
	assert.Equal(t, 25, creditErr.Required)
	assert.Equal(t, 5, creditErr.Available)
	assert.Equal(t, 20, creditErr.Shortfall())
}

func TestClient_History(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/history":
			var req historyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "alice", req.User)
			writeJSON(w, http.StatusOK, totalResponse{Total: 10 + len(req.Records)})
		case "/history/count":
			assert.Equal(t, "alice", r.URL.Query().Get("user"))
			writeJSON(w, http.StatusOK, totalResponse{Total: 12})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	total, err := client.Append(context.Background(), "alice", []model.AuditRecord{{ID: "1"}, {ID: "2"}})
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	count, err := client.Count(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 12, count)
}

func TestClient_Generate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "autods", req.TargetTool)
		assert.Equal(t, model.ExportSurvivors, req.ExportMode)
		assert.Len(t, req.Items, 1)

		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("sku\nAMZ-1\n"))
	})

	data, err := client.Generate(context.Background(), service.GenerateRequest{
		TargetTool: "autods",
		ExportMode: model.ExportSurvivors,
		Items:      []model.Listing{{ID: "1", SKU: "AMZ-1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "sku\nAMZ-1\n", string(data))
}

func TestClient_GenerateClientError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("unknown tool"))
	})

	_, err := client.Generate(context.Background(), service.GenerateRequest{TargetTool: "nope"})
	require.Error(t, err)
	assert.False(t, common.IsRetryable(err))
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(Config{BaseURL: url, User: "alice"}, WithReadRetry(service.NoRetry))
	require.NoError(t, err)

	_, err = client.FetchListings(context.Background())
	var netErr *common.NetworkError
	require.True(t, errors.As(err, &netErr))
}
