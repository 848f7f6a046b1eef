package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dead-stock/internal/cache"
	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/config"
	"github.com/Veraticus/dead-stock/internal/engine"
	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/view"
)

// fakeMarketplace serves listings and credits like the collaborator API.
func fakeMarketplace(t *testing.T, consumed *atomic.Int64) *httptest.Server {
	t.Helper()

	listings := `{"listings": [
		{"item_id": "a1", "title": "Garlic Press", "sku": "AMZ-B08ABC1234", "days_listed": 90, "marketplace": "ebay_us"},
		{"item_id": "a2", "title": "Desk Fan", "sku": "AMZ-B08ABC5678", "days_listed": 60, "marketplace": "ebay_us"},
		{"item_id": "w1", "title": "Mug", "sku": "WM-12345", "days_listed": 3, "marketplace": "ebay_us"}
	]}`

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/listings", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listings))
	})
	mux.HandleFunc("/credits", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.CreditBalance{Plan: "test", AvailableCredits: 100})
	})
	mux.HandleFunc("/credits/consume", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Credits int `json:"credits"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		consumed.Add(int64(req.Credits))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.CreditBalance{Plan: "test", AvailableCredits: 100 - req.Credits, UsedCredits: req.Credits})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testViper(t *testing.T, baseURL string) *viper.Viper {
	t.Helper()
	t.Setenv("MARKETPLACE_BASE_URL", "")
	t.Setenv("MARKETPLACE_API_KEY", "")

	dir := t.TempDir()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("user", "seller-1")
	v.Set("database.path", filepath.Join(dir, "deadstock.db"))
	v.Set("export.dir", dir)
	if baseURL != "" {
		v.Set("marketplace.base_url", baseURL)
	}
	return v
}

func TestApp_ScanQueueExport(t *testing.T) {
	ctx := context.Background()
	var consumed atomic.Int64
	server := fakeMarketplace(t, &consumed)
	v := testViper(t, server.URL)

	a, err := newApp(ctx, v, appOptions{marketplace: true})
	require.NoError(t, err)

	result, err := a.scanner.Scan(ctx, a.user, config.LoadFilterConfig(v), engine.ScanOptions{})
	require.NoError(t, err)
	assert.True(t, result.Costed)
	assert.Equal(t, int64(3), consumed.Load())
	assert.Equal(t, []string{"a1", "a2"}, model.IDs(result.Candidates))

	assert.Equal(t, []string{"a1", "a2"}, a.queue.Add([]string{"a1", "a2"}))
	require.NoError(t, a.saveQueue(ctx))
	a.Close()

	// A second invocation sees the cached scan and the saved queue for free.
	a, err = newApp(ctx, v, appOptions{})
	require.NoError(t, err)
	defer a.Close()

	_, err = a.loadPools(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, int64(3), consumed.Load())

	groups := a.queue.GroupBySupplier()
	require.Len(t, groups, 1)
	assert.Equal(t, "Amazon", groups[0].SupplierName)
	assert.Len(t, groups[0].Listings, 2)

	exported, err := a.exporter.ExportGroup(ctx, "Amazon")
	require.NoError(t, err)
	assert.Equal(t, 2, exported.Exported)
	assert.Equal(t, 2, exported.HistoryTotal)
	assert.FileExists(t, exported.Path)

	total, err := a.history.Count(ctx, a.user)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Empty(t, a.queue.GroupBySupplier())
}

func TestApp_ExportAfterCacheWindow(t *testing.T) {
	ctx := context.Background()
	var consumed atomic.Int64
	server := fakeMarketplace(t, &consumed)
	v := testViper(t, server.URL)

	start := time.Now()
	a, err := newApp(ctx, v, appOptions{marketplace: true})
	require.NoError(t, err)

	_, err = a.scanner.Scan(ctx, a.user, config.LoadFilterConfig(v), engine.ScanOptions{})
	require.NoError(t, err)
	a.queue.Add([]string{"a1"})
	a.queue.SetExportTool("Amazon", "DSers")
	require.NoError(t, a.saveQueue(ctx))
	a.Close()

	later := start.Add(cache.TTL + 10*time.Minute)
	a, err = newApp(ctx, v, appOptions{
		cacheOptions: []cache.Option{cache.WithClock(func() time.Time { return later })},
	})
	require.NoError(t, err)
	defer a.Close()

	_, err = a.scanner.Refilter(ctx, a.user, config.LoadFilterConfig(v))
	require.ErrorIs(t, err, common.ErrCacheMiss, "free re-filter stays bounded by the cache window")

	_, err = a.loadPools(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, int64(3), consumed.Load())

	group, ok := a.queue.Group("Amazon")
	require.True(t, ok)
	assert.Equal(t, []string{"a1"}, model.IDs(group.Listings))
	assert.Equal(t, "DSers", group.ExportTool)

	exported, err := a.exporter.ExportGroup(ctx, "Amazon")
	require.NoError(t, err)
	assert.Equal(t, 1, exported.Exported)
	assert.FileExists(t, exported.Path)
}

func TestNewApp_MarketplaceRequired(t *testing.T) {
	v := testViper(t, "")

	_, err := newApp(context.Background(), v, appOptions{marketplace: true})
	require.Error(t, err)

	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestNewApp_WithoutMarketplace(t *testing.T) {
	v := testViper(t, "")
	v.Set("cache.backend", config.CacheMemory)

	a, err := newApp(context.Background(), v, appOptions{})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.client)

	_, err = a.loadPools(context.Background(), v)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestNewApp_RemoteExportNeedsMarketplace(t *testing.T) {
	v := testViper(t, "")
	v.Set("export.generator", config.GeneratorRemote)

	_, err := newApp(context.Background(), v, appOptions{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestNewApp_InvalidConfig(t *testing.T) {
	v := testViper(t, "")
	v.Set("cache.backend", "memcached")

	_, err := newApp(context.Background(), v, appOptions{})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestFilterFromFlags(t *testing.T) {
	cmd := candidatesCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--max-views", "25", "--supplier", "Walmart"}))

	base := model.DefaultFilterConfig()
	base.PeriodDays = 14

	got := filterFromFlags(cmd, base)
	assert.Equal(t, 14, got.PeriodDays, "unset flags keep the base value")
	assert.Equal(t, 25, got.MaxViews)
	assert.Equal(t, "Walmart", got.SupplierFilter)
	assert.Equal(t, model.FilterAll, got.MarketplaceFilter)
}

func TestScanError(t *testing.T) {
	tests := []struct {
		err     error
		name    string
		message string
	}{
		{
			name:    "credits",
			err:     &common.CreditError{Required: 10, Available: 4},
			message: "Not enough credits: this scan needs 10, top up at least 6",
		},
		{
			name:    "auth",
			err:     &common.AuthError{Op: "fetch listings"},
			message: "Marketplace account is not connected",
		},
		{
			name:    "in flight",
			err:     common.ErrFetchInFlight,
			message: "A scan is already running for this account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := scanError(tt.err)

			var userErr *common.UserError
			require.ErrorAs(t, err, &userErr)
			assert.Equal(t, tt.message, userErr.UserMessage)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	plain := errors.New("boom")
	assert.Equal(t, plain, scanError(plain))
}

func TestSelectGroups(t *testing.T) {
	groups := []model.QueueGroup{
		{SupplierName: "Amazon", Listings: make([]model.Listing, 2)},
		{SupplierName: "Walmart", Listings: make([]model.Listing, 1)},
	}

	assert.Len(t, selectGroups(groups, ""), 2)
	assert.Equal(t, 3, countListings(groups))

	got := selectGroups(groups, "walmart")
	require.Len(t, got, 1)
	assert.Equal(t, "Walmart", got[0].SupplierName)
	assert.Empty(t, selectGroups(groups, "Costco"))
}

func TestClassifyCmd(t *testing.T) {
	cmd := classifyCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--sku", "AUTODS-AMZ-B08ABC1234", "--title", "Garlic press"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "AutoDS")
	assert.Contains(t, out.String(), "Amazon")
	assert.Contains(t, out.String(), "B08ABC1234")
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	var consumed atomic.Int64
	server := fakeMarketplace(t, &consumed)
	v := testViper(t, server.URL)

	a, err := newApp(ctx, v, appOptions{marketplace: true})
	require.NoError(t, err)
	defer a.Close()

	// No scan yet: the view reports the miss.
	var out bytes.Buffer
	d := newDashboard(a, &out)
	err = d.show(ctx, view.Candidates)
	require.ErrorIs(t, err, common.ErrCacheMiss)
	assert.False(t, d.machine.Busy())

	_, err = a.scanner.Scan(ctx, a.user, config.LoadFilterConfig(v), engine.ScanOptions{})
	require.NoError(t, err)

	out.Reset()
	d = newDashboard(a, &out)
	require.NoError(t, d.show(ctx, view.Candidates))
	assert.Contains(t, out.String(), "a1")
	assert.NotContains(t, out.String(), "w1")

	out.Reset()
	require.NoError(t, d.show(ctx, view.History))
	assert.Contains(t, out.String(), "Nothing exported yet.")
	assert.Equal(t, view.History, d.machine.State())
}
