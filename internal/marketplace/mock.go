package marketplace

import (
	"context"
	"sync"

	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/service"
)

// MockClient is a mock implementation of every collaborator the Client
// serves, for testing.
type MockClient struct {
	// Functions that can be set by tests to control behavior
	HealthFn        func(ctx context.Context) error
	FetchListingsFn func(ctx context.Context) ([]model.RawListing, error)
	BalanceFn       func(ctx context.Context) (*model.CreditBalance, error)
	ConsumeFn       func(ctx context.Context, credits int) (*model.CreditBalance, error)
	AppendFn        func(ctx context.Context, userKey string, records []model.AuditRecord) (int, error)
	CountFn         func(ctx context.Context, userKey string) (int, error)
	GenerateFn      func(ctx context.Context, req service.GenerateRequest) ([]byte, error)

	// Call tracking
	ConsumeCalls  []int
	AppendCalls   [][]model.AuditRecord
	GenerateCalls []service.GenerateRequest
	HealthCalls   int
	FetchCalls    int
	BalanceCalls  int
	CountCalls    int

	mu sync.Mutex
}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Health implements service.HealthChecker.
func (m *MockClient) Health(ctx context.Context) error {
	m.mu.Lock()
	m.HealthCalls++
	m.mu.Unlock()

	if m.HealthFn != nil {
		return m.HealthFn(ctx)
	}
	return nil
}

// FetchListings implements service.ListingSource.
func (m *MockClient) FetchListings(ctx context.Context) ([]model.RawListing, error) {
	m.mu.Lock()
	m.FetchCalls++
	m.mu.Unlock()

	if m.FetchListingsFn != nil {
		return m.FetchListingsFn(ctx)
	}
	return []model.RawListing{}, nil
}

// Balance implements service.Billing.
func (m *MockClient) Balance(ctx context.Context) (*model.CreditBalance, error) {
	m.mu.Lock()
	m.BalanceCalls++
	m.mu.Unlock()

	if m.BalanceFn != nil {
		return m.BalanceFn(ctx)
	}
	// Default behavior: plenty of credits
	return &model.CreditBalance{Plan: "test", AvailableCredits: 1000}, nil
}

// Consume implements service.Billing.
func (m *MockClient) Consume(ctx context.Context, credits int) (*model.CreditBalance, error) {
	m.mu.Lock()
	m.ConsumeCalls = append(m.ConsumeCalls, credits)
	m.mu.Unlock()

	if m.ConsumeFn != nil {
		return m.ConsumeFn(ctx, credits)
	}
	return &model.CreditBalance{Plan: "test", AvailableCredits: 1000 - credits, UsedCredits: credits}, nil
}

// Append implements service.HistoryLog.
func (m *MockClient) Append(ctx context.Context, userKey string, records []model.AuditRecord) (int, error) {
	m.mu.Lock()
	m.AppendCalls = append(m.AppendCalls, records)
	total := 0
	for _, call := range m.AppendCalls {
		total += len(call)
	}
	m.mu.Unlock()

	if m.AppendFn != nil {
		return m.AppendFn(ctx, userKey, records)
	}
	return total, nil
}

// Count implements service.HistoryLog.
func (m *MockClient) Count(ctx context.Context, userKey string) (int, error) {
	m.mu.Lock()
	m.CountCalls++
	m.mu.Unlock()

	if m.CountFn != nil {
		return m.CountFn(ctx, userKey)
	}
	return 0, nil
}

// Generate implements service.CSVGenerator.
func (m *MockClient) Generate(ctx context.Context, req service.GenerateRequest) ([]byte, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, req)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	return []byte("id\n"), nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConsumeCalls = nil
	m.AppendCalls = nil
	m.GenerateCalls = nil
	m.HealthCalls = 0
	m.FetchCalls = 0
	m.BalanceCalls = 0
	m.CountCalls = 0
}

// Ensure MockClient implements the collaborator interfaces.
var (
	_ service.ListingSource = (*MockClient)(nil)
	_ service.Billing       = (*MockClient)(nil)
	_ service.HistoryLog    = (*MockClient)(nil)
	_ service.CSVGenerator  = (*MockClient)(nil)
	_ service.HealthChecker = (*MockClient)(nil)
)
