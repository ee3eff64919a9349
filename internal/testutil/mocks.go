// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"
	"time"

	"catalog-summary/internal/domain"
)

// === Catalog Client Mock ===

// MockCatalog implements domain.CatalogClient for testing. Its methods are
// called from concurrent fetches, so the Fn fields must be safe for that.
type MockCatalog struct {
	GetTableFn      func(ctx context.Context, fqn string) (*domain.Table, error)
	GetDashboardFn  func(ctx context.Context, fqn string) (*domain.Dashboard, error)
	FetchChartsFn   func(ctx context.Context, refs []domain.EntityReference) ([]domain.Chart, error)
	LatestProfileFn func(ctx context.Context, fqn string) (*domain.ProfileSnapshot, error)
	TableQueriesFn  func(ctx context.Context, tableID string) ([]domain.TableQuery, error)
	ListTestCasesFn func(ctx context.Context, filter domain.TestCaseFilter) ([]domain.TestCase, error)
}

// GetTable implements the interface method for testing.
func (m *MockCatalog) GetTable(ctx context.Context, fqn string) (*domain.Table, error) {
	if m.GetTableFn != nil {
		return m.GetTableFn(ctx, fqn)
	}
	panic("unexpected call to MockCatalog.GetTable")
}

// GetDashboard implements the interface method for testing.
func (m *MockCatalog) GetDashboard(ctx context.Context, fqn string) (*domain.Dashboard, error) {
	if m.GetDashboardFn != nil {
		return m.GetDashboardFn(ctx, fqn)
	}
	panic("unexpected call to MockCatalog.GetDashboard")
}

// FetchCharts implements the interface method for testing.
func (m *MockCatalog) FetchCharts(ctx context.Context, refs []domain.EntityReference) ([]domain.Chart, error) {
	if m.FetchChartsFn != nil {
		return m.FetchChartsFn(ctx, refs)
	}
	panic("unexpected call to MockCatalog.FetchCharts")
}

// LatestProfile implements the interface method for testing.
func (m *MockCatalog) LatestProfile(ctx context.Context, fqn string) (*domain.ProfileSnapshot, error) {
	if m.LatestProfileFn != nil {
		return m.LatestProfileFn(ctx, fqn)
	}
	panic("unexpected call to MockCatalog.LatestProfile")
}

// TableQueries implements the interface method for testing.
func (m *MockCatalog) TableQueries(ctx context.Context, tableID string) ([]domain.TableQuery, error) {
	if m.TableQueriesFn != nil {
		return m.TableQueriesFn(ctx, tableID)
	}
	panic("unexpected call to MockCatalog.TableQueries")
}

// ListTestCases implements the interface method for testing.
func (m *MockCatalog) ListTestCases(ctx context.Context, filter domain.TestCaseFilter) ([]domain.TestCase, error) {
	if m.ListTestCasesFn != nil {
		return m.ListTestCasesFn(ctx, filter)
	}
	panic("unexpected call to MockCatalog.ListTestCases")
}

var _ domain.CatalogClient = (*MockCatalog)(nil)

// === Notifier Mock ===

// NotifiedError is one call recorded by MockNotifier.
type NotifiedError struct {
	Err     error
	Message string
	Subject string
}

// MockNotifier implements domain.Notifier and records every call.
type MockNotifier struct {
	mu    sync.Mutex
	calls []NotifiedError
}

// NotifyError implements the interface method for testing.
func (m *MockNotifier) NotifyError(ctx context.Context, err error, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, NotifiedError{Err: err, Message: message, Subject: domain.SubjectFromContext(ctx)})
}

// Calls returns a copy of the recorded calls.
func (m *MockNotifier) Calls() []NotifiedError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]NotifiedError(nil), m.calls...)
}

var _ domain.Notifier = (*MockNotifier)(nil)

// === Notification Repository Mock ===

// MockNotificationRepo implements domain.NotificationRepository for testing.
type MockNotificationRepo struct {
	InsertFn       func(ctx context.Context, n *domain.Notification) error
	ListFn         func(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int64, error)
	DeleteBeforeFn func(ctx context.Context, cutoff time.Time) (int64, error)

	mu      sync.Mutex
	Entries []*domain.Notification // collected entries for assertions
}

// Insert implements the interface method for testing.
func (m *MockNotificationRepo) Insert(ctx context.Context, n *domain.Notification) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, n); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Entries = append(m.Entries, n)
	m.mu.Unlock()
	return nil
}

// List implements the interface method for testing.
func (m *MockNotificationRepo) List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockNotificationRepo.List")
}

// DeleteBefore implements the interface method for testing.
func (m *MockNotificationRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteBeforeFn != nil {
		return m.DeleteBeforeFn(ctx, cutoff)
	}
	panic("unexpected call to MockNotificationRepo.DeleteBefore")
}

// LastEntry returns the last collected notification, or nil if none.
func (m *MockNotificationRepo) LastEntry() *domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Entries) == 0 {
		return nil
	}
	return m.Entries[len(m.Entries)-1]
}

var _ domain.NotificationRepository = (*MockNotificationRepo)(nil)
