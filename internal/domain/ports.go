package domain

import (
	"context"
	"time"
)

// EntityFetcher loads catalog entities by fully-qualified name.
type EntityFetcher interface {
	GetTable(ctx context.Context, fqn string) (*Table, error)
	GetDashboard(ctx context.Context, fqn string) (*Dashboard, error)
}

// ChartFetcher resolves dashboard chart references into chart details.
type ChartFetcher interface {
	FetchCharts(ctx context.Context, refs []EntityReference) ([]Chart, error)
}

// ProfileFetcher returns the latest profile of a table. A nil snapshot with
// a nil error means profiling is not configured for the table.
type ProfileFetcher interface {
	LatestProfile(ctx context.Context, fqn string) (*ProfileSnapshot, error)
}

// QueryFetcher returns the recorded queries of a table.
type QueryFetcher interface {
	TableQueries(ctx context.Context, tableID string) ([]TableQuery, error)
}

// TestCaseFetcher lists data-quality test cases.
type TestCaseFetcher interface {
	ListTestCases(ctx context.Context, filter TestCaseFilter) ([]TestCase, error)
}

// CatalogClient bundles every catalog collaborator.
type CatalogClient interface {
	EntityFetcher
	ChartFetcher
	ProfileFetcher
	QueryFetcher
	TestCaseFetcher
}

// Notifier surfaces a non-blocking failure to the user. It never fails.
type Notifier interface {
	NotifyError(ctx context.Context, err error, message string)
}

// NotificationRepository persists notifications.
type NotificationRepository interface {
	Insert(ctx context.Context, n *Notification) error
	List(ctx context.Context, filter NotificationFilter) ([]Notification, int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
