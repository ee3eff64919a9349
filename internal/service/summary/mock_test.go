package summary

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"catalog-summary/internal/domain"
	"catalog-summary/internal/metrics"
	"catalog-summary/internal/testutil"
)

// errTest is a sentinel error for test scenarios.
var errTest = fmt.Errorf("test error")

type mockCatalog = testutil.MockCatalog
type mockNotifier = testutil.MockNotifier

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDeps(catalog *mockCatalog, notifier *mockNotifier) (Collaborators, *metrics.Metrics) {
	m := metrics.New()
	logger := discardLogger()
	return Collaborators{
		Charts:     catalog,
		Aggregator: NewAggregator(catalog, notifier, m, logger, 0),
		Notifier:   notifier,
		Metrics:    m,
		Logger:     logger,
	}, m
}

func int64Ptr(v int64) *int64       { return &v }
func intPtr(v int) *int             { return &v }
func float64Ptr(v float64) *float64 { return &v }

func testCase(name, entityFQN, status string) domain.TestCase {
	tc := domain.TestCase{ID: name, Name: name, EntityFQN: entityFQN}
	if status != "" {
		tc.Result = &domain.TestCaseResult{Status: status}
	}
	return tc
}

// ordersTable returns the db.schema.orders table with five columns.
func ordersTable() *domain.Table {
	return &domain.Table{
		ID:                 "t-orders",
		Name:               "orders",
		FullyQualifiedName: "db.schema.orders",
		Description:        "All customer orders",
		TableType:          "Regular",
		Service:            &domain.EntityReference{ID: "s1", Type: "databaseService", Name: "warehouse"},
		Database:           &domain.EntityReference{ID: "d1", Type: "database", Name: "db", FullyQualifiedName: "warehouse.db"},
		DatabaseSchema:     &domain.EntityReference{ID: "sc1", Type: "databaseSchema", Name: "schema", FullyQualifiedName: "warehouse.db.schema"},
		Owner:              &domain.EntityReference{ID: "u1", Type: "user", Name: "alice", DisplayName: "Alice"},
		Tags:               []domain.TagLabel{{TagFQN: "Tier.Tier1"}, {TagFQN: "PII.Sensitive"}},
		Columns: []domain.Column{
			{Name: "id", DataType: "BIGINT", Constraint: domain.ConstraintPrimaryKey},
			{Name: "customer_id", DataType: "BIGINT"},
			{Name: "status", DataType: "VARCHAR", DataTypeDisplay: "varchar(16)", Constraint: domain.ConstraintNotNull},
			{Name: "amount", DataType: "DECIMAL"},
			{Name: "created_at", DataType: "TIMESTAMP"},
		},
		TableConstraints: []domain.TableConstraint{
			{ConstraintType: domain.ConstraintPrimaryKey, Columns: []string{"id"}},
			{ConstraintType: domain.ConstraintForeignKey, Columns: []string{"customer_id"}, ReferredColumns: []string{"db.schema.customers.id"}},
		},
		UsageSummary: &domain.UsageSummary{
			WeeklyStats: &domain.UsageStats{Count: 1234, PercentileRank: float64Ptr(95.2)},
		},
	}
}

// ordersCatalog serves ordersTable with a profile of 1000 rows and two
// matching test cases, one passing and one failing.
func ordersCatalog() *mockCatalog {
	return &mockCatalog{
		LatestProfileFn: func(_ context.Context, _ string) (*domain.ProfileSnapshot, error) {
			return &domain.ProfileSnapshot{Timestamp: 1700000000, RowCount: int64Ptr(1000), ColumnCount: intPtr(5)}, nil
		},
		TableQueriesFn: func(_ context.Context, _ string) ([]domain.TableQuery, error) {
			return []domain.TableQuery{{Query: "SELECT 1"}}, nil
		},
		ListTestCasesFn: func(_ context.Context, _ domain.TestCaseFilter) ([]domain.TestCase, error) {
			return []domain.TestCase{
				testCase("row_count", "db.schema.orders", "Success"),
				testCase("not_null", "db.schema.orders", "Failed"),
				testCase("unique", "db.schema.orders_archive", "Success"),
			}, nil
		},
	}
}
