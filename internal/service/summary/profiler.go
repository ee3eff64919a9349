package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"catalog-summary/internal/domain"
	"catalog-summary/internal/metrics"
)

// DefaultTestCaseLimit is the page size used when listing a table's test cases.
const DefaultTestCaseLimit = 100000

// testCaseFields are the test case fields the summary needs.
var testCaseFields = []string{"testCaseResult", "entityLink", "testDefinition", "testSuite"}

// ProfilerSource is the subset of the catalog the aggregator reads from.
type ProfilerSource interface {
	domain.ProfileFetcher
	domain.QueryFetcher
	domain.TestCaseFetcher
}

// Aggregator gathers profiling and data-quality results for a table.
type Aggregator struct {
	source    ProfilerSource
	notifier  domain.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
	pageLimit int
}

// NewAggregator creates an Aggregator. A non-positive pageLimit selects
// DefaultTestCaseLimit.
func NewAggregator(source ProfilerSource, notifier domain.Notifier, m *metrics.Metrics, logger *slog.Logger, pageLimit int) *Aggregator {
	if pageLimit <= 0 {
		pageLimit = DefaultTestCaseLimit
	}
	return &Aggregator{
		source:    source,
		notifier:  notifier,
		metrics:   m,
		logger:    logger.With("component", "profiler-aggregator"),
		pageLimit: pageLimit,
	}
}

// LatestProfile returns the table's latest profile, or nil when the table has
// never been profiled.
func (a *Aggregator) LatestProfile(ctx context.Context, ref domain.TableRef) (*domain.ProfileSnapshot, error) {
	p, err := a.source.LatestProfile(ctx, ref.FQN)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest profile of %q: %w", ref.FQN, err)
	}
	if p.Empty() {
		return nil, nil
	}
	return p, nil
}

// RecentQueries returns the recorded queries of the table.
func (a *Aggregator) RecentQueries(ctx context.Context, ref domain.TableRef) ([]domain.TableQuery, error) {
	q, err := a.source.TableQueries(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("queries of %q: %w", ref.FQN, err)
	}
	return q, nil
}

// TestResults lists the table's test cases, keeps those whose entity FQN is
// exactly the table's, and folds their statuses into a summary.
func (a *Aggregator) TestResults(ctx context.Context, ref domain.TableRef) ([]domain.TestCase, domain.TestResultSummary, error) {
	var summary domain.TestResultSummary

	all, err := a.source.ListTestCases(ctx, domain.TestCaseFilter{
		EntityLink:      domain.TableEntityLink(ref.FQN),
		Fields:          testCaseFields,
		IncludeAllTests: true,
		Include:         domain.IncludeDeleted,
		Limit:           a.pageLimit,
	})
	if err != nil {
		return nil, summary, fmt.Errorf("test cases of %q: %w", ref.FQN, err)
	}

	tests := make([]domain.TestCase, 0, len(all))
	for _, tc := range all {
		if tc.EntityFQN != ref.FQN {
			continue
		}
		tests = append(tests, tc)
		status := tc.Status()
		if !summary.Record(status) {
			a.metrics.IgnoredTestResult()
			a.logger.Debug("test case status not counted",
				"table", ref.FQN,
				"test_case", tc.Name,
				"status", status.String(),
			)
		}
	}
	return tests, summary, nil
}

// Aggregate runs every step for ref concurrently and waits for all of them.
// PanelController runs the same steps one by one so each can merge as it
// lands; Aggregate serves callers that want the whole result at once.
// Each failed step is reported through the notifier, unless ctx was
// abandoned, and leaves its field at the zero value; the
// returned error joins those failures. Profile and queries are skipped for
// deleted tables.
func (a *Aggregator) Aggregate(ctx context.Context, ref domain.TableRef) (*domain.ProfilerResult, error) {
	var (
		res  domain.ProfilerResult
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	fail := func(err error, message string) {
		if !abandoned(ctx, err) {
			a.notifier.NotifyError(ctx, err, message)
		}
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		tests, summary, err := a.TestResults(ctx, ref)
		if err != nil {
			fail(err, testsFailureMessage(ref))
			return
		}
		mu.Lock()
		res.Tests, res.Results = tests, summary
		mu.Unlock()
	}()

	if !ref.Deleted {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p, err := a.LatestProfile(ctx, ref)
			if err != nil {
				fail(err, detailsFailureMessage(ref))
				return
			}
			mu.Lock()
			res.Profile = p
			mu.Unlock()
		}()
		go func() {
			defer wg.Done()
			q, err := a.RecentQueries(ctx, ref)
			if err != nil {
				fail(err, detailsFailureMessage(ref))
				return
			}
			mu.Lock()
			res.Queries = q
			mu.Unlock()
		}()
	}

	wg.Wait()
	res.FetchedAt = time.Now().UTC()
	return &res, errors.Join(errs...)
}

// BuildProfilerSummary shapes the statistics view of a table. It returns nil
// when profile is nil.
func BuildProfilerSummary(table *domain.Table, profile *domain.ProfileSnapshot, results domain.TestResultSummary) *domain.ProfilerSummary {
	if profile == nil {
		return nil
	}

	var rowCount int64
	if profile.RowCount != nil {
		rowCount = *profile.RowCount
	}
	columnCount := 0
	if profile.ColumnCount != nil {
		columnCount = *profile.ColumnCount
	} else if table != nil {
		columnCount = len(table.Columns)
	}
	sample := 100.0
	if profile.ProfileSample != nil {
		sample = *profile.ProfileSample
	}

	return &domain.ProfilerSummary{
		RowCount:      rowCount,
		ColumnCount:   columnCount,
		SamplePercent: sample,
		Tests:         results,
		Statistics: []domain.StatisticRow{
			{Title: "Row Count", Value: formatCount(rowCount)},
			{Title: "Column Count", Value: formatCount(int64(columnCount))},
			{Title: "Table Sample %", Value: formatPercent(sample)},
			{Title: "Tests Passed", Value: formatTwoDigits(results.Success), Class: "success"},
			{Title: "Tests Aborted", Value: formatTwoDigits(results.Aborted), Class: "aborted"},
			{Title: "Tests Failed", Value: formatTwoDigits(results.Failed), Class: "failed"},
		},
	}
}

func detailsFailureMessage(ref domain.TableRef) string {
	return fmt.Sprintf("error while fetching table details for %s", ref.Name)
}

func testsFailureMessage(ref domain.TableRef) string {
	return fmt.Sprintf("error while fetching test cases for %s", ref.Name)
}
