package domain

import "time"

// ProfileSnapshot is the most recent profiler run for a table.
// Every field is optional; the catalog omits what the profiler did not compute.
type ProfileSnapshot struct {
	Timestamp         int64    `json:"timestamp,omitempty"`
	RowCount          *int64   `json:"rowCount,omitempty"`
	ColumnCount       *int     `json:"columnCount,omitempty"`
	ProfileSample     *float64 `json:"profileSample,omitempty"`
	ProfileSampleType string   `json:"profileSampleType,omitempty"` // "PERCENTAGE" or "ROWS"
}

// Empty reports whether the snapshot carries no data at all. An empty
// snapshot is treated like a missing one: the summary shows no statistics
// block rather than one filled with defaults.
func (p *ProfileSnapshot) Empty() bool {
	return p == nil || (p.Timestamp == 0 && p.RowCount == nil && p.ColumnCount == nil && p.ProfileSample == nil)
}

// TableQuery is a recorded query against a table.
type TableQuery struct {
	Query     string            `json:"query"`
	Duration  float64           `json:"duration,omitempty"`
	Users     []EntityReference `json:"users,omitempty"`
	QueryDate string            `json:"queryDate,omitempty"`
	Checksum  string            `json:"checksum,omitempty"`
}

// TestCaseStatus is the outcome of a single data-quality test run.
type TestCaseStatus int

const (
	TestCaseStatusUnknown TestCaseStatus = iota
	TestCaseStatusSuccess
	TestCaseStatusFailed
	TestCaseStatusAborted
	TestCaseStatusQueued
)

// ParseTestCaseStatus maps the catalog's status string onto the closed enum.
// Anything unrecognised, including "", yields TestCaseStatusUnknown and false.
func ParseTestCaseStatus(s string) (TestCaseStatus, bool) {
	switch s {
	case "Success":
		return TestCaseStatusSuccess, true
	case "Failed":
		return TestCaseStatusFailed, true
	case "Aborted":
		return TestCaseStatusAborted, true
	case "Queued":
		return TestCaseStatusQueued, true
	}
	return TestCaseStatusUnknown, false
}

func (s TestCaseStatus) String() string {
	switch s {
	case TestCaseStatusSuccess:
		return "Success"
	case TestCaseStatusFailed:
		return "Failed"
	case TestCaseStatusAborted:
		return "Aborted"
	case TestCaseStatusQueued:
		return "Queued"
	case TestCaseStatusUnknown:
		return "Unknown"
	}
	return "Unknown"
}

// TestCaseResult is the latest result recorded for a test case.
type TestCaseResult struct {
	Status    string `json:"testCaseStatus"`
	Result    string `json:"result,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// TestCase is a data-quality test attached to an entity.
type TestCase struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	FullyQualifiedName string          `json:"fullyQualifiedName,omitempty"`
	EntityLink         string          `json:"entityLink,omitempty"`
	EntityFQN          string          `json:"entityFQN,omitempty"`
	Deleted            bool            `json:"deleted,omitempty"`
	Result             *TestCaseResult `json:"testCaseResult,omitempty"`
}

// Status parses the latest result's status; a missing result is Unknown.
func (tc TestCase) Status() TestCaseStatus {
	if tc.Result == nil {
		return TestCaseStatusUnknown
	}
	s, _ := ParseTestCaseStatus(tc.Result.Status)
	return s
}

// TestResultSummary counts test outcomes. Ignored counts cases that did not
// land in any of the three outcome counters.
type TestResultSummary struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Aborted int `json:"aborted"`
	Ignored int `json:"ignored"`
}

// Record folds one status into the summary and reports whether it was
// counted as an outcome.
func (s *TestResultSummary) Record(status TestCaseStatus) bool {
	switch status {
	case TestCaseStatusSuccess:
		s.Success++
	case TestCaseStatusFailed:
		s.Failed++
	case TestCaseStatusAborted:
		s.Aborted++
	case TestCaseStatusQueued, TestCaseStatusUnknown:
		s.Ignored++
		return false
	}
	return true
}

// Total is the number of cases counted as an outcome.
func (s TestResultSummary) Total() int {
	return s.Success + s.Failed + s.Aborted
}

// Include controls whether soft-deleted records are returned.
type Include string

const (
	IncludeNonDeleted Include = "non-deleted"
	IncludeDeleted    Include = "deleted"
	IncludeAll        Include = "all"
)

// TestCaseFilter selects test cases by entity link.
type TestCaseFilter struct {
	EntityLink      string
	Fields          []string
	IncludeAllTests bool
	Include         Include
	Limit           int
}

// TableEntityLink builds the catalog's entity link for a table FQN.
func TableEntityLink(fqn string) string {
	return "<#E::table::" + fqn + ">"
}

// TableRef identifies the table a profiler aggregation runs for.
type TableRef struct {
	ID      string
	FQN     string
	Name    string
	Deleted bool
}

// RefOf returns the TableRef for t.
func RefOf(t *Table) TableRef {
	return TableRef{ID: t.ID, FQN: t.FullyQualifiedName, Name: t.Name, Deleted: t.Deleted}
}

// ProfilerResult is the output of a full profiler aggregation.
type ProfilerResult struct {
	Profile   *ProfileSnapshot
	Queries   []TableQuery
	Tests     []TestCase
	Results   TestResultSummary
	FetchedAt time.Time
}
