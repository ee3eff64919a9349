package domain

import (
	"encoding/json"
	"strings"
)

// DisplayContext is the host surface a summary is rendered in.
type DisplayContext int

const (
	DisplayExplore DisplayContext = iota + 1
	DisplayDrawer
)

// ParseDisplayContext accepts "explore" or "drawer" (case-insensitive).
// An empty string selects DisplayExplore.
func ParseDisplayContext(s string) (DisplayContext, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "explore":
		return DisplayExplore, nil
	case "drawer":
		return DisplayDrawer, nil
	}
	return 0, ErrValidation("unknown display context %q: use explore or drawer", s)
}

func (c DisplayContext) String() string {
	switch c {
	case DisplayExplore:
		return "explore"
	case DisplayDrawer:
		return "drawer"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (c DisplayContext) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *DisplayContext) UnmarshalText(text []byte) error {
	v, err := ParseDisplayContext(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// DisplayContextSet is a small bit set of display contexts.
type DisplayContextSet uint8

// VisibleIn builds a set from the given contexts.
func VisibleIn(ctxs ...DisplayContext) DisplayContextSet {
	var s DisplayContextSet
	for _, c := range ctxs {
		s |= 1 << uint(c)
	}
	return s
}

// Has reports whether c is a member of the set.
func (s DisplayContextSet) Has(c DisplayContext) bool {
	return s&(1<<uint(c)) != 0
}

// Contexts lists the members in declaration order.
func (s DisplayContextSet) Contexts() []DisplayContext {
	var out []DisplayContext
	for _, c := range []DisplayContext{DisplayExplore, DisplayDrawer} {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// MarshalJSON renders the set as a list of context names.
func (s DisplayContextSet) MarshalJSON() ([]byte, error) {
	names := []string{}
	for _, c := range s.Contexts() {
		names = append(names, c.String())
	}
	return json.Marshal(names)
}

// UnmarshalJSON parses a list of context names.
func (s *DisplayContextSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = 0
	for _, n := range names {
		c, err := ParseDisplayContext(n)
		if err != nil {
			return err
		}
		*s |= VisibleIn(c)
	}
	return nil
}

// OverviewRow is one label/value pair of an entity overview.
// URL is set iff IsLink is true.
type OverviewRow struct {
	Label      string            `json:"label"`
	Value      string            `json:"value"`
	IsLink     bool              `json:"is_link"`
	IsExternal bool              `json:"is_external"`
	URL        string            `json:"url,omitempty"`
	VisibleIn  DisplayContextSet `json:"visible_in"`
}

// SummaryKind discriminates the child entities of a summary.
type SummaryKind string

const (
	SummaryKindColumn SummaryKind = "COLUMN"
	SummaryKindChart  SummaryKind = "CHART"
)

// ChildExtra carries kind-specific attributes of a child entity.
type ChildExtra struct {
	Constraints []ConstraintType `json:"constraints,omitempty"`
}

// ChildEntity is a column or chart normalised for display.
type ChildEntity struct {
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	Type        string        `json:"type,omitempty"`
	Description string        `json:"description,omitempty"`
	Tags        []TagLabel    `json:"tags"`
	URL         string        `json:"url,omitempty"`
	Extra       *ChildExtra   `json:"extra,omitempty"`
	Children    []ChildEntity `json:"children,omitempty"`
}

// StatisticRow is one labelled value of the profiler statistics block.
type StatisticRow struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Class string `json:"class,omitempty"` // "success", "aborted", "failed"
}

// ProfilerSummary is the statistics view of a profiled table.
type ProfilerSummary struct {
	RowCount      int64             `json:"row_count"`
	ColumnCount   int               `json:"column_count"`
	SamplePercent float64           `json:"sample_percent"`
	Tests         TestResultSummary `json:"tests"`
	Statistics    []StatisticRow    `json:"statistics"`
}

// Header is the title block shown above an explore summary.
type Header struct {
	Title      string     `json:"title"`
	FQN        string     `json:"fqn"`
	EntityType EntityType `json:"entity_type"`
	Deleted    bool       `json:"deleted,omitempty"`
}

// Notice is a non-blocking failure surfaced with a view-model.
type Notice struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Phase tracks how much of a view-model has been resolved.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseMetadata Phase = "metadata"
	PhaseComplete Phase = "complete"
)

// ViewModel is the render-ready summary of one entity for one display context.
type ViewModel struct {
	EntityType      EntityType       `json:"entity_type"`
	ID              string           `json:"id"`
	FQN             string           `json:"fqn"`
	DisplayName     string           `json:"display_name"`
	DisplayContext  DisplayContext   `json:"display_context"`
	Phase           Phase            `json:"phase"`
	Header          *Header          `json:"header,omitempty"`
	Overview        []OverviewRow    `json:"overview"`
	Description     *string          `json:"description,omitempty"`
	Tags            []TagLabel       `json:"tags,omitempty"`
	ChildKind       SummaryKind      `json:"child_kind"`
	Children        []ChildEntity    `json:"children"`
	Profiler        *ProfilerSummary `json:"profiler,omitempty"`
	ProfilerSection bool             `json:"profiler_section"`
	Notices         []Notice         `json:"notices,omitempty"`
}
