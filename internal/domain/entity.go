package domain

import "strings"

// EntityType identifies the catalog tab an entity is summarised under.
type EntityType string

const (
	EntityTypeTable     EntityType = "table"
	EntityTypeDashboard EntityType = "dashboard"
)

// ParseEntityType maps a path segment or flag value to an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSuffix(s, "s")) {
	case "table":
		return EntityTypeTable, nil
	case "dashboard":
		return EntityTypeDashboard, nil
	}
	return "", ErrValidation("unsupported entity type %q", s)
}

// EntityReference points at another catalog entity (owner, service, chart).
type EntityReference struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Name               string `json:"name,omitempty"`
	DisplayName        string `json:"displayName,omitempty"`
	FullyQualifiedName string `json:"fullyQualifiedName,omitempty"`
	Deleted            bool   `json:"deleted,omitempty"`
}

// Label returns the display name, falling back to the name.
func (r EntityReference) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Name
}

// TagLabel is a classification or glossary tag attached to an entity.
type TagLabel struct {
	TagFQN      string `json:"tagFQN"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`    // "Classification" or "Glossary"
	LabelType   string `json:"labelType,omitempty"` // "Manual", "Propagated", "Automated", "Derived"
	State       string `json:"state,omitempty"`
}

// tierPrefix marks the tag that carries the entity's tier.
const tierPrefix = "Tier."

// Tier returns the tier name ("Tier1") from the first Tier.* tag, or "".
func Tier(tags []TagLabel) string {
	for _, t := range tags {
		if strings.HasPrefix(t.TagFQN, tierPrefix) {
			return strings.TrimPrefix(t.TagFQN, tierPrefix)
		}
	}
	return ""
}

// ConstraintType names a column or table constraint.
type ConstraintType string

const (
	ConstraintNull       ConstraintType = "NULL"
	ConstraintNotNull    ConstraintType = "NOT_NULL"
	ConstraintUnique     ConstraintType = "UNIQUE"
	ConstraintPrimaryKey ConstraintType = "PRIMARY_KEY"
	ConstraintForeignKey ConstraintType = "FOREIGN_KEY"
)

// TableConstraint is a multi-column constraint declared on a table.
type TableConstraint struct {
	ConstraintType  ConstraintType `json:"constraintType"`
	Columns         []string       `json:"columns"`
	ReferredColumns []string       `json:"referredColumns,omitempty"`
}

// Column is a table column as returned by the catalog.
type Column struct {
	Name               string         `json:"name"`
	DisplayName        string         `json:"displayName,omitempty"`
	DataType           string         `json:"dataType"`
	DataTypeDisplay    string         `json:"dataTypeDisplay,omitempty"`
	Description        string         `json:"description,omitempty"`
	FullyQualifiedName string         `json:"fullyQualifiedName,omitempty"`
	Tags               []TagLabel     `json:"tags,omitempty"`
	Constraint         ConstraintType `json:"constraint,omitempty"`
	OrdinalPosition    int            `json:"ordinalPosition,omitempty"`
	Children           []Column       `json:"children,omitempty"`
}

// UsageStats is one window of usage counters.
type UsageStats struct {
	Count          int64    `json:"count"`
	PercentileRank *float64 `json:"percentileRank,omitempty"`
}

// UsageSummary holds daily/weekly/monthly usage windows.
type UsageSummary struct {
	DailyStats   *UsageStats `json:"dailyStats,omitempty"`
	WeeklyStats  *UsageStats `json:"weeklyStats,omitempty"`
	MonthlyStats *UsageStats `json:"monthlyStats,omitempty"`
	Date         string      `json:"date,omitempty"`
}

// Table is a catalog table entity.
type Table struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	DisplayName        string            `json:"displayName,omitempty"`
	FullyQualifiedName string            `json:"fullyQualifiedName"`
	Description        string            `json:"description,omitempty"`
	TableType          string            `json:"tableType,omitempty"`
	Deleted            bool              `json:"deleted,omitempty"`
	Owner              *EntityReference  `json:"owner,omitempty"`
	Service            *EntityReference  `json:"service,omitempty"`
	Database           *EntityReference  `json:"database,omitempty"`
	DatabaseSchema     *EntityReference  `json:"databaseSchema,omitempty"`
	Tags               []TagLabel        `json:"tags,omitempty"`
	Columns            []Column          `json:"columns,omitempty"`
	TableConstraints   []TableConstraint `json:"tableConstraints,omitempty"`
	UsageSummary       *UsageSummary     `json:"usageSummary,omitempty"`
	Profile            *ProfileSnapshot  `json:"profile,omitempty"`
	TableQueries       []TableQuery      `json:"tableQueries,omitempty"`
}

// Label returns the display name, falling back to the name.
func (t *Table) Label() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Name
}

// Clone returns a copy of t whose slices and pointers can be replaced
// without touching the original.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := *t
	c.Tags = append([]TagLabel(nil), t.Tags...)
	c.Columns = append([]Column(nil), t.Columns...)
	c.TableConstraints = append([]TableConstraint(nil), t.TableConstraints...)
	c.TableQueries = append([]TableQuery(nil), t.TableQueries...)
	if t.Profile != nil {
		p := *t.Profile
		c.Profile = &p
	}
	return &c
}

// Dashboard is a catalog dashboard entity.
type Dashboard struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	DisplayName        string            `json:"displayName,omitempty"`
	FullyQualifiedName string            `json:"fullyQualifiedName"`
	Description        string            `json:"description,omitempty"`
	SourceURL          string            `json:"sourceUrl,omitempty"`
	Deleted            bool              `json:"deleted,omitempty"`
	Owner              *EntityReference  `json:"owner,omitempty"`
	Service            *EntityReference  `json:"service,omitempty"`
	Tags               []TagLabel        `json:"tags,omitempty"`
	Charts             []EntityReference `json:"charts,omitempty"`
}

// Label returns the display name, falling back to the name.
func (d *Dashboard) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}

// Chart is a resolved dashboard chart.
type Chart struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	DisplayName        string     `json:"displayName,omitempty"`
	FullyQualifiedName string     `json:"fullyQualifiedName,omitempty"`
	Description        string     `json:"description,omitempty"`
	ChartType          string     `json:"chartType,omitempty"`
	SourceURL          string     `json:"sourceUrl,omitempty"`
	Tags               []TagLabel `json:"tags,omitempty"`
}
