package summary

import (
	"log/slog"
	"slices"

	"catalog-summary/internal/domain"
)

// ChildSource carries the raw children of an entity and any context the
// formatter needs alongside them.
type ChildSource struct {
	Columns     []domain.Column
	Constraints []domain.TableConstraint
	Charts      []domain.Chart
}

// FormatChildren normalises the children of kind into display entities.
// Empty input and unknown kinds yield an empty, non-nil slice.
func FormatChildren(kind domain.SummaryKind, src ChildSource) []domain.ChildEntity {
	switch kind {
	case domain.SummaryKindColumn:
		return FormatColumns(src.Columns, src.Constraints)
	case domain.SummaryKindChart:
		return FormatCharts(src.Charts)
	}
	slog.Warn("unknown summary kind", "kind", kind)
	return []domain.ChildEntity{}
}

// FormatColumns formats table columns, joining table-level constraints onto
// the columns they cover. Nested columns are formatted recursively.
func FormatColumns(columns []domain.Column, constraints []domain.TableConstraint) []domain.ChildEntity {
	out := make([]domain.ChildEntity, 0, len(columns))
	for _, c := range columns {
		title := c.DisplayName
		if title == "" {
			title = c.Name
		}
		dataType := c.DataTypeDisplay
		if dataType == "" {
			dataType = c.DataType
		}

		child := domain.ChildEntity{
			Name:        c.Name,
			Title:       title,
			Type:        dataType,
			Description: c.Description,
			Tags:        tagsOrEmpty(c.Tags),
		}
		if cs := columnConstraints(c, constraints); len(cs) > 0 {
			child.Extra = &domain.ChildExtra{Constraints: cs}
		}
		if len(c.Children) > 0 {
			child.Children = FormatColumns(c.Children, nil)
		}
		out = append(out, child)
	}
	return out
}

// FormatCharts formats resolved dashboard charts.
func FormatCharts(charts []domain.Chart) []domain.ChildEntity {
	out := make([]domain.ChildEntity, 0, len(charts))
	for _, ch := range charts {
		title := ch.DisplayName
		if title == "" {
			title = ch.Name
		}
		out = append(out, domain.ChildEntity{
			Name:        ch.Name,
			Title:       title,
			Type:        ch.ChartType,
			Description: ch.Description,
			Tags:        tagsOrEmpty(ch.Tags),
			URL:         ch.SourceURL,
		})
	}
	return out
}

func columnConstraints(c domain.Column, constraints []domain.TableConstraint) []domain.ConstraintType {
	var out []domain.ConstraintType
	if c.Constraint != "" && c.Constraint != domain.ConstraintNull {
		out = append(out, c.Constraint)
	}
	for _, tc := range constraints {
		if slices.Contains(tc.Columns, c.Name) && !slices.Contains(out, tc.ConstraintType) {
			out = append(out, tc.ConstraintType)
		}
	}
	return out
}

func tagsOrEmpty(tags []domain.TagLabel) []domain.TagLabel {
	if tags == nil {
		return []domain.TagLabel{}
	}
	return slices.Clone(tags)
}
