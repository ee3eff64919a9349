package summary

import (
	"log/slog"
	"net/url"
	"strconv"

	"catalog-summary/internal/domain"
)

var (
	bothContexts = domain.VisibleIn(domain.DisplayExplore, domain.DisplayDrawer)
	drawerOnly   = domain.VisibleIn(domain.DisplayDrawer)
)

// ProjectOverview dispatches to the projector for entityType. An entity whose
// dynamic type does not match entityType yields no rows.
func ProjectOverview(entityType domain.EntityType, entity any) []domain.OverviewRow {
	switch entityType {
	case domain.EntityTypeTable:
		if t, ok := entity.(*domain.Table); ok {
			return ProjectTable(t)
		}
	case domain.EntityTypeDashboard:
		if d, ok := entity.(*domain.Dashboard); ok {
			return ProjectDashboard(d)
		}
	}
	slog.Debug("no overview projection", "entity_type", entityType)
	return []domain.OverviewRow{}
}

// ProjectTable builds the overview rows of a table.
func ProjectTable(t *domain.Table) []domain.OverviewRow {
	if t == nil {
		return []domain.OverviewRow{}
	}

	tableType := t.TableType
	if tableType == "" {
		tableType = "Regular"
	}

	queries := placeholder
	if t.UsageSummary != nil && t.UsageSummary.WeeklyStats != nil {
		queries = formatCount(t.UsageSummary.WeeklyStats.Count) + " past week"
	}

	usage := placeholder
	if t.UsageSummary != nil && t.UsageSummary.WeeklyStats != nil && t.UsageSummary.WeeklyStats.PercentileRank != nil {
		usage = ordinal(*t.UsageSummary.WeeklyStats.PercentileRank) + " pctile"
	}

	rowCount := placeholder
	if t.Profile != nil && t.Profile.RowCount != nil {
		rowCount = formatCount(*t.Profile.RowCount)
	}

	return []domain.OverviewRow{
		textRow("Type", tableType, bothContexts),
		textRow("Queries", queries, bothContexts),
		textRow("Columns", strconv.Itoa(len(t.Columns)), bothContexts),
		refRow("Service", t.Service, nameOf, "/service/databaseServices/", drawerOnly),
		refRow("Database", t.Database, fqnOf, "/database/", drawerOnly),
		refRow("Schema", t.DatabaseSchema, fqnOf, "/databaseSchema/", drawerOnly),
		ownerRow(t.Owner),
		textRow("Tier", valueOr(domain.Tier(t.Tags)), drawerOnly),
		textRow("Usage", usage, drawerOnly),
		textRow("Rows", rowCount, drawerOnly),
	}
}

// ProjectDashboard builds the overview rows of a dashboard.
func ProjectDashboard(d *domain.Dashboard) []domain.OverviewRow {
	if d == nil {
		return []domain.OverviewRow{}
	}

	dashboardURL := textRow("Dashboard URL", d.Label(), bothContexts)
	if d.SourceURL != "" {
		dashboardURL.IsLink = true
		dashboardURL.IsExternal = true
		dashboardURL.URL = d.SourceURL
	}

	return []domain.OverviewRow{
		dashboardURL,
		refRow("Service", d.Service, nameOf, "/service/dashboardServices/", drawerOnly),
		ownerRow(d.Owner),
		textRow("Tier", valueOr(domain.Tier(d.Tags)), drawerOnly),
	}
}

// FilterRows returns the rows visible in ctx, in order. rows is not modified.
func FilterRows(rows []domain.OverviewRow, ctx domain.DisplayContext) []domain.OverviewRow {
	out := make([]domain.OverviewRow, 0, len(rows))
	for _, r := range rows {
		if r.VisibleIn.Has(ctx) {
			out = append(out, r)
		}
	}
	return out
}

func textRow(label, value string, visible domain.DisplayContextSet) domain.OverviewRow {
	return domain.OverviewRow{Label: label, Value: value, VisibleIn: visible}
}

func refRow(label string, ref *domain.EntityReference, key func(*domain.EntityReference) string, prefix string, visible domain.DisplayContextSet) domain.OverviewRow {
	if ref == nil || key(ref) == "" {
		return textRow(label, placeholder, visible)
	}
	row := textRow(label, ref.Label(), visible)
	if row.Value == "" {
		row.Value = key(ref)
	}
	row.IsLink = true
	row.URL = prefix + url.PathEscape(key(ref))
	return row
}

func ownerRow(owner *domain.EntityReference) domain.OverviewRow {
	prefix := "/users/"
	if owner != nil && owner.Type == "team" {
		prefix = "/settings/members/teams/"
	}
	return refRow("Owner", owner, nameOf, prefix, drawerOnly)
}

func nameOf(r *domain.EntityReference) string { return r.Name }

func fqnOf(r *domain.EntityReference) string {
	if r.FullyQualifiedName != "" {
		return r.FullyQualifiedName
	}
	return r.Name
}

func valueOr(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}
