package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-summary/internal/domain"
)

func labels(rows []domain.OverviewRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Label)
	}
	return out
}

func rowByLabel(t *testing.T, rows []domain.OverviewRow, label string) domain.OverviewRow {
	t.Helper()
	for _, r := range rows {
		if r.Label == label {
			return r
		}
	}
	require.Failf(t, "row not found", "label %q", label)
	return domain.OverviewRow{}
}

func TestProjectTable(t *testing.T) {
	tbl := ordersTable()
	tbl.Profile = &domain.ProfileSnapshot{RowCount: int64Ptr(1000)}

	rows := ProjectTable(tbl)

	assert.Equal(t, []string{"Type", "Queries", "Columns", "Service", "Database", "Schema", "Owner", "Tier", "Usage", "Rows"}, labels(rows))

	assert.Equal(t, "Regular", rowByLabel(t, rows, "Type").Value)
	assert.Equal(t, "1,234 past week", rowByLabel(t, rows, "Queries").Value)
	assert.Equal(t, "5", rowByLabel(t, rows, "Columns").Value)
	assert.Equal(t, "Tier1", rowByLabel(t, rows, "Tier").Value)
	assert.Equal(t, "95th pctile", rowByLabel(t, rows, "Usage").Value)
	assert.Equal(t, "1,000", rowByLabel(t, rows, "Rows").Value)

	service := rowByLabel(t, rows, "Service")
	assert.True(t, service.IsLink)
	assert.False(t, service.IsExternal)
	assert.Equal(t, "/service/databaseServices/warehouse", service.URL)

	assert.Equal(t, "/database/warehouse.db", rowByLabel(t, rows, "Database").URL)
	assert.Equal(t, "/databaseSchema/warehouse.db.schema", rowByLabel(t, rows, "Schema").URL)

	owner := rowByLabel(t, rows, "Owner")
	assert.Equal(t, "Alice", owner.Value)
	assert.Equal(t, "/users/alice", owner.URL)
}

func TestProjectTable_MissingFields(t *testing.T) {
	rows := ProjectTable(&domain.Table{ID: "t", Name: "bare", FullyQualifiedName: "svc.db.sc.bare"})

	assert.Equal(t, "Regular", rowByLabel(t, rows, "Type").Value)
	for _, label := range []string{"Queries", "Service", "Database", "Schema", "Owner", "Tier", "Usage", "Rows"} {
		r := rowByLabel(t, rows, label)
		assert.Equal(t, "-", r.Value, label)
		assert.False(t, r.IsLink, label)
	}
	assert.Equal(t, "0", rowByLabel(t, rows, "Columns").Value)
}

func TestProjectTable_TeamOwner(t *testing.T) {
	tbl := ordersTable()
	tbl.Owner = &domain.EntityReference{ID: "g1", Type: "team", Name: "data-eng"}

	owner := rowByLabel(t, ProjectTable(tbl), "Owner")
	assert.Equal(t, "data-eng", owner.Value)
	assert.Equal(t, "/settings/members/teams/data-eng", owner.URL)
}

func TestProjectTable_Deterministic(t *testing.T) {
	tbl := ordersTable()
	assert.Equal(t, ProjectTable(tbl), ProjectTable(tbl))
}

func TestProjectDashboard(t *testing.T) {
	t.Run("with_source_url", func(t *testing.T) {
		d := &domain.Dashboard{
			ID: "d1", Name: "sales", DisplayName: "Sales Overview",
			SourceURL: "https://bi.example.com/d/1",
			Service:   &domain.EntityReference{Type: "dashboardService", Name: "superset"},
			Tags:      []domain.TagLabel{{TagFQN: "Tier.Tier2"}},
		}
		rows := ProjectDashboard(d)

		assert.Equal(t, []string{"Dashboard URL", "Service", "Owner", "Tier"}, labels(rows))
		u := rows[0]
		assert.Equal(t, "Sales Overview", u.Value)
		assert.True(t, u.IsLink)
		assert.True(t, u.IsExternal)
		assert.Equal(t, "https://bi.example.com/d/1", u.URL)
		assert.True(t, u.VisibleIn.Has(domain.DisplayExplore))
		assert.True(t, u.VisibleIn.Has(domain.DisplayDrawer))

		assert.Equal(t, "/service/dashboardServices/superset", rows[1].URL)
		assert.Equal(t, "-", rows[2].Value)
		assert.Equal(t, "Tier2", rows[3].Value)
	})

	t.Run("without_source_url", func(t *testing.T) {
		rows := ProjectDashboard(&domain.Dashboard{ID: "d2", Name: "ops"})
		u := rows[0]
		assert.Equal(t, "ops", u.Value)
		assert.False(t, u.IsLink)
		assert.Empty(t, u.URL)
	})
}

func TestProjectOverview_LinkInvariant(t *testing.T) {
	tbl := ordersTable()
	rows := append(ProjectOverview(domain.EntityTypeTable, tbl),
		ProjectOverview(domain.EntityTypeDashboard, &domain.Dashboard{Name: "x", SourceURL: "https://x"})...)
	for _, r := range rows {
		assert.Equal(t, r.IsLink, r.URL != "", r.Label)
	}
}

func TestProjectOverview_Mismatch(t *testing.T) {
	rows := ProjectOverview(domain.EntityTypeDashboard, ordersTable())
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestFilterRows(t *testing.T) {
	rows := ProjectTable(ordersTable())
	before := append([]domain.OverviewRow(nil), rows...)

	explore := FilterRows(rows, domain.DisplayExplore)
	drawer := FilterRows(rows, domain.DisplayDrawer)

	assert.Equal(t, []string{"Type", "Queries", "Columns"}, labels(explore))
	assert.Len(t, drawer, len(rows))
	assert.Equal(t, before, rows)
}
