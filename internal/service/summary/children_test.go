package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-summary/internal/domain"
)

func TestFormatChildren_Empty(t *testing.T) {
	for _, kind := range []domain.SummaryKind{domain.SummaryKindColumn, domain.SummaryKindChart, "WIDGET"} {
		got := FormatChildren(kind, ChildSource{})
		assert.NotNil(t, got, kind)
		assert.Empty(t, got, kind)
	}
}

func TestFormatColumns(t *testing.T) {
	tbl := ordersTable()

	got := FormatChildren(domain.SummaryKindColumn, ChildSource{Columns: tbl.Columns, Constraints: tbl.TableConstraints})

	require.Len(t, got, 5)
	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "customer_id", "status", "amount", "created_at"}, names)

	id := got[0]
	assert.Equal(t, "id", id.Title)
	assert.Equal(t, "BIGINT", id.Type)
	require.NotNil(t, id.Extra)
	assert.Equal(t, []domain.ConstraintType{domain.ConstraintPrimaryKey}, id.Extra.Constraints)

	require.NotNil(t, got[1].Extra)
	assert.Equal(t, []domain.ConstraintType{domain.ConstraintForeignKey}, got[1].Extra.Constraints)

	status := got[2]
	assert.Equal(t, "varchar(16)", status.Type)
	require.NotNil(t, status.Extra)
	assert.Equal(t, []domain.ConstraintType{domain.ConstraintNotNull}, status.Extra.Constraints)

	assert.Nil(t, got[3].Extra)
	assert.NotNil(t, got[3].Tags)
}

func TestFormatColumns_Nested(t *testing.T) {
	cols := []domain.Column{{
		Name:        "address",
		DisplayName: "Address",
		DataType:    "STRUCT",
		Tags:        []domain.TagLabel{{TagFQN: "PII.Sensitive"}},
		Children: []domain.Column{
			{Name: "street", DataType: "VARCHAR"},
			{Name: "zip", DataType: "VARCHAR", Constraint: domain.ConstraintNull},
		},
	}}

	got := FormatColumns(cols, []domain.TableConstraint{{ConstraintType: domain.ConstraintUnique, Columns: []string{"zip"}}})

	require.Len(t, got, 1)
	assert.Equal(t, "Address", got[0].Title)
	assert.Equal(t, []domain.TagLabel{{TagFQN: "PII.Sensitive"}}, got[0].Tags)
	require.Len(t, got[0].Children, 2)
	assert.Equal(t, "street", got[0].Children[0].Name)
	assert.Nil(t, got[0].Children[1].Extra, "table constraints apply to top-level columns only")
}

func TestFormatCharts(t *testing.T) {
	charts := []domain.Chart{
		{ID: "c1", Name: "revenue", DisplayName: "Revenue", ChartType: "Line", SourceURL: "https://bi/c/1", Description: "Monthly revenue"},
		{ID: "c2", Name: "orders_by_region", ChartType: "Bar"},
	}

	got := FormatChildren(domain.SummaryKindChart, ChildSource{Charts: charts})

	require.Len(t, got, 2)
	assert.Equal(t, domain.ChildEntity{
		Name:        "revenue",
		Title:       "Revenue",
		Type:        "Line",
		Description: "Monthly revenue",
		Tags:        []domain.TagLabel{},
		URL:         "https://bi/c/1",
	}, got[0])
	assert.Equal(t, "orders_by_region", got[1].Title)
	assert.Nil(t, got[1].Extra)
}
