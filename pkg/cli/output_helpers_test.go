package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-summary/internal/domain"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		output  string
		wantErr bool
	}{
		{output: ""},
		{output: "table"},
		{output: "json"},
		{output: "yaml", wantErr: true},
		{output: "sse", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("output="+tt.output, func(t *testing.T) {
			err := validateOutputFormat(tt.output)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "use 'table' or 'json'")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRenderSummary(t *testing.T) {
	t.Run("deleted table without profile", func(t *testing.T) {
		var buf bytes.Buffer
		renderSummary(&buf, &domain.ViewModel{
			EntityType:      domain.EntityTypeTable,
			FQN:             "db.schema.legacy_orders",
			DisplayContext:  domain.DisplayExplore,
			Phase:           domain.PhaseComplete,
			Header:          &domain.Header{Title: "legacy_orders", Deleted: true},
			ChildKind:       domain.SummaryKindColumn,
			ProfilerSection: true,
		})

		out := buf.String()
		assert.Contains(t, out, "db.schema.legacy_orders (db.schema.legacy_orders)")
		assert.Contains(t, out, "This entity has been deleted.")
		assert.Contains(t, out, "No profiler data available.")
		assert.NotContains(t, out, "STATISTIC")
	})

	t.Run("profile still loading", func(t *testing.T) {
		var buf bytes.Buffer
		renderSummary(&buf, &domain.ViewModel{
			EntityType:      domain.EntityTypeTable,
			FQN:             "db.schema.orders",
			DisplayName:     "orders",
			Phase:           domain.PhaseMetadata,
			ProfilerSection: true,
		})

		assert.NotContains(t, buf.String(), "No profiler data available.")
	})

	t.Run("internal link shows value only", func(t *testing.T) {
		var buf bytes.Buffer
		renderSummary(&buf, &domain.ViewModel{
			EntityType: domain.EntityTypeTable,
			FQN:        "db.schema.orders",
			Overview: []domain.OverviewRow{
				{Label: "Owner", Value: "Alice", IsLink: true, URL: "/users/alice"},
			},
		})

		assert.Contains(t, buf.String(), "Alice")
		assert.NotContains(t, buf.String(), "/users/alice")
	})
}

func TestJoinTags(t *testing.T) {
	assert.Empty(t, joinTags(nil))
	assert.Equal(t, "Tier.Tier1, PII.Sensitive", joinTags([]domain.TagLabel{
		{TagFQN: "Tier.Tier1"},
		{TagFQN: "PII.Sensitive", Source: "Classification"},
	}))
}
