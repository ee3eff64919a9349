package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"catalog-summary/internal/domain"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}
	return t
}

// renderSummary prints a view-model as a set of tables.
func renderSummary(w io.Writer, vm *domain.ViewModel) {
	title := vm.DisplayName
	if title == "" {
		title = vm.FQN
	}
	_, _ = fmt.Fprintf(w, "%s (%s)  [%s, %s, %s]\n", title, vm.FQN, vm.EntityType, vm.DisplayContext, vm.Phase)
	if vm.Header != nil && vm.Header.Deleted {
		_, _ = fmt.Fprintln(w, "This entity has been deleted.")
	}
	if vm.Description != nil && *vm.Description != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", *vm.Description)
	}
	if len(vm.Tags) > 0 {
		_, _ = fmt.Fprintf(w, "Tags: %s\n", joinTags(vm.Tags))
	}

	_, _ = fmt.Fprintln(w)
	overview := newTable(w, "FIELD", "VALUE")
	for _, row := range vm.Overview {
		value := row.Value
		if row.IsLink && row.IsExternal {
			value = fmt.Sprintf("%s <%s>", row.Value, row.URL)
		}
		overview.AppendRow(table.Row{row.Label, value})
	}
	overview.Render()

	if len(vm.Children) > 0 {
		_, _ = fmt.Fprintln(w)
		header := []any{"NAME", "TYPE", "CONSTRAINTS", "TAGS", "DESCRIPTION"}
		if vm.ChildKind == domain.SummaryKindChart {
			header = []any{"NAME", "TYPE", "TAGS", "DESCRIPTION"}
		}
		children := newTable(w, header...)
		appendChildren(children, vm.ChildKind, vm.Children, 0)
		children.Render()
	}

	if vm.Profiler != nil {
		_, _ = fmt.Fprintln(w)
		stats := newTable(w, "STATISTIC", "VALUE")
		for _, s := range vm.Profiler.Statistics {
			stats.AppendRow(table.Row{s.Title, s.Value})
		}
		stats.Render()
	} else if vm.ProfilerSection && vm.Phase == domain.PhaseComplete {
		_, _ = fmt.Fprintln(w, "\nNo profiler data available.")
	}

	for _, n := range vm.Notices {
		_, _ = fmt.Fprintf(w, "! %s: %s\n", n.Message, n.Error)
	}
}

func appendChildren(t table.Writer, kind domain.SummaryKind, items []domain.ChildEntity, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range items {
		name := indent + c.Title
		if kind == domain.SummaryKindChart {
			t.AppendRow(table.Row{name, c.Type, joinTags(c.Tags), c.Description})
			continue
		}
		var constraints []string
		if c.Extra != nil {
			for _, ct := range c.Extra.Constraints {
				constraints = append(constraints, string(ct))
			}
		}
		t.AppendRow(table.Row{name, c.Type, strings.Join(constraints, ","), joinTags(c.Tags), c.Description})
		appendChildren(t, kind, c.Children, depth+1)
	}
}

func joinTags(tags []domain.TagLabel) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.TagFQN)
	}
	return strings.Join(names, ", ")
}
