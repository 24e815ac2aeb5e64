package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderJSON writes v as indented JSON.
func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable writes rows under header as a light box table.
func renderTable(w io.Writer, header []string, rows [][]any) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	h := make(table.Row, len(header))
	for i, c := range header {
		h[i] = c
	}
	t.AppendHeader(h)
	for _, r := range rows {
		t.AppendRow(table.Row(r))
	}
	t.Render()
}

// render picks JSON or a table according to --output.
func (a *app) render(w io.Writer, v any, header []string, rows [][]any) error {
	if a.output == "json" {
		return renderJSON(w, v)
	}
	renderTable(w, header, rows)
	return nil
}

// deref formats optional text for a table cell.
func deref[T any](p *T) any {
	if p == nil {
		return ""
	}
	return *p
}

// sortedKeys returns the keys of a result row in a stable order when the
// field list is unavailable.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
