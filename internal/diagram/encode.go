package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/erdview/internal/errs"
	"github.com/koustreak/erdview/internal/graph"
	"github.com/koustreak/erdview/internal/schema"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMermaid Format = "mermaid"
)

// ParseFormat accepts a format name, case-insensitively. "yml" and "mmd" are
// accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "mermaid", "mmd":
		return FormatMermaid, nil
	}
	return "", errs.Newf(errs.ErrKindInvalidInput, "unknown format %q (want json, yaml or mermaid)", s)
}

// ContentType is the MIME type used when the format is uploaded or served.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatMermaid:
		return "text/vnd.mermaid"
	default:
		return "application/json"
	}
}

// Extension is the conventional file extension, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatMermaid:
		return "mmd"
	default:
		return "json"
	}
}

// Encode writes d to w in format f.
func Encode(w io.Writer, d *Diagram, f Format) error {
	switch f {
	case FormatJSON:
		return EncodeJSON(w, d)
	case FormatYAML:
		return EncodeYAML(w, d)
	case FormatMermaid:
		return EncodeMermaid(w, d.Graph)
	}
	return errs.Newf(errs.ErrKindInvalidInput, "unknown format %q", f)
}

// EncodeJSON writes d as indented JSON.
func EncodeJSON(w io.Writer, d *Diagram) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// EncodeYAML writes d as YAML.
func EncodeYAML(w io.Writer, d *Diagram) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// mermaidName makes an identifier usable as a Mermaid name.
func mermaidName(id string) string {
	return unsafeName.ReplaceAllString(id, "_")
}

// entityNames assigns every node a distinct Mermaid entity name. IDs that
// sanitize to the same name get a numeric suffix in node order.
func entityNames(nodes []graph.Node) map[string]string {
	names := make(map[string]string, len(nodes))
	taken := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		base := mermaidName(n.ID)
		name := base
		for i := 2; taken[name]; i++ {
			name = base + "_" + strconv.Itoa(i)
		}
		taken[name] = true
		names[n.ID] = name
	}
	return names
}

// EncodeMermaid writes g as a Mermaid erDiagram. Relationships come first,
// one per edge, with the referenced table on the "one" side; a nullable
// foreign key makes that side optional.
func EncodeMermaid(w io.Writer, g *graph.Graph) error {
	var buf bytes.Buffer
	buf.WriteString("erDiagram\n")

	names := entityNames(g.Nodes)
	entity := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return mermaidName(id)
	}

	for _, e := range g.Edges {
		one := "||"
		if src, ok := g.Node(e.Source); ok {
			if c := findColumn(src.Table, e.Column); c != nil && c.IsNullable {
				one = "|o"
			}
		}
		fmt.Fprintf(&buf, "    %s %s--o{ %s : %q\n",
			entity(e.Target), one, entity(e.Source), e.Column)
	}
	if len(g.Edges) > 0 {
		buf.WriteString("\n")
	}

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "    %s {\n", names[n.ID])
		for _, c := range n.Table.Columns {
			var keys []string
			if c.IsPrimaryKey {
				keys = append(keys, "PK")
			}
			if c.IsForeignKey {
				keys = append(keys, "FK")
			}
			line := fmt.Sprintf("        %s %s", mermaidType(c.DataType), mermaidName(c.Name))
			if len(keys) > 0 {
				line += " " + strings.Join(keys, ", ")
			}
			buf.WriteString(line + "\n")
		}
		buf.WriteString("    }\n")
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func findColumn(t schema.Table, name string) *schema.Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// mermaidType shortens common engine type names; attribute types may not
// contain spaces.
func mermaidType(dataType string) string {
	dt := strings.ToLower(dataType)
	switch {
	case dt == "":
		return "unknown"
	case dt == "integer":
		return "int"
	case strings.HasPrefix(dt, "character varying"):
		return "varchar"
	case strings.HasPrefix(dt, "character"):
		return "char"
	case strings.HasPrefix(dt, "timestamp with time zone"):
		return "timestamptz"
	case strings.HasPrefix(dt, "timestamp"):
		return "timestamp"
	case strings.HasPrefix(dt, "time"):
		return "time"
	case dt == "double precision":
		return "double"
	case strings.HasPrefix(dt, "numeric"), strings.HasPrefix(dt, "decimal"):
		return "numeric"
	}
	return unsafeName.ReplaceAllString(dataType, "_")
}
