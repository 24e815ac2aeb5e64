package schema

// Reference points a foreign-key column at the column it references.
// Schema is empty when the engine did not report one; consumers then assume
// the referencing table's own schema.
type Reference struct {
	Schema     string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table      string `json:"table" yaml:"table"`
	Column     string `json:"column" yaml:"column"`
	Constraint string `json:"constraint,omitempty" yaml:"constraint,omitempty"`
}

// Column describes a single column in a table
type Column struct {
	Name         string     `json:"name" yaml:"name"`
	DataType     string     `json:"dataType" yaml:"dataType"`
	IsNullable   bool       `json:"isNullable" yaml:"isNullable"`
	IsPrimaryKey bool       `json:"isPrimaryKey" yaml:"isPrimaryKey"`
	IsForeignKey bool       `json:"isForeignKey" yaml:"isForeignKey"`
	Default      *string    `json:"default,omitempty" yaml:"default,omitempty"` // nil if no default
	MaxLength    *int       `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Description  *string    `json:"description,omitempty" yaml:"description,omitempty"`
	References   *Reference `json:"references,omitempty" yaml:"references,omitempty"`
}

// Table describes a table and its columns in ordinal order.
type Table struct {
	Schema      string   `json:"schema" yaml:"schema"`
	Name        string   `json:"name" yaml:"name"`
	Description *string  `json:"description,omitempty" yaml:"description,omitempty"`
	Columns     []Column `json:"columns" yaml:"columns"`
}

// ID is the table's qualified name, unique within a Model.
func (t Table) ID() string {
	return QualifiedName(t.Schema, t.Name)
}

// QualifiedName joins schema and table the way table IDs are built.
func QualifiedName(schema, table string) string {
	return schema + "." + table
}

// Model is the full introspected database: every table that could be read,
// in catalog order.
type Model struct {
	Tables []Table `json:"tables" yaml:"tables"`
}

// Table returns the table with the given ID.
func (m *Model) Table(id string) (*Table, bool) {
	for i := range m.Tables {
		if m.Tables[i].ID() == id {
			return &m.Tables[i], true
		}
	}
	return nil, false
}

// ReferenceCount is the number of columns carrying a reference.
func (m *Model) ReferenceCount() int {
	n := 0
	for _, t := range m.Tables {
		for _, c := range t.Columns {
			if c.References != nil {
				n++
			}
		}
	}
	return n
}
