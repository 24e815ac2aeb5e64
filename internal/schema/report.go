package schema

// Skip records something the assembler left out and why.
type Skip struct {
	Schema string `json:"schema" yaml:"schema"`
	Table  string `json:"table,omitempty" yaml:"table,omitempty"`
	Reason string `json:"reason" yaml:"reason"`
}

// UnmatchedForeignKey is a foreign-key row whose column is not among the
// table's columns. It is dropped from the model.
type UnmatchedForeignKey struct {
	Schema     string `json:"schema" yaml:"schema"`
	Table      string `json:"table" yaml:"table"`
	Column     string `json:"column" yaml:"column"`
	Constraint string `json:"constraint" yaml:"constraint"`
	Target     string `json:"target" yaml:"target"`
}

// Report lists everything a pass had to skip or degrade. A pass with a
// non-clean report still succeeded.
type Report struct {
	SkippedSchemas       []Skip                `json:"skippedSchemas,omitempty" yaml:"skippedSchemas,omitempty"`
	SkippedTables        []Skip                `json:"skippedTables,omitempty" yaml:"skippedTables,omitempty"`
	DegradedTables       []Skip                `json:"degradedTables,omitempty" yaml:"degradedTables,omitempty"`
	UnmatchedForeignKeys []UnmatchedForeignKey `json:"unmatchedForeignKeys,omitempty" yaml:"unmatchedForeignKeys,omitempty"`
}

// Clean reports whether nothing was skipped, degraded or dropped.
func (r *Report) Clean() bool {
	return len(r.SkippedSchemas) == 0 &&
		len(r.SkippedTables) == 0 &&
		len(r.DegradedTables) == 0 &&
		len(r.UnmatchedForeignKeys) == 0
}
