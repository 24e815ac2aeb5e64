package catalog

import "time"

// SchemaInfo is one user namespace and how many base tables it holds.
type SchemaInfo struct {
	Name       string `json:"name"`
	TableCount int    `json:"tableCount"`
}

// TableSummary is one row of ListTables.
type TableSummary struct {
	Name        string  `json:"name"`
	ColumnCount int     `json:"columnCount"`
	Description *string `json:"description,omitempty"`
}

// ColumnRow is one row of GetColumns, in ordinal order.
type ColumnRow struct {
	Name         string  `json:"name"`
	DataType     string  `json:"dataType"`
	IsNullable   bool    `json:"isNullable"`
	Default      *string `json:"default,omitempty"`
	MaxLength    *int    `json:"maxLength,omitempty"`
	Description  *string `json:"description,omitempty"`
	IsPrimaryKey bool    `json:"isPrimaryKey"`
	IsForeignKey bool    `json:"isForeignKey"`
}

// ForeignKeyRow is one column pair of a foreign-key constraint.
// Composite constraints produce one row per column.
type ForeignKeyRow struct {
	ConstraintName string `json:"constraintName"`
	Schema         string `json:"schema"`
	Table          string `json:"table"`
	Column         string `json:"column"`
	ForeignSchema  string `json:"foreignSchema"`
	ForeignTable   string `json:"foreignTable"`
	ForeignColumn  string `json:"foreignColumn"`
}

// FieldDescriptor describes one result column of RunQuery.
type FieldDescriptor struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
	Nullable *bool  `json:"nullable,omitempty"`
}

// QueryResult is the output of RunQuery.
type QueryResult struct {
	Rows     []map[string]any  `json:"rows"`
	RowCount int               `json:"rowCount"`
	Fields   []FieldDescriptor `json:"fields"`
}

// ConnectResult is returned by a successful Connect.
type ConnectResult struct {
	SessionID     string `json:"sessionId"`
	EngineVersion string `json:"version"`
	ServerVersion string `json:"serverVersion"`
}

// State is the lifecycle state of the client's session.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// Status is a point-in-time snapshot of the client.
type Status struct {
	State             State     `json:"state"`
	Connected         bool      `json:"connected"`
	SessionID         string    `json:"sessionId,omitempty"`
	Database          string    `json:"database,omitempty"`
	EngineVersion     string    `json:"version,omitempty"`
	ConnectedAt       time.Time `json:"connectedAt,omitempty"`
	LastError         string    `json:"lastError,omitempty"`
	NeedsReconnect    bool      `json:"needsReconnect"`
	ReconnectAttempts int       `json:"reconnectAttempts"`
}

// StatusEvent is delivered to subscribers whenever connectivity changes.
type StatusEvent struct {
	Connected bool   `json:"connected"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}
