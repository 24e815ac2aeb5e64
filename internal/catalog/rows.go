package catalog

import (
	"database/sql"

	"github.com/koustreak/erdview/internal/errs"
)

// scanRows reads every row of the result set as a column-name keyed map,
// plus the column descriptors. The returned slice is never nil.
// scanRows always closes rows.
func scanRows(rows *sql.Rows) ([]map[string]any, []FieldDescriptor, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	fields := make([]FieldDescriptor, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			fields[i] = FieldDescriptor{Name: ct.Name(), DataType: ct.DatabaseTypeName()}
			if nullable, ok := ct.Nullable(); ok {
				fields[i].Nullable = &nullable
			}
		}
	} else {
		for i, name := range columns {
			fields[i] = FieldDescriptor{Name: name}
		}
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			// Text-protocol drivers hand back raw bytes.
			if b, ok := dest[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = dest[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return result, fields, nil
}
