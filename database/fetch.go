package database

import (
	"context"
	"fmt"
)

// Fetch runs query and collects every row. Zero rows yield an empty, non-nil slice.
func Fetch(ctx context.Context, db Database, query string, args ...any) ([]Row, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return Collect(rows)
}

// Collect drains rows into maps. It does not close rows.
func Collect(rows Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	out := make([]Row, 0, 8)
	for rows.Next() {
		row, err := scanRow(rows, cols)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRow(rows Rows, cols []string) (Row, error) {
	var values []any
	if vr, ok := rows.(valuesRows); ok {
		vals, err := vr.Values()
		if err != nil {
			return nil, fmt.Errorf("read values: %w", err)
		}
		values = vals
	} else {
		values = make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
	}
	if len(values) != len(cols) {
		return nil, fmt.Errorf("scan row: %d values for %d columns", len(values), len(cols))
	}
	row := make(Row, len(cols))
	for i, c := range cols {
		row[c] = values[i]
	}
	return row, nil
}
