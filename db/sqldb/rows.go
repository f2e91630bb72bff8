package sqldb

import (
	"database/sql"
	"fmt"
)

// RowMapper rewrites scanned driver values in place.
// typeNames holds the database type name of each column, upper-case as reported by the driver.
type RowMapper func(typeNames []string, row []any)

// fetchAll reads every row of the current result set into memory
func fetchAll(rows *sql.Rows, columns []string, mapRow RowMapper) ([][]any, error) {
	var typeNames []string
	if mapRow != nil {
		colTypes, err := rows.ColumnTypes()
		if err != nil {
			return nil, err
		}
		typeNames = make([]string, len(colTypes))
		for i, ct := range colTypes {
			typeNames[i] = ct.DatabaseTypeName()
		}
	}

	data := [][]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if mapRow != nil {
			mapRow(typeNames, values)
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during iterating rows: %w", err)
	}
	return data, nil
}
