//go:build integration

package fixtures

import (
	"context"
	"database/sql"
	"fmt"
)

// Insert runs the INSERT built by insertSQL against db and returns the new
// row's id.
func Insert(ctx context.Context, db *sql.DB, v any) (int64, error) {
	table := tableNameOf(v)
	query, vals := insertSQL(table, v)

	var id int64
	if err := db.QueryRowContext(ctx, query, vals...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return id, nil
}
