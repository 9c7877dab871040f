// Package fixtures boots a disposable PostgreSQL container (behind
// //go:build integration, since it needs Docker) and hands out
// schema-isolated sandboxes to individual tests. The struct-tag-driven
// record factory below has no such requirement and is always available,
// so unit tests covering its SQL generation can run without a live
// database.
package fixtures

import (
	"fmt"
	"reflect"
	"strings"

	faker "github.com/go-faker/faker/v4"
)

// namedTable lets a seed struct say what table it belongs to, the same
// convention fixgres_demo's User.TableName used; tableNameOf falls back
// to the struct's own type name, lowercased and pluralized, if a value
// doesn't implement it.
type namedTable interface {
	TableName() string
}

// Fake populates a zero-valued T's exported fields via struct tags
// (`faker:"email"`, `faker:"name"`, and so on), for tests that want
// realistic fixture rows without hand-writing every field.
func Fake[T any]() (T, error) {
	var v T
	err := faker.FakeData(&v)
	return v, err
}

func tableNameOf(v any) string {
	if nt, ok := v.(namedTable); ok {
		return nt.TableName()
	}
	name := reflect.TypeOf(v).Name()
	return strings.ToLower(name) + "s"
}

// columnsAndValues reads v's `db:"col"` tags in field order, skipping
// fields tagged `db:"-"` or `,autoinc`.
func columnsAndValues(v any) (cols []string, vals []any) {
	rv := reflect.ValueOf(v)
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get("db")
		if tag == "" {
			continue
		}
		parts := strings.Split(tag, ",")
		col := parts[0]
		if col == "-" {
			continue
		}
		if len(parts) > 1 && strings.Contains(tag, "autoinc") {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, rv.Field(i).Interface())
	}
	return
}

// insertSQL builds "INSERT INTO table (cols...) VALUES ($1, ...)
// RETURNING id" from v's tags. table and cols are never attacker
// influenced (they come from the seed struct's own Go tags, fixed at
// compile time), so building the statement text directly here is safe,
// unlike a query built from request input; only the values themselves are
// ever passed as bound parameters.
func insertSQL(table string, v any) (string, []any) {
	cols, vals := columnsAndValues(v)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	return query, vals
}
