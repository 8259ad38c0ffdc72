package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/Masterminds/squirrel"
)

type (
	ptrs   []any
	action func()

	// rowScan yields the scan destinations for one row of t and an optional
	// fixup to run after the row has been scanned, for columns that need an
	// intermediate value (nullable text, for instance).
	rowScan[T any] func(t *T) (ptrs, action)
)

var errTooManyRows = errors.New("too many rows for a single-entity query")

// collect runs q and assembles one T per row.
func collect[T any](ctx context.Context, db squirrel.QueryerContext, q squirrel.SelectBuilder, scan rowScan[T]) ([]T, error) {
	rows, err := squirrel.QueryContextWith(ctx, db, q)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Default().Error("collect: failed to close rows", "error", err.Error())
		}
	}()

	var collection []T
	for rows.Next() {
		var t T
		pointers, fixup := scan(&t)
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		if fixup != nil {
			fixup()
		}
		collection = append(collection, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return collection, nil
}

// collectOne runs a query expected to match at most one row. No match is
// reported as sql.ErrNoRows so the caller can map it to its own absence
// semantics.
func collectOne[T any](ctx context.Context, db squirrel.QueryerContext, q squirrel.SelectBuilder, scan rowScan[T]) (*T, error) {
	collection, err := collect(ctx, db, q, scan)
	if err != nil {
		return nil, err
	}

	switch len(collection) {
	case 0:
		return nil, sql.ErrNoRows
	case 1:
		return &collection[0], nil
	default:
		return nil, errTooManyRows
	}
}
