//go:build unit

package repository_test

import (
	"io"
	"log/slog"
	"reflect"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubRow feeds fixed column values to Scan.
type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}
