package core

import (
	"log/slog"
	"strings"
)

// IgnoredPrefix marks private columns. Headers starting with it are skipped
// without a diagnostic.
const IgnoredPrefix = "_"

// Binding is the resolved mapping from page columns to fields of T.
type Binding[T any] struct {
	Columns []int      // Index into HeaderSet.Names and Row
	Fields  []Field[T] // Field bound to the column at the same position
}

// Len returns the number of bound columns.
func (b Binding[T]) Len() int {
	return len(b.Columns)
}

// Bind resolves every header against schema.
//
// Headers with IgnoredPrefix are skipped. Headers that match no field are
// logged as warnings and left unbound. When the same header appears twice,
// both columns are bound and the later one wins during assembly.
func Bind[T any](headers HeaderSet, schema *Schema[T], log *slog.Logger) Binding[T] {
	b := Binding[T]{
		Columns: make([]int, 0, headers.Len()),
		Fields:  make([]Field[T], 0, headers.Len()),
	}

	seen := make(map[string]bool, headers.Len())
	for i, name := range headers.Names {
		if strings.HasPrefix(name, IgnoredPrefix) {
			continue
		}

		field, ok := schema.Field(name)
		if !ok {
			log.Warn("header matches no field", "header", name, "type", schema.Name())
			continue
		}

		if seen[name] {
			log.Warn("duplicate header, last column wins", "header", name, "type", schema.Name())
		}
		seen[name] = true

		b.Columns = append(b.Columns, i)
		b.Fields = append(b.Fields, field)
	}

	return b
}
