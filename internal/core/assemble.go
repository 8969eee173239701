package core

import "log/slog"

// AssembleCollection builds one element per row. Elements start as zero
// values; every bound cell is parsed and stored even when the parser flags
// it, and the element is appended regardless of cell errors.
func AssembleCollection[T any](b Binding[T], rows []Row, log *slog.Logger) []T {
	items := make([]T, 0, len(rows))
	for i, row := range rows {
		items = append(items, assembleRecord(b, row, i, log))
	}
	return items
}

// AssembleSingle builds one element from the first row.
// Returns false when there are no rows; the caller must leave its target
// untouched in that case.
func AssembleSingle[T any](b Binding[T], rows []Row, log *slog.Logger) (T, bool) {
	if len(rows) == 0 {
		var zero T
		return zero, false
	}
	return assembleRecord(b, rows[0], 0, log), true
}

func assembleRecord[T any](b Binding[T], row Row, rowIdx int, log *slog.Logger) T {
	var rec T
	for i, col := range b.Columns {
		field := b.Fields[i]
		cell := cellAt(row, col)

		v, err := Parse(cell, field.Type)
		if err != nil {
			log.Warn("cell parse failed",
				"row", rowIdx,
				"field", field.Name,
				"type", field.Type.String(),
				"value", cell,
				"error", err,
			)
		}
		if v == nil {
			if err == nil {
				log.Error("no parser for field type", "field", field.Name, "type", field.Type.String())
			}
			continue
		}
		field.Set(&rec, v)
	}
	return rec
}
