package core

import (
	"context"
	"fmt"
	"log/slog"
)

// populateFunc writes the rows of one page into its container field.
// It returns false when nothing was written.
type populateFunc[C any] func(c *C, rows []Row, log *slog.Logger) bool

// bindFunc resolves a page's headers and returns the matching populator.
type bindFunc[C any] func(headers HeaderSet, log *slog.Logger) populateFunc[C]

// Target is one declared destination inside container C: a page of the
// document and the field that receives its rows.
type Target[C any] struct {
	Name    string // Field name, for diagnostics
	Page    string // Page (sheet) name in the remote document
	Kind    Kind
	Element string // Element type name, for diagnostics

	bind bindFunc[C]
}

// Info returns the listing view of the target.
func (t Target[C]) Info() TargetInfo {
	return TargetInfo{
		Name:    t.Name,
		Page:    t.Page,
		Kind:    t.Kind.String(),
		Element: t.Element,
	}
}

// Resolved reports whether the target has an element schema and field.
func (t Target[C]) Resolved() bool {
	return t.bind != nil
}

// CollectionTarget declares a page whose rows populate a []T field.
// A nil schema or accessor yields an unresolved target that imports skip.
func CollectionTarget[C, T any](name, page string, schema *Schema[T], field func(*C) *[]T) Target[C] {
	t := Target[C]{Name: name, Page: page, Kind: Collection}
	if schema == nil || field == nil {
		return t
	}
	t.Element = schema.Name()
	t.bind = func(headers HeaderSet, log *slog.Logger) populateFunc[C] {
		b := Bind(headers, schema, log)
		return func(c *C, rows []Row, log *slog.Logger) bool {
			*field(c) = AssembleCollection(b, rows, log)
			return true
		}
	}
	return t
}

// SingleTarget declares a page whose first data row populates a T field.
// When the page has no data rows the field is left untouched.
func SingleTarget[C, T any](name, page string, schema *Schema[T], field func(*C) *T) Target[C] {
	t := Target[C]{Name: name, Page: page, Kind: Single}
	if schema == nil || field == nil {
		return t
	}
	t.Element = schema.Name()
	t.bind = func(headers HeaderSet, log *slog.Logger) populateFunc[C] {
		b := Bind(headers, schema, log)
		return func(c *C, rows []Row, log *slog.Logger) bool {
			rec, ok := AssembleSingle(b, rows, log)
			if !ok {
				log.Warn("no data found for single object field")
				return false
			}
			*field(c) = rec
			return true
		}
	}
	return t
}

// Run is the type-erased view of an import, used by the Service.
type Run interface {
	Run(ctx context.Context) error
	Abort()
	Observe(fn func(Progress))
	Progress() Progress
	Result() any
}

// Dataset is a registered container definition.
type Dataset interface {
	Info() DatasetInfo
	NewRun(documentID string, fetcher Fetcher, opts ...ImporterOption) Run
}

// Definition declares a container type and the pages that populate it.
type Definition[C any] struct {
	Key        string // Unique identifier: "game"
	Label      string // Display name
	DocumentID string // Default remote document
	New        func() *C
	Targets    []Target[C]
}

// Info implements Dataset.
func (d Definition[C]) Info() DatasetInfo {
	targets := make([]TargetInfo, len(d.Targets))
	for i, t := range d.Targets {
		targets[i] = t.Info()
	}
	return DatasetInfo{
		Key:        d.Key,
		Label:      d.Label,
		DocumentID: d.DocumentID,
		Targets:    targets,
	}
}

// NewRun implements Dataset. An empty documentID selects d.DocumentID.
func (d Definition[C]) NewRun(documentID string, fetcher Fetcher, opts ...ImporterOption) Run {
	return d.NewImporter(documentID, fetcher, opts...)
}

// NewImporter returns a typed importer for a fresh container.
func (d Definition[C]) NewImporter(documentID string, fetcher Fetcher, opts ...ImporterOption) *Importer[C] {
	if documentID == "" {
		documentID = d.DocumentID
	}
	var c *C
	if d.New != nil {
		c = d.New()
	} else {
		c = new(C)
	}
	return NewImporter(c, documentID, d.Targets, fetcher, opts...)
}

func (d Definition[C]) validate() error {
	if d.Key == "" {
		return fmt.Errorf("dataset key is required")
	}
	seen := make(map[string]bool, len(d.Targets))
	for _, t := range d.Targets {
		if t.Page == "" {
			return fmt.Errorf("dataset %s: target %q has no page", d.Key, t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("dataset %s: duplicate target %q", d.Key, t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}
