package core

// importer.go drives one import run across every target of a container.
//
// State machine: Idle -> Running -> (Completed | Aborted).
//
// For each target in declared order the importer downloads the page, reads
// and binds the table, then assembles the result and writes it into the
// container. The download is the only blocking call per target. Abort and
// context cancellation are observed between targets only, so an in-flight
// download always finishes first.
//
// A failed download is fatal to the run: the importer stops, keeps every
// target it already wrote, and returns a *FetchError. A download cut short
// by context cancellation or deadline is reported as ErrAborted instead.
// Every other anomaly (unresolved target, unmatched header, bad cell) is
// logged and absorbed.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// phasesPerTarget splits each target's progress share into fetch,
// read/bind and populate.
const phasesPerTarget = 3

// ImporterOption configures an Importer.
type ImporterOption func(*importerOptions)

type importerOptions struct {
	log       *slog.Logger
	urlFormat string
}

// WithLogger sets the logger for run diagnostics.
func WithLogger(log *slog.Logger) ImporterOption {
	return func(o *importerOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithURLFormat overrides DefaultURLFormat.
func WithURLFormat(format string) ImporterOption {
	return func(o *importerOptions) {
		if format != "" {
			o.urlFormat = format
		}
	}
}

// Importer populates one container from its declared targets.
type Importer[C any] struct {
	container  *C
	documentID string
	targets    []Target[C]
	fetcher    Fetcher
	opts       importerOptions

	started atomic.Bool
	aborted atomic.Bool

	mu         sync.Mutex
	progress   Progress
	observers  []func(Progress)
	onComplete []func(*C)
}

// NewImporter creates an importer that writes into container.
func NewImporter[C any](container *C, documentID string, targets []Target[C], fetcher Fetcher, opts ...ImporterOption) *Importer[C] {
	o := importerOptions{
		log:       slog.Default(),
		urlFormat: DefaultURLFormat,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Importer[C]{
		container:  container,
		documentID: documentID,
		targets:    targets,
		fetcher:    fetcher,
		opts:       o,
		progress: Progress{
			State:  StateIdle,
			Status: "Idle",
			Total:  len(targets),
		},
	}
}

// Observe registers fn to receive every progress change. Observers run on
// the importer's goroutine and must not block.
func (q *Importer[C]) Observe(fn func(Progress)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observers = append(q.observers, fn)
}

// OnComplete registers fn to receive the container after every target has
// been processed. It is not called when the run aborts.
func (q *Importer[C]) OnComplete(fn func(*C)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onComplete = append(q.onComplete, fn)
}

// Abort requests cooperative cancellation. The run stops at the next target
// boundary; targets already written are kept.
func (q *Importer[C]) Abort() {
	q.aborted.Store(true)
}

// Aborted reports whether Abort was requested or a download failed.
func (q *Importer[C]) Aborted() bool {
	return q.aborted.Load()
}

// Progress returns the current progress snapshot.
func (q *Importer[C]) Progress() Progress {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.progress
}

// Container returns the container being populated.
func (q *Importer[C]) Container() *C {
	return q.container
}

// Result implements Run.
func (q *Importer[C]) Result() any {
	return q.container
}

// Run imports every target in order. It returns nil on completion,
// ErrAborted when stopped by Abort or ctx, and a *FetchError when a page
// could not be downloaded.
func (q *Importer[C]) Run(ctx context.Context) error {
	if !q.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if closer, ok := q.fetcher.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				q.opts.log.Warn("close fetcher", "error", err)
			}
		}()
	}

	q.update(func(p *Progress) {
		p.State = StateRunning
		p.Status = "Starting import..."
	})
	q.opts.log.Info("import started", "document", q.documentID, "targets", len(q.targets))

	for i, t := range q.targets {
		if q.aborted.Load() || ctx.Err() != nil {
			q.finishAborted(ErrAborted, "Import aborted")
			return ErrAborted
		}

		if err := q.importTarget(ctx, i, t); err != nil {
			q.aborted.Store(true)
			if ctx.Err() != nil {
				q.finishAborted(ErrAborted, "Import aborted")
				return ErrAborted
			}
			q.finishAborted(err, fmt.Sprintf("Failed to download page '%s'", t.Page))
			return err
		}
	}

	q.update(func(p *Progress) {
		p.State = StateCompleted
		p.Status = "Import complete"
		p.Value = 1
		p.Target = ""
	})
	q.opts.log.Info("import completed", "document", q.documentID, "targets", len(q.targets))

	q.mu.Lock()
	hooks := slices.Clone(q.onComplete)
	q.mu.Unlock()
	for _, fn := range hooks {
		fn(q.container)
	}

	return nil
}

func (q *Importer[C]) importTarget(ctx context.Context, i int, t Target[C]) error {
	log := q.opts.log.With("target", t.Name, "page", t.Page)

	if !t.Resolved() {
		log.Error("target skipped", "error", ErrUnresolvedElement)
		q.advance(i, t, phasesPerTarget, fmt.Sprintf("Skipped '%s'", t.Name))
		return nil
	}

	q.advance(i, t, 0, fmt.Sprintf("Downloading page '%s'...", t.Page))

	pageURL := PageURL(q.opts.urlFormat, q.documentID, t.Page)
	text, err := q.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		log.Error("bad url", "url", pageURL, "error", err)
		return &FetchError{Page: t.Page, URL: pageURL, Err: err}
	}
	q.advance(i, t, 1, "Analysing headers...")

	table := ReadTable(text)
	populate := t.bind(table.Headers, log)
	log.Debug("page read", "headers", table.Headers.Len(), "dropped", len(table.Headers.Dropped), "rows", len(table.Rows))
	q.advance(i, t, 2, fmt.Sprintf("Populating %s of defs '%s'<%s>...", kindLabel(t.Kind), t.Name, t.Element))

	if populate(q.container, table.Rows, log) {
		log.Info("target populated", "kind", t.Kind.String(), "rows", len(table.Rows))
	}
	q.advance(i, t, phasesPerTarget, fmt.Sprintf("Populated '%s'", t.Name))

	return nil
}

func kindLabel(k Kind) string {
	if k == Collection {
		return "list"
	}
	return "single object"
}

// advance moves progress to phase (0..3) of target i. The value is computed
// from integer positions so the last phase of the last target is exactly 1.
func (q *Importer[C]) advance(i int, t Target[C], phase int, status string) {
	total := len(q.targets)
	value := float64(i*phasesPerTarget+phase) / float64(total*phasesPerTarget)

	q.update(func(p *Progress) {
		if value > p.Value {
			p.Value = min(value, 1)
		}
		p.Status = status
		p.Target = t.Name
		p.Index = i
	})
}

func (q *Importer[C]) finishAborted(err error, status string) {
	q.update(func(p *Progress) {
		p.State = StateAborted
		p.Status = status
		p.Error = err.Error()
	})

	if errors.Is(err, ErrAborted) {
		q.opts.log.Info("import aborted", "document", q.documentID)
	} else {
		q.opts.log.Error("import failed", "document", q.documentID, "error", err)
	}
}

// update mutates progress under the lock and notifies observers with the
// resulting snapshot.
func (q *Importer[C]) update(fn func(*Progress)) {
	q.mu.Lock()
	fn(&q.progress)
	snapshot := q.progress
	observers := slices.Clone(q.observers)
	q.mu.Unlock()

	for _, obs := range observers {
		obs(snapshot)
	}
}
