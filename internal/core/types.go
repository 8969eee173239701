package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAborted is returned by Run when the import stopped at a target
	// boundary because Abort was called or the context ended.
	ErrAborted = errors.New("import aborted")

	// ErrUnresolvedElement marks a target without an element schema or
	// field accessor. The target is skipped; the run continues.
	ErrUnresolvedElement = errors.New("could not identify element type")

	// ErrAlreadyStarted is returned when Run is called twice on one importer.
	ErrAlreadyStarted = errors.New("import already started")
)

// Kind selects whether a target holds one record or an ordered list.
type Kind int

const (
	Single Kind = iota
	Collection
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Collection:
		return "collection"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// State is the lifecycle of one import run.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON progress payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Done reports whether the run has reached a terminal state.
func (s State) Done() bool {
	return s == StateCompleted || s == StateAborted
}

// Progress is a snapshot of an import run.
//
// Value is in [0,1] and never decreases. Each target owns an equal share,
// split into thirds: fetch, read and bind, populate.
type Progress struct {
	State  State   `json:"state"`
	Status string  `json:"status"`
	Value  float64 `json:"progress"`
	Target string  `json:"target,omitempty"`
	Index  int     `json:"index"`
	Total  int     `json:"total"`
	Error  string  `json:"error,omitempty"`
}

// Percent returns the progress as a percentage (0-100).
func (p Progress) Percent() int {
	return int(p.Value * 100)
}

// TargetInfo describes a declared target for listings.
type TargetInfo struct {
	Name    string `json:"name"`
	Page    string `json:"page"`
	Kind    string `json:"kind"`
	Element string `json:"element"`
}

// DatasetInfo contains display information about a registered dataset.
type DatasetInfo struct {
	Key        string       `json:"key"`
	Label      string       `json:"label"`
	DocumentID string       `json:"documentId"`
	Targets    []TargetInfo `json:"targets"`
}

// ImportResult is the final state of a tracked import.
type ImportResult struct {
	RunID      string        `json:"runId"`
	Dataset    string        `json:"dataset"`
	DocumentID string        `json:"documentId"`
	State      State         `json:"state"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	Container  any           `json:"container"`
}
