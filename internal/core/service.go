package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/sheetsync/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var (
	// ErrUnknownDataset is returned for keys that are not registered.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrImportNotFound is returned for unknown or expired run IDs.
	ErrImportNotFound = errors.New("import not found")

	// ErrMissingDocument is returned when neither the request nor the
	// dataset names a document.
	ErrMissingDocument = errors.New("no document id")
)

// ServiceConfig holds the settings the Service needs from configuration.
type ServiceConfig struct {
	URLFormat         string
	DefaultDocumentID string // used when neither request nor dataset names one
	FetchTimeout      time.Duration
	MaxPageBytes      int64
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	MaxConcurrent     int
	MaxWait           time.Duration
	RunTimeout        time.Duration
	ResultRetention   time.Duration
}

const (
	defaultRunTimeout      = 10 * time.Minute
	defaultResultRetention = 10 * time.Minute
)

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithFetcherFactory replaces the HTTP fetcher created for each run.
func WithFetcherFactory(fn func() Fetcher) ServiceOption {
	return func(s *Service) {
		s.newFetcher = fn
	}
}

// Service runs and tracks imports of registered datasets.
type Service struct {
	cfg        ServiceConfig
	limiter    *ImportLimiter
	newFetcher func() Fetcher

	mu      sync.RWMutex
	imports map[string]*activeImport
}

type activeImport struct {
	ID         string
	DatasetKey string
	DocumentID string
	StartedAt  time.Time
	Run        Run
	Result     *ImportResult
	Done       chan struct{}

	ListenerMu sync.Mutex
	Listeners  []chan Progress
	closed     bool
}

// NewService creates a Service. Every run gets its own HTTP fetcher; all
// fetchers share one request pacer.
func NewService(cfg ServiceConfig, opts ...ServiceOption) *Service {
	if cfg.URLFormat == "" {
		cfg.URLFormat = DefaultURLFormat
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = defaultRunTimeout
	}
	if cfg.ResultRetention <= 0 {
		cfg.ResultRetention = defaultResultRetention
	}

	var pacer *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	s := &Service{
		cfg:     cfg,
		limiter: NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		imports: make(map[string]*activeImport),
	}
	s.newFetcher = func() Fetcher {
		return NewHTTPFetcher(HTTPFetcherConfig{
			Timeout:   cfg.FetchTimeout,
			MaxBytes:  cfg.MaxPageBytes,
			UserAgent: cfg.UserAgent,
			Pacer:     pacer,
		})
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListDatasets returns information about all registered datasets.
func (s *Service) ListDatasets() []DatasetInfo {
	all := All()
	infos := make([]DatasetInfo, len(all))
	for i, ds := range all {
		infos[i] = ds.Info()
	}
	return infos
}

// StartImport begins an asynchronous import of a dataset.
// Returns the run ID immediately. Use SubscribeProgress to get updates.
// An empty documentID selects the dataset's default document, then the
// service-wide default.
func (s *Service) StartImport(ctx context.Context, datasetKey, documentID string) (string, error) {
	ds, ok := Get(datasetKey)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDataset, datasetKey)
	}
	if documentID == "" {
		documentID = ds.Info().DocumentID
	}
	if documentID == "" {
		documentID = s.cfg.DefaultDocumentID
	}
	if documentID == "" {
		return "", fmt.Errorf("%w for dataset %s", ErrMissingDocument, datasetKey)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	runID := uuid.New().String()
	log := logging.WithFields(ctx, "run_id", runID, "dataset", datasetKey)

	run := ds.NewRun(documentID, s.newFetcher(),
		WithLogger(log),
		WithURLFormat(s.cfg.URLFormat),
	)

	imp := &activeImport{
		ID:         runID,
		DatasetKey: datasetKey,
		DocumentID: documentID,
		StartedAt:  time.Now(),
		Run:        run,
		Done:       make(chan struct{}),
	}
	run.Observe(imp.notifyProgress)

	s.mu.Lock()
	s.imports[runID] = imp
	s.mu.Unlock()

	// The run outlives the request that started it.
	runCtx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	go s.processImport(runCtx, cancel, imp)

	return runID, nil
}

func (s *Service) processImport(ctx context.Context, cancel context.CancelFunc, imp *activeImport) {
	defer func() {
		cancel()
		s.limiter.Release()
		imp.closeListeners(imp.Run.Progress())
		close(imp.Done)
		s.cleanup(imp.ID, s.cfg.ResultRetention)
	}()

	err := imp.Run.Run(ctx)

	progress := imp.Run.Progress()
	result := &ImportResult{
		RunID:      imp.ID,
		Dataset:    imp.DatasetKey,
		DocumentID: imp.DocumentID,
		State:      progress.State,
		Duration:   time.Since(imp.StartedAt),
		Container:  imp.Run.Result(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	imp.Result = result
}

// SubscribeProgress returns a channel that receives progress updates.
// The current progress is sent immediately. The channel is closed when the
// import finishes.
func (s *Service) SubscribeProgress(runID string) (<-chan Progress, error) {
	imp, err := s.lookup(runID)
	if err != nil {
		return nil, err
	}

	ch := make(chan Progress, 16)

	imp.ListenerMu.Lock()
	defer imp.ListenerMu.Unlock()

	ch <- imp.Run.Progress()
	if imp.closed {
		close(ch)
		return ch, nil
	}
	imp.Listeners = append(imp.Listeners, ch)

	return ch, nil
}

// AbortImport requests cooperative cancellation of a run.
func (s *Service) AbortImport(runID string) error {
	imp, err := s.lookup(runID)
	if err != nil {
		return err
	}
	imp.Run.Abort()
	return nil
}

// GetImportResult returns the result of a finished import.
// Blocks until the import finishes or ctx ends.
func (s *Service) GetImportResult(ctx context.Context, runID string) (*ImportResult, error) {
	imp, err := s.lookup(runID)
	if err != nil {
		return nil, err
	}

	select {
	case <-imp.Done:
		return imp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PollImportResult returns the result of a finished import without blocking.
// Returns nil while the import is still running.
func (s *Service) PollImportResult(runID string) (*ImportResult, error) {
	imp, err := s.lookup(runID)
	if err != nil {
		return nil, err
	}

	select {
	case <-imp.Done:
		return imp.Result, nil
	default:
		return nil, nil
	}
}

// GetImportProgress returns the current progress without blocking.
func (s *Service) GetImportProgress(runID string) (Progress, error) {
	imp, err := s.lookup(runID)
	if err != nil {
		return Progress{}, err
	}
	return imp.Run.Progress(), nil
}

// LimiterStatus returns the run limiter state.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until all running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) lookup(runID string) (*activeImport, error) {
	s.mu.RLock()
	imp, ok := s.imports[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, runID)
	}
	return imp, nil
}

// notifyProgress sends progress updates to all listeners.
func (imp *activeImport) notifyProgress(p Progress) {
	imp.ListenerMu.Lock()
	defer imp.ListenerMu.Unlock()

	for _, ch := range imp.Listeners {
		select {
		case ch <- p:
		default:
			// Listener is slow, skip this update
		}
	}
}

// closeListeners delivers the final snapshot to every listener and closes
// its channel. A full channel drops its oldest update to make room, so the
// last value a listener reads is always the terminal state.
func (imp *activeImport) closeListeners(final Progress) {
	imp.ListenerMu.Lock()
	defer imp.ListenerMu.Unlock()

	for _, ch := range imp.Listeners {
		select {
		case ch <- final:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- final:
			default:
			}
		}
		close(ch)
	}
	imp.Listeners = nil
	imp.closed = true
}

// cleanup removes the import from tracking after a delay.
func (s *Service) cleanup(runID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.imports, runID)
		s.mu.Unlock()
	})
}
