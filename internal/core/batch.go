package core

import (
	"context"
	"sync"
	"time"

	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/mhmtszr/concurrent-swiss-map"
)

// DefaultWorkers is the worker pool size used when none is configured.
const DefaultWorkers = 4

// BatchEngine classifies many paths concurrently while exposing progress
// snapshots for the CLI.
type BatchEngine struct {
	workerCount int
	classifier  *Classifier
	paths       []string

	results *csmap.CsMap[string, BatchResult]

	summaryMu sync.RWMutex
	summary   BatchSummary
}

// BatchSummary captures the state of a batch at a point in time.
type BatchSummary struct {
	TotalItems     int
	ProcessedItems int
	ActiveWorkers  int
	WorkerLimit    int
	ExternalCount  int
	UnknownCount   int
	LastItem       string
	Done           bool
	Canceled       bool
}

// BatchEvent represents an update emitted by the engine.
type BatchEvent struct {
	Summary BatchSummary
	Err     error
}

// BatchResult is the outcome for a single path.
type BatchResult struct {
	Path     string
	Result   provider.Result
	Duration time.Duration
}

// BatchConfig configures a batch run.
type BatchConfig struct {
	Classifier  *Classifier
	Paths       []string
	WorkerCount int
}

// NewBatchEngine constructs an engine with defaults applied.
func NewBatchEngine(cfg BatchConfig) *BatchEngine {
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = NewClassifier(ClassifierConfig{})
	}
	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = DefaultWorkers
	}

	return &BatchEngine{
		workerCount: workerCount,
		classifier:  classifier,
		paths:       cfg.Paths,
		results:     csmap.Create[string, BatchResult](),
		summary: BatchSummary{
			TotalItems:  len(cfg.Paths),
			WorkerLimit: workerCount,
		},
	}
}

// Start begins classification and returns a stream of progress events.
func (e *BatchEngine) Start(ctx context.Context) <-chan BatchEvent {
	events := make(chan BatchEvent, 128)
	go e.run(ctx, events)
	return events
}

// Run classifies every path and blocks until the batch finishes. It returns
// the context error when the batch was canceled.
func (e *BatchEngine) Run(ctx context.Context) (map[string]BatchResult, error) {
	for range e.Start(ctx) {
	}
	if err := ctx.Err(); err != nil {
		return e.Results(), err
	}
	return e.Results(), nil
}

// Results returns the classified paths. The map is complete once the engine
// has finished.
func (e *BatchEngine) Results() map[string]BatchResult {
	result := make(map[string]BatchResult, e.results.Count())
	e.results.Range(func(key string, value BatchResult) bool {
		result[key] = value
		return false
	})
	return result
}

// Ordered returns results in input order, skipping paths that were never
// classified.
func (e *BatchEngine) Ordered() []BatchResult {
	out := make([]BatchResult, 0, len(e.paths))
	seen := make(map[string]struct{}, len(e.paths))
	for _, path := range e.paths {
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		if res, ok := e.results.Load(path); ok {
			out = append(out, res)
		}
	}
	return out
}

// SummarySnapshot returns the latest progress summary.
func (e *BatchEngine) SummarySnapshot() BatchSummary {
	e.summaryMu.RLock()
	defer e.summaryMu.RUnlock()
	return e.summary
}

func (e *BatchEngine) run(ctx context.Context, events chan<- BatchEvent) {
	defer close(events)

	if len(e.paths) == 0 {
		e.summaryMu.Lock()
		e.summary.Done = true
		e.summaryMu.Unlock()
		e.emit(ctx, events, nil)
		return
	}

	e.emit(ctx, events, nil)

	workerCount := min(e.workerCount, len(e.paths))
	workCh := make(chan string)
	resultCh := make(chan BatchResult)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg, workCh, resultCh)
	}

	e.summaryMu.Lock()
	e.summary.ActiveWorkers = workerCount
	e.summaryMu.Unlock()
	e.emit(ctx, events, nil)

	// Duplicate paths count as processed without a second call. The
	// dispatcher reports them to this loop and never emits itself.
	dupCh := make(chan string)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(workCh)
		queued := make(map[string]struct{}, len(e.paths))
		for _, path := range e.paths {
			if ctx.Err() != nil {
				return
			}
			if _, exists := queued[path]; exists {
				select {
				case dupCh <- path:
				case <-ctx.Done():
					return
				}
				continue
			}
			queued[path] = struct{}{}
			select {
			case workCh <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for {
		select {
		case <-ctx.Done():
			e.summaryMu.Lock()
			e.summary.Canceled = true
			e.summary.ActiveWorkers = 0
			e.summaryMu.Unlock()
			e.emit(ctx, events, ctx.Err())
			return
		case res, ok := <-resultCh:
			if !ok {
				e.summaryMu.Lock()
				e.summary.ActiveWorkers = 0
				e.summary.Done = true
				e.summaryMu.Unlock()
				e.emit(ctx, events, nil)
				return
			}
			e.processResult(res)
			e.emit(ctx, events, nil)
		case path := <-dupCh:
			e.incrementProcessed(path)
			e.emit(ctx, events, nil)
		}
	}
}

func (e *BatchEngine) worker(ctx context.Context, wg *sync.WaitGroup, workCh <-chan string, resultCh chan<- BatchResult) {
	defer wg.Done()

	for path := range workCh {
		if ctx.Err() != nil {
			return
		}

		started := time.Now()
		res := e.classifier.Classify(ctx, path)

		select {
		case resultCh <- BatchResult{Path: path, Result: res, Duration: time.Since(started)}:
		case <-ctx.Done():
			return
		}
	}
}

func (e *BatchEngine) processResult(res BatchResult) {
	e.results.Store(res.Path, res)

	e.summaryMu.Lock()
	e.summary.ProcessedItems++
	if res.Result.Source == provider.SourceExternal {
		e.summary.ExternalCount++
	}
	if res.Result.MediaType() == provider.MediaTypeUnknown {
		e.summary.UnknownCount++
	}
	e.summary.LastItem = res.Path
	e.summaryMu.Unlock()
}

func (e *BatchEngine) incrementProcessed(path string) {
	e.summaryMu.Lock()
	e.summary.ProcessedItems++
	e.summary.LastItem = path
	e.summaryMu.Unlock()
}

func (e *BatchEngine) emit(ctx context.Context, events chan<- BatchEvent, err error) {
	summary := e.SummarySnapshot()
	select {
	case events <- BatchEvent{Summary: summary, Err: err}:
	case <-ctx.Done():
	}
}
