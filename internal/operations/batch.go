package operations

import (
	"context"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petereon/fix-stl/internal/meshfix"
)

// DefaultExtensions are the mesh formats discovered when none are given.
var DefaultExtensions = []string{".stl", ".off"}

// BatchConfig configures batch processing behavior
type BatchConfig struct {
	NumWorkers   int           // Number of concurrent workers
	QueueSize    int           // Task queue buffer size
	ProgressRate time.Duration // Progress update frequency
	Options      *meshfix.PartialOptions
	OutputDir    string // Write outputs here instead of next to each input
}

// FindFilesOptions configures file discovery for batch operations
type FindFilesOptions struct {
	Recursive       bool
	MaxDepth        int      // -1 for unlimited
	Extensions      []string // e.g., []string{".stl", ".off"}
	Ignore          []string // glob patterns
	IncludeRepaired bool     // also pick up *_fixed.* outputs of earlier runs
}

// FindFiles finds all matching files in the given directory based on options
func FindFiles(root string, opts FindFilesOptions) ([]string, error) {
	var files []string

	root = filepath.Clean(root)

	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		depth := 0
		if rel != "." {
			depth = len(strings.Split(rel, string(filepath.Separator)))
		}

		if opts.MaxDepth != -1 && depth > opts.MaxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip directories if not recursive (beyond the root)
		if !opts.Recursive && d.IsDir() && path != root {
			return filepath.SkipDir
		}

		for _, pattern := range opts.Ignore {
			if matchesPattern(pattern, d.Name(), path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}

		if !hasExtension(path, extensions) {
			return nil
		}
		if !opts.IncludeRepaired && IsRepairedOutput(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

func matchesPattern(pattern, name, path string) bool {
	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}
	matched, err := filepath.Match(pattern, path)
	return err == nil && matched
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, target := range extensions {
		if !strings.HasPrefix(target, ".") {
			target = "." + target
		}
		if ext == strings.ToLower(target) {
			return true
		}
	}
	return false
}

// IsRepairedOutput reports whether path names a *_fixed output of an earlier repair.
func IsRepairedOutput(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), FixedSuffix)
}

// DefaultBatchConfig returns sensible defaults for batch processing.
// A single worker matches the default native concurrency of 1.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		NumWorkers:   1,
		QueueSize:    100,
		ProgressRate: 100 * time.Millisecond,
	}
}

// Task represents a single file to process
type Task struct {
	FilePath string
}

// Result contains the result of processing a single file
type Result struct {
	FilePath string
	Response *Response
	Error    error
}

// MarshalJSON renders Error as its message.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		FilePath string    `json:"file_path"`
		Response *Response `json:"response,omitempty"`
		Error    string    `json:"error,omitempty"`
	}{
		FilePath: r.FilePath,
		Response: r.Response,
	}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return json.Marshal(out)
}

// ProgressUpdate contains progress information
type ProgressUpdate struct {
	Completed int
	Total     int
	Current   string
}

// BatchProcessor handles concurrent batch repair of mesh files.
// A processor runs one batch; create a new one for each Execute.
type BatchProcessor struct {
	config      BatchConfig
	op          *RepairOperation
	ctx         context.Context
	cancel      context.CancelFunc
	taskQueue   chan Task
	resultQueue chan Result
	progressCh  chan ProgressUpdate
	completed   atomic.Int64
	total       int
	currentFile atomic.Value // stores string
}

// NewBatchProcessor creates a new batch processor with the given parent context
func NewBatchProcessor(ctx context.Context, op *RepairOperation, config BatchConfig) *BatchProcessor {
	ctx, cancel := context.WithCancel(ctx)

	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	if config.QueueSize < 1 {
		config.QueueSize = 1
	}
	if config.ProgressRate <= 0 {
		config.ProgressRate = 100 * time.Millisecond
	}

	return &BatchProcessor{
		config:      config,
		op:          op,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan Task, config.QueueSize),
		resultQueue: make(chan Result, config.QueueSize),
		progressCh:  make(chan ProgressUpdate, 10),
	}
}

// Execute repairs every file and returns one Result per processed file.
// Files not yet started when the context is canceled are skipped.
func (bp *BatchProcessor) Execute(files []string) []Result {
	bp.total = len(files)
	bp.completed.Store(0)

	var wg sync.WaitGroup
	for i := 0; i < bp.config.NumWorkers; i++ {
		wg.Add(1)
		go bp.worker(&wg)
	}

	go func() {
		defer close(bp.taskQueue)
		for _, file := range files {
			select {
			case bp.taskQueue <- Task{FilePath: file}:
			case <-bp.ctx.Done():
				return
			}
		}
	}()

	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		bp.reportProgress()
	}()

	go func() {
		wg.Wait()
		close(bp.resultQueue)
	}()

	results := make([]Result, 0, len(files))
	for result := range bp.resultQueue {
		results = append(results, result)
	}

	bp.Cancel()
	<-progressDone

	return results
}

// worker processes tasks from the queue
func (bp *BatchProcessor) worker(wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-bp.ctx.Done():
			return
		case task, ok := <-bp.taskQueue:
			if !ok {
				return
			}

			bp.currentFile.Store(task.FilePath)
			result := bp.processTask(task)

			// Always deliver: the collector drains resultQueue until all workers exit.
			bp.resultQueue <- result
			bp.completed.Add(1)
		}
	}
}

// processTask repairs a single file. No per-file timeout is applied; the
// native call cannot be interrupted once issued.
func (bp *BatchProcessor) processTask(task Task) Result {
	result := Result{FilePath: task.FilePath}

	req := Request{
		InputPath: task.FilePath,
		Options:   bp.config.Options,
	}

	if bp.config.OutputDir != "" {
		opts := meshfix.NormalizeOptions(bp.config.Options)
		relocated := filepath.Join(bp.config.OutputDir, filepath.Base(task.FilePath))
		out, err := ResolveOutputPath(relocated, nil, opts)
		if err != nil {
			result.Error = err
			return result
		}
		req.OutputPath = &out
	}

	result.Response, result.Error = bp.op.Execute(bp.ctx, req)
	return result
}

// reportProgress periodically sends progress updates
func (bp *BatchProcessor) reportProgress() {
	ticker := time.NewTicker(bp.config.ProgressRate)
	defer ticker.Stop()
	defer close(bp.progressCh)

	for {
		select {
		case <-bp.ctx.Done():
			return
		case <-ticker.C:
			current := ""
			if val := bp.currentFile.Load(); val != nil {
				current = val.(string)
			}

			update := ProgressUpdate{
				Completed: int(bp.completed.Load()),
				Total:     bp.total,
				Current:   current,
			}

			// Non-blocking send
			select {
			case bp.progressCh <- update:
			default:
			}
		}
	}
}

// ProgressChannel returns the channel for receiving progress updates.
// It is closed when the batch finishes.
func (bp *BatchProcessor) ProgressChannel() <-chan ProgressUpdate {
	return bp.progressCh
}

// Cancel stops handing out new files. Repairs already in the native
// library run to completion.
func (bp *BatchProcessor) Cancel() {
	bp.cancel()
}

// BatchResult contains aggregated results of a batch operation
type BatchResult struct {
	Repaired []Result      `json:"repaired"` // native routine fixed the mesh
	Failed   []Result      `json:"failed"`   // domain failure reported in the Response
	Errored  []Result      `json:"errored"`  // request never reached a domain outcome
	Duration time.Duration `json:"duration"`
	Total    int           `json:"total"`
}

// AggregateResults sorts results by file path and groups them by outcome.
func AggregateResults(results []Result, duration time.Duration) BatchResult {
	sorted := make([]Result, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FilePath < sorted[j].FilePath
	})

	br := BatchResult{
		Repaired: make([]Result, 0),
		Failed:   make([]Result, 0),
		Errored:  make([]Result, 0),
		Duration: duration,
		Total:    len(sorted),
	}

	for _, r := range sorted {
		switch {
		case r.Error != nil || r.Response == nil:
			br.Errored = append(br.Errored, r)
		case r.Response.Success:
			br.Repaired = append(br.Repaired, r)
		default:
			br.Failed = append(br.Failed, r)
		}
	}

	return br
}

// OK reports whether every file was repaired.
func (br BatchResult) OK() bool {
	return len(br.Failed) == 0 && len(br.Errored) == 0
}
