package buildpipe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Middleware represents a function that wraps sequence execution.
// Middleware can perform actions before and after a run, modify the
// context, or skip execution entirely.
type Middleware func(next RunnerFunc) RunnerFunc

// RunnerFunc is the core function type for executing a composed sequence.
type RunnerFunc func(ctx context.Context, pipeline *Pipeline, sequence []string, logger Logger) error

// TaskRunnerFunc is the core function type for executing a single task.
type TaskRunnerFunc func(ctx *TaskContext, task Task) error

// TaskMiddleware represents a function that wraps individual task
// execution. It allows performing operations before and after each task,
// such as timing or metrics collection.
type TaskMiddleware func(next TaskRunnerFunc) TaskRunnerFunc

// Runner executes composed sequences against a pipeline. It can be
// composed into other structures and supports middleware for adding
// cross-cutting concerns to sequence and task execution.
type Runner struct {
	// Middleware chain applied around the whole sequence
	middleware []Middleware
	// Middleware chain applied around each task
	taskMiddleware []TaskMiddleware
	// defaultLogger used when no logger is provided
	defaultLogger Logger
	// Options for sequence execution
	options RunOptions
}

// RunnerOption is a function that configures a Runner
type RunnerOption func(*Runner)

// WithMiddleware adds sequence middleware to the runner
func WithMiddleware(middleware ...Middleware) RunnerOption {
	return func(r *Runner) {
		r.middleware = append(r.middleware, middleware...)
	}
}

// WithTaskMiddleware adds per-task middleware to the runner
func WithTaskMiddleware(middleware ...TaskMiddleware) RunnerOption {
	return func(r *Runner) {
		r.taskMiddleware = append(r.taskMiddleware, middleware...)
	}
}

// WithLogger sets the default logger for the runner
func WithLogger(logger Logger) RunnerOption {
	return func(r *Runner) {
		r.defaultLogger = logger
	}
}

// WithOptions sets the default run options for the runner
func WithOptions(options RunOptions) RunnerOption {
	return func(r *Runner) {
		r.options = options
	}
}

// NewRunner creates a new sequence runner with the given options
func NewRunner(opts ...RunnerOption) *Runner {
	runner := &Runner{
		middleware:     []Middleware{},
		taskMiddleware: []TaskMiddleware{},
		defaultLogger:  NewDefaultLogger(),
		options:        DefaultRunOptions(),
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Use adds middleware to the runner's sequence middleware chain
func (r *Runner) Use(middleware ...Middleware) {
	r.middleware = append(r.middleware, middleware...)
}

// UseTaskMiddleware adds middleware to the runner's per-task chain
func (r *Runner) UseTaskMiddleware(middleware ...TaskMiddleware) {
	r.taskMiddleware = append(r.taskMiddleware, middleware...)
}

// Handle tracks a background task spawned by the runner. The executor
// never awaits it before declaring the sequence done; callers that want
// the task to block process exit wait on the handle themselves.
type Handle struct {
	name string
	done chan struct{}
	mu   sync.Mutex
	err  error
}

// Name returns the background task's name.
func (h *Handle) Name() string {
	return h.name
}

// Done returns a channel closed when the background task returns.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the background task returns and reports its error.
func (h *Handle) Wait() error {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) finish(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// runState collects per-run data across the middleware chain.
type runState struct {
	mu      sync.Mutex
	handles []*Handle
}

func (s *runState) add(h *Handle) {
	s.mu.Lock()
	s.handles = append(s.handles, h)
	s.mu.Unlock()
}

type runStateKey struct{}

func withRunState(ctx context.Context, s *runState) context.Context {
	return context.WithValue(ctx, runStateKey{}, s)
}

func runStateFrom(ctx context.Context) (*runState, bool) {
	s, ok := ctx.Value(runStateKey{}).(*runState)
	return s, ok
}

// Execute runs a composed sequence with the configured middleware chain.
// Tasks run strictly one after another; the first failure aborts the
// remainder and is returned wrapped with the failing task's name.
// Background tasks are started, not awaited.
func (r *Runner) Execute(ctx context.Context, pipeline *Pipeline, sequence []string, logger Logger) error {
	if logger == nil {
		logger = r.defaultLogger
	}

	if ctx == nil {
		ctx = context.Background()
	}

	// Build the middleware chain
	var handler RunnerFunc = r.executeSequence

	// Apply middleware in reverse order
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}

	return handler(ctx, pipeline, sequence, logger)
}

// executeSequence is the core sequential execution logic
func (r *Runner) executeSequence(ctx context.Context, p *Pipeline, sequence []string, logger Logger) error {
	if len(sequence) == 0 {
		return fmt.Errorf("sequence has no tasks to execute")
	}

	state, ok := runStateFrom(ctx)
	if !ok {
		state = &runState{}
	}

	// Build the per-task chain once for the run
	var taskHandler TaskRunnerFunc = func(tctx *TaskContext, task Task) error {
		return task.Execute(tctx)
	}
	for i := len(r.taskMiddleware) - 1; i >= 0; i-- {
		taskHandler = r.taskMiddleware[i](taskHandler)
	}

	for i, name := range sequence {
		task, ok := p.Task(name)
		if !ok {
			return fmt.Errorf("unknown task %q in sequence", name)
		}

		tctx := &TaskContext{
			GoContext: ctx,
			Options:   p.Options(),
			Logger:    logger,
		}

		if p.IsBackground(name) {
			logger.Info("Starting background task: %s", name)
			handle := &Handle{name: name, done: make(chan struct{})}
			state.add(handle)
			go func(task Task, tctx *TaskContext, handle *Handle) {
				err := taskHandler(tctx, task)
				if err != nil {
					logger.Error("Background task '%s' stopped: %v", task.Name(), err)
				}
				handle.finish(err)
			}(task, tctx, handle)
			continue
		}

		logger.Debug("Executing task %d/%d: %s", i+1, len(sequence), name)
		if err := taskHandler(tctx, task); err != nil {
			return fmt.Errorf("task '%s' failed: %w", name, err)
		}
		logger.Info("Completed task %d/%d: %s", i+1, len(sequence), name)
	}

	return nil
}

// RunOptions contains options for sequence execution
type RunOptions struct {
	// Logger to use for the run
	Logger Logger

	// Context to use for the run
	Context context.Context

	// OnComplete is the completion callback slot at the end of the
	// sequence: invoked with nil on success, with the first failure
	// otherwise. Background tasks never delay it.
	OnComplete func(error)
}

// DefaultRunOptions returns the default options for running a sequence
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Logger:  NewDefaultLogger(),
		Context: context.Background(),
	}
}

// RunResult contains the result of a sequence execution
type RunResult struct {
	// RunID uniquely identifies this run
	RunID string
	// Success is true when every foreground task completed
	Success bool
	// Error is the first failure, wrapped with the task name
	Error error
	// ExecutionTime covers the foreground sequence only
	ExecutionTime time.Duration
	// Background holds handles for tasks the run left resident
	Background []*Handle
}

// ExecuteWithOptions runs a composed sequence and returns a RunResult
// carrying the run ID, timing, and any background task handles.
func (r *Runner) ExecuteWithOptions(pipeline *Pipeline, sequence []string, options RunOptions) RunResult {
	startTime := time.Now()

	logger := options.Logger
	if logger == nil {
		logger = r.defaultLogger
	}

	ctx := options.Context
	if ctx == nil {
		ctx = context.Background()
	}

	state := &runState{}
	ctx = withRunState(ctx, state)

	err := r.Execute(ctx, pipeline, sequence, logger)

	if options.OnComplete != nil {
		options.OnComplete(err)
	}

	return RunResult{
		RunID:         uuid.NewString(),
		Success:       err == nil,
		Error:         err,
		ExecutionTime: time.Since(startTime),
		Background:    state.handles,
	}
}

// LoggingMiddleware creates a middleware that logs sequence execution
func LoggingMiddleware() Middleware {
	return func(next RunnerFunc) RunnerFunc {
		return func(ctx context.Context, pipeline *Pipeline, sequence []string, logger Logger) error {
			logger.Info("Middleware: Starting sequence %v", sequence)

			start := time.Now()
			err := next(ctx, pipeline, sequence, logger)
			duration := time.Since(start)

			if err != nil {
				logger.Error("Middleware: Sequence failed after %v: %v",
					duration.Round(time.Millisecond), err)
			} else {
				logger.Info("Middleware: Sequence completed in %v",
					duration.Round(time.Millisecond))
			}

			return err
		}
	}
}

// TimeLimitMiddleware creates a middleware that enforces a time limit on
// sequence execution
func TimeLimitMiddleware(limit time.Duration) Middleware {
	return func(next RunnerFunc) RunnerFunc {
		return func(ctx context.Context, pipeline *Pipeline, sequence []string, logger Logger) error {
			ctx, cancel := context.WithTimeout(ctx, limit)
			defer cancel()

			return next(ctx, pipeline, sequence, logger)
		}
	}
}
