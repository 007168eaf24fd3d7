package buildpipe

import (
	"fmt"
)

// Task names owned by the pipeline itself or expected from providers.
const (
	// TaskClean removes the configured cleanup paths.
	TaskClean = "clean"
	// TaskViews is the aggregate templated-page task a ViewsProvider registers.
	TaskViews = "views"
	// TaskSitemap generates the sitemap document under Dest.
	TaskSitemap = "sitemap"
	// TaskAssets is the aggregate task an AssetProvider registers.
	TaskAssets = "assets"
	// TaskServe starts the local dev server.
	TaskServe = "serve"
	// TaskDefault is the name of the composed sequence entry point.
	TaskDefault = "default"
)

// Pipeline owns a resolved configuration and an explicit mapping from
// task name to executable unit. It decides once, at construction, which
// optional stages are registered; the default sequence is composed fresh
// from that set on every Compose call.
type Pipeline struct {
	opts       Options
	tasks      map[string]Task
	names      []string
	background map[string]bool
	logger     Logger
}

// PipelineOption configures pipeline construction.
type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	mergeSlices bool
	defaults    Options
	hasDefaults bool
	logger      Logger
}

// WithSliceReplacement makes the resolver replace list-valued options
// outright instead of concatenating them (concatenation is the default).
func WithSliceReplacement() PipelineOption {
	return func(c *pipelineConfig) {
		c.mergeSlices = false
	}
}

// WithDefaultsTemplate overrides the static default template merged under
// the caller options. Mostly useful in tests.
func WithDefaultsTemplate(defaults Options) PipelineOption {
	return func(c *pipelineConfig) {
		c.defaults = defaults
		c.hasDefaults = true
	}
}

// WithPipelineLogger sets the logger used by built-in tasks.
func WithPipelineLogger(logger Logger) PipelineOption {
	return func(c *pipelineConfig) {
		c.logger = logger
	}
}

// New resolves the caller options over the default template and registers
// every enabled stage:
//
//   - clean, always (a no-op when the cleanup list is empty);
//   - the views task family, unless views is explicitly disabled;
//   - sitemap, unless the sitemap option is absent (an enabled empty
//     configuration still turns it on);
//   - the asset task family, when an AssetProvider is given;
//   - serve, always, as a background task.
//
// The resolved configuration is read-only from this point on.
func New(user Options, providers Providers, opts ...PipelineOption) (*Pipeline, error) {
	cfg := pipelineConfig{
		mergeSlices: true,
		logger:      NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.hasDefaults {
		cfg.defaults = DefaultOptions()
	}

	resolved, err := Resolve(user, cfg.defaults, cfg.mergeSlices)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		opts:       resolved,
		tasks:      make(map[string]Task),
		background: make(map[string]bool),
		logger:     cfg.logger,
	}

	if err := p.Register(newCleanTask()); err != nil {
		return nil, err
	}

	if providers.Views != nil && !resolved.Views.IsDisabled() {
		if err := providers.Views.Register(p, resolved.Views.Value); err != nil {
			return nil, fmt.Errorf("registering views tasks: %w", err)
		}
	}

	if !resolved.Sitemap.IsAbsent() {
		if err := p.Register(newSitemapTask()); err != nil {
			return nil, err
		}
	}

	if providers.Assets != nil {
		if err := providers.Assets.Register(p, resolved.assetOptions()); err != nil {
			return nil, fmt.Errorf("registering asset tasks: %w", err)
		}
	}

	if err := p.RegisterBackground(newServeTask()); err != nil {
		return nil, err
	}

	return p, nil
}

// Register implements TaskRegistry.Register
func (p *Pipeline) Register(task Task) error {
	name := task.Name()
	if name == "" {
		return fmt.Errorf("task has no name")
	}
	if _, exists := p.tasks[name]; exists {
		return fmt.Errorf("task %q is already registered", name)
	}
	p.tasks[name] = task
	p.names = append(p.names, name)
	return nil
}

// RegisterBackground implements TaskRegistry.RegisterBackground
func (p *Pipeline) RegisterBackground(task Task) error {
	if err := p.Register(task); err != nil {
		return err
	}
	p.background[task.Name()] = true
	return nil
}

// Task returns the registered task with the given name.
func (p *Pipeline) Task(name string) (Task, bool) {
	t, ok := p.tasks[name]
	return t, ok
}

// Names returns all registered task names in registration order.
func (p *Pipeline) Names() []string {
	return append([]string(nil), p.names...)
}

// IsBackground reports whether a task runs fire-and-forget.
func (p *Pipeline) IsBackground(name string) bool {
	return p.background[name]
}

// Options returns the resolved configuration.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Logger returns the pipeline's logger.
func (p *Pipeline) Logger() Logger {
	return p.logger
}

// Compose builds the named "default" execution sequence from the
// registered stages. The ordering policy is fixed:
//
//  1. clean first, cleanup must precede any writes;
//  2. views, when the stage is registered;
//  3. sitemap, when the stage is registered. It reads the HTML views
//     emitted, so it follows views, but its gate is independent: a
//     sitemap can be built from statically provided HTML with views
//     disabled;
//  4. assets, the opaque aggregate (internal ordering belongs to the
//     provider);
//  5. serve last, only when the run-time flag requests it.
//
// The sequence is rebuilt fresh on every call and has no side effects of
// its own.
func (p *Pipeline) Compose(serve bool) []string {
	var sequence []string
	for _, name := range []string{TaskClean, TaskViews, TaskSitemap, TaskAssets} {
		if _, ok := p.tasks[name]; ok {
			sequence = append(sequence, name)
		}
	}
	if serve {
		if _, ok := p.tasks[TaskServe]; ok {
			sequence = append(sequence, TaskServe)
		}
	}
	return sequence
}
