package buildpipe

// AssetProvider is the external asset pipeline. Given the asset slice of
// the resolved configuration it registers one task per asset type it
// handles (images, video, fonts, documents, files, scripts, styles,
// revisioning) plus a single aggregate task named "assets" that the
// default sequence runs. Internal ordering and parallelism within the
// aggregate belong to the provider; the pipeline treats it as atomic.
type AssetProvider interface {
	Register(reg TaskRegistry, opts AssetOptions) error
}

// ViewsProvider is the external templated-content pipeline. It registers
// one or more tasks against the views configuration, among them a task
// named "views" that the default sequence runs. It is never invoked when
// the views option is explicitly disabled.
type ViewsProvider interface {
	Register(reg TaskRegistry, opts ViewsOptions) error
}

// Providers bundles the external collaborators a pipeline delegates to.
// A nil provider simply leaves its task family unregistered.
type Providers struct {
	Assets AssetProvider
	Views  ViewsProvider
}

// TaskRegistry is the registration surface handed to providers.
// It is the pipeline's explicit task namespace: no ambient global state,
// so several independent pipelines can coexist in one process.
type TaskRegistry interface {
	// Register adds a task under its own name.
	// Registering the same name twice is an error.
	Register(task Task) error

	// RegisterBackground adds a long-running task that the executor
	// starts without awaiting. It never contributes to the sequence's
	// completion signal but blocks process exit through its Handle.
	RegisterBackground(task Task) error
}
