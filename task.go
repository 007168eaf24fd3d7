package buildpipe

import "context"

// Task is a single named unit of build work registered with a pipeline.
// Tasks are the building blocks of the default sequence and represent
// individual stages (cleanup, templated pages, sitemap, asset processing)
// that need to be executed. Tasks are not mutated after registration.
type Task interface {
	// Name returns the task's registered name
	Name() string

	// Description returns a human-readable description of the task
	Description() string

	// Execute performs the task's work.
	// The TaskContext provides access to the resolved configuration
	// and the logger for output.
	Execute(ctx *TaskContext) error
}

// TaskContext provides the execution environment passed to every task.
// Tasks read the configuration and write logs through it; they never
// mutate the configuration, and they exchange data with other tasks only
// through the filesystem.
type TaskContext struct {
	// GoContext is the context for the current run
	GoContext context.Context

	// Options is the resolved, read-only configuration
	Options Options

	// Logger for task output
	Logger Logger
}

// BaseTask provides a partial implementation of the Task interface
// with name and description handling. Concrete tasks embed it and
// implement Execute.
type BaseTask struct {
	name        string
	description string
}

// NewBaseTask creates a base task with a name and description.
func NewBaseTask(name, description string) BaseTask {
	return BaseTask{
		name:        name,
		description: description,
	}
}

// Name implements Task.Name
func (t BaseTask) Name() string {
	return t.name
}

// Description implements Task.Description
func (t BaseTask) Description() string {
	return t.description
}

// funcTask adapts a plain function to the Task interface.
type funcTask struct {
	BaseTask
	fn func(ctx *TaskContext) error
}

// TaskFunc wraps a function as a Task. It's the quickest way for an
// external provider to register an execution unit.
func TaskFunc(name, description string, fn func(ctx *TaskContext) error) Task {
	return &funcTask{
		BaseTask: NewBaseTask(name, description),
		fn:       fn,
	}
}

// Execute implements Task.Execute
func (t *funcTask) Execute(ctx *TaskContext) error {
	if t.fn != nil {
		return t.fn(ctx)
	}
	return nil
}
