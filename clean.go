package buildpipe

import (
	"fmt"
	"os"
)

// cleanTask removes the resolved cleanup paths before any stage writes.
type cleanTask struct {
	BaseTask
}

func newCleanTask() Task {
	return &cleanTask{
		BaseTask: NewBaseTask(TaskClean, "Removes built output and cached content snapshots"),
	}
}

// Execute implements Task.Execute. Each path is logged before removal, in
// list order, and removal is forced for non-empty directories. An empty
// cleanup list is a no-op, never an error.
func (t *cleanTask) Execute(ctx *TaskContext) error {
	paths := ctx.Options.Clean
	if len(paths) == 0 {
		ctx.Logger.Debug("Nothing to clean")
		return nil
	}

	for _, path := range paths {
		ctx.Logger.Info("Removing %s", path)
	}

	for _, path := range paths {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}

	return nil
}
