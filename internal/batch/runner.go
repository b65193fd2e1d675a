package batch

import (
	"fmt"
	"time"

	"github.com/sofibox/sofilab/internal/engine"
	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/logger"
)

// DefaultPacing is the pause between consecutive scripts. Scripts that
// restart services need a moment before the next script hits the same
// daemon.
const DefaultPacing = 3 * time.Second

// Executor runs one task. Satisfied by *engine.Engine.
type Executor interface {
	Run(task engine.Task) engine.Result
}

// Runner executes a task sequence in order, failing fast.
type Runner struct {
	Exec   Executor
	Pacing time.Duration
	Log    logger.Logger

	// OnStart, when set, is called before each task runs. Drives
	// progress output without coupling the runner to a UI.
	OnStart func(index, total int, task engine.Task)

	sleep func(time.Duration)
}

// NewRunner returns a runner with the default pacing.
func NewRunner(exec Executor, log logger.Logger) *Runner {
	return &Runner{Exec: exec, Pacing: DefaultPacing, Log: log, sleep: time.Sleep}
}

// Run executes tasks sequentially. The first failure stops the batch:
// later scripts assume earlier ones completed, so running past a
// failure does damage rather than making progress. Completed results
// are always returned, including the failing one.
func (r *Runner) Run(tasks []engine.Task) ([]engine.Result, error) {
	sleep := r.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	results := make([]engine.Result, 0, len(tasks))
	for i, task := range tasks {
		if r.OnStart != nil {
			r.OnStart(i, len(tasks), task)
		}

		result := r.Exec.Run(task)
		results = append(results, result)

		if !result.Succeeded() {
			name := task.RemoteName()
			if result.Err != nil {
				return results, result.Err
			}
			return results, errors.New(errors.ErrExec,
				fmt.Sprintf("Script '%s' exited %d (%d of %d)", name, result.ExitCode, i+1, len(tasks)),
				"Fix the failing script and rerun; earlier scripts already completed")
		}

		// Pace between scripts, not after the last one.
		if i < len(tasks)-1 && r.Pacing > 0 {
			r.Log.Debug("pacing %s before next script", r.Pacing)
			sleep(r.Pacing)
		}
	}
	return results, nil
}
