package refreshrun

import "time"

type Trigger string

const (
	TriggerTick   Trigger = "tick"
	TriggerManual Trigger = "manual"
)

type TaskStatus string

const (
	TaskOK     TaskStatus = "ok"
	TaskFailed TaskStatus = "failed"
)

// TaskResult is the outcome of refreshing one scope within a run.
type TaskResult struct {
	ScopeKey     string
	Status       TaskStatus
	FixtureCount int
	Duration     time.Duration
	Message      string
}

// Run records one scheduler pass (or manual trigger) over the tracked scopes.
type Run struct {
	ID         string
	Trigger    Trigger
	StartedAt  time.Time
	FinishedAt time.Time
	Tasks      []TaskResult
}

func (r Run) FailedCount() int {
	failed := 0
	for _, task := range r.Tasks {
		if task.Status == TaskFailed {
			failed++
		}
	}
	return failed
}

func (r Run) Succeeded() bool {
	return r.FailedCount() == 0
}
