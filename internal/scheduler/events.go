package scheduler

import (
	"time"

	"github.com/sora/fundtracker/internal/biz/run"
)

// EventType represents the type of events emitted by the scheduler.
type EventType string

const (
	EventRunStarted    EventType = "run_started"
	EventRunFinished   EventType = "run_finished"
	EventTaskExhausted EventType = "task_exhausted"
)

type Event struct {
	Type      EventType  `json:"type"`
	TaskID    string     `json:"task_id"`
	RunID     string     `json:"run_id,omitempty"`
	Status    run.Status `json:"status,omitempty"`
	Message   string     `json:"message,omitempty"`
	Timestamp time.Time  `json:"ts"`
}
