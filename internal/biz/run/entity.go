package run

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrConflict 同一任务已有进行中的运行记录
	ErrConflict = errors.New("task already has a running run")
	ErrNotFound = errors.New("run not found")
	ErrFinished = errors.New("run already finished")
)

type Run struct {
	ID      string     `json:"id"`
	TaskID  string     `json:"task_id"`
	StartTS time.Time  `json:"start_ts"`
	EndTS   *time.Time `json:"end_ts,omitempty"`
	Status  Status     `json:"status"`
	Message string     `json:"message,omitempty"`
}

func New(taskID string, startTS time.Time) *Run {
	return &Run{
		ID:      uuid.NewString(),
		TaskID:  taskID,
		StartTS: startTS,
		Status:  StatusRunning,
	}
}

func (r *Run) Finished() bool {
	return r.Status.Terminal()
}
