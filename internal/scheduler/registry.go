package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sora/fundtracker/internal/biz/run"
	"github.com/sora/fundtracker/internal/biz/task"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
	PhaseCancelled Phase = "cancelled"
	PhaseExhausted Phase = "exhausted"
	PhaseDisabled  Phase = "disabled"
)

// RuntimeState 任务的内存运行时状态，重启后从运行历史重建
type RuntimeState struct {
	RunCount        int
	LastRunAt       *time.Time
	NextRunAt       time.Time
	Phase           Phase
	CancelRequested bool
}

type Entry struct {
	Task  *task.Task
	State RuntimeState
}

func (e *Entry) clone() *Entry {
	taskCopy := *e.Task
	return &Entry{Task: &taskCopy, State: e.State}
}

// Registry 内存任务目录，运行时状态只由调度循环修改
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

func (r *Registry) Add(t *task.Task, state RuntimeState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[t.TaskID]; ok {
		return fmt.Errorf("%w: %s", task.ErrDuplicate, t.TaskID)
	}
	r.entries[t.TaskID] = &Entry{Task: t, State: state}
	return nil
}

func (r *Registry) Remove(taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[taskID]; !ok {
		return fmt.Errorf("%w: %s", task.ErrNotFound, taskID)
	}
	delete(r.entries, taskID)
	return nil
}

// Get 返回条目快照
func (r *Registry) Get(taskID string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", task.ErrNotFound, taskID)
	}
	return entry.clone(), nil
}

// List 返回所有条目快照，按 task_id 排序
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Task.TaskID < out[j].Task.TaskID
	})
	return out
}

// Reset 清空后批量加载，用于启动时重建
func (r *Registry) Reset(entries []*Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*Entry, len(entries))
	for _, entry := range entries {
		r.entries[entry.Task.TaskID] = entry
	}
}

// Due 返回当前可调度的任务快照，排序键为 (next_run_at, task_id)
func (r *Registry) Due(now time.Time) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var due []*Entry
	for _, entry := range r.entries {
		switch entry.State.Phase {
		case PhaseRunning, PhaseExhausted, PhaseDisabled, PhaseCancelled:
			continue
		}
		if entry.State.NextRunAt.After(now) {
			continue
		}
		due = append(due, entry.clone())
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].State.NextRunAt.Equal(due[j].State.NextRunAt) {
			return due[i].State.NextRunAt.Before(due[j].State.NextRunAt)
		}
		return due[i].Task.TaskID < due[j].Task.TaskID
	})
	return due
}

func (r *Registry) update(taskID string, fn func(entry *Entry)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", task.ErrNotFound, taskID)
	}
	fn(entry)
	return nil
}

func (r *Registry) markRunning(taskID string) error {
	return r.update(taskID, func(entry *Entry) {
		entry.State.Phase = PhaseRunning
		entry.State.CancelRequested = false
	})
}

func (r *Registry) markCancelRequested(taskID string) error {
	return r.update(taskID, func(entry *Entry) {
		entry.State.CancelRequested = true
	})
}

func (r *Registry) setPhase(taskID string, phase Phase) error {
	return r.update(taskID, func(entry *Entry) {
		entry.State.Phase = phase
	})
}

// applyResult 在运行记录落库之后刷新运行时状态，
// last_run_at 与下一次到期时间都从本次完成时间推算
func (r *Registry) applyResult(taskID string, endTS time.Time, status run.Status) error {
	return r.update(taskID, func(entry *Entry) {
		entry.State.RunCount++
		ts := endTS
		entry.State.LastRunAt = &ts
		entry.State.NextRunAt = entry.Task.NextRun(endTS)
		entry.State.CancelRequested = false

		switch {
		case !entry.Task.Enabled():
			entry.State.Phase = PhaseDisabled
		case entry.Task.MaxRunCount > 0 && entry.State.RunCount >= entry.Task.MaxRunCount:
			entry.State.Phase = PhaseExhausted
		case status == run.StatusSucceeded:
			entry.State.Phase = PhaseSucceeded
		case status == run.StatusCancelled:
			entry.State.Phase = PhaseCancelled
		default:
			entry.State.Phase = PhaseFailed
		}
	})
}
