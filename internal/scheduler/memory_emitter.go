package scheduler

import (
	"sync"
)

const recentEventCap = 256

var _ IEmitter = (*MemoryEmitter)(nil)

// MemoryEmitter 进程内事件发布器，保留最近的事件供状态接口查询
type MemoryEmitter struct {
	mu     sync.RWMutex
	recent []Event
}

func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

func (e *MemoryEmitter) Emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recent = append(e.recent, ev)
	if len(e.recent) > recentEventCap {
		e.recent = e.recent[len(e.recent)-recentEventCap:]
	}
}

// Recent 返回最近的事件，新的在前
func (e *MemoryEmitter) Recent(limit int) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := len(e.recent)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, e.recent[i])
	}
	return out
}
