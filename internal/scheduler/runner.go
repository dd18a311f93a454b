package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/sora/fundtracker/internal/biz/run"
	"github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
)

// Job 传递给处理器的执行上下文
type Job struct {
	Task  *task.Task
	RunID string
}

// Parameters 返回任务参数，保证非 nil
func (j *Job) Parameters() map[string]any {
	if j.Task.Parameters == nil {
		return map[string]any{}
	}
	return j.Task.Parameters
}

type Handler interface {
	Run(ctx context.Context, job *Job) error
}

type HandlerFunc func(ctx context.Context, job *Job) error

func (f HandlerFunc) Run(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// Runner 任务执行器，按任务种类分发到处理器，
// custom 种类再按 parameters.handler 指定的名字分发
type Runner struct {
	logger *zap.Logger
	tx     commonrepo.Transaction

	mu       sync.RWMutex
	handlers map[task.Kind]Handler
	custom   map[string]Handler
}

func NewRunner(tx commonrepo.Transaction, logger *zap.Logger) *Runner {
	return &Runner{
		logger:   logger,
		tx:       tx,
		handlers: make(map[task.Kind]Handler),
		custom:   make(map[string]Handler),
	}
}

func (r *Runner) Register(kind task.Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

func (r *Runner) RegisterCustom(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[name] = h
}

func (r *Runner) lookup(t *task.Task) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t.Kind == task.KindCustom {
		name := cast.ToString(t.Parameters["handler"])
		h, ok := r.custom[name]
		if !ok {
			return nil, fmt.Errorf("%w: custom/%s", ErrNoHandler, name)
		}
		return h, nil
	}
	h, ok := r.handlers[t.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, t.Kind)
	}
	return h, nil
}

// Execute 运行一次任务并把任何结果转换为终态，不向上抛错
func (r *Runner) Execute(ctx context.Context, t *task.Task, runID string) (status run.Status, message string) {
	defer func() {
		if p := recover(); p != nil {
			status = run.StatusFailed
			message = fmt.Sprintf("panic: %v", p)
			r.logger.Error("handler panic recovered",
				zap.String("task_id", t.TaskID),
				zap.String("run_id", runID),
				zap.Any("panic", p))
		}
	}()

	h, err := r.lookup(t)
	if err != nil {
		return run.StatusFailed, err.Error()
	}

	err = r.tx.Execute(ctx, func(ctx context.Context) error {
		return h.Run(ctx, &Job{Task: t, RunID: runID})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return run.StatusCancelled, "cancelled"
		}
		return run.StatusFailed, err.Error()
	}
	return run.StatusSucceeded, ""
}
