package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/sora/fundtracker/internal/biz/run"
	"github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
	"github.com/sora/fundtracker/pkg/config"
)

const orphanMessage = "orphaned: process restarted"

// Scheduler 固定节拍的调度循环，每拍最多派发一个到期任务
type Scheduler struct {
	config   config.SchedulerConfig
	logger   *zap.Logger
	registry *Registry
	runner   *Runner
	emitter  IEmitter

	taskRepo task.Repo
	runRepo  run.Repo

	now func() time.Time

	stopCh   chan struct{}
	resultCh chan *runResult
	wg       sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]*inflightRun
	running  bool
}

type inflightRun struct {
	runID  string
	cancel context.CancelFunc
}

type runResult struct {
	taskID  string
	runID   string
	status  run.Status
	message string
}

func New(
	cfg config.Config,
	logger *zap.Logger,
	registry *Registry,
	runner *Runner,
	emitter IEmitter,
	taskRepo task.Repo,
	runRepo run.Repo,
) *Scheduler {
	return &Scheduler{
		config:   cfg.Scheduler,
		logger:   logger,
		registry: registry,
		runner:   runner,
		emitter:  emitter,
		taskRepo: taskRepo,
		runRepo:  runRepo,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		resultCh: make(chan *runResult),
		inflight: make(map[string]*inflightRun),
	}
}

// Start 启动调度循环：先恢复孤儿运行并重建注册表，再进入节拍循环
func (s *Scheduler) Start() error {
	ctx := context.Background()

	orphans, err := s.runRepo.FailOrphans(ctx, orphanMessage)
	if err != nil {
		return fmt.Errorf("failed to recover orphaned runs: %w", err)
	}
	if orphans > 0 {
		s.logger.Warn("recovered orphaned runs", zap.Int64("count", orphans))
	}

	if err := s.Rebuild(ctx); err != nil {
		return fmt.Errorf("failed to rebuild registry: %w", err)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()

	s.logger.Info("scheduler started",
		zap.Duration("tick_interval", s.config.TickInterval),
		zap.Int("tasks", len(s.registry.List())))
	return nil
}

// Stop 停止节拍，取消在飞运行并等待其终态落库
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	for _, inf := range s.inflight {
		inf.cancel()
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	s.logger.Info("scheduler stopped")
	return nil
}

// Rebuild 从存储重建注册表：运行次数与最近运行来自历史，
// 从未运行过的任务立即到期
func (s *Scheduler) Rebuild(ctx context.Context) error {
	tasks, err := s.taskRepo.List(ctx, &task.Filter{})
	if err != nil {
		return err
	}

	now := s.now()
	entries := make([]*Entry, 0, len(tasks))
	for _, t := range tasks {
		count, err := s.runRepo.CountByTask(ctx, t.TaskID, mo.None[run.Status]())
		if err != nil {
			return err
		}
		last, err := s.runRepo.LastByTask(ctx, t.TaskID)
		if err != nil {
			return err
		}

		state := RuntimeState{RunCount: int(count), Phase: PhaseIdle, NextRunAt: now}
		if last != nil {
			// 最近一次运行的完成时间决定下一次到期时间
			ts := last.StartTS
			if last.EndTS != nil {
				ts = *last.EndTS
			}
			state.LastRunAt = &ts
			state.NextRunAt = t.NextRun(ts)
		}
		switch {
		case !t.Enabled():
			state.Phase = PhaseDisabled
		case t.MaxRunCount > 0 && state.RunCount >= t.MaxRunCount:
			state.Phase = PhaseExhausted
		case last != nil && last.Status == run.StatusCancelled:
			state.Phase = PhaseCancelled
		}
		entries = append(entries, &Entry{Task: t, State: state})
	}

	s.registry.Reset(entries)
	return nil
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick()
		case res := <-s.resultCh:
			s.finalize(res)
		case <-s.stopCh:
			s.drain()
			return
		}
	}
}

// drain 等待所有在飞运行上报结果并落库
func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		remaining := len(s.inflight)
		s.mu.Unlock()
		if remaining == 0 {
			return
		}
		s.finalize(<-s.resultCh)
	}
}

// Tick 执行一次调度决策，最多派发一个任务
func (s *Scheduler) Tick() {
	now := s.now()
	due := s.registry.Due(now)
	if len(due) == 0 {
		return
	}
	s.dispatch(due[0], now)
}

func (s *Scheduler) dispatch(entry *Entry, now time.Time) {
	ctx := context.Background()
	t := entry.Task

	r := run.New(t.TaskID, now)
	if err := s.runRepo.Start(ctx, r); err != nil {
		switch {
		case errors.Is(err, run.ErrConflict):
			s.logger.Warn("run conflict, skipping dispatch",
				zap.String("task_id", t.TaskID))
		case errors.Is(err, commonrepo.ErrBusy):
			s.logger.Warn("store busy, skipping tick",
				zap.String("task_id", t.TaskID))
		default:
			s.logger.Error("failed to start run",
				zap.String("task_id", t.TaskID),
				zap.Error(err))
		}
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.inflight[t.TaskID] = &inflightRun{runID: r.ID, cancel: cancel}
	s.mu.Unlock()

	if err := s.registry.markRunning(t.TaskID); err != nil {
		s.logger.Error("failed to mark task running", zap.Error(err))
	}

	s.emitter.Emit(Event{
		Type:      EventRunStarted,
		TaskID:    t.TaskID,
		RunID:     r.ID,
		Timestamp: now,
	})
	s.logger.Info("dispatched run",
		zap.String("task_id", t.TaskID),
		zap.String("run_id", r.ID))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		status, message := s.runner.Execute(runCtx, t, r.ID)
		s.resultCh <- &runResult{
			taskID:  t.TaskID,
			runID:   r.ID,
			status:  status,
			message: message,
		}
	}()
}

// finalize 先把终态写入存储，提交后才更新注册表状态；
// 落库失败时任务保持在飞，延后重试
func (s *Scheduler) finalize(res *runResult) {
	ctx := context.Background()
	endTS := s.now()

	if err := s.runRepo.Finish(ctx, res.runID, res.status, res.message, endTS); err != nil {
		if !errors.Is(err, run.ErrFinished) && !errors.Is(err, run.ErrNotFound) {
			s.logger.Error("failed to finish run, retrying later",
				zap.String("run_id", res.runID),
				zap.Error(err))
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				time.Sleep(s.config.TickInterval)
				s.resultCh <- res
			}()
			return
		}
		s.logger.Error("failed to finish run",
			zap.String("run_id", res.runID),
			zap.Error(err))
	}

	s.mu.Lock()
	delete(s.inflight, res.taskID)
	s.mu.Unlock()

	if err := s.registry.applyResult(res.taskID, endTS, res.status); err != nil {
		// 任务可能在运行期间被移除
		s.logger.Warn("failed to apply run result",
			zap.String("task_id", res.taskID),
			zap.Error(err))
		return
	}

	s.emitter.Emit(Event{
		Type:      EventRunFinished,
		TaskID:    res.taskID,
		RunID:     res.runID,
		Status:    res.status,
		Message:   res.message,
		Timestamp: endTS,
	})
	s.logger.Info("run finished",
		zap.String("task_id", res.taskID),
		zap.String("run_id", res.runID),
		zap.String("status", string(res.status)))

	if entry, err := s.registry.Get(res.taskID); err == nil && entry.State.Phase == PhaseExhausted {
		s.emitter.Emit(Event{
			Type:      EventTaskExhausted,
			TaskID:    res.taskID,
			Timestamp: endTS,
		})
		s.logger.Info("task exhausted",
			zap.String("task_id", res.taskID),
			zap.Int("run_count", entry.State.RunCount))
	}
}

// Register 持久化任务定义并加入注册表，从未运行过的任务立即到期
func (s *Scheduler) Register(ctx context.Context, t *task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Status == "" {
		t.Status = task.StatusEnabled
	}
	existing, err := s.taskRepo.GetByTaskID(ctx, t.TaskID)
	if err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("%w: %s", task.ErrDuplicate, t.TaskID)
	}
	if err := s.taskRepo.Create(ctx, t); err != nil {
		return err
	}

	state := RuntimeState{Phase: PhaseIdle, NextRunAt: s.now()}
	if !t.Enabled() {
		state.Phase = PhaseDisabled
	}
	return s.registry.Add(t, state)
}

// Remove 删除任务，有在飞运行时拒绝
func (s *Scheduler) Remove(ctx context.Context, taskID string) error {
	s.mu.Lock()
	_, busy := s.inflight[taskID]
	s.mu.Unlock()
	if busy {
		return fmt.Errorf("%w: %s", ErrTaskRunning, taskID)
	}
	if err := s.registry.Remove(taskID); err != nil {
		return err
	}
	return s.taskRepo.Delete(ctx, taskID)
}

// Enable 恢复调度，到期时间从最近一次运行推算
func (s *Scheduler) Enable(ctx context.Context, taskID string) error {
	entry, err := s.registry.Get(taskID)
	if err != nil {
		return err
	}
	patch, err := entry.Task.Enable()
	if err != nil {
		return err
	}
	if err := s.taskRepo.Update(ctx, taskID, patch); err != nil {
		return err
	}
	return s.registry.update(taskID, func(e *Entry) {
		e.Task.Status = task.StatusEnabled
		if e.Task.MaxRunCount > 0 && e.State.RunCount >= e.Task.MaxRunCount {
			e.State.Phase = PhaseExhausted
			return
		}
		e.State.Phase = PhaseIdle
		if e.State.LastRunAt != nil {
			e.State.NextRunAt = e.Task.NextRun(*e.State.LastRunAt)
		} else {
			e.State.NextRunAt = s.now()
		}
	})
}

// Disable 停止后续调度，在飞运行继续完成
func (s *Scheduler) Disable(ctx context.Context, taskID string) error {
	entry, err := s.registry.Get(taskID)
	if err != nil {
		return err
	}
	patch, err := entry.Task.Disable()
	if err != nil {
		return err
	}
	if err := s.taskRepo.Update(ctx, taskID, patch); err != nil {
		return err
	}
	return s.registry.update(taskID, func(e *Entry) {
		e.Task.Status = task.StatusDisabled
		if e.State.Phase != PhaseRunning {
			e.State.Phase = PhaseDisabled
		}
	})
}

// CancelRun 取消任务：在飞运行通过 context 协作退出，
// 空闲任务直接摘出后续调度
func (s *Scheduler) CancelRun(taskID string) error {
	s.mu.Lock()
	inf, ok := s.inflight[taskID]
	s.mu.Unlock()
	if !ok {
		return s.cancelIdle(taskID)
	}
	if err := s.registry.markCancelRequested(taskID); err != nil {
		return err
	}
	inf.cancel()
	s.logger.Info("cancel requested",
		zap.String("task_id", taskID),
		zap.String("run_id", inf.runID))
	return nil
}

func (s *Scheduler) cancelIdle(taskID string) error {
	entry, err := s.registry.Get(taskID)
	if err != nil {
		return err
	}
	switch entry.State.Phase {
	case PhaseDisabled, PhaseExhausted:
		return fmt.Errorf("%w: %s", ErrNoInflightRun, taskID)
	}
	if err := s.registry.setPhase(taskID, PhaseCancelled); err != nil {
		return err
	}
	s.logger.Info("idle task cancelled",
		zap.String("task_id", taskID))
	return nil
}

// TriggerNow 将任务的到期时间提前到现在，下一拍生效；
// 已取消的空闲任务由此重新进入调度
func (s *Scheduler) TriggerNow(taskID string) error {
	return s.registry.update(taskID, func(e *Entry) {
		e.State.NextRunAt = s.now()
		if e.State.Phase == PhaseCancelled {
			e.State.Phase = PhaseIdle
		}
	})
}

func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// StatusSummary 调度器状态摘要
type StatusSummary struct {
	Running    bool           `json:"running"`
	TaskCount  int            `json:"task_count"`
	Inflight   int            `json:"inflight"`
	PhaseCount map[Phase]int  `json:"phase_count"`
	NextTaskID string         `json:"next_task_id,omitempty"`
	NextRunAt  *time.Time     `json:"next_run_at,omitempty"`
}

func (s *Scheduler) Status() StatusSummary {
	s.mu.Lock()
	running := s.running
	inflight := len(s.inflight)
	s.mu.Unlock()

	entries := s.registry.List()
	summary := StatusSummary{
		Running:    running,
		TaskCount:  len(entries),
		Inflight:   inflight,
		PhaseCount: make(map[Phase]int),
	}

	var nextID string
	var nextAt time.Time
	for _, entry := range entries {
		summary.PhaseCount[entry.State.Phase]++
		switch entry.State.Phase {
		case PhaseRunning, PhaseExhausted, PhaseDisabled, PhaseCancelled:
			continue
		}
		if nextID == "" || entry.State.NextRunAt.Before(nextAt) {
			nextID = entry.Task.TaskID
			nextAt = entry.State.NextRunAt
		}
	}
	if nextID != "" {
		summary.NextTaskID = nextID
		summary.NextRunAt = &nextAt
	}
	return summary
}
