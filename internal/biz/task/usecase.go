package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewUsecase)

type Usecase struct {
	repo   Repo
	logger *zap.Logger
}

func NewUsecase(repo Repo, logger *zap.Logger) *Usecase {
	return &Usecase{repo: repo, logger: logger}
}

func (u *Usecase) Create(ctx context.Context, t *Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	existing, err := u.repo.GetByTaskID(ctx, t.TaskID)
	if err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("%w: %s", ErrDuplicate, t.TaskID)
	}
	if t.Status == "" {
		t.Status = StatusEnabled
	}
	return u.repo.Create(ctx, t)
}

func (u *Usecase) Get(ctx context.Context, taskID string) (*Task, error) {
	t, err := u.repo.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	} else if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}
	return t, nil
}

func (u *Usecase) List(ctx context.Context, filter *Filter) ([]*Task, error) {
	if filter == nil {
		filter = &Filter{}
	}
	return u.repo.List(ctx, filter)
}

type UpdateRequest struct {
	Name           mo.Option[string]
	Interval       mo.Option[time.Duration]
	CronExpression mo.Option[string]
	MaxRunCount    mo.Option[int]
	Parameters     mo.Option[map[string]any]
}

func (u *Usecase) Update(ctx context.Context, taskID string, req *UpdateRequest) error {
	t, err := u.Get(ctx, taskID)
	if err != nil {
		return err
	}

	patch := NewPatch()
	patch.Name = req.Name.ToPointer()
	patch.Interval = req.Interval.ToPointer()
	patch.CronExpression = req.CronExpression.ToPointer()
	patch.MaxRunCount = req.MaxRunCount.ToPointer()
	patch.Parameters = req.Parameters.ToPointer()

	return u.repo.Update(ctx, t.TaskID, patch)
}

func (u *Usecase) Delete(ctx context.Context, taskID string) error {
	t, err := u.Get(ctx, taskID)
	if err != nil {
		return err
	}
	return u.repo.Delete(ctx, t.TaskID)
}

func (u *Usecase) Enable(ctx context.Context, taskID string) error {
	t, err := u.Get(ctx, taskID)
	if err != nil {
		return err
	}
	patch, err := t.Enable()
	if err != nil {
		return err
	}
	return u.repo.Update(ctx, taskID, patch)
}

func (u *Usecase) Disable(ctx context.Context, taskID string) error {
	t, err := u.Get(ctx, taskID)
	if err != nil {
		return err
	}
	patch, err := t.Disable()
	if err != nil {
		return err
	}
	return u.repo.Update(ctx, taskID, patch)
}

// Seed 注册配置中的默认任务，已存在的跳过
func (u *Usecase) Seed(ctx context.Context, seeds []*Task) error {
	for _, seed := range seeds {
		existing, err := u.repo.GetByTaskID(ctx, seed.TaskID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := u.Create(ctx, seed); err != nil {
			return fmt.Errorf("failed to seed task %s: %w", seed.TaskID, err)
		}
		u.logger.Info("seeded default task",
			zap.String("task_id", seed.TaskID),
			zap.String("kind", string(seed.Kind)))
	}
	return nil
}
