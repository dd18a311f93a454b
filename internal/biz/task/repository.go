package task

import (
	"context"

	"github.com/samber/mo"
)

type Repo interface {
	Create(ctx context.Context, task *Task) error
	GetByTaskID(ctx context.Context, taskID string) (*Task, error)
	Delete(ctx context.Context, taskID string) error
	Update(ctx context.Context, taskID string, patch *Patch) error
	List(ctx context.Context, filter *Filter) ([]*Task, error)
}

type Filter struct {
	Status mo.Option[Status]
	Kind   mo.Option[Kind]
}
