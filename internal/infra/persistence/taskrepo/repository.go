package taskrepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	"github.com/samber/lo"
	domain "github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
	"gorm.io/gorm"
)

var Provider = wire.NewSet(NewSqliteRepositoryImpl)

type SqliteRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewSqliteRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &SqliteRepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

func (r *SqliteRepositoryImpl) Create(ctx context.Context, task *domain.Task) error {
	po := new(TaskPo).FromDomain(task)
	err := r.Db(ctx).Create(po).Error
	if err != nil {
		return commonrepo.TranslateBusy(err)
	}
	task.ID = po.ID
	task.CreatedAt = po.CreatedAt
	task.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *SqliteRepositoryImpl) GetByTaskID(ctx context.Context, taskID string) (*domain.Task, error) {
	var po TaskPo
	if err := r.Db(ctx).Where("task_id = ?", taskID).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *SqliteRepositoryImpl) Delete(ctx context.Context, taskID string) error {
	return commonrepo.TranslateBusy(
		r.Db(ctx).Where("task_id = ?", taskID).Delete(&TaskPo{}).Error)
}

func (r *SqliteRepositoryImpl) Update(ctx context.Context, taskID string, patch *domain.Patch) error {
	values := patchToMap(patch)
	if len(values) == 0 {
		return nil
	}
	return commonrepo.TranslateBusy(
		r.Db(ctx).Model(&TaskPo{}).Where("task_id = ?", taskID).Updates(values).Error)
}

func (r *SqliteRepositoryImpl) List(ctx context.Context, filter *domain.Filter) ([]*domain.Task, error) {
	var pos []TaskPo
	query := r.Db(ctx).Model(&TaskPo{})
	if filter.Status.IsPresent() {
		query = query.Where("status = ?", filter.Status.MustGet())
	}
	if filter.Kind.IsPresent() {
		query = query.Where("kind = ?", filter.Kind.MustGet())
	}
	if err := query.Order("task_id").Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po TaskPo, _ int) *domain.Task {
		return po.ToDomain()
	}), nil
}
