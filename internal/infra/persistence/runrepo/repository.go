package runrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/wire"
	"github.com/samber/lo"
	"github.com/samber/mo"
	domain "github.com/sora/fundtracker/internal/biz/run"
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

func (r *SqliteRepositoryImpl) Start(ctx context.Context, run *domain.Run) error {
	// 检查和插入在同一事务内完成，保证单飞行运行约束
	return r.Execute(ctx, func(ctx context.Context) error {
		var count int64
		err := r.Db(ctx).Model(&RunPo{}).
			Where("task_id = ? AND status = ?", run.TaskID, domain.StatusRunning).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", domain.ErrConflict, run.TaskID)
		}
		return r.Db(ctx).Create(new(RunPo).FromDomain(run)).Error
	})
}

func (r *SqliteRepositoryImpl) Finish(ctx context.Context, id string, status domain.Status, message string, endTS time.Time) error {
	if !status.Terminal() {
		return fmt.Errorf("finish requires a terminal status, got %s", status)
	}
	return r.Execute(ctx, func(ctx context.Context) error {
		var po RunPo
		if err := r.Db(ctx).Where("run_id = ?", id).First(&po).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
			}
			return err
		}
		if po.Status.Terminal() {
			return fmt.Errorf("%w: %s", domain.ErrFinished, id)
		}
		return r.Db(ctx).Model(&RunPo{}).Where("run_id = ?", id).Updates(map[string]any{
			"status":  status,
			"message": message,
			"end_ts":  endTS,
		}).Error
	})
}

func (r *SqliteRepositoryImpl) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	var po RunPo
	if err := r.Db(ctx).Where("run_id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *SqliteRepositoryImpl) List(ctx context.Context, filter *domain.Filter) ([]*domain.Run, error) {
	var pos []RunPo
	query := r.Db(ctx).Model(&RunPo{})
	if filter.TaskID.IsPresent() {
		query = query.Where("task_id = ?", filter.TaskID.MustGet())
	}
	if filter.Status.IsPresent() {
		query = query.Where("status = ?", filter.Status.MustGet())
	}
	query = query.Order("start_ts DESC")
	if filter.Limit.IsPresent() {
		query = query.Limit(filter.Limit.MustGet())
	}
	if err := query.Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po RunPo, _ int) *domain.Run {
		return po.ToDomain()
	}), nil
}

func (r *SqliteRepositoryImpl) CountByTask(ctx context.Context, taskID string, status mo.Option[domain.Status]) (int64, error) {
	var count int64
	query := r.Db(ctx).Model(&RunPo{}).Where("task_id = ?", taskID)
	if status.IsPresent() {
		query = query.Where("status = ?", status.MustGet())
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SqliteRepositoryImpl) LastByTask(ctx context.Context, taskID string) (*domain.Run, error) {
	var po RunPo
	err := r.Db(ctx).Where("task_id = ?", taskID).Order("start_ts DESC").First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *SqliteRepositoryImpl) FailOrphans(ctx context.Context, message string) (int64, error) {
	now := time.Now()
	result := r.Db(ctx).Model(&RunPo{}).
		Where("status = ?", domain.StatusRunning).
		Updates(map[string]any{
			"status":  domain.StatusFailed,
			"message": message,
			"end_ts":  now,
		})
	if result.Error != nil {
		return 0, commonrepo.TranslateBusy(result.Error)
	}
	return result.RowsAffected, nil
}
