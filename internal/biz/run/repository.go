package run

import (
	"context"
	"time"

	"github.com/samber/mo"
)

type Repo interface {
	// Start 在单个事务内检查无进行中运行后插入新记录，
	// 若该任务已有 running 状态的记录则返回 ErrConflict
	Start(ctx context.Context, r *Run) error

	// Finish 将运行记录置为终态，终态记录不可再次更新
	Finish(ctx context.Context, id string, status Status, message string, endTS time.Time) error

	GetByID(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, filter *Filter) ([]*Run, error)
	CountByTask(ctx context.Context, taskID string, status mo.Option[Status]) (int64, error)

	// LastByTask 返回某任务按 start_ts 排序的最近一条运行记录
	LastByTask(ctx context.Context, taskID string) (*Run, error)

	// FailOrphans 将所有 running 状态的记录标记为 failed，
	// 用于进程重启后的孤儿运行恢复，返回受影响行数
	FailOrphans(ctx context.Context, message string) (int64, error)
}

type Filter struct {
	TaskID mo.Option[string]
	Status mo.Option[Status]
	Limit  mo.Option[int]
}
