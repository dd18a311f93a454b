package taskrepo

import (
	"time"

	domain "github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type TaskPo struct {
	commonrepo.Mode
	TaskID         string            `gorm:"column:task_id;uniqueIndex;size:255;not null"` // 业务标识唯一
	Name           string            `gorm:"column:name;size:255;not null"`
	Kind           domain.Kind       `gorm:"column:kind;size:50;not null;index"`
	IntervalMs     int64             `gorm:"column:interval_ms;not null;default:0"` // 运行间隔，毫秒
	CronExpression string            `gorm:"column:cron_expression;size:100"`
	MaxRunCount    int               `gorm:"column:max_run_count;not null;default:0"` // 0不限次数
	Status         domain.Status     `gorm:"column:status;size:50;not null;index"`
	Parameters     datatypes.JSONMap `gorm:"column:parameters;type:json"`
}

func (t *TaskPo) TableName() string {
	return "tracker_task"
}

func (t *TaskPo) interval() time.Duration {
	return time.Duration(t.IntervalMs) * time.Millisecond
}
