package runrepo

import (
	"time"

	domain "github.com/sora/fundtracker/internal/biz/run"
)

type RunPo struct {
	ID        uint64        `gorm:"primarykey"`
	CreatedAt time.Time     `gorm:"index;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"index;autoUpdateTime"`
	RunID     string        `gorm:"column:run_id;uniqueIndex;size:64;not null"`
	TaskID    string        `gorm:"column:task_id;size:255;not null;index:idx_run_task_status;index:idx_run_task_start"`
	StartTS   time.Time     `gorm:"column:start_ts;not null;index:idx_run_task_start"`
	EndTS     *time.Time    `gorm:"column:end_ts"`
	Status    domain.Status `gorm:"column:status;size:50;not null;index:idx_run_task_status"`
	Message   string        `gorm:"column:message;size:1024"`
}

func (r *RunPo) TableName() string {
	return "tracker_run"
}
