package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrDuplicate = errors.New("task already exists")
	ErrNotFound  = errors.New("task not found")
)

type Task struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	TaskID         string // 业务标识，全局唯一，如 fetch_daily
	Name           string
	Kind           Kind
	Interval       time.Duration
	CronExpression string // 非空时优先于 Interval
	MaxRunCount    int    // 0 表示不限次数
	Status         Status
	Parameters     map[string]any
}

func (t *Task) Validate() error {
	if t.TaskID == "" {
		return errors.New("task_id is required")
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("invalid task kind: %s", t.Kind)
	}
	if t.CronExpression == "" && t.Interval <= 0 {
		return errors.New("either interval or cron_expression is required")
	}
	if t.CronExpression != "" {
		if _, err := cron.ParseStandard(t.CronExpression); err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
	}
	if t.MaxRunCount < 0 {
		return errors.New("max_run_count must not be negative")
	}
	return nil
}

// NextRun 计算上次运行之后的下一次运行时间
func (t *Task) NextRun(last time.Time) time.Time {
	if t.CronExpression != "" {
		if schedule, err := cron.ParseStandard(t.CronExpression); err == nil {
			return schedule.Next(last)
		}
	}
	return last.Add(t.Interval)
}

func (t *Task) Enabled() bool {
	return t.Status == StatusEnabled
}

func (t *Task) Enable() (*Patch, error) {
	if t.Status == StatusEnabled {
		return nil, errors.New("task is already enabled")
	}
	t.Status = StatusEnabled
	return new(Patch).WithStatus(t.Status), nil
}

func (t *Task) Disable() (*Patch, error) {
	if t.Status == StatusDisabled {
		return nil, errors.New("task is already disabled")
	}
	t.Status = StatusDisabled
	return new(Patch).WithStatus(t.Status), nil
}

type Patch struct {
	Name           *string
	Interval       *time.Duration
	CronExpression *string
	MaxRunCount    *int
	Status         *Status
	Parameters     *map[string]any
}

func NewPatch() *Patch {
	return &Patch{}
}

func (p *Patch) WithName(name string) *Patch {
	p.Name = &name
	return p
}

func (p *Patch) WithInterval(interval time.Duration) *Patch {
	p.Interval = &interval
	return p
}

func (p *Patch) WithCronExpression(cronExpression string) *Patch {
	p.CronExpression = &cronExpression
	return p
}

func (p *Patch) WithMaxRunCount(maxRunCount int) *Patch {
	p.MaxRunCount = &maxRunCount
	return p
}

func (p *Patch) WithStatus(status Status) *Patch {
	p.Status = &status
	return p
}

func (p *Patch) WithParameters(parameters map[string]any) *Patch {
	p.Parameters = &parameters
	return p
}
