package taskrepo

import (
	domain "github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
)

func (t *TaskPo) FromDomain(in *domain.Task) *TaskPo {
	return &TaskPo{
		Mode: commonrepo.Mode{
			ID:        in.ID,
			CreatedAt: in.CreatedAt,
			UpdatedAt: in.UpdatedAt,
		},
		TaskID:         in.TaskID,
		Name:           in.Name,
		Kind:           in.Kind,
		IntervalMs:     in.Interval.Milliseconds(),
		CronExpression: in.CronExpression,
		MaxRunCount:    in.MaxRunCount,
		Status:         in.Status,
		Parameters:     in.Parameters,
	}
}

func (t *TaskPo) ToDomain() *domain.Task {
	return &domain.Task{
		ID:             t.ID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		TaskID:         t.TaskID,
		Name:           t.Name,
		Kind:           t.Kind,
		Interval:       t.interval(),
		CronExpression: t.CronExpression,
		MaxRunCount:    t.MaxRunCount,
		Status:         t.Status,
		Parameters:     t.Parameters,
	}
}

func patchToMap(input *domain.Patch) map[string]any {
	var values = make(map[string]any)

	if input.Name != nil {
		values["name"] = *input.Name
	}

	if input.Interval != nil {
		values["interval_ms"] = input.Interval.Milliseconds()
	}

	if input.CronExpression != nil {
		values["cron_expression"] = *input.CronExpression
	}

	if input.MaxRunCount != nil {
		values["max_run_count"] = *input.MaxRunCount
	}

	if input.Status != nil {
		values["status"] = *input.Status
	}

	if input.Parameters != nil {
		values["parameters"] = *input.Parameters
	}

	return values
}
