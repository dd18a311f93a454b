package runrepo

import (
	domain "github.com/sora/fundtracker/internal/biz/run"
)

func (r *RunPo) FromDomain(in *domain.Run) *RunPo {
	return &RunPo{
		RunID:   in.ID,
		TaskID:  in.TaskID,
		StartTS: in.StartTS,
		EndTS:   in.EndTS,
		Status:  in.Status,
		Message: in.Message,
	}
}

func (r *RunPo) ToDomain() *domain.Run {
	return &domain.Run{
		ID:      r.RunID,
		TaskID:  r.TaskID,
		StartTS: r.StartTS,
		EndTS:   r.EndTS,
		Status:  r.Status,
		Message: r.Message,
	}
}
