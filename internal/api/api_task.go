package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/scheduler"
)

// TaskAPI 任务管理接口
type TaskAPI struct {
	scheduler *scheduler.Scheduler
}

func NewTaskAPI(sched *scheduler.Scheduler) *TaskAPI {
	return &TaskAPI{scheduler: sched}
}

func (a *TaskAPI) Bind(g *gin.RouterGroup) {
	tasks := g.Group("/tasks")
	{
		tasks.GET("", a.List)
		tasks.POST("", a.Create)
		tasks.GET("/:id", a.Get)
		tasks.DELETE("/:id", a.Delete)
		tasks.POST("/:id/enable", a.Enable)
		tasks.POST("/:id/disable", a.Disable)
		tasks.POST("/:id/trigger", a.Trigger)
		tasks.POST("/:id/cancel", a.Cancel)
	}
}

type taskView struct {
	TaskID         string         `json:"task_id"`
	Name           string         `json:"name"`
	Kind           task.Kind      `json:"kind"`
	Interval       string         `json:"interval,omitempty"`
	CronExpression string         `json:"cron_expression,omitempty"`
	MaxRunCount    int            `json:"max_run_count"`
	Status         task.Status    `json:"status"`
	Parameters     map[string]any `json:"parameters,omitempty"`

	Phase     scheduler.Phase `json:"phase"`
	RunCount  int             `json:"run_count"`
	LastRunAt *time.Time      `json:"last_run_at,omitempty"`
	NextRunAt time.Time       `json:"next_run_at"`
}

func newTaskView(entry *scheduler.Entry) taskView {
	v := taskView{
		TaskID:         entry.Task.TaskID,
		Name:           entry.Task.Name,
		Kind:           entry.Task.Kind,
		CronExpression: entry.Task.CronExpression,
		MaxRunCount:    entry.Task.MaxRunCount,
		Status:         entry.Task.Status,
		Parameters:     entry.Task.Parameters,
		Phase:          entry.State.Phase,
		RunCount:       entry.State.RunCount,
		LastRunAt:      entry.State.LastRunAt,
		NextRunAt:      entry.State.NextRunAt,
	}
	if entry.Task.Interval > 0 {
		v.Interval = entry.Task.Interval.String()
	}
	return v
}

func (a *TaskAPI) List(c *gin.Context) {
	entries := a.scheduler.Registry().List()
	views := make([]taskView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, newTaskView(entry))
	}
	c.JSON(http.StatusOK, views)
}

func (a *TaskAPI) Get(c *gin.Context) {
	entry, err := a.scheduler.Registry().Get(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskView(entry))
}

type createTaskReq struct {
	TaskID         string         `json:"task_id" binding:"required"`
	Name           string         `json:"name"`
	Kind           task.Kind      `json:"kind" binding:"required"`
	Interval       string         `json:"interval"`
	CronExpression string         `json:"cron_expression"`
	MaxRunCount    int            `json:"max_run_count"`
	Parameters     map[string]any `json:"parameters"`
}

func (a *TaskAPI) Create(c *gin.Context) {
	var req createTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var interval time.Duration
	if req.Interval != "" {
		parsed, err := time.ParseDuration(req.Interval)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid interval: " + err.Error()})
			return
		}
		interval = parsed
	}

	t := &task.Task{
		TaskID:         req.TaskID,
		Name:           req.Name,
		Kind:           req.Kind,
		Interval:       interval,
		CronExpression: req.CronExpression,
		MaxRunCount:    req.MaxRunCount,
		Parameters:     req.Parameters,
	}
	if err := a.scheduler.Register(c.Request.Context(), t); err != nil {
		respondErr(c, err)
		return
	}

	entry, err := a.scheduler.Registry().Get(t.TaskID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTaskView(entry))
}

func (a *TaskAPI) Delete(c *gin.Context) {
	if err := a.scheduler.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (a *TaskAPI) Enable(c *gin.Context) {
	if err := a.scheduler.Enable(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "enabled"})
}

func (a *TaskAPI) Disable(c *gin.Context) {
	if err := a.scheduler.Disable(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "disabled"})
}

func (a *TaskAPI) Trigger(c *gin.Context) {
	if err := a.scheduler.TriggerNow(c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "triggered"})
}

func (a *TaskAPI) Cancel(c *gin.Context) {
	if err := a.scheduler.CancelRun(c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancel requested"})
}
