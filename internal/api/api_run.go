package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/mo"

	"github.com/sora/fundtracker/internal/biz/run"
)

// RunAPI 运行历史查询接口
type RunAPI struct {
	runRepo run.Repo
}

func NewRunAPI(runRepo run.Repo) *RunAPI {
	return &RunAPI{runRepo: runRepo}
}

func (a *RunAPI) Bind(g *gin.RouterGroup) {
	runs := g.Group("/runs")
	{
		runs.GET("", a.List)
		runs.GET("/:id", a.Get)
	}
}

func (a *RunAPI) List(c *gin.Context) {
	filter := &run.Filter{}
	if taskID := c.Query("task_id"); taskID != "" {
		filter.TaskID = mo.Some(taskID)
	}
	if status := c.Query("status"); status != "" {
		filter.Status = mo.Some(run.Status(status))
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	filter.Limit = mo.Some(limit)

	runs, err := a.runRepo.List(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (a *RunAPI) Get(c *gin.Context) {
	r, err := a.runRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}
