package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sora/fundtracker/internal/scheduler"
)

// StatusAPI 调度器状态与事件查询接口
type StatusAPI struct {
	scheduler *scheduler.Scheduler
	emitter   *scheduler.MemoryEmitter
}

func NewStatusAPI(sched *scheduler.Scheduler, emitter *scheduler.MemoryEmitter) *StatusAPI {
	return &StatusAPI{scheduler: sched, emitter: emitter}
}

func (a *StatusAPI) Bind(g *gin.RouterGroup) {
	g.GET("/status", a.Status)
	g.GET("/events", a.Events)
}

func (a *StatusAPI) Status(c *gin.Context) {
	c.JSON(http.StatusOK, a.scheduler.Status())
}

func (a *StatusAPI) Events(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	c.JSON(http.StatusOK, a.emitter.Recent(limit))
}
