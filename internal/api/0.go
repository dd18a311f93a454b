package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"

	"github.com/sora/fundtracker/internal/biz/run"
	"github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
	"github.com/sora/fundtracker/internal/scheduler"
)

var Provider = wire.NewSet(
	NewTaskAPI,
	NewRunAPI,
	NewMarketAPI,
	NewStatusAPI,
	NewServer,
)

// respondErr 把领域错误映射为 HTTP 状态码
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound), errors.Is(err, run.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, task.ErrDuplicate),
		errors.Is(err, run.ErrConflict),
		errors.Is(err, run.ErrFinished),
		errors.Is(err, scheduler.ErrTaskRunning),
		errors.Is(err, scheduler.ErrNoInflightRun):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, commonrepo.ErrBusy):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
