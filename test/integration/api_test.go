package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sora/fundtracker/internal/api"
	"github.com/sora/fundtracker/internal/biz/run"
	"github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/marketrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/runrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/taskrepo"
	"github.com/sora/fundtracker/internal/orm"
	"github.com/sora/fundtracker/internal/scheduler"
	"github.com/sora/fundtracker/pkg/config"
)

// TestSetup 测试环境设置
type TestSetup struct {
	Storage   *orm.Storage
	Scheduler *scheduler.Scheduler
	Runner    *scheduler.Runner
	Router    *gin.Engine
	RunRepo   run.Repo
}

// SetupTest 初始化测试环境，使用内存数据库
func SetupTest(t *testing.T) *TestSetup {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Scheduler: config.SchedulerConfig{TickInterval: 20 * time.Millisecond},
	}
	logger := zap.NewNop()

	db, err := orm.New(orm.Config{
		Path:               "file::memory:",
		BusyTimeout:        time.Second,
		MaxIdleConnections: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	taskRepo := taskrepo.NewSqliteRepositoryImpl(db.DB())
	runRepo := runrepo.NewSqliteRepositoryImpl(db.DB())
	marketRepo := marketrepo.NewSqliteRepositoryImpl(db.DB())
	txRepo := commonrepo.NewDefaultRepo(db.DB())

	registry := scheduler.NewRegistry()
	runner := scheduler.NewRunner(&txRepo, logger)
	emitter := scheduler.NewMemoryEmitter()
	sched := scheduler.New(cfg, logger, registry, runner, emitter, taskRepo, runRepo)

	taskAPI := api.NewTaskAPI(sched)
	runAPI := api.NewRunAPI(runRepo)
	marketAPI := api.NewMarketAPI(marketRepo)
	statusAPI := api.NewStatusAPI(sched, emitter)
	apiServer := api.NewServer(taskAPI, runAPI, marketAPI, statusAPI, logger)

	return &TestSetup{
		Storage:   db,
		Scheduler: sched,
		Runner:    runner,
		Router:    apiServer.Router(),
		RunRepo:   runRepo,
	}
}

func (s *TestSetup) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

// TestTaskCreation 测试任务创建
func TestTaskCreation(t *testing.T) {
	setup := SetupTest(t)

	w := setup.request(t, "POST", "/api/v1/tasks", map[string]any{
		"task_id":       "fetch_daily",
		"name":          "行情数据更新",
		"kind":          "fetch",
		"interval":      "30m",
		"max_run_count": 3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "fetch_daily", created["task_id"])
	assert.Equal(t, "fetch", created["kind"])
	assert.Equal(t, "idle", created["phase"])
	assert.EqualValues(t, 0, created["run_count"])

	// 重复的 task_id 返回冲突
	w = setup.request(t, "POST", "/api/v1/tasks", map[string]any{
		"task_id":  "fetch_daily",
		"kind":     "fetch",
		"interval": "30m",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 校验失败返回 500 以外的错误
	w = setup.request(t, "POST", "/api/v1/tasks", map[string]any{
		"task_id": "no_schedule",
		"kind":    "fetch",
	})
	assert.NotEqual(t, http.StatusCreated, w.Code)
}

// TestTaskLifecycle 测试停用、启用、删除
func TestTaskLifecycle(t *testing.T) {
	setup := SetupTest(t)

	w := setup.request(t, "POST", "/api/v1/tasks", map[string]any{
		"task_id":  "analysis",
		"kind":     "analyze",
		"interval": "1h",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = setup.request(t, "POST", "/api/v1/tasks/analysis/disable", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = setup.request(t, "GET", "/api/v1/tasks/analysis", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "disabled", view["status"])
	assert.Equal(t, "disabled", view["phase"])

	w = setup.request(t, "POST", "/api/v1/tasks/analysis/enable", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = setup.request(t, "DELETE", "/api/v1/tasks/analysis", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = setup.request(t, "GET", "/api/v1/tasks/analysis", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestTaskExecutionFlow 测试调度执行与运行历史
func TestTaskExecutionFlow(t *testing.T) {
	setup := SetupTest(t)

	executed := make(chan string, 8)
	setup.Runner.Register(task.KindFetch, scheduler.HandlerFunc(func(ctx context.Context, job *scheduler.Job) error {
		executed <- job.Task.TaskID
		return nil
	}))

	require.NoError(t, setup.Scheduler.Start())
	t.Cleanup(func() { setup.Scheduler.Stop() })

	w := setup.request(t, "POST", "/api/v1/tasks", map[string]any{
		"task_id":       "once",
		"kind":          "fetch",
		"interval":      "1h",
		"max_run_count": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	select {
	case id := <-executed:
		assert.Equal(t, "once", id)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not dispatched")
	}

	// 等待终态落库并进入耗尽状态
	require.Eventually(t, func() bool {
		w := setup.request(t, "GET", "/api/v1/tasks/once", nil)
		if w.Code != http.StatusOK {
			return false
		}
		var view map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
			return false
		}
		return view["phase"] == "exhausted"
	}, 5*time.Second, 20*time.Millisecond)

	w = setup.request(t, "GET", "/api/v1/runs?task_id=once", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var runs []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "succeeded", runs[0]["status"])

	// 事件流包含启动、完成与耗尽
	w = setup.request(t, "GET", "/api/v1/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	types := make(map[string]bool)
	for _, ev := range events {
		types[ev["type"].(string)] = true
	}
	assert.True(t, types["run_started"])
	assert.True(t, types["run_finished"])
	assert.True(t, types["task_exhausted"])
}

// TestStatusEndpoint 测试状态接口
func TestStatusEndpoint(t *testing.T) {
	setup := SetupTest(t)

	require.NoError(t, setup.Scheduler.Start())
	t.Cleanup(func() { setup.Scheduler.Stop() })

	w := setup.request(t, "POST", "/api/v1/tasks", map[string]any{
		"task_id":  "watch",
		"kind":     "report",
		"cron":     "",
		"interval": "24h",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = setup.request(t, "GET", "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, true, status["running"])
	assert.EqualValues(t, 1, status["task_count"])
}
