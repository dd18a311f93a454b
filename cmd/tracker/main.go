package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sora/fundtracker/internal/api"
	"github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/marketrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/runrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/taskrepo"
	"github.com/sora/fundtracker/internal/orm"
	"github.com/sora/fundtracker/internal/pipeline"
	"github.com/sora/fundtracker/internal/pipeline/analytics"
	"github.com/sora/fundtracker/internal/pipeline/cache"
	"github.com/sora/fundtracker/internal/pipeline/decision"
	"github.com/sora/fundtracker/internal/pipeline/fetch"
	"github.com/sora/fundtracker/internal/pipeline/report"
	"github.com/sora/fundtracker/internal/scheduler"
	"github.com/sora/fundtracker/pkg/config"
	"github.com/sora/fundtracker/pkg/logger"
)

func main() {
	// 解析命令行参数
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 创建日志器
	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting fund tracker",
		zap.String("database", cfg.Database.Path))

	// 创建存储
	db, err := orm.New(orm.Config{
		Path:               cfg.Database.Path,
		BusyTimeout:        cfg.Database.BusyTimeout,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
	})
	if err != nil {
		zapLogger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	// 创建repositories
	taskRepo := taskrepo.NewSqliteRepositoryImpl(db.DB())
	runRepo := runrepo.NewSqliteRepositoryImpl(db.DB())
	marketRepo := marketrepo.NewSqliteRepositoryImpl(db.DB())
	txRepo := commonrepo.NewDefaultRepo(db.DB())

	// 创建数据管道协作方
	client := fetch.NewEastmoneyClient(fetch.Config{
		Timeout: cfg.Data.FetchTimeout,
		Retries: cfg.Data.FetchRetries,
		Workers: cfg.Data.FetchWorkers,
	}, zapLogger)

	fileCache, err := cache.New(cfg.Data.CacheDir, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create cache", zap.Error(err))
	}
	renderer, err := report.NewRenderer(cfg.Data.ReportDir, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create report renderer", zap.Error(err))
	}

	calculator := analytics.NewCalculator(cfg.Strategy.AnalysisDays)
	engine := decision.NewEngine(decision.Config{
		BuyThreshold:  cfg.Strategy.BuyThreshold,
		SellThreshold: cfg.Strategy.SellThreshold,
	})

	// 创建调度器
	registry := scheduler.NewRegistry()
	runner := scheduler.NewRunner(&txRepo, zapLogger)
	emitter := scheduler.NewMemoryEmitter()
	sched := scheduler.New(*cfg, zapLogger, registry, runner, emitter, taskRepo, runRepo)

	handlers := pipeline.NewHandlers(*cfg, zapLogger, client, fileCache, calculator, engine, renderer, marketRepo)
	handlers.RegisterAll(runner)

	// 注册配置中的默认任务
	taskUsecase := task.NewUsecase(taskRepo, zapLogger)
	if err := taskUsecase.Seed(context.Background(), seedTasks(cfg.Tasks)); err != nil {
		zapLogger.Fatal("Failed to seed default tasks", zap.Error(err))
	}

	// 启动调度器
	if err := sched.Start(); err != nil {
		zapLogger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// 创建API服务器
	taskAPI := api.NewTaskAPI(sched)
	runAPI := api.NewRunAPI(runRepo)
	marketAPI := api.NewMarketAPI(marketRepo)
	statusAPI := api.NewStatusAPI(sched, emitter)
	apiServer := api.NewServer(taskAPI, runAPI, marketAPI, statusAPI, zapLogger)

	// 启动HTTP服务器
	httpServer := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        apiServer.Router(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		zapLogger.Info("Starting API server",
			zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLogger.Info("Shutting down...")

	// 优雅关闭HTTP服务器
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown API server", zap.Error(err))
	}

	// 停止调度器，等待在飞运行终态落库
	if err := sched.Stop(); err != nil {
		zapLogger.Error("Failed to stop scheduler", zap.Error(err))
	}

	zapLogger.Info("Shutdown complete")
}

// seedTasks 把配置中的任务定义转换为领域对象
func seedTasks(seeds []config.TaskSeed) []*task.Task {
	tasks := make([]*task.Task, 0, len(seeds))
	for _, seed := range seeds {
		status := task.StatusEnabled
		if seed.Enabled != nil && !*seed.Enabled {
			status = task.StatusDisabled
		}
		tasks = append(tasks, &task.Task{
			TaskID:         seed.ID,
			Name:           seed.Name,
			Kind:           task.Kind(seed.Kind),
			Interval:       seed.Interval,
			CronExpression: seed.Cron,
			MaxRunCount:    seed.MaxRunCount,
			Status:         status,
			Parameters:     seed.Parameters,
		})
	}
	return tasks
}
