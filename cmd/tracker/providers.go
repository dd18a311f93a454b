package main

import (
	"go.uber.org/zap"

	"github.com/sora/fundtracker/internal/api"
	"github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
	"github.com/sora/fundtracker/internal/pipeline/analytics"
	"github.com/sora/fundtracker/internal/pipeline/cache"
	"github.com/sora/fundtracker/internal/pipeline/decision"
	"github.com/sora/fundtracker/internal/pipeline/fetch"
	"github.com/sora/fundtracker/internal/pipeline/report"
	"github.com/sora/fundtracker/internal/scheduler"
	"github.com/sora/fundtracker/pkg/config"
)

// App 聚合启动所需的顶层组件
type App struct {
	Scheduler *scheduler.Scheduler
	Server    *api.Server
	Tasks     *task.Usecase
}

func NewApp(sched *scheduler.Scheduler, server *api.Server, tasks *task.Usecase) *App {
	return &App{
		Scheduler: sched,
		Server:    server,
		Tasks:     tasks,
	}
}

func ProvideFetchConfig(cfg config.Config) fetch.Config {
	return fetch.Config{
		Timeout: cfg.Data.FetchTimeout,
		Retries: cfg.Data.FetchRetries,
		Workers: cfg.Data.FetchWorkers,
	}
}

func ProvideDecisionConfig(cfg config.Config) decision.Config {
	return decision.Config{
		BuyThreshold:  cfg.Strategy.BuyThreshold,
		SellThreshold: cfg.Strategy.SellThreshold,
	}
}

func ProvideCalculator(cfg config.Config) *analytics.Calculator {
	return analytics.NewCalculator(cfg.Strategy.AnalysisDays)
}

func ProvideCache(cfg config.Config, logger *zap.Logger) (*cache.Cache, error) {
	return cache.New(cfg.Data.CacheDir, logger)
}

func ProvideRenderer(cfg config.Config, logger *zap.Logger) (*report.Renderer, error) {
	return report.NewRenderer(cfg.Data.ReportDir, logger)
}

func ProvideTransaction(db commonrepo.DB) commonrepo.Transaction {
	repo := commonrepo.NewDefaultRepo(db)
	return &repo
}
