package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/sora/fundtracker/internal/biz/fund"
	"github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/pipeline/analytics"
	"github.com/sora/fundtracker/internal/pipeline/cache"
	"github.com/sora/fundtracker/internal/pipeline/decision"
	"github.com/sora/fundtracker/internal/pipeline/fetch"
	"github.com/sora/fundtracker/internal/pipeline/report"
	"github.com/sora/fundtracker/internal/scheduler"
	"github.com/sora/fundtracker/pkg/config"
)

var Provider = wire.NewSet(NewHandlers)

// CleanupHandlerName custom 任务通过 parameters.handler 指定
const CleanupHandlerName = "cache_cleanup"

// Handlers 把各协作方组装为任务处理器
type Handlers struct {
	cfg        config.Config
	logger     *zap.Logger
	client     fetch.Client
	cache      *cache.Cache
	calculator *analytics.Calculator
	engine     *decision.Engine
	renderer   *report.Renderer
	marketRepo fund.Repo
}

func NewHandlers(
	cfg config.Config,
	logger *zap.Logger,
	client fetch.Client,
	fileCache *cache.Cache,
	calculator *analytics.Calculator,
	engine *decision.Engine,
	renderer *report.Renderer,
	marketRepo fund.Repo,
) *Handlers {
	return &Handlers{
		cfg:        cfg,
		logger:     logger,
		client:     client,
		cache:      fileCache,
		calculator: calculator,
		engine:     engine,
		renderer:   renderer,
		marketRepo: marketRepo,
	}
}

// RegisterAll 注册全部任务种类的处理器
func (h *Handlers) RegisterAll(runner *scheduler.Runner) {
	runner.Register(task.KindFetch, scheduler.HandlerFunc(h.RunFetch))
	runner.Register(task.KindAnalyze, scheduler.HandlerFunc(h.RunAnalyze))
	runner.Register(task.KindReport, scheduler.HandlerFunc(h.RunReport))
	runner.RegisterCustom(CleanupHandlerName, scheduler.HandlerFunc(h.RunCacheCleanup))
}

// fundCodes 优先取任务参数，否则回落到配置的关注与持有列表
func (h *Handlers) fundCodes(job *scheduler.Job) []string {
	if raw, ok := job.Parameters()["fund_codes"]; ok {
		if codes, err := cast.ToStringSliceE(raw); err == nil && len(codes) > 0 {
			return codes
		}
	}
	codes := append([]string{}, h.cfg.Funds.Watchlist...)
	codes = append(codes, lo.Keys(h.cfg.Funds.Owned)...)
	return lo.Uniq(codes)
}

func (h *Handlers) holding(fundCode string) *fund.Holding {
	price, ok := h.cfg.Funds.Owned[fundCode]
	if !ok {
		return nil
	}
	return &fund.Holding{
		FundCode:      fundCode,
		PurchasePrice: decimal.NewFromFloat(price),
	}
}

// RunFetch 抓取实时行情与历史净值并幂等写入
func (h *Handlers) RunFetch(ctx context.Context, job *scheduler.Job) error {
	codes := h.fundCodes(job)
	if len(codes) == 0 {
		return fmt.Errorf("no fund codes configured")
	}

	quotes, err := h.client.FetchQuotes(ctx, codes)
	if err != nil {
		return err
	}
	if err := h.marketRepo.UpsertQuotes(ctx, quotes); err != nil {
		return err
	}
	if err := h.cache.Write("quotes_latest", quotes); err != nil {
		h.logger.Warn("failed to cache quotes", zap.Error(err))
	}

	now := time.Now()
	from := now.AddDate(0, 0, -h.cfg.Data.HistoryDays)
	for _, code := range codes {
		bars, err := h.client.FetchHistory(ctx, code, from, now)
		if err != nil {
			h.logger.Warn("failed to fetch history",
				zap.String("fund_code", code),
				zap.Error(err))
			continue
		}
		if err := h.marketRepo.UpsertHistory(ctx, bars); err != nil {
			return err
		}
	}

	h.logger.Info("fetch completed",
		zap.String("task_id", job.Task.TaskID),
		zap.Int("quotes", len(quotes)))
	return nil
}

// RunAnalyze 基于存储中的行情与历史计算指标并产出信号
func (h *Handlers) RunAnalyze(ctx context.Context, job *scheduler.Job) error {
	codes := h.fundCodes(job)
	now := time.Now()
	from := now.AddDate(0, 0, -h.cfg.Strategy.AnalysisDays)

	analyzed := 0
	for _, code := range codes {
		quote, err := h.marketRepo.LatestQuote(ctx, code)
		if err != nil {
			return err
		}
		if quote == nil {
			h.logger.Debug("no quote yet, skipping analysis",
				zap.String("fund_code", code))
			continue
		}

		bars, err := h.marketRepo.ListHistory(ctx, code, from, now)
		if err != nil {
			return err
		}

		analysis, err := h.calculator.Analyze(quote, bars)
		if err != nil {
			return err
		}
		if err := h.marketRepo.UpsertAnalysis(ctx, analysis); err != nil {
			return err
		}

		signal, err := h.engine.Decide(analysis, h.holding(code))
		if err != nil {
			return err
		}
		if err := h.marketRepo.UpsertSignal(ctx, signal); err != nil {
			return err
		}
		analyzed++
	}

	h.logger.Info("analysis completed",
		zap.String("task_id", job.Task.TaskID),
		zap.Int("funds", analyzed))
	return nil
}

// RunReport 汇总最新数据生成 JSON 报告并登记索引
func (h *Handlers) RunReport(ctx context.Context, job *scheduler.Job) error {
	codes := h.fundCodes(job)
	now := time.Now()

	var (
		quotes   []*fund.Quote
		analyses []*fund.Analysis
	)
	for _, code := range codes {
		quote, err := h.marketRepo.LatestQuote(ctx, code)
		if err != nil {
			return err
		}
		if quote != nil {
			quotes = append(quotes, quote)
		}
		analysis, err := h.marketRepo.LatestAnalysis(ctx, code)
		if err != nil {
			return err
		}
		if analysis != nil {
			analyses = append(analyses, analysis)
		}
	}
	signals, err := h.marketRepo.ListSignals(ctx, &fund.SignalFilter{
		Limit: mo.Some(len(codes)),
	})
	if err != nil {
		return err
	}

	summary := report.BuildSummary(now, quotes, analyses, signals)
	path, err := h.renderer.Render(summary)
	if err != nil {
		return err
	}

	return h.marketRepo.CreateReport(ctx, &fund.Report{
		Path:        path,
		GeneratedAt: now,
		Summary:     summary.Counters(),
	})
}

// RunCacheCleanup 清理过期缓存文件
func (h *Handlers) RunCacheCleanup(ctx context.Context, job *scheduler.Job) error {
	ttl := h.cfg.Data.CacheTTL
	if raw, ok := job.Parameters()["ttl"]; ok {
		if parsed, err := cast.ToDurationE(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}
	removed, err := h.cache.Expire(ttl)
	if err != nil {
		return err
	}
	h.logger.Info("cache cleanup completed",
		zap.String("task_id", job.Task.TaskID),
		zap.Int("removed", removed))
	return nil
}
