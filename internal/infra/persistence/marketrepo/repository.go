package marketrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/wire"
	"github.com/samber/lo"
	domain "github.com/sora/fundtracker/internal/biz/fund"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var Provider = wire.NewSet(NewSqliteRepositoryImpl)

type SqliteRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewSqliteRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &SqliteRepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

// upsertConflict 重复 (fund_code, ts) 时覆盖更新
func upsertConflict(updateColumns ...string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "fund_code"}, {Name: "ts"}},
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}
}

func (r *SqliteRepositoryImpl) UpsertQuotes(ctx context.Context, quotes []*domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	pos := lo.Map(quotes, func(q *domain.Quote, _ int) *QuotePo {
		return new(QuotePo).FromDomain(q)
	})
	err := r.Db(ctx).
		Clauses(upsertConflict("name", "price", "change_pct", "fetched_at", "updated_at")).
		Create(&pos).Error
	return commonrepo.TranslateBusy(err)
}

func (r *SqliteRepositoryImpl) UpsertHistory(ctx context.Context, bars []*domain.HistoryBar) error {
	if len(bars) == 0 {
		return nil
	}
	pos := lo.Map(bars, func(b *domain.HistoryBar, _ int) *HistoryBarPo {
		return new(HistoryBarPo).FromDomain(b)
	})
	err := r.Db(ctx).
		Clauses(upsertConflict("close", "volume", "updated_at")).
		Create(&pos).Error
	return commonrepo.TranslateBusy(err)
}

func (r *SqliteRepositoryImpl) UpsertAnalysis(ctx context.Context, analysis *domain.Analysis) error {
	po := new(AnalysisPo).FromDomain(analysis)
	err := r.Db(ctx).
		Clauses(upsertConflict(
			"name", "current_price", "mean_price", "std_price", "min_price", "max_price",
			"mean_return", "std_return", "sharpe_ratio", "rsi", "volatility",
			"price_vs_mean_ratio", "trend_direction", "trend_strength",
			"risk_level", "max_drawdown", "updated_at",
		)).
		Create(po).Error
	return commonrepo.TranslateBusy(err)
}

func (r *SqliteRepositoryImpl) UpsertSignal(ctx context.Context, signal *domain.Signal) error {
	po := new(SignalPo).FromDomain(signal)
	err := r.Db(ctx).
		Clauses(upsertConflict(
			"name", "action", "confidence", "reasons",
			"target_price", "stop_loss", "updated_at",
		)).
		Create(po).Error
	return commonrepo.TranslateBusy(err)
}

func (r *SqliteRepositoryImpl) LatestQuote(ctx context.Context, fundCode string) (*domain.Quote, error) {
	var po QuotePo
	err := r.Db(ctx).Where("fund_code = ?", fundCode).Order("ts DESC").First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *SqliteRepositoryImpl) ListQuotes(ctx context.Context, fundCode string, limit int) ([]*domain.Quote, error) {
	var pos []QuotePo
	query := r.Db(ctx).Where("fund_code = ?", fundCode).Order("ts DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po QuotePo, _ int) *domain.Quote {
		return po.ToDomain()
	}), nil
}

func (r *SqliteRepositoryImpl) ListHistory(ctx context.Context, fundCode string, from, to time.Time) ([]*domain.HistoryBar, error) {
	var pos []HistoryBarPo
	err := r.Db(ctx).
		Where("fund_code = ? AND ts >= ? AND ts <= ?", fundCode, from, to).
		Order("ts ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po HistoryBarPo, _ int) *domain.HistoryBar {
		return po.ToDomain()
	}), nil
}

func (r *SqliteRepositoryImpl) LatestAnalysis(ctx context.Context, fundCode string) (*domain.Analysis, error) {
	var po AnalysisPo
	err := r.Db(ctx).Where("fund_code = ?", fundCode).Order("ts DESC").First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *SqliteRepositoryImpl) ListSignals(ctx context.Context, filter *domain.SignalFilter) ([]*domain.Signal, error) {
	var pos []SignalPo
	query := r.Db(ctx).Model(&SignalPo{})
	if filter.FundCode.IsPresent() {
		query = query.Where("fund_code = ?", filter.FundCode.MustGet())
	}
	if filter.Action.IsPresent() {
		query = query.Where("action = ?", filter.Action.MustGet())
	}
	query = query.Order("ts DESC")
	if filter.Limit.IsPresent() {
		query = query.Limit(filter.Limit.MustGet())
	}
	if err := query.Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po SignalPo, _ int) *domain.Signal {
		return po.ToDomain()
	}), nil
}

func (r *SqliteRepositoryImpl) CreateReport(ctx context.Context, report *domain.Report) error {
	po := new(ReportPo).FromDomain(report)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return commonrepo.TranslateBusy(err)
	}
	report.ID = po.ID
	return nil
}

func (r *SqliteRepositoryImpl) ListReports(ctx context.Context, limit int) ([]*domain.Report, error) {
	var pos []ReportPo
	query := r.Db(ctx).Model(&ReportPo{}).Order("generated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po ReportPo, _ int) *domain.Report {
		return po.ToDomain()
	}), nil
}
