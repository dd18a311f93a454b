package marketrepo

import (
	"time"

	"github.com/shopspring/decimal"
	domain "github.com/sora/fundtracker/internal/biz/fund"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type QuotePo struct {
	commonrepo.Mode
	FundCode  string          `gorm:"column:fund_code;size:32;not null;uniqueIndex:idx_quote_code_ts"`
	Name      string          `gorm:"column:name;size:255"`
	TS        time.Time       `gorm:"column:ts;not null;uniqueIndex:idx_quote_code_ts"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(20,8);not null"`
	ChangePct decimal.Decimal `gorm:"column:change_pct;type:decimal(10,4)"`
	FetchedAt time.Time       `gorm:"column:fetched_at"`
}

func (q *QuotePo) TableName() string {
	return "tracker_quote"
}

type HistoryBarPo struct {
	commonrepo.Mode
	FundCode string          `gorm:"column:fund_code;size:32;not null;uniqueIndex:idx_history_code_ts"`
	TS       time.Time       `gorm:"column:ts;not null;uniqueIndex:idx_history_code_ts"`
	Close    decimal.Decimal `gorm:"column:close;type:decimal(20,8);not null"`
	Volume   int64           `gorm:"column:volume"`
}

func (h *HistoryBarPo) TableName() string {
	return "tracker_history"
}

type AnalysisPo struct {
	commonrepo.Mode
	FundCode string    `gorm:"column:fund_code;size:32;not null;uniqueIndex:idx_analysis_code_ts"`
	Name     string    `gorm:"column:name;size:255"`
	TS       time.Time `gorm:"column:ts;not null;uniqueIndex:idx_analysis_code_ts"`

	CurrentPrice decimal.Decimal `gorm:"column:current_price;type:decimal(20,8)"`
	MeanPrice    decimal.Decimal `gorm:"column:mean_price;type:decimal(20,8)"`
	StdPrice     decimal.Decimal `gorm:"column:std_price;type:decimal(20,8)"`
	MinPrice     decimal.Decimal `gorm:"column:min_price;type:decimal(20,8)"`
	MaxPrice     decimal.Decimal `gorm:"column:max_price;type:decimal(20,8)"`

	MeanReturn  float64 `gorm:"column:mean_return"`
	StdReturn   float64 `gorm:"column:std_return"`
	SharpeRatio float64 `gorm:"column:sharpe_ratio"`

	RSI              float64 `gorm:"column:rsi"`
	Volatility       float64 `gorm:"column:volatility"`
	PriceVsMeanRatio float64 `gorm:"column:price_vs_mean_ratio"`

	TrendDirection domain.Trend `gorm:"column:trend_direction;size:20"`
	TrendStrength  float64      `gorm:"column:trend_strength"`

	RiskLevel   domain.RiskLevel `gorm:"column:risk_level;size:20"`
	MaxDrawdown float64          `gorm:"column:max_drawdown"`
}

func (a *AnalysisPo) TableName() string {
	return "tracker_analysis"
}

type SignalPo struct {
	commonrepo.Mode
	FundCode string    `gorm:"column:fund_code;size:32;not null;uniqueIndex:idx_signal_code_ts"`
	Name     string    `gorm:"column:name;size:255"`
	TS       time.Time `gorm:"column:ts;not null;uniqueIndex:idx_signal_code_ts"`

	Action     domain.Action                `gorm:"column:action;size:20;not null;index"`
	Confidence float64                      `gorm:"column:confidence"`
	Reasons    datatypes.JSONSlice[string]  `gorm:"column:reasons;type:json"`

	TargetPrice *decimal.Decimal `gorm:"column:target_price;type:decimal(20,8)"`
	StopLoss    *decimal.Decimal `gorm:"column:stop_loss;type:decimal(20,8)"`
}

func (s *SignalPo) TableName() string {
	return "tracker_signal"
}

type ReportPo struct {
	commonrepo.Mode
	Path        string            `gorm:"column:path;size:512;not null"`
	GeneratedAt time.Time         `gorm:"column:generated_at;not null;index"`
	Summary     datatypes.JSONMap `gorm:"column:summary;type:json"`
}

func (r *ReportPo) TableName() string {
	return "tracker_report"
}
