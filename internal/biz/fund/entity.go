package fund

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote 基金当日行情快照，(FundCode, TS) 唯一
type Quote struct {
	ID        uint64          `json:"-"`
	FundCode  string          `json:"fund_code"`
	Name      string          `json:"name"`
	TS        time.Time       `json:"ts"`
	Price     decimal.Decimal `json:"price"`
	ChangePct decimal.Decimal `json:"change_pct"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// HistoryBar 历史净值，(FundCode, TS) 唯一
type HistoryBar struct {
	ID       uint64          `json:"-"`
	FundCode string          `json:"fund_code"`
	TS       time.Time       `json:"ts"`
	Close    decimal.Decimal `json:"close"`
	Volume   int64           `json:"volume,omitempty"`
}

// Analysis 一次分析计算的结果，(FundCode, TS) 唯一
type Analysis struct {
	ID       uint64    `json:"-"`
	FundCode string    `json:"fund_code"`
	Name     string    `json:"name"`
	TS       time.Time `json:"ts"`

	CurrentPrice decimal.Decimal `json:"current_price"`
	MeanPrice    decimal.Decimal `json:"mean_price"`
	StdPrice     decimal.Decimal `json:"std_price"`
	MinPrice     decimal.Decimal `json:"min_price"`
	MaxPrice     decimal.Decimal `json:"max_price"`

	MeanReturn  float64 `json:"mean_return"`
	StdReturn   float64 `json:"std_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`

	RSI              float64 `json:"rsi"`
	Volatility       float64 `json:"volatility"`
	PriceVsMeanRatio float64 `json:"price_vs_mean_ratio"`

	TrendDirection Trend   `json:"trend_direction"`
	TrendStrength  float64 `json:"trend_strength"`

	RiskLevel   RiskLevel `json:"risk_level"`
	MaxDrawdown float64   `json:"max_drawdown"`
}

// Signal 决策信号，(FundCode, TS) 唯一
type Signal struct {
	ID       uint64    `json:"-"`
	FundCode string    `json:"fund_code"`
	Name     string    `json:"name"`
	TS       time.Time `json:"ts"`

	Action     Action   `json:"action"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`

	TargetPrice *decimal.Decimal `json:"target_price,omitempty"`
	StopLoss    *decimal.Decimal `json:"stop_loss,omitempty"`
}

// Report 已生成的报告索引，只增不改
type Report struct {
	ID          uint64         `json:"id"`
	Path        string         `json:"path"`
	GeneratedAt time.Time      `json:"generated_at"`
	Summary     map[string]any `json:"summary"`
}

// Holding 持仓信息，来源于配置
type Holding struct {
	FundCode      string
	PurchasePrice decimal.Decimal
}
