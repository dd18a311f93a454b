package decision

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sora/fundtracker/internal/biz/fund"
)

func newTestEngine() *Engine {
	return NewEngine(Config{BuyThreshold: 95, SellThreshold: 105})
}

func testAnalysis(ratio float64) *fund.Analysis {
	current := decimal.NewFromFloat(1.8 * ratio)
	return &fund.Analysis{
		FundCode:         "110022",
		Name:             "测试基金",
		TS:               time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC),
		CurrentPrice:     current,
		MeanPrice:        decimal.NewFromFloat(1.8),
		RSI:              50,
		SharpeRatio:      0.6,
		Volatility:       0.2,
		PriceVsMeanRatio: ratio,
		TrendDirection:   fund.TrendSideways,
		RiskLevel:        fund.RiskMedium,
	}
}

func TestDecideRequiresAnalysis(t *testing.T) {
	_, err := newTestEngine().Decide(nil, nil)
	assert.ErrorIs(t, err, ErrNoAnalysis)
}

func TestOwnedSellAboveThreshold(t *testing.T) {
	e := newTestEngine()
	a := testAnalysis(1.08)
	a.RSI = 75
	a.TrendDirection = fund.TrendDown

	signal, err := e.Decide(a, &fund.Holding{
		FundCode:      "110022",
		PurchasePrice: decimal.NewFromFloat(1.5),
	})
	require.NoError(t, err)

	assert.Equal(t, fund.ActionSell, signal.Action)
	// 0.5 + 0.3 + 0.1 + 0.1，且不超过上限
	assert.InDelta(t, 0.95, signal.Confidence, 1e-9)
	assert.Contains(t, signal.Reasons[0], "当前收益率")
	require.NotNil(t, signal.TargetPrice)
	assert.True(t, signal.TargetPrice.Equal(a.CurrentPrice))
	assert.Nil(t, signal.StopLoss)
}

func TestOwnedBuyBelowThreshold(t *testing.T) {
	e := newTestEngine()
	a := testAnalysis(0.92)
	a.RSI = 25
	a.TrendDirection = fund.TrendUp

	signal, err := e.Decide(a, &fund.Holding{FundCode: "110022"})
	require.NoError(t, err)

	assert.Equal(t, fund.ActionBuy, signal.Action)
	assert.InDelta(t, 0.9, signal.Confidence, 1e-9)
	require.NotNil(t, signal.TargetPrice)
	assert.True(t, signal.TargetPrice.Equal(a.MeanPrice.Mul(decimal.NewFromFloat(1.1))))
	require.NotNil(t, signal.StopLoss)
	assert.True(t, signal.StopLoss.Equal(a.CurrentPrice.Mul(decimal.NewFromFloat(0.95))))
}

func TestOwnedHoldInRange(t *testing.T) {
	e := newTestEngine()
	a := testAnalysis(1.0)
	a.SharpeRatio = 1.2
	a.RiskLevel = fund.RiskLow

	signal, err := e.Decide(a, &fund.Holding{FundCode: "110022"})
	require.NoError(t, err)

	assert.Equal(t, fund.ActionHold, signal.Action)
	assert.InDelta(t, 0.7, signal.Confidence, 1e-9)
	assert.Nil(t, signal.TargetPrice)
	assert.Nil(t, signal.StopLoss)
}

func TestWatchlistBuyCappedConfidence(t *testing.T) {
	e := newTestEngine()
	a := testAnalysis(0.9)
	a.RSI = 25
	a.TrendDirection = fund.TrendUp
	a.TrendStrength = 0.8
	a.SharpeRatio = 0.9

	signal, err := e.Decide(a, nil)
	require.NoError(t, err)

	assert.Equal(t, fund.ActionBuy, signal.Action)
	// 观察中的基金置信度上限更低
	assert.InDelta(t, 0.85, signal.Confidence, 1e-9)
}

func TestWatchlistNeverSells(t *testing.T) {
	e := newTestEngine()
	a := testAnalysis(1.1)
	a.RSI = 75

	signal, err := e.Decide(a, nil)
	require.NoError(t, err)

	// 未持有就没有可卖的，高估值只是不建议买入
	assert.Equal(t, fund.ActionHold, signal.Action)
	assert.Contains(t, signal.Reasons[0], "不建议买入")
}

func TestWatchlistHoldInRange(t *testing.T) {
	e := newTestEngine()
	a := testAnalysis(1.0)
	a.TrendDirection = fund.TrendUp
	a.Volatility = 0.1

	signal, err := e.Decide(a, nil)
	require.NoError(t, err)

	assert.Equal(t, fund.ActionHold, signal.Action)
	assert.InDelta(t, 0.55, signal.Confidence, 1e-9)
}
