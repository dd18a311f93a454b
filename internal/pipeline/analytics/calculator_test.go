package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sora/fundtracker/internal/biz/fund"
)

func testQuote(price string) *fund.Quote {
	return &fund.Quote{
		FundCode:  "110022",
		Name:      "测试基金",
		TS:        time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC),
		Price:     decimal.RequireFromString(price),
		ChangePct: decimal.RequireFromString("0.5"),
	}
}

func barsFromPrices(prices []float64) []*fund.HistoryBar {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]*fund.HistoryBar, 0, len(prices))
	for i, p := range prices {
		bars = append(bars, &fund.HistoryBar{
			FundCode: "110022",
			TS:       base.AddDate(0, 0, i),
			Close:    decimal.NewFromFloat(p),
		})
	}
	return bars
}

func TestAnalyzeRequiresQuote(t *testing.T) {
	c := NewCalculator(60)
	_, err := c.Analyze(nil, nil)
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestAnalyzeFallsBackWithoutHistory(t *testing.T) {
	c := NewCalculator(60)

	analysis, err := c.Analyze(testQuote("1.85"), barsFromPrices([]float64{1.8, 1.81, 1.82}))
	require.NoError(t, err)

	// 历史不足时退化为保守估算
	assert.InDelta(t, 50, analysis.RSI, 1e-9)
	assert.Equal(t, fund.RiskMedium, analysis.RiskLevel)
	assert.Equal(t, fund.TrendSideways, analysis.TrendDirection)
	assert.InDelta(t, 1.85*0.98, analysis.MeanPrice.InexactFloat64(), 1e-9)
}

func TestAnalyzeUptrend(t *testing.T) {
	c := NewCalculator(60)

	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 1.5 + float64(i)*0.01
	}
	analysis, err := c.Analyze(testQuote("1.80"), barsFromPrices(prices))
	require.NoError(t, err)

	assert.Equal(t, fund.TrendUp, analysis.TrendDirection)
	assert.Greater(t, analysis.TrendStrength, 0.9, "a straight line should correlate strongly")
	assert.InDelta(t, 100, analysis.RSI, 1e-9, "only gains in the window")
	assert.InDelta(t, 1.5, analysis.MinPrice.InexactFloat64(), 1e-9)
	assert.InDelta(t, 1.79, analysis.MaxPrice.InexactFloat64(), 1e-9)
	assert.Zero(t, analysis.MaxDrawdown)
	assert.Positive(t, analysis.SharpeRatio)
}

func TestAnalyzeWindowIsBounded(t *testing.T) {
	c := NewCalculator(10)

	// 前段高价在窗口之外，不应影响均值
	prices := append(make([]float64, 0, 40), make([]float64, 30)...)
	for i := range prices {
		prices[i] = 9.0
	}
	for i := 0; i < 10; i++ {
		prices = append(prices, 1.0)
	}
	analysis, err := c.Analyze(testQuote("1.0"), barsFromPrices(prices))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, analysis.MeanPrice.InexactFloat64(), 1e-9)
}

func TestMaxDrawdown(t *testing.T) {
	assert.Zero(t, maxDrawdown([]float64{1.0}))
	assert.InDelta(t, 0.5, maxDrawdown([]float64{1.0, 2.0, 1.0, 1.5}), 1e-9)
	assert.Zero(t, maxDrawdown([]float64{1.0, 1.1, 1.2}))
}

func TestRSIBounds(t *testing.T) {
	// 数据不足回退到中值
	assert.InDelta(t, 50, rsi([]float64{1, 2, 3}, 14), 1e-9)

	down := make([]float64, 20)
	for i := range down {
		down[i] = 5.0 - float64(i)*0.1
	}
	got := rsi(down, 14)
	assert.InDelta(t, 0, got, 1e-9, "only losses should floor the index")
}

func TestAssessRisk(t *testing.T) {
	assert.Equal(t, fund.RiskHigh, assessRisk(0.4, 1.0))
	assert.Equal(t, fund.RiskHigh, assessRisk(0.1, -0.2))
	assert.Equal(t, fund.RiskMedium, assessRisk(0.2, 1.0))
	assert.Equal(t, fund.RiskMedium, assessRisk(0.1, 0.3))
	assert.Equal(t, fund.RiskLow, assessRisk(0.1, 1.0))
}

func TestDailyReturns(t *testing.T) {
	returns := dailyReturns([]float64{1.0, 1.1, 0.99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.1, returns[0], 1e-9)
	assert.InDelta(t, (0.99-1.1)/1.1, returns[1], 1e-9)

	withZero := dailyReturns([]float64{0, 1.0})
	require.Len(t, withZero, 1)
	assert.True(t, !math.IsInf(withZero[0], 0))
}
