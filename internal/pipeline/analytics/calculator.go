package analytics

import (
	"errors"
	"math"

	"github.com/google/wire"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/sora/fundtracker/internal/biz/fund"
)

var Provider = wire.NewSet(NewCalculator)

const (
	rsiPeriod = 14
	// 年化用的交易日数量和日无风险利率
	tradingDays  = 252
	riskFreeRate = 0.02 / tradingDays
)

var ErrNoQuote = errors.New("quote is required")

// Calculator 技术分析计算器
type Calculator struct {
	analysisDays int
}

func NewCalculator(analysisDays int) *Calculator {
	if analysisDays <= 0 {
		analysisDays = 60
	}
	return &Calculator{analysisDays: analysisDays}
}

// Analyze 基于历史净值计算统计指标，历史不足10条时退化为基础估算
func (c *Calculator) Analyze(quote *fund.Quote, bars []*fund.HistoryBar) (*fund.Analysis, error) {
	if quote == nil {
		return nil, ErrNoQuote
	}
	if len(bars) < 10 {
		return c.basicAnalysis(quote), nil
	}

	if len(bars) > c.analysisDays {
		bars = bars[len(bars)-c.analysisDays:]
	}
	prices := lo.Map(bars, func(b *fund.HistoryBar, _ int) float64 {
		return b.Close.InexactFloat64()
	})

	meanPrice := mean(prices)
	stdPrice := std(prices, meanPrice)
	minPrice, maxPrice := lo.Min(prices), lo.Max(prices)

	returns := dailyReturns(prices)
	meanReturn := mean(returns)
	stdReturn := std(returns, meanReturn)

	sharpe := 0.0
	if stdReturn > 0 {
		sharpe = (meanReturn - riskFreeRate) / stdReturn
	}

	volatility := stdReturn * math.Sqrt(tradingDays)
	currentPrice := quote.Price.InexactFloat64()
	priceVsMean := 0.0
	if meanPrice > 0 {
		priceVsMean = currentPrice / meanPrice
	}

	trendDir, trendStrength := analyzeTrend(prices)

	return &fund.Analysis{
		FundCode:         quote.FundCode,
		Name:             quote.Name,
		TS:               quote.TS,
		CurrentPrice:     quote.Price,
		MeanPrice:        decimal.NewFromFloat(meanPrice),
		StdPrice:         decimal.NewFromFloat(stdPrice),
		MinPrice:         decimal.NewFromFloat(minPrice),
		MaxPrice:         decimal.NewFromFloat(maxPrice),
		MeanReturn:       meanReturn,
		StdReturn:        stdReturn,
		SharpeRatio:      sharpe,
		RSI:              rsi(prices, rsiPeriod),
		Volatility:       volatility,
		PriceVsMeanRatio: priceVsMean,
		TrendDirection:   trendDir,
		TrendStrength:    trendStrength,
		RiskLevel:        assessRisk(volatility, sharpe),
		MaxDrawdown:      maxDrawdown(prices),
	}, nil
}

// basicAnalysis 无足够历史数据时基于当前行情的保守估算
func (c *Calculator) basicAnalysis(quote *fund.Quote) *fund.Analysis {
	currentPrice := quote.Price.InexactFloat64()
	estimatedMean := currentPrice * 0.98
	changePct := quote.ChangePct.InexactFloat64()

	trendDir := fund.TrendSideways
	if math.Abs(changePct) >= 1 {
		if changePct > 0 {
			trendDir = fund.TrendUp
		} else {
			trendDir = fund.TrendDown
		}
	}

	priceVsMean := 0.0
	if estimatedMean > 0 {
		priceVsMean = currentPrice / estimatedMean
	}

	return &fund.Analysis{
		FundCode:         quote.FundCode,
		Name:             quote.Name,
		TS:               quote.TS,
		CurrentPrice:     quote.Price,
		MeanPrice:        decimal.NewFromFloat(estimatedMean),
		StdPrice:         decimal.NewFromFloat(currentPrice * 0.05),
		MinPrice:         decimal.NewFromFloat(currentPrice * 0.9),
		MaxPrice:         decimal.NewFromFloat(currentPrice * 1.1),
		MeanReturn:       0.001,
		StdReturn:        0.02,
		SharpeRatio:      0.5,
		RSI:              50,
		Volatility:       0.02,
		PriceVsMeanRatio: priceVsMean,
		TrendDirection:   trendDir,
		TrendStrength:    math.Min(math.Abs(changePct)/5, 1),
		RiskLevel:        fund.RiskMedium,
		MaxDrawdown:      0.05,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return lo.Sum(values) / float64(len(values))
}

func std(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func dailyReturns(prices []float64) []float64 {
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}

func rsi(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50
	}
	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// analyzeTrend 线性回归斜率判方向，相关系数绝对值作强度
func analyzeTrend(prices []float64) (fund.Trend, float64) {
	n := len(prices)
	if n < 10 {
		return fund.TrendSideways, 0
	}

	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i, p := range prices {
		x := float64(i)
		sumX += x
		sumY += p
		sumXY += x * p
		sumXX += x * x
		sumYY += p * p
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return fund.TrendSideways, 0
	}
	slope := (fn*sumXY - sumX*sumY) / denom

	corrDenom := math.Sqrt((fn*sumXX - sumX*sumX) * (fn*sumYY - sumY*sumY))
	strength := 0.0
	if corrDenom != 0 {
		strength = math.Abs((fn*sumXY - sumX*sumY) / corrDenom)
	}

	last := prices[n-1]
	switch {
	case slope > last*0.001:
		return fund.TrendUp, strength
	case slope < -last*0.001:
		return fund.TrendDown, strength
	default:
		return fund.TrendSideways, strength
	}
}

func assessRisk(volatility, sharpe float64) fund.RiskLevel {
	switch {
	case volatility > 0.3 || sharpe < 0:
		return fund.RiskHigh
	case volatility > 0.15 || sharpe < 0.5:
		return fund.RiskMedium
	default:
		return fund.RiskLow
	}
}

func maxDrawdown(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	peak := prices[0]
	worst := 0.0
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak > 0 {
			dd := (peak - p) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
