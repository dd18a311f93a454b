package decision

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/wire"
	"github.com/shopspring/decimal"

	"github.com/sora/fundtracker/internal/biz/fund"
)

var Provider = wire.NewSet(NewEngine)

var ErrNoAnalysis = errors.New("analysis is required")

type Config struct {
	// 价格相对均值的百分比阈值，如 95 和 105
	BuyThreshold  float64
	SellThreshold float64
}

// Engine 基于分析结果产出买卖信号
type Engine struct {
	buyThreshold  float64
	sellThreshold float64
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		buyThreshold:  cfg.BuyThreshold,
		sellThreshold: cfg.SellThreshold,
	}
}

// Decide 已持有与观察中的基金走不同的判定分支
func (e *Engine) Decide(analysis *fund.Analysis, holding *fund.Holding) (*fund.Signal, error) {
	if analysis == nil {
		return nil, ErrNoAnalysis
	}

	var (
		action     fund.Action
		confidence float64
		reasons    []string
	)
	if holding != nil {
		action, confidence, reasons = e.decideForOwned(analysis, holding)
	} else {
		action, confidence, reasons = e.decideForWatchlist(analysis)
	}

	target, stop := e.priceTargets(analysis, action)

	return &fund.Signal{
		FundCode:    analysis.FundCode,
		Name:        analysis.Name,
		TS:          analysis.TS,
		Action:      action,
		Confidence:  confidence,
		Reasons:     reasons,
		TargetPrice: target,
		StopLoss:    stop,
	}, nil
}

func (e *Engine) decideForOwned(a *fund.Analysis, holding *fund.Holding) (fund.Action, float64, []string) {
	var reasons []string
	confidence := 0.5
	ratio := a.PriceVsMeanRatio

	if holding.PurchasePrice.IsPositive() {
		profit := a.CurrentPrice.Sub(holding.PurchasePrice).
			Div(holding.PurchasePrice).Mul(decimal.NewFromInt(100))
		reasons = append(reasons, fmt.Sprintf("当前收益率 %s%%", profit.StringFixed(2)))
	}

	switch {
	case ratio >= e.sellThreshold/100:
		confidence += 0.3
		reasons = append(reasons, fmt.Sprintf("价格高于历史均值 %.1f%%，建议获利了结", (ratio-1)*100))
		if a.RSI > 70 {
			confidence += 0.1
			reasons = append(reasons, fmt.Sprintf("RSI %.1f 超买", a.RSI))
		}
		if a.TrendDirection == fund.TrendDown {
			confidence += 0.1
			reasons = append(reasons, "趋势转为下跌")
		}
		return fund.ActionSell, math.Min(confidence, 0.95), reasons

	case ratio <= e.buyThreshold/100:
		confidence += 0.2
		reasons = append(reasons, fmt.Sprintf("价格低于历史均值 %.1f%%，可考虑加仓", (1-ratio)*100))
		if a.RSI < 30 {
			confidence += 0.1
			reasons = append(reasons, fmt.Sprintf("RSI %.1f 超卖", a.RSI))
		}
		if a.TrendDirection == fund.TrendUp {
			confidence += 0.1
			reasons = append(reasons, "趋势开始上涨")
		}
		return fund.ActionBuy, math.Min(confidence, 0.95), reasons

	default:
		reasons = append(reasons, "价格在合理区间，建议继续持有")
		if a.SharpeRatio > 1 {
			confidence += 0.1
			reasons = append(reasons, fmt.Sprintf("夏普比率 %.2f 表现良好", a.SharpeRatio))
		}
		if a.RiskLevel == fund.RiskLow {
			confidence += 0.1
			reasons = append(reasons, "风险等级较低，适合长期持有")
		}
		return fund.ActionHold, math.Min(confidence, 0.95), reasons
	}
}

func (e *Engine) decideForWatchlist(a *fund.Analysis) (fund.Action, float64, []string) {
	var reasons []string
	confidence := 0.4
	ratio := a.PriceVsMeanRatio

	switch {
	case ratio <= e.buyThreshold/100:
		confidence += 0.3
		reasons = append(reasons, fmt.Sprintf("价格低于历史均值 %.1f%%，出现买入机会", (1-ratio)*100))
		if a.RSI < 30 {
			confidence += 0.15
			reasons = append(reasons, fmt.Sprintf("RSI %.1f 严重超卖", a.RSI))
		} else if a.RSI < 50 {
			confidence += 0.05
			reasons = append(reasons, fmt.Sprintf("RSI %.1f 偏低", a.RSI))
		}
		if a.TrendDirection == fund.TrendUp && a.TrendStrength > 0.6 {
			confidence += 0.1
			reasons = append(reasons, "上涨趋势强劲")
		}
		if a.SharpeRatio > 0.5 {
			confidence += 0.05
			reasons = append(reasons, fmt.Sprintf("夏普比率 %.2f 风险调整收益良好", a.SharpeRatio))
		}
		return fund.ActionBuy, math.Min(confidence, 0.85), reasons

	case ratio >= e.sellThreshold/100:
		confidence += 0.1
		reasons = append(reasons, fmt.Sprintf("价格高于历史均值 %.1f%%，不建议买入", (ratio-1)*100))
		if a.RSI > 70 {
			reasons = append(reasons, fmt.Sprintf("RSI %.1f 超买", a.RSI))
		}
		return fund.ActionHold, math.Min(confidence, 0.85), reasons

	default:
		reasons = append(reasons, "价格在合理区间，继续观察")
		if a.TrendDirection == fund.TrendUp {
			confidence += 0.1
			reasons = append(reasons, "趋势向上，可关注买入时机")
		}
		if a.Volatility < 0.15 {
			confidence += 0.05
			reasons = append(reasons, "波动率较低，风险可控")
		}
		return fund.ActionHold, math.Min(confidence, 0.85), reasons
	}
}

// priceTargets 买入设目标价与止损，卖出目标价即当前价
func (e *Engine) priceTargets(a *fund.Analysis, action fund.Action) (target, stop *decimal.Decimal) {
	switch action {
	case fund.ActionBuy:
		t := a.MeanPrice.Mul(decimal.NewFromFloat(1.1))
		s := a.CurrentPrice.Mul(decimal.NewFromFloat(0.95))
		return &t, &s
	case fund.ActionSell:
		t := a.CurrentPrice
		return &t, nil
	default:
		return nil, nil
	}
}
