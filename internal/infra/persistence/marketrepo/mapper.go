package marketrepo

import (
	"gorm.io/datatypes"

	domain "github.com/sora/fundtracker/internal/biz/fund"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
)

func (q *QuotePo) FromDomain(in *domain.Quote) *QuotePo {
	return &QuotePo{
		Mode:      commonrepo.Mode{ID: in.ID},
		FundCode:  in.FundCode,
		Name:      in.Name,
		TS:        in.TS,
		Price:     in.Price,
		ChangePct: in.ChangePct,
		FetchedAt: in.FetchedAt,
	}
}

func (q *QuotePo) ToDomain() *domain.Quote {
	return &domain.Quote{
		ID:        q.ID,
		FundCode:  q.FundCode,
		Name:      q.Name,
		TS:        q.TS,
		Price:     q.Price,
		ChangePct: q.ChangePct,
		FetchedAt: q.FetchedAt,
	}
}

func (h *HistoryBarPo) FromDomain(in *domain.HistoryBar) *HistoryBarPo {
	return &HistoryBarPo{
		Mode:     commonrepo.Mode{ID: in.ID},
		FundCode: in.FundCode,
		TS:       in.TS,
		Close:    in.Close,
		Volume:   in.Volume,
	}
}

func (h *HistoryBarPo) ToDomain() *domain.HistoryBar {
	return &domain.HistoryBar{
		ID:       h.ID,
		FundCode: h.FundCode,
		TS:       h.TS,
		Close:    h.Close,
		Volume:   h.Volume,
	}
}

func (a *AnalysisPo) FromDomain(in *domain.Analysis) *AnalysisPo {
	return &AnalysisPo{
		Mode:             commonrepo.Mode{ID: in.ID},
		FundCode:         in.FundCode,
		Name:             in.Name,
		TS:               in.TS,
		CurrentPrice:     in.CurrentPrice,
		MeanPrice:        in.MeanPrice,
		StdPrice:         in.StdPrice,
		MinPrice:         in.MinPrice,
		MaxPrice:         in.MaxPrice,
		MeanReturn:       in.MeanReturn,
		StdReturn:        in.StdReturn,
		SharpeRatio:      in.SharpeRatio,
		RSI:              in.RSI,
		Volatility:       in.Volatility,
		PriceVsMeanRatio: in.PriceVsMeanRatio,
		TrendDirection:   in.TrendDirection,
		TrendStrength:    in.TrendStrength,
		RiskLevel:        in.RiskLevel,
		MaxDrawdown:      in.MaxDrawdown,
	}
}

func (a *AnalysisPo) ToDomain() *domain.Analysis {
	return &domain.Analysis{
		ID:               a.ID,
		FundCode:         a.FundCode,
		Name:             a.Name,
		TS:               a.TS,
		CurrentPrice:     a.CurrentPrice,
		MeanPrice:        a.MeanPrice,
		StdPrice:         a.StdPrice,
		MinPrice:         a.MinPrice,
		MaxPrice:         a.MaxPrice,
		MeanReturn:       a.MeanReturn,
		StdReturn:        a.StdReturn,
		SharpeRatio:      a.SharpeRatio,
		RSI:              a.RSI,
		Volatility:       a.Volatility,
		PriceVsMeanRatio: a.PriceVsMeanRatio,
		TrendDirection:   a.TrendDirection,
		TrendStrength:    a.TrendStrength,
		RiskLevel:        a.RiskLevel,
		MaxDrawdown:      a.MaxDrawdown,
	}
}

func (s *SignalPo) FromDomain(in *domain.Signal) *SignalPo {
	return &SignalPo{
		Mode:        commonrepo.Mode{ID: in.ID},
		FundCode:    in.FundCode,
		Name:        in.Name,
		TS:          in.TS,
		Action:      in.Action,
		Confidence:  in.Confidence,
		Reasons:     datatypes.NewJSONSlice(in.Reasons),
		TargetPrice: in.TargetPrice,
		StopLoss:    in.StopLoss,
	}
}

func (s *SignalPo) ToDomain() *domain.Signal {
	return &domain.Signal{
		ID:          s.ID,
		FundCode:    s.FundCode,
		Name:        s.Name,
		TS:          s.TS,
		Action:      s.Action,
		Confidence:  s.Confidence,
		Reasons:     s.Reasons,
		TargetPrice: s.TargetPrice,
		StopLoss:    s.StopLoss,
	}
}

func (r *ReportPo) FromDomain(in *domain.Report) *ReportPo {
	return &ReportPo{
		Mode:        commonrepo.Mode{ID: in.ID},
		Path:        in.Path,
		GeneratedAt: in.GeneratedAt,
		Summary:     in.Summary,
	}
}

func (r *ReportPo) ToDomain() *domain.Report {
	return &domain.Report{
		ID:          r.ID,
		Path:        r.Path,
		GeneratedAt: r.GeneratedAt,
		Summary:     r.Summary,
	}
}
