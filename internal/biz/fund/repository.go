package fund

import (
	"context"
	"time"

	"github.com/samber/mo"
)

type Repo interface {
	// UpsertQuotes 按 (fund_code, ts) 幂等写入，重复键更新为最新值
	UpsertQuotes(ctx context.Context, quotes []*Quote) error
	UpsertHistory(ctx context.Context, bars []*HistoryBar) error
	UpsertAnalysis(ctx context.Context, analysis *Analysis) error
	UpsertSignal(ctx context.Context, signal *Signal) error

	LatestQuote(ctx context.Context, fundCode string) (*Quote, error)
	ListQuotes(ctx context.Context, fundCode string, limit int) ([]*Quote, error)
	ListHistory(ctx context.Context, fundCode string, from, to time.Time) ([]*HistoryBar, error)
	LatestAnalysis(ctx context.Context, fundCode string) (*Analysis, error)
	ListSignals(ctx context.Context, filter *SignalFilter) ([]*Signal, error)

	CreateReport(ctx context.Context, report *Report) error
	ListReports(ctx context.Context, limit int) ([]*Report, error)
}

type SignalFilter struct {
	FundCode mo.Option[string]
	Action   mo.Option[Action]
	Limit    mo.Option[int]
}
