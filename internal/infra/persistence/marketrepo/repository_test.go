package marketrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sora/fundtracker/internal/biz/fund"
	"github.com/sora/fundtracker/internal/infra/persistence/marketrepo"
	"github.com/sora/fundtracker/internal/orm"
)

func newTestRepo(t *testing.T) fund.Repo {
	t.Helper()
	storage, err := orm.New(orm.Config{
		Path:               "file::memory:",
		BusyTimeout:        time.Second,
		MaxIdleConnections: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return marketrepo.NewSqliteRepositoryImpl(storage.DB())
}

func quoteAt(code string, ts time.Time, price string) *fund.Quote {
	return &fund.Quote{
		FundCode:  code,
		Name:      "测试基金",
		TS:        ts,
		Price:     decimal.RequireFromString(price),
		ChangePct: decimal.RequireFromString("0.52"),
		FetchedAt: ts,
	}
}

func TestUpsertQuotesIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertQuotes(ctx, []*fund.Quote{quoteAt("110022", ts, "1.8520")}))

	// 同一 (fund_code, ts) 再次写入只覆盖，不新增
	require.NoError(t, repo.UpsertQuotes(ctx, []*fund.Quote{quoteAt("110022", ts, "1.8600")}))

	quotes, err := repo.ListQuotes(ctx, "110022", 0)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.True(t, quotes[0].Price.Equal(decimal.RequireFromString("1.8600")))
}

func TestLatestQuote(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertQuotes(ctx, []*fund.Quote{
		quoteAt("110022", base, "1.80"),
		quoteAt("110022", base.Add(24*time.Hour), "1.85"),
		quoteAt("161725", base, "0.95"),
	}))

	latest, err := repo.LatestQuote(ctx, "110022")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Price.Equal(decimal.RequireFromString("1.85")))

	missing, err := repo.LatestQuote(ctx, "999999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestHistoryRangeQuery(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	var bars []*fund.HistoryBar
	for i := 0; i < 10; i++ {
		bars = append(bars, &fund.HistoryBar{
			FundCode: "110022",
			TS:       base.AddDate(0, 0, i),
			Close:    decimal.NewFromFloat(1.8 + float64(i)*0.01),
		})
	}
	require.NoError(t, repo.UpsertHistory(ctx, bars))
	// 幂等重写
	require.NoError(t, repo.UpsertHistory(ctx, bars))

	got, err := repo.ListHistory(ctx, "110022", base.AddDate(0, 0, 2), base.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, got, 4)
	// 升序返回
	assert.True(t, got[0].TS.Before(got[3].TS))
	assert.Equal(t, base.AddDate(0, 0, 2).Unix(), got[0].TS.Unix())
}

func TestUpsertAnalysisAndSignal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)

	analysis := &fund.Analysis{
		FundCode:         "110022",
		Name:             "测试基金",
		TS:               ts,
		CurrentPrice:     decimal.RequireFromString("1.85"),
		MeanPrice:        decimal.RequireFromString("1.80"),
		RSI:              62.5,
		PriceVsMeanRatio: 1.027,
		TrendDirection:   fund.TrendUp,
		RiskLevel:        fund.RiskMedium,
	}
	require.NoError(t, repo.UpsertAnalysis(ctx, analysis))

	analysis.RSI = 70.1
	require.NoError(t, repo.UpsertAnalysis(ctx, analysis))

	got, err := repo.LatestAnalysis(ctx, "110022")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 70.1, got.RSI, 1e-9)
	assert.Equal(t, fund.TrendUp, got.TrendDirection)

	target := decimal.RequireFromString("1.98")
	signal := &fund.Signal{
		FundCode:    "110022",
		Name:        "测试基金",
		TS:          ts,
		Action:      fund.ActionBuy,
		Confidence:  0.7,
		Reasons:     []string{"价格低于均值", "RSI超卖"},
		TargetPrice: &target,
	}
	require.NoError(t, repo.UpsertSignal(ctx, signal))

	signals, err := repo.ListSignals(ctx, &fund.SignalFilter{
		FundCode: mo.Some("110022"),
		Action:   mo.Some(fund.ActionBuy),
	})
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, []string{"价格低于均值", "RSI超卖"}, signals[0].Reasons)
	require.NotNil(t, signals[0].TargetPrice)
	assert.True(t, signals[0].TargetPrice.Equal(target))

	none, err := repo.ListSignals(ctx, &fund.SignalFilter{Action: mo.Some(fund.ActionSell)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReportsAppendOnly(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateReport(ctx, &fund.Report{
			Path:        "data/reports/report_2025060" + string(rune('1'+i)) + "_180000.json",
			GeneratedAt: base.AddDate(0, 0, i),
			Summary:     map[string]any{"fund_count": float64(2)},
		}))
	}

	reports, err := repo.ListReports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	// 最新的在前
	assert.True(t, reports[0].GeneratedAt.After(reports[1].GeneratedAt))
	assert.EqualValues(t, 2, reports[0].Summary["fund_count"])
}
