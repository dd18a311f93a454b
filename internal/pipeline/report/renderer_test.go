package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sora/fundtracker/internal/biz/fund"
)

func TestBuildSummaryCounts(t *testing.T) {
	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	quotes := []*fund.Quote{
		{FundCode: "110022", Price: decimal.NewFromFloat(1.85)},
		{FundCode: "161725", Price: decimal.NewFromFloat(0.95)},
	}
	analyses := []*fund.Analysis{
		{FundCode: "110022", RiskLevel: fund.RiskLow, TrendDirection: fund.TrendUp},
		{FundCode: "161725", RiskLevel: fund.RiskHigh, TrendDirection: fund.TrendUp},
	}
	signals := []*fund.Signal{
		{FundCode: "110022", Action: fund.ActionHold},
		{FundCode: "161725", Action: fund.ActionBuy},
	}

	s := BuildSummary(now, quotes, analyses, signals)
	assert.Equal(t, 2, s.FundCount)
	assert.Equal(t, 1, s.ActionCount[fund.ActionBuy])
	assert.Equal(t, 1, s.ActionCount[fund.ActionHold])
	assert.Equal(t, 2, s.TrendCount[fund.TrendUp])
	assert.Equal(t, 1, s.RiskCount[fund.RiskHigh])

	counters := s.Counters()
	assert.Equal(t, 2, counters["fund_count"])
	assert.Equal(t, 2, counters["signal_count"])
	assert.Equal(t, map[string]int{"buy": 1, "hold": 1}, counters["action_count"])
}

func TestRenderWritesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir, zap.NewNop())
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 18, 30, 45, 0, time.UTC)
	summary := BuildSummary(now, []*fund.Quote{{FundCode: "110022"}}, nil, nil)

	path, err := r.Render(summary)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report_20250601_183045.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 1, decoded["fund_count"])
}
