package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/sora/fundtracker/internal/biz/fund"
)

var Provider = wire.NewSet(NewRenderer)

// Summary 汇总报告的内容
type Summary struct {
	GeneratedAt time.Time        `json:"generated_at"`
	FundCount   int              `json:"fund_count"`
	Quotes      []*fund.Quote    `json:"quotes,omitempty"`
	Analyses    []*fund.Analysis `json:"analyses,omitempty"`
	Signals     []*fund.Signal   `json:"signals,omitempty"`

	ActionCount map[fund.Action]int    `json:"action_count"`
	RiskCount   map[fund.RiskLevel]int `json:"risk_count"`
	TrendCount  map[fund.Trend]int     `json:"trend_count"`
}

func BuildSummary(now time.Time, quotes []*fund.Quote, analyses []*fund.Analysis, signals []*fund.Signal) *Summary {
	s := &Summary{
		GeneratedAt: now,
		FundCount:   len(quotes),
		Quotes:      quotes,
		Analyses:    analyses,
		Signals:     signals,
		ActionCount: make(map[fund.Action]int),
		RiskCount:   make(map[fund.RiskLevel]int),
		TrendCount:  make(map[fund.Trend]int),
	}
	for _, sig := range signals {
		s.ActionCount[sig.Action]++
	}
	for _, a := range analyses {
		s.RiskCount[a.RiskLevel]++
		s.TrendCount[a.TrendDirection]++
	}
	return s
}

// Counters 摘要统计，用于入库索引
func (s *Summary) Counters() map[string]any {
	actions := make(map[string]int, len(s.ActionCount))
	for k, v := range s.ActionCount {
		actions[string(k)] = v
	}
	risks := make(map[string]int, len(s.RiskCount))
	for k, v := range s.RiskCount {
		risks[string(k)] = v
	}
	return map[string]any{
		"fund_count":   s.FundCount,
		"signal_count": len(s.Signals),
		"action_count": actions,
		"risk_count":   risks,
	}
}

// Renderer 将汇总报告写为 JSON 文件
type Renderer struct {
	dir    string
	logger *zap.Logger
}

func NewRenderer(dir string, logger *zap.Logger) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}
	return &Renderer{dir: dir, logger: logger}, nil
}

func (r *Renderer) Render(summary *Summary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	name := fmt.Sprintf("report_%s.json", summary.GeneratedAt.Format("20060102_150405"))
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	r.logger.Info("report rendered",
		zap.String("path", path),
		zap.Int("fund_count", summary.FundCount))
	return path, nil
}
