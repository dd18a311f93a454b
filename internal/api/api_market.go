package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/mo"

	"github.com/sora/fundtracker/internal/biz/fund"
)

// MarketAPI 行情与分析结果查询接口
type MarketAPI struct {
	marketRepo fund.Repo
}

func NewMarketAPI(marketRepo fund.Repo) *MarketAPI {
	return &MarketAPI{marketRepo: marketRepo}
}

func (a *MarketAPI) Bind(g *gin.RouterGroup) {
	g.GET("/quotes/:code", a.LatestQuote)
	g.GET("/quotes/:code/history", a.History)
	g.GET("/analyses/:code", a.LatestAnalysis)
	g.GET("/signals", a.ListSignals)
	g.GET("/reports", a.ListReports)
}

func (a *MarketAPI) LatestQuote(c *gin.Context) {
	quote, err := a.marketRepo.LatestQuote(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if quote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no quote for fund"})
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (a *MarketAPI) History(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}
	to := time.Now()
	from := to.AddDate(0, 0, -days)

	bars, err := a.marketRepo.ListHistory(c.Request.Context(), c.Param("code"), from, to)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, bars)
}

func (a *MarketAPI) LatestAnalysis(c *gin.Context) {
	analysis, err := a.marketRepo.LatestAnalysis(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis for fund"})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (a *MarketAPI) ListSignals(c *gin.Context) {
	filter := &fund.SignalFilter{}
	if code := c.Query("fund_code"); code != "" {
		filter.FundCode = mo.Some(code)
	}
	if action := c.Query("action"); action != "" {
		filter.Action = mo.Some(fund.Action(action))
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	filter.Limit = mo.Some(limit)

	signals, err := a.marketRepo.ListSignals(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, signals)
}

func (a *MarketAPI) ListReports(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	reports, err := a.marketRepo.ListReports(c.Request.Context(), limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}
