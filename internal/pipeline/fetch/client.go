package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/wire"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sora/fundtracker/internal/biz/fund"
)

var Provider = wire.NewSet(NewEastmoneyClient, wire.Bind(new(Client), new(*EastmoneyClient)))

type Client interface {
	FetchQuotes(ctx context.Context, codes []string) ([]*fund.Quote, error)
	FetchHistory(ctx context.Context, code string, from, to time.Time) ([]*fund.HistoryBar, error)
}

type Config struct {
	Timeout time.Duration
	Retries uint
	Workers int
}

const (
	defaultQuoteURL   = "http://fundgz.1234567.com.cn/js/%s.js"
	defaultHistoryURL = "http://api.fund.eastmoney.com/f10/lsjz"
)

// EastmoneyClient 东方财富基金行情客户端，重试退避在客户端内部完成
type EastmoneyClient struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger

	quoteURL   string
	historyURL string
}

func NewEastmoneyClient(cfg Config, logger *zap.Logger) *EastmoneyClient {
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &EastmoneyClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		quoteURL:   defaultQuoteURL,
		historyURL: defaultHistoryURL,
	}
}

// FetchQuotes 并发抓取实时行情，单只失败不影响其他基金
func (c *EastmoneyClient) FetchQuotes(ctx context.Context, codes []string) ([]*fund.Quote, error) {
	var (
		mu     sync.Mutex
		quotes []*fund.Quote
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for _, code := range codes {
		g.Go(func() error {
			quote, err := c.fetchQuote(gctx, code)
			if err != nil {
				c.logger.Warn("failed to fetch quote",
					zap.String("fund_code", code),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			quotes = append(quotes, quote)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(quotes) == 0 && len(codes) > 0 {
		return nil, &FetchError{FundCode: strings.Join(codes, ","), Err: fmt.Errorf("no quotes fetched")}
	}
	return quotes, nil
}

type gzQuote struct {
	FundCode  string `json:"fundcode"`
	Name      string `json:"name"`
	NAV       string `json:"dwjz"`
	Estimate  string `json:"gsz"`
	ChangePct string `json:"gszzl"`
	Time      string `json:"gztime"`
}

func (c *EastmoneyClient) fetchQuote(ctx context.Context, code string) (*fund.Quote, error) {
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.get(ctx, fmt.Sprintf(c.quoteURL, code), nil)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(c.cfg.Retries+1))
	if err != nil {
		return nil, &FetchError{FundCode: code, Err: err}
	}

	// 响应形如 jsonpgz({...});
	raw := strings.TrimSpace(string(body))
	raw = strings.TrimPrefix(raw, "jsonpgz(")
	raw = strings.TrimSuffix(raw, ");")

	var gz gzQuote
	if err := json.Unmarshal([]byte(raw), &gz); err != nil {
		return nil, &FetchError{FundCode: code, Err: fmt.Errorf("unexpected payload: %w", err)}
	}

	price, err := decimal.NewFromString(gz.Estimate)
	if err != nil {
		price, err = decimal.NewFromString(gz.NAV)
		if err != nil {
			return nil, &FetchError{FundCode: code, Err: fmt.Errorf("invalid price: %w", err)}
		}
	}
	changePct, _ := decimal.NewFromString(gz.ChangePct)

	ts, err := time.ParseInLocation("2006-01-02 15:04", gz.Time, time.Local)
	if err != nil {
		ts = time.Now()
	}

	return &fund.Quote{
		FundCode:  gz.FundCode,
		Name:      gz.Name,
		TS:        ts,
		Price:     price,
		ChangePct: changePct,
		FetchedAt: time.Now(),
	}, nil
}

type lsjzResponse struct {
	Data struct {
		LSJZList []struct {
			Date  string `json:"FSRQ"`
			NAV   string `json:"DWJZ"`
		} `json:"LSJZList"`
	} `json:"Data"`
	ErrCode int `json:"ErrCode"`
}

// FetchHistory 抓取历史净值，按时间升序返回
func (c *EastmoneyClient) FetchHistory(ctx context.Context, code string, from, to time.Time) ([]*fund.HistoryBar, error) {
	days := int(to.Sub(from).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	query := url.Values{
		"fundCode":  {code},
		"pageIndex": {"1"},
		"pageSize":  {fmt.Sprintf("%d", days)},
		"startDATE": {from.Format("2006-01-02")},
		"endDATE":   {to.Format("2006-01-02")},
	}

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.get(ctx, c.historyURL+"?"+query.Encode(), map[string]string{
			// 接口校验 Referer
			"Referer": "http://fundf10.eastmoney.com/",
		})
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(c.cfg.Retries+1))
	if err != nil {
		return nil, &FetchError{FundCode: code, Err: err}
	}

	var resp lsjzResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{FundCode: code, Err: fmt.Errorf("unexpected payload: %w", err)}
	}

	bars := make([]*fund.HistoryBar, 0, len(resp.Data.LSJZList))
	for _, row := range resp.Data.LSJZList {
		ts, err := time.ParseInLocation("2006-01-02", row.Date, time.Local)
		if err != nil {
			continue
		}
		nav, err := decimal.NewFromString(row.NAV)
		if err != nil {
			continue
		}
		bars = append(bars, &fund.HistoryBar{FundCode: code, TS: ts, Close: nav})
	}

	// 接口按日期倒序返回
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

func (c *EastmoneyClient) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
