package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(quoteSrv, historySrv *httptest.Server) *EastmoneyClient {
	c := NewEastmoneyClient(Config{Timeout: 5 * time.Second, Retries: 1, Workers: 2}, zap.NewNop())
	if quoteSrv != nil {
		c.quoteURL = quoteSrv.URL + "/js/%s.js"
	}
	if historySrv != nil {
		c.historyURL = historySrv.URL + "/f10/lsjz"
	}
	return c
}

func TestFetchQuotesParsesJsonp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `jsonpgz({"fundcode":"110022","name":"易方达消费行业","dwjz":"1.8400","gsz":"1.8520","gszzl":"0.65","gztime":"2025-06-01 15:00"});`)
	}))
	defer srv.Close()

	c := newTestClient(srv, nil)
	quotes, err := c.FetchQuotes(context.Background(), []string{"110022"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, "110022", q.FundCode)
	assert.Equal(t, "易方达消费行业", q.Name)
	// 估值优先于单位净值
	assert.True(t, q.Price.Equal(decimal.RequireFromString("1.8520")))
	assert.True(t, q.ChangePct.Equal(decimal.RequireFromString("0.65")))
	assert.False(t, q.FetchedAt.IsZero())
}

func TestFetchQuotesFallsBackToNAV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 场外时段没有估值
		fmt.Fprint(w, `jsonpgz({"fundcode":"110022","name":"易方达消费行业","dwjz":"1.8400","gsz":"","gszzl":"","gztime":"2025-06-01 15:00"});`)
	}))
	defer srv.Close()

	c := newTestClient(srv, nil)
	quotes, err := c.FetchQuotes(context.Background(), []string{"110022"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.True(t, quotes[0].Price.Equal(decimal.RequireFromString("1.8400")))
}

func TestFetchQuotesPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/js/bad.js" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `jsonpgz({"fundcode":"110022","name":"易方达消费行业","dwjz":"1.84","gsz":"1.85","gszzl":"0.5","gztime":"2025-06-01 15:00"});`)
	}))
	defer srv.Close()

	c := newTestClient(srv, nil)
	quotes, err := c.FetchQuotes(context.Background(), []string{"110022", "bad"})
	require.NoError(t, err, "one failing fund must not fail the batch")
	assert.Len(t, quotes, 1)
}

func TestFetchQuotesAllFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv, nil)
	_, err := c.FetchQuotes(context.Background(), []string{"110022"})
	require.Error(t, err)
	var fe *FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestFetchQuoteRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `jsonpgz({"fundcode":"110022","name":"易方达消费行业","dwjz":"1.84","gsz":"1.85","gszzl":"0.5","gztime":"2025-06-01 15:00"});`)
	}))
	defer srv.Close()

	c := newTestClient(srv, nil)
	quotes, err := c.FetchQuotes(context.Background(), []string{"110022"})
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchHistoryAscendingOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "http://fundf10.eastmoney.com/", r.Header.Get("Referer"))
		assert.Equal(t, "110022", r.URL.Query().Get("fundCode"))
		// 接口按日期倒序返回
		fmt.Fprint(w, `{"Data":{"LSJZList":[
			{"FSRQ":"2025-06-03","DWJZ":"1.86"},
			{"FSRQ":"2025-06-02","DWJZ":"1.85"},
			{"FSRQ":"2025-06-01","DWJZ":"1.84"}
		]},"ErrCode":0}`)
	}))
	defer srv.Close()

	c := newTestClient(nil, srv)
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
	to := time.Date(2025, 6, 3, 0, 0, 0, 0, time.Local)

	bars, err := c.FetchHistory(context.Background(), "110022", from, to)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.True(t, bars[0].TS.Before(bars[1].TS))
	assert.True(t, bars[1].TS.Before(bars[2].TS))
	assert.True(t, bars[0].Close.Equal(decimal.RequireFromString("1.84")))
	assert.Equal(t, "110022", bars[0].FundCode)
}

func TestFetchHistorySkipsMalformedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Data":{"LSJZList":[
			{"FSRQ":"2025-06-02","DWJZ":"1.85"},
			{"FSRQ":"bad-date","DWJZ":"1.84"},
			{"FSRQ":"2025-06-01","DWJZ":""}
		]},"ErrCode":0}`)
	}))
	defer srv.Close()

	c := newTestClient(nil, srv)
	bars, err := c.FetchHistory(context.Background(), "110022",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local),
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.True(t, bars[0].Close.Equal(decimal.RequireFromString("1.85")))
}
