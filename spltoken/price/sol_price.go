// Package price fetches the native token's USD price.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

/*
Current SOL/USDT price from Binance:
  GET /api/v3/ticker/price?symbol=SOLUSDT  ->  {"symbol":"SOLUSDT","price":"142.51000000"}
*/

const (
	BinanceDefaultBase = "https://api.binance.com"
	binanceSymbol      = "SOLUSDT"
)

// small HTTP helper with sane timeouts and tiny retry.
type httpClient struct {
	c     *http.Client
	pause func(ctx context.Context, d time.Duration)
}

func newHTTP() *httpClient {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   8 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		IdleConnTimeout:     60 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
	}
	return &httpClient{
		c: &http.Client{
			Timeout:   10 * time.Second,
			Transport: tr,
		},
		pause: pauseContext,
	}
}

func pauseContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (h *httpClient) getJSON(ctx context.Context, rawURL string, dst interface{}) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := h.c.Do(req)
		if err != nil {
			lastErr = err
			h.pause(ctx, time.Duration(300*(i+1))*time.Millisecond)
			continue
		}
		func() {
			defer resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				lastErr = json.NewDecoder(resp.Body).Decode(dst)
				return
			}
			var errObj map[string]any
			_ = json.NewDecoder(resp.Body).Decode(&errObj)
			lastErr = fmt.Errorf("http %d: %v", resp.StatusCode, errObj)
		}()
		if lastErr == nil {
			return nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			h.pause(ctx, time.Duration(500*(i+1))*time.Millisecond)
			continue
		}
		return lastErr
	}
	return lastErr
}

// Client reads the SOL/USDT ticker.
type Client struct {
	base string
	http *httpClient
}

// NewClient uses base as the Binance REST root. Empty means BinanceDefaultBase.
func NewClient(base string) *Client {
	if base == "" {
		base = BinanceDefaultBase
	}
	return &Client{base: base, http: newHTTP()}
}

// NativeUSD returns the current USD price of one SOL.
func (c *Client) NativeUSD(ctx context.Context) (decimal.Decimal, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price base url: %w", err)
	}
	u.Path = "/api/v3/ticker/price"
	q := u.Query()
	q.Set("symbol", binanceSymbol)
	u.RawQuery = q.Encode()

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := c.http.getJSON(ctx, u.String(), &ticker); err != nil {
		return decimal.Zero, fmt.Errorf("sol price: %w", err)
	}
	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sol price %q: %w", ticker.Price, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("sol price %s is not positive", price)
	}
	return price, nil
}
