// Package rugcheck decides whether a new pool is safe to buy.
package rugcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

const DefaultReportURL = "https://api.rugcheck.xyz/v1"

// Report is the subset of a third-party token report the pipeline reads.
type Report struct {
	Token struct {
		MintAuthority   *string `json:"mintAuthority"`
		FreezeAuthority *string `json:"freezeAuthority"`
		Supply          uint64  `json:"supply"`
		Decimals        uint8   `json:"decimals"`
	} `json:"token"`
	TopHolders []ReportHolder `json:"topHolders"`
	Risks      []ReportRisk   `json:"risks"`
	Score      int64          `json:"score"`
}

type ReportHolder struct {
	Address string          `json:"address"`
	Owner   string          `json:"owner"`
	Amount  uint64          `json:"amount"`
	Pct     decimal.Decimal `json:"pct"`
}

type ReportRisk struct {
	Name  string `json:"name"`
	Level string `json:"level"`
	Score int64  `json:"score"`
}

func present(s *string) bool { return s != nil && strings.TrimSpace(*s) != "" }

// HasAuthority reports whether the report lists a live mint or freeze authority.
func (r *Report) HasAuthority() bool {
	return present(r.Token.MintAuthority) || present(r.Token.FreezeAuthority)
}

// ReportClient fetches reports from GET {base}/tokens/{mint}/report.
type ReportClient struct {
	base string
	http *http.Client
}

func NewReportClient(base string) *ReportClient {
	return &ReportClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *ReportClient) Report(ctx context.Context, mint solana.PublicKey) (*Report, error) {
	endpoint := fmt.Sprintf("%s/tokens/%s/report", c.base, url.PathEscape(mint.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report for %s: %w", mint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("report for %s: http %d: %s", mint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("report for %s: decode: %w", mint, err)
	}
	return &report, nil
}
