package rugcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportClient(t *testing.T) {
	mint := key(1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tokens/"+mint.String()+"/report" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"token": {"mintAuthority": null, "freezeAuthority": "", "supply": 1000, "decimals": 6},
			"topHolders": [{"address": "a", "owner": "b", "amount": 700, "pct": 70.5}],
			"risks": [{"name": "Low Liquidity", "level": "warn", "score": 100}],
			"score": 101
		}`))
	}))
	defer srv.Close()

	c := NewReportClient(srv.URL + "/v1/")
	report, err := c.Report(context.Background(), mint)
	require.NoError(t, err)
	assert.False(t, report.HasAuthority())
	require.Len(t, report.TopHolders, 1)
	assert.True(t, report.TopHolders[0].Pct.Equal(decimal.RequireFromString("70.5")))
	assert.Equal(t, int64(101), report.Score)

	_, err = c.Report(context.Background(), key(2))
	assert.ErrorContains(t, err, "http 404")
}

func TestReportHasAuthority(t *testing.T) {
	auth := "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	var r Report
	r.Token.MintAuthority = &auth
	assert.True(t, r.HasAuthority())
}
