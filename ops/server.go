// Package ops serves health, metrics and a pool inspection endpoint next to the listener.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/franco-bianco/poolsniper/chain"
	"github.com/franco-bianco/poolsniper/listener"
	"github.com/franco-bianco/poolsniper/poolparse"
	"github.com/franco-bianco/poolsniper/raydium"
)

const inspectTimeout = 10 * time.Second

type inspectReq struct {
	Signature string `json:"signature"`
}

type inspectResp struct {
	Signature string                  `json:"signature"`
	Pool      *raydium.PoolDescriptor `json:"pool"`
}

type apiError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSONMaybePretty(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

type Server struct {
	Fetcher    listener.TransactionFetcher
	ProgramID  solana.PublicKey
	NativeMint solana.PublicKey
	Metrics    http.Handler
	Log        logrus.FieldLogger
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics)
	}
	mux.HandleFunc("/inspect", s.inspect)
	return mux
}

// inspect accepts POST {"signature": ...} or GET ?signature=...&pretty=1.
func (s *Server) inspect(w http.ResponseWriter, r *http.Request) {
	pretty := r.URL.Query().Get("pretty") == "1" || r.URL.Query().Get("pretty") == "true"

	var sig string
	switch r.Method {
	case http.MethodPost:
		var req inspectReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONMaybePretty(w, http.StatusBadRequest, apiError{Error: "bad_request", Details: "invalid JSON body"}, pretty)
			return
		}
		sig = req.Signature
	case http.MethodGet:
		sig = r.URL.Query().Get("signature")
	default:
		writeJSONMaybePretty(w, http.StatusMethodNotAllowed, apiError{Error: "method_not_allowed"}, pretty)
		return
	}

	if sig == "" {
		writeJSONMaybePretty(w, http.StatusBadRequest, apiError{Error: "bad_request", Details: "signature is required"}, pretty)
		return
	}
	if _, err := solana.SignatureFromBase58(sig); err != nil {
		writeJSONMaybePretty(w, http.StatusBadRequest, apiError{Error: "bad_request", Details: "invalid signature (base58)"}, pretty)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), inspectTimeout)
	defer cancel()

	pool, err := listener.Inspect(ctx, s.Fetcher, sig, s.ProgramID, s.NativeMint, s.Log)
	if err != nil {
		status, code := classify(err)
		if s.Log != nil {
			s.Log.WithError(err).WithField("signature", sig).Debug("inspect failed")
		}
		writeJSONMaybePretty(w, status, apiError{Error: code, Details: err.Error()}, pretty)
		return
	}
	writeJSONMaybePretty(w, http.StatusOK, inspectResp{Signature: sig, Pool: pool}, pretty)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, chain.ErrTransactionNotFound), errors.Is(err, rpc.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, poolparse.ErrNotPoolCreation):
		return http.StatusNotFound, "not_pool"
	case errors.Is(err, poolparse.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "insufficient_data"
	}
	return http.StatusBadGateway, "rpc_error"
}

// ListenAndServe runs the server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
