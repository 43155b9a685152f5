// Package server wires the HTTP routes, the Connect service and middleware.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/internal/wire"
)

// Options configures the HTTP handler.
type Options struct {
	Envelope     wire.Envelope
	MaxBodyBytes int64
	Gatherer     prometheus.Gatherer
}

// Server serves the settlement API over HTTP.
type Server struct {
	svc  *service.SettlementService
	opts Options
}

// New creates a Server backed by svc.
func New(svc *service.SettlementService, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{svc: svc, opts: opts}
}

// Handler returns the root handler, wrapped with h2c so Connect clients can
// use HTTP/2 without TLS.
func (s *Server) Handler() http.Handler {
	return h2c.NewHandler(s.Router(), &http2.Server{})
}

// Router builds the chi router with every route and middleware attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Post("/calculate", s.handleCalculate)
	r.Post("/ledger", s.handleLedger)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	rpcPath, rpcHandler := service.NewSettlementServiceHandler(s.svc,
		connect.WithInterceptors(
			middleware.RequestIDInterceptor(),
			middleware.LoggingInterceptor(),
		),
	)
	r.Mount(rpcPath, rpcHandler)

	return r
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	balances, err := s.svc.SettleBody(r.Context(), service.EndpointCalculate, body)
	if err != nil {
		writeSettlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.BalancesBody(balances, s.opts.Envelope))
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	balances, transfers, err := s.svc.LedgerBody(r.Context(), body)
	if err != nil {
		writeSettlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.LedgerBody(balances, transfers))
}

// readBody reads at most MaxBodyBytes, answering the request itself on failure.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, wire.ErrorResponse{Error: "request body too large"})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, wire.ErrorResponse{Error: "failed to read request body"})
		return nil, false
	}
	return body, true
}

// writeSettlementError answers caller mistakes with 400 and calculator defects with 500.
func writeSettlementError(w http.ResponseWriter, err error) {
	if calculator.IsDefect(err) {
		writeJSON(w, http.StatusInternalServerError, wire.ErrorResponse{Error: "internal error while computing balances"})
		return
	}
	writeJSON(w, http.StatusBadRequest, wire.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms, X-Request-Id")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, X-Request-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
