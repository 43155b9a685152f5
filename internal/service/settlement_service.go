// Package service exposes the calculator to HTTP and Connect clients.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/wire"
)

const (
	// SettlementServiceName is the fully-qualified name of the RPC service.
	SettlementServiceName = "settle.v1.SettlementService"

	// ComputeSettlementProcedure is the RPC path of ComputeSettlement.
	ComputeSettlementProcedure = "/" + SettlementServiceName + "/ComputeSettlement"
)

// Endpoint labels used for metrics and logs.
const (
	EndpointCalculate = "calculate"
	EndpointLedger    = "ledger"
	EndpointRPC       = "rpc"
)

// errInternal is what callers see when the calculator reports a defect.
var errInternal = errors.New("internal error while computing balances")

// SettlementService decodes untyped requests, runs the calculator and records the outcome.
type SettlementService struct {
	metrics *metrics.Metrics
}

// NewSettlementService creates a SettlementService reporting to m.
func NewSettlementService(m *metrics.Metrics) *SettlementService {
	return &SettlementService{metrics: m}
}

// Settle computes balances for a single purchase given as generic JSON.
func (s *SettlementService) Settle(ctx context.Context, endpoint string, v any) (models.Balances, error) {
	start := time.Now()

	req, err := wire.DecodeSettlement(v)
	if err != nil {
		s.finish(ctx, endpoint, start, 0, err)
		return nil, err
	}

	slog.Debug("Computing settlement",
		"request_id", middleware.GetRequestID(ctx),
		"payer", req.Payer,
		"items_count", len(req.Items),
		"total", calculator.Total(req.Items).String(),
	)

	balances, err := calculator.ComputeSettlement(req)
	s.finish(ctx, endpoint, start, len(balances), err)
	return balances, err
}

// SettleBody is Settle for a raw JSON body.
func (s *SettlementService) SettleBody(ctx context.Context, endpoint string, body []byte) (models.Balances, error) {
	v, err := wire.ParseJSON(body)
	if err != nil {
		s.finish(ctx, endpoint, time.Now(), 0, err)
		return nil, err
	}
	return s.Settle(ctx, endpoint, v)
}

// LedgerBody nets several purchases given as a raw JSON array and suggests
// the payments that would clear them.
func (s *SettlementService) LedgerBody(ctx context.Context, body []byte) (models.Balances, []models.Transfer, error) {
	start := time.Now()

	purchases, err := wire.ParseLedger(body)
	if err != nil {
		s.finish(ctx, EndpointLedger, start, 0, err)
		return nil, nil, err
	}

	slog.Debug("Computing ledger",
		"request_id", middleware.GetRequestID(ctx),
		"purchases_count", len(purchases),
	)

	balances, err := calculator.ComputeLedger(purchases)
	s.finish(ctx, EndpointLedger, start, len(balances), err)
	if err != nil {
		return nil, nil, err
	}
	return balances, calculator.SimplifyDebts(balances), nil
}

// ComputeSettlement handles the ComputeSettlement RPC.
// The request is any JSON value with the same shape as the HTTP body; the
// response is the balances map.
func (s *SettlementService) ComputeSettlement(ctx context.Context, req *connect.Request[structpb.Value]) (*connect.Response[structpb.Struct], error) {
	balances, err := s.Settle(ctx, EndpointRPC, req.Msg.AsInterface())
	if err != nil {
		return nil, ToConnectError(err)
	}

	fields := make(map[string]any, len(balances))
	for participant, amount := range balances {
		fields[participant] = wire.Float(amount)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		slog.Error("ComputeSettlement: failed to build response", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// NewSettlementServiceHandler builds an HTTP handler serving the RPC service.
// It returns the path prefix on which to mount the handler.
func NewSettlementServiceHandler(svc *SettlementService, opts ...connect.HandlerOption) (string, http.Handler) {
	computeSettlement := connect.NewUnaryHandler(
		ComputeSettlementProcedure,
		svc.ComputeSettlement,
		opts...,
	)

	mux := http.NewServeMux()
	mux.Handle(ComputeSettlementProcedure, computeSettlement)
	return "/" + SettlementServiceName + "/", mux
}

// NewSettlementServiceClient returns a client for the RPC service at baseURL.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *connect.Client[structpb.Value, structpb.Struct] {
	return connect.NewClient[structpb.Value, structpb.Struct](httpClient, baseURL+ComputeSettlementProcedure, opts...)
}

// ToConnectError maps calculator errors onto Connect codes. Defects are
// reported as internal errors without exposing calculator details.
func ToConnectError(err error) *connect.Error {
	if calculator.IsDefect(err) {
		return connect.NewError(connect.CodeInternal, errInternal)
	}
	return connect.NewError(connect.CodeInvalidArgument, err)
}

// finish records metrics and logs defects loudly.
func (s *SettlementService) finish(ctx context.Context, endpoint string, start time.Time, participants int, err error) {
	s.metrics.Observe(endpoint, start, participants, err)

	switch {
	case err == nil:
		slog.Debug("Settlement computed",
			"request_id", middleware.GetRequestID(ctx),
			"endpoint", endpoint,
			"participants", participants,
		)
	case calculator.IsDefect(err):
		slog.Error("Settlement failed its conservation check",
			"request_id", middleware.GetRequestID(ctx),
			"endpoint", endpoint,
			"error", err,
		)
	default:
		slog.Info("Settlement rejected",
			"request_id", middleware.GetRequestID(ctx),
			"endpoint", endpoint,
			"outcome", metrics.Outcome(err),
			"error", err,
		)
	}
}
