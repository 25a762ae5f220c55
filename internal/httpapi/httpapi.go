// Package httpapi exposes the optimization and rerouting services over the
// public HTTP surface: POST /optimize, POST /reroute and GET /health, plus
// the middleware chain (request id, CORS, logging, metrics, rate limiting)
// carried over from the gateway's transport layer.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/routingcore/routingcore/internal/apperror"
	"github.com/routingcore/routingcore/internal/audit"
	"github.com/routingcore/routingcore/internal/domain"
	"github.com/routingcore/routingcore/internal/externaldata"
	"github.com/routingcore/routingcore/internal/logging"
	"github.com/routingcore/routingcore/internal/optimization"
)

// Optimizer is the slice of optimization.Service the handlers call.
type Optimizer interface {
	Optimize(ctx context.Context, req optimization.Request) *domain.OptimizationResult
}

// Rerouter is the slice of rerouting.Service the handlers call.
type Rerouter interface {
	RerouteForTraffic(ctx context.Context, current *domain.OptimizationResult, locations []domain.Location, vehicles []domain.Vehicle, originalDeliveries, completedDeliveries []domain.Delivery, trafficFactors map[string]float64) *domain.OptimizationResult
	RerouteForDelay(ctx context.Context, current *domain.OptimizationResult, locations []domain.Location, vehicles []domain.Vehicle, originalDeliveries, completedDeliveries []domain.Delivery, delayedLocationIDs []string, delayMinutes map[string]int) *domain.OptimizationResult
	RerouteForRoadblock(ctx context.Context, current *domain.OptimizationResult, locations []domain.Location, vehicles []domain.Vehicle, originalDeliveries, completedDeliveries []domain.Delivery, blockedSegments [][2]string) *domain.OptimizationResult
}

// Handler carries the service collaborators behind the HTTP surface.
type Handler struct {
	optimizer    Optimizer
	rerouter     Rerouter
	auditLog     audit.Logger
	externalData externaldata.Provider
}

// NewHandler builds a Handler over the two planning services.
func NewHandler(optimizer Optimizer, rerouter Rerouter) *Handler {
	return &Handler{optimizer: optimizer, rerouter: rerouter}
}

// WithAuditLogger enables audit-trail entries for planning operations.
func (h *Handler) WithAuditLogger(l audit.Logger) *Handler {
	h.auditLog = l
	return h
}

// WithExternalData supplies the provider consulted for traffic/weather
// conditions when a traffic reroute arrives without its own traffic_data.
func (h *Handler) WithExternalData(p externaldata.Provider) *Handler {
	h.externalData = p
	return h
}

// recordAudit writes one audit entry per planning request; audit failures
// are logged and swallowed, never surfaced to the client.
func (h *Handler) recordAudit(r *http.Request, method string, result *domain.OptimizationResult, started time.Time, meta map[string]any) {
	if h.auditLog == nil {
		return
	}

	outcome := audit.OutcomeSuccess
	b := audit.NewEntry().
		Service("routingcore").
		Method(method).
		Action(audit.ActionSolve).
		Resource("route_plan", "").
		RequestID(logging.RequestIDFromContext(r.Context())).
		Duration(time.Since(started))
	if result.Status != domain.StatusSuccess {
		outcome = audit.OutcomeFailure
		if msg, ok := result.Statistics["error"].(string); ok {
			b = b.Error(string(apperror.CodeSolverNoSolution), msg)
		}
	}
	for k, v := range meta {
		b = b.Meta(k, v)
	}
	if err := h.auditLog.Log(r.Context(), b.Outcome(outcome).Build()); err != nil {
		logging.Warn("failed to write audit entry", "error", err)
	}
}

// Routes registers all endpoints on a fresh ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /optimize", h.handleOptimize)
	mux.HandleFunc("POST /reroute", h.handleReroute)
	mux.HandleFunc("GET /health", h.handleHealth)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeJSON serializes v with the given status; encode failures at this
// point can only be logged since the header is already out.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}

// writeResult projects an OptimizationResult onto the wire shape and picks
// the HTTP status: input/solver-determined failures map to 400, success to
// 200. Unexpected panics are converted to 500 by the Recovery middleware
// before this is ever reached.
func writeResult(w http.ResponseWriter, result *domain.OptimizationResult) {
	status := http.StatusOK
	if result.Status != domain.StatusSuccess {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, projectResult(result))
}

// resultResponse is the boundary projection of OptimizationResult: the
// wire field named "routes" mirrors the detailed routes, not the bare
// stop-id sequences, which remain internal.
type resultResponse struct {
	Status               string                 `json:"status"`
	Routes               []domain.DetailedRoute `json:"routes"`
	TotalDistance        float64                `json:"total_distance"`
	TotalCost            float64                `json:"total_cost"`
	AssignedVehicles     map[string]int         `json:"assigned_vehicles"`
	UnassignedDeliveries []string               `json:"unassigned_deliveries"`
	Statistics           map[string]any         `json:"statistics,omitempty"`
}

func projectResult(r *domain.OptimizationResult) resultResponse {
	routes := r.DetailedRoutes
	if routes == nil {
		routes = []domain.DetailedRoute{}
	}
	return resultResponse{
		Status:               r.Status,
		Routes:               routes,
		TotalDistance:        r.TotalDistance,
		TotalCost:            r.TotalCost,
		AssignedVehicles:     r.AssignedVehicles,
		UnassignedDeliveries: r.UnassignedDeliveries,
		Statistics:           r.Statistics,
	}
}

// badRequest reports a request-framing problem (unparseable body, unknown
// reroute type) that never reached the planning services.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"status":     domain.StatusError,
		"statistics": map[string]any{"error": msg},
	})
}
