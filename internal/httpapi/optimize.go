package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/routingcore/routingcore/internal/domain"
	"github.com/routingcore/routingcore/internal/matrix"
	"github.com/routingcore/routingcore/internal/optimization"
)

// optimizeRequest is the POST /optimize body.
type optimizeRequest struct {
	Locations           []domain.Location `json:"locations"`
	Vehicles            []domain.Vehicle  `json:"vehicles"`
	Deliveries          []domain.Delivery `json:"deliveries"`
	ConsiderTraffic     bool              `json:"consider_traffic"`
	ConsiderTimeWindows bool              `json:"consider_time_windows"`
	UseAPI              bool              `json:"use_api"`
	APIKey              string            `json:"api_key"`
	TrafficData         *trafficData      `json:"traffic_data,omitempty"`
}

// trafficData accepts both wire shapes: parallel location_pairs/factors
// lists, or a segments map keyed "from_id-to_id".
type trafficData struct {
	LocationPairs [][2]string        `json:"location_pairs,omitempty"`
	Factors       []float64          `json:"factors,omitempty"`
	Segments      map[string]float64 `json:"segments,omitempty"`
}

// toFactorMap translates the accepted wire shapes into the internal
// directed-pair key form. Returns ok=false when the pairs/factors lists
// disagree in length.
func (t *trafficData) toFactorMap() (map[string]float64, bool) {
	if t == nil {
		return nil, true
	}
	factors := make(map[string]float64, len(t.LocationPairs)+len(t.Segments))

	if len(t.LocationPairs) != len(t.Factors) {
		return nil, false
	}
	for i, pair := range t.LocationPairs {
		factors[matrix.TrafficFactorKey(pair[0], pair[1])] = t.Factors[i]
	}

	for key, f := range t.Segments {
		from, to, ok := strings.Cut(key, "-")
		if !ok {
			continue
		}
		factors[matrix.TrafficFactorKey(from, to)] = f
	}

	return factors, true
}

func (h *Handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	factors, ok := req.TrafficData.toFactorMap()
	if !ok {
		badRequest(w, "traffic_data: location_pairs and factors must have equal length")
		return
	}

	started := time.Now()
	result := h.optimizer.Optimize(r.Context(), optimization.Request{
		Locations:           req.Locations,
		Vehicles:            req.Vehicles,
		Deliveries:          req.Deliveries,
		ConsiderTraffic:     req.ConsiderTraffic,
		ConsiderTimeWindows: req.ConsiderTimeWindows,
		TrafficFactors:      factors,
		UseAPI:              req.UseAPI,
		APIKey:              req.APIKey,
	})

	h.recordAudit(r, "/optimize", result, started, map[string]any{
		"deliveries": len(req.Deliveries),
		"vehicles":   len(req.Vehicles),
	})
	writeResult(w, result)
}
