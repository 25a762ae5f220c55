package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/routingcore/routingcore/internal/domain"
	"github.com/routingcore/routingcore/internal/externaldata"
	"github.com/routingcore/routingcore/internal/logging"
)

// rerouteRequest is the POST /reroute body. current_routes carries back the
// detailed routes the caller received from a previous /optimize response.
type rerouteRequest struct {
	CurrentRoutes       []domain.DetailedRoute `json:"current_routes"`
	Locations           []domain.Location      `json:"locations"`
	Vehicles            []domain.Vehicle       `json:"vehicles"`
	OriginalDeliveries  []domain.Delivery      `json:"original_deliveries"`
	CompletedDeliveries []domain.Delivery      `json:"completed_deliveries"`
	RerouteType         string                 `json:"reroute_type"`
	TrafficData         *trafficData           `json:"traffic_data,omitempty"`
	DelayedLocationIDs  []string               `json:"delayed_location_ids,omitempty"`
	DelayMinutes        map[string]int         `json:"delay_minutes,omitempty"`
	BlockedSegments     [][2]string            `json:"blocked_segments,omitempty"`
}

func (h *Handler) handleReroute(w http.ResponseWriter, r *http.Request) {
	var req rerouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	current := &domain.OptimizationResult{
		Status:         domain.StatusSuccess,
		DetailedRoutes: req.CurrentRoutes,
	}

	started := time.Now()
	var result *domain.OptimizationResult
	switch req.RerouteType {
	case "traffic":
		factors, ok := req.TrafficData.toFactorMap()
		if !ok {
			badRequest(w, "traffic_data: location_pairs and factors must have equal length")
			return
		}
		if req.TrafficData == nil && h.externalData != nil {
			factors = h.collectTrafficConditions(r.Context(), req.Locations)
		}
		result = h.rerouter.RerouteForTraffic(r.Context(), current, req.Locations, req.Vehicles, req.OriginalDeliveries, req.CompletedDeliveries, factors)
	case "delay":
		result = h.rerouter.RerouteForDelay(r.Context(), current, req.Locations, req.Vehicles, req.OriginalDeliveries, req.CompletedDeliveries, req.DelayedLocationIDs, req.DelayMinutes)
	case "roadblock":
		result = h.rerouter.RerouteForRoadblock(r.Context(), current, req.Locations, req.Vehicles, req.OriginalDeliveries, req.CompletedDeliveries, req.BlockedSegments)
	default:
		badRequest(w, "reroute_type must be one of: traffic, delay, roadblock")
		return
	}

	h.recordAudit(r, "/reroute", result, started, map[string]any{
		"reroute_type":         req.RerouteType,
		"completed_deliveries": len(req.CompletedDeliveries),
	})
	writeResult(w, result)
}

// collectTrafficConditions asks the external data provider for current
// traffic and weather and merges them into one factor map. Used only when
// the caller supplied no traffic_data of its own.
func (h *Handler) collectTrafficConditions(ctx context.Context, locations []domain.Location) map[string]float64 {
	ids := make([]string, len(locations))
	for i, loc := range locations {
		ids[i] = loc.ID
	}

	traffic, err := h.externalData.TrafficFactors(ctx, ids)
	if err != nil {
		logging.Warn("external traffic fetch failed, rerouting without factors", "error", err)
		return nil
	}
	weather, err := h.externalData.WeatherImpact(ctx, ids)
	if err != nil {
		logging.Warn("external weather fetch failed, using traffic factors alone", "error", err)
		return traffic
	}
	return externaldata.CombineTrafficAndWeather(traffic, weather, ids)
}
