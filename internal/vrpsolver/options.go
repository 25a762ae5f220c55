// Package vrpsolver wraps the nextmv-io/sdk constraint-programming router
// into the capacity/pickup-delivery/time-window/global-span VRP contract
// used by the optimization pipeline.
package vrpsolver

import (
	"time"

	"github.com/routingcore/routingcore/internal/config"
	"github.com/routingcore/routingcore/internal/domain"
)

// Options configures a single Solve/SolveWithTimeWindows call.
type Options struct {
	MaxDuration           time.Duration
	Threads               int
	DistanceScalingFactor int
	CapacityScalingFactor int
	TimeScalingFactor     int
	MaxSafeDistance       float64
	MaxSafeTimeMinutes    int
	SlackMinutes          int
	AverageSpeedKMH       float64
}

// DefaultOptions mirrors the scaling constants the rest of the pipeline
// uses, so a caller that does not load config still gets a consistent
// integer encoding.
func DefaultOptions() Options {
	return Options{
		MaxDuration:           30 * time.Second,
		Threads:               1,
		DistanceScalingFactor: domain.DistanceScalingFactor,
		CapacityScalingFactor: domain.CapacityScalingFactor,
		TimeScalingFactor:     domain.TimeScalingFactor,
		MaxSafeDistance:       domain.MaxSafeDistance,
		MaxSafeTimeMinutes:    domain.MaxSafeTime,
		SlackMinutes:          60,
		AverageSpeedKMH:       40,
	}
}

// FromConfig builds Options from the loaded solver configuration section.
func FromConfig(cfg config.SolverConfig) Options {
	opts := DefaultOptions()
	if cfg.MaxDuration > 0 {
		opts.MaxDuration = cfg.MaxDuration
	}
	if cfg.Threads > 0 {
		opts.Threads = cfg.Threads
	}
	if cfg.DistanceScalingFactor > 0 {
		opts.DistanceScalingFactor = cfg.DistanceScalingFactor
	}
	if cfg.CapacityScalingFactor > 0 {
		opts.CapacityScalingFactor = cfg.CapacityScalingFactor
	}
	if cfg.TimeScalingFactor > 0 {
		opts.TimeScalingFactor = cfg.TimeScalingFactor
	}
	if cfg.MaxSafeDistance > 0 {
		opts.MaxSafeDistance = cfg.MaxSafeDistance
	}
	if cfg.MaxSafeTimeMinutes > 0 {
		opts.MaxSafeTimeMinutes = cfg.MaxSafeTimeMinutes
	}
	return opts
}
