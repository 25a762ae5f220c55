package domain

import (
	"testing"
	"time"
)

func TestLocation_HasTimeWindow(t *testing.T) {
	start, end := 480, 1020
	withWindow := Location{TimeWindowStart: &start, TimeWindowEnd: &end}
	if !withWindow.HasTimeWindow() {
		t.Error("expected HasTimeWindow() true when both bounds set")
	}

	noWindow := Location{}
	if noWindow.HasTimeWindow() {
		t.Error("expected HasTimeWindow() false when bounds unset")
	}

	onlyStart := Location{TimeWindowStart: &start}
	if onlyStart.HasTimeWindow() {
		t.Error("expected HasTimeWindow() false when only start set")
	}
}

func TestVehicle_EffectiveEndLocationID(t *testing.T) {
	v := Vehicle{StartLocationID: "depot"}
	if got := v.EffectiveEndLocationID(); got != "depot" {
		t.Errorf("EffectiveEndLocationID() = %v, want depot", got)
	}

	v.EndLocationID = "depot2"
	if got := v.EffectiveEndLocationID(); got != "depot2" {
		t.Errorf("EffectiveEndLocationID() = %v, want depot2", got)
	}
}

func TestDelivery_SignedDemand(t *testing.T) {
	drop := Delivery{Demand: 10}
	if got := drop.SignedDemand(); got != 10 {
		t.Errorf("SignedDemand() = %v, want 10", got)
	}

	pickup := Delivery{Demand: 10, IsPickup: true}
	if got := pickup.SignedDemand(); got != -10 {
		t.Errorf("SignedDemand() = %v, want -10", got)
	}
}

func TestDistanceMatrix_IndexOf(t *testing.T) {
	m := &DistanceMatrix{LocationIDs: []string{"a", "b", "c"}}

	if got := m.IndexOf("b"); got != 1 {
		t.Errorf("IndexOf(b) = %v, want 1", got)
	}
	if got := m.IndexOf("z"); got != -1 {
		t.Errorf("IndexOf(z) = %v, want -1", got)
	}
	if got := m.Size(); got != 3 {
		t.Errorf("Size() = %v, want 3", got)
	}
	if m.HasTime() {
		t.Error("expected HasTime() false when Time is nil")
	}

	m.Time = [][]float64{{0}}
	if !m.HasTime() {
		t.Error("expected HasTime() true once Time is populated")
	}
}

func TestNewErrorResult(t *testing.T) {
	r := NewErrorResult([]string{"d1", "d2"}, "boom")

	if r.Status != StatusError {
		t.Errorf("Status = %v, want %v", r.Status, StatusError)
	}
	if len(r.UnassignedDeliveries) != 2 {
		t.Errorf("UnassignedDeliveries len = %d, want 2", len(r.UnassignedDeliveries))
	}
	if r.Statistics["error"] != "boom" {
		t.Errorf("Statistics[error] = %v, want boom", r.Statistics["error"])
	}
}

func TestNewFailedResult(t *testing.T) {
	r := NewFailedResult([]string{"d1"}, "no solution")
	if r.Status != StatusFailed {
		t.Errorf("Status = %v, want %v", r.Status, StatusFailed)
	}
}

func TestDistanceMatrixCacheEntry_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ttl := 30 * time.Minute

	stale := &DistanceMatrixCacheEntry{CreatedAt: now.Add(-31 * time.Minute)}
	if !stale.Expired(now, ttl) {
		t.Error("expected entry older than ttl to be expired")
	}

	fresh := &DistanceMatrixCacheEntry{CreatedAt: now.Add(-1 * time.Minute)}
	if fresh.Expired(now, ttl) {
		t.Error("expected fresh entry not to be expired")
	}
}
