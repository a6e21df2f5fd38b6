package poi

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nvr-ai/go-depthtrack/depth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddScalesNormalizedPosition(t *testing.T) {
	r := NewRegistry()
	p := r.Add("zoneA", 0.5, 0.5, 20)

	want := PointOfInterest{ID: "zoneA", Position: image.Pt(320, 240), Radius: 20}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("Add() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]PointOfInterest{want}, r.All()); diff != "" {
		t.Fatalf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestAddAcceptsDuplicatesAndOddValues(t *testing.T) {
	r := NewRegistry()
	r.Add("dup", 0.1, 0.1, 5)
	r.Add("dup", 0.1, 0.1, 5)
	r.Add("outside", 1.5, -0.25, -3)

	require.Equal(t, 3, r.Len())
	all := r.All()
	assert.Equal(t, image.Pt(960, -120), all[2].Position)
	assert.Equal(t, int32(-3), all[2].Radius)
}

func TestAccumulate(t *testing.T) {
	r := NewRegistryWithSize(100, 100)
	r.Add("center", 0.5, 0.5, 2)

	r.Accumulate(50, 50)
	r.Accumulate(52, 50) // on the radius
	r.Accumulate(52, 51) // outside: 4+1 > 4
	r.Accumulate(0, 0)

	assert.Equal(t, uint16(2), r.All()[0].TriggerCount)
}

func TestAccumulateFreezesAtThreshold(t *testing.T) {
	r := NewRegistryWithSize(100, 100)
	r.Add("a", 0.5, 0.5, 10)

	for i := 0; i < FireThreshold*3; i++ {
		r.Accumulate(50, 50)
	}

	p := r.All()[0]
	assert.Equal(t, uint16(FireThreshold), p.TriggerCount)
	assert.True(t, p.Armed())
}

func TestResetAllTriggers(t *testing.T) {
	r := NewRegistryWithSize(100, 100)
	r.Add("a", 0.5, 0.5, 10)
	r.Add("b", 0.1, 0.1, 1)
	for i := 0; i < 25; i++ {
		r.Accumulate(50, 50)
		r.Accumulate(10, 10)
	}

	r.ResetAllTriggers()

	for _, p := range r.All() {
		assert.Zero(t, p.TriggerCount, p.ID)
	}
	assert.Empty(t, r.Armed())
}

func TestStatisticsPassArmsPointsOfInterest(t *testing.T) {
	r := NewRegistry()
	r.Add("near", 0.5, 0.5, 20)
	r.Add("far", 0.1, 0.1, 20)

	// Every pixel is beyond the near-range threshold, so the first point
	// saturates at the threshold and stops counting.
	depth.ComputeStats(depth.Filled(depth.Resolution), 0, r)

	all := r.All()
	assert.Equal(t, uint16(FireThreshold), all[0].TriggerCount)
	assert.Equal(t, uint16(FireThreshold), all[1].TriggerCount)

	r.ResetAllTriggers()

	// A single qualifying pixel counts once.
	f := depth.NewFrame()
	f.Set(320, 240, depth.Resolution)
	depth.ComputeStats(f, 0, r)

	all = r.All()
	assert.Equal(t, uint16(1), all[0].TriggerCount)
	assert.Zero(t, all[1].TriggerCount)

	armed := r.Armed()
	assert.Empty(t, armed)
}

func TestArmedKeepsInsertionOrder(t *testing.T) {
	r := NewRegistryWithSize(10, 10)
	r.Add("first", 0, 0, 0)
	r.Add("second", 0.5, 0.5, 0)
	r.Add("third", 0, 0, 0)
	for i := 0; i < FireThreshold; i++ {
		r.Accumulate(0, 0)
	}

	armed := r.Armed()
	require.Len(t, armed, 2)
	assert.Equal(t, "first", armed[0].ID)
	assert.Equal(t, "third", armed[1].ID)
}
