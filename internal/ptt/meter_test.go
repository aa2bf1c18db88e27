package ptt

import (
	"math"
	"testing"
)

func TestMeterReportsSilenceForEmptySamples(t *testing.T) {
	m := NewLevelMeter()
	m.Update(nil)

	got := m.Reading()
	if got != Silence() {
		t.Errorf("Reading() = %+v, want silence", got)
	}
}

func TestMeterComputesPeakAndRMS(t *testing.T) {
	m := NewLevelMeter()
	block := []float32{0.5, -0.5, 0.25}
	m.Update(block)

	got := m.Reading()
	wantRMS := math.Sqrt((0.25 + 0.25 + 0.0625) / 3)
	if math.Abs(got.RMS-wantRMS) > 1e-6 {
		t.Errorf("RMS = %v, want %v", got.RMS, wantRMS)
	}
	if got.Peak != 0.5 {
		t.Errorf("Peak = %v, want 0.5", got.Peak)
	}
	if got.Clipped {
		t.Error("Clipped = true, want false")
	}
}

func TestMeterFlagsClipping(t *testing.T) {
	m := NewLevelMeter()
	m.Update([]float32{0.1, 1.0, -0.2})

	if !m.Reading().Clipped {
		t.Error("Clipped = false, want true for a sample at |1.0|")
	}
}

func TestMeterIgnoresNonFiniteSamples(t *testing.T) {
	m := NewLevelMeter()
	m.Update([]float32{float32(math.NaN()), float32(math.Inf(1)), 0.5})

	got := m.Reading()
	if got.Peak != 0.5 {
		t.Errorf("Peak = %v, want 0.5 (non-finite samples ignored)", got.Peak)
	}
}

func TestMeterEmptyUpdateLeavesReadingUnchanged(t *testing.T) {
	m := NewLevelMeter()
	m.Update([]float32{0.2, 0.4})
	before := m.Reading()

	m.Update(nil)

	if m.Reading() != before {
		t.Errorf("Reading() changed after empty update: %+v -> %+v", before, m.Reading())
	}
}
