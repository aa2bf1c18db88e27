package ptt

import "math"

// LevelReading is a snapshot of a rolling audio level meter.
type LevelReading struct {
	RMS     float64
	Peak    float64
	Clipped bool
}

// Silence is the reading a meter reports before any samples arrive.
func Silence() LevelReading {
	return LevelReading{}
}

// LevelMeter folds successive sample blocks into an rms/peak/clipped
// reading. Non-finite samples are discarded; an empty block leaves the
// reading unchanged.
type LevelMeter struct {
	reading LevelReading
}

// NewLevelMeter returns a meter reporting silence.
func NewLevelMeter() *LevelMeter {
	return &LevelMeter{reading: Silence()}
}

// Reset returns the meter to silence.
func (m *LevelMeter) Reset() {
	m.reading = Silence()
}

// Update folds block into the meter's current reading.
func (m *LevelMeter) Update(block []float32) {
	if len(block) == 0 {
		return
	}

	var sumSquares float64
	var peak float64
	var clipped bool
	var n int

	for _, s := range block {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		abs := math.Abs(v)
		if abs > peak {
			peak = abs
		}
		if abs >= 1 {
			clipped = true
		}
		sumSquares += v * v
		n++
	}

	if n == 0 {
		return
	}

	rms := math.Sqrt(sumSquares / float64(n))
	m.reading = LevelReading{RMS: rms, Peak: peak, Clipped: clipped}
}

// Reading returns the meter's current snapshot.
func (m *LevelMeter) Reading() LevelReading {
	return m.reading
}
