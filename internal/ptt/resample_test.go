package ptt

import "testing"

func almostEqual(a, b float32) bool {
	const eps = 1e-4
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func TestResampleTo16kMonoStereoAtTargetRate(t *testing.T) {
	got := ResampleTo16kMono([]float32{1.0, -1.0, 0.5, 0.5}, 16000, 2)
	want := []float32{0.0, 0.5}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestResampleTo16kMonoDownsamplesFromHigherRate(t *testing.T) {
	got := ResampleTo16kMono([]float32{0.0, 1.0, 0.0, -1.0, 0.0}, 44100, 1)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2 (%v)", len(got), got)
	}
	if !almostEqual(got[0], 0.0) {
		t.Errorf("got[0] = %v, want ≈0.0", got[0])
	}
	if !almostEqual(got[1], -0.75625) {
		t.Errorf("got[1] = %v, want ≈-0.75625", got[1])
	}
}

func TestDownmixToMonoPassesMonoThrough(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	got := DownmixToMono(in, 1)
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], in[i])
		}
	}
}
