package ptt

import (
	"testing"
	"time"
)

func TestToggleDebounceRejectsWithinWindow(t *testing.T) {
	d := NewToggleDebounce(400 * time.Millisecond)
	base := time.Now()

	if !d.Allow(base) {
		t.Fatal("first Allow() = false, want true")
	}
	if d.Allow(base.Add(100 * time.Millisecond)) {
		t.Error("Allow() within window = true, want false")
	}
	if !d.Allow(base.Add(401 * time.Millisecond)) {
		t.Error("Allow() just past window = false, want true")
	}
}
