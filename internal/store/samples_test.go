package store

import (
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func makeSamples(workoutID string, n int) []PerformanceSample {
	samples := make([]PerformanceSample, n)
	for i := range samples {
		samples[i] = PerformanceSample{
			WorkoutRemoteID: workoutID,
			TimeOffset:      i * 5,
			Output:          floatPtr(float64(150 + i)),
			Cadence:         floatPtr(85),
		}
	}
	return samples
}

func TestReplaceSamplesWholesale(t *testing.T) {
	s := NewTestStore(t)
	c, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	seedWorkout(t, s, c.ID, "workout-1", "class-1", "2026-01-15")

	if err := s.ReplaceSamples("workout-1", makeSamples("workout-1", 100)); err != nil {
		t.Fatalf("first ReplaceSamples: %v", err)
	}
	count, err := s.CountSamples("workout-1")
	if err != nil {
		t.Fatalf("CountSamples: %v", err)
	}
	if count != 100 {
		t.Fatalf("got %d samples, want 100", count)
	}

	// A shorter re-fetch fully replaces the old series, leaving no
	// leftover tail rows.
	if err := s.ReplaceSamples("workout-1", makeSamples("workout-1", 80)); err != nil {
		t.Fatalf("second ReplaceSamples: %v", err)
	}
	count, err = s.CountSamples("workout-1")
	if err != nil {
		t.Fatalf("CountSamples: %v", err)
	}
	if count != 80 {
		t.Errorf("got %d samples after replacement, want 80", count)
	}
}

func TestGetSamplesOrdered(t *testing.T) {
	s := NewTestStore(t)
	c, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	seedWorkout(t, s, c.ID, "workout-1", "class-1", "2026-01-15")

	// Insert out of order; reads must come back by time offset.
	in := []PerformanceSample{
		{TimeOffset: 10, Output: floatPtr(200)},
		{TimeOffset: 0, Output: floatPtr(100)},
		{TimeOffset: 5, HeartRate: floatPtr(140)},
	}
	if err := s.ReplaceSamples("workout-1", in); err != nil {
		t.Fatalf("ReplaceSamples: %v", err)
	}

	got, err := s.GetSamples("workout-1")
	if err != nil {
		t.Fatalf("GetSamples: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d samples, want 3", len(got))
	}
	for i, want := range []int{0, 5, 10} {
		if got[i].TimeOffset != want {
			t.Errorf("sample %d at offset %d, want %d", i, got[i].TimeOffset, want)
		}
	}
	if got[1].Output != nil {
		t.Error("absent output should read back as nil")
	}
	if got[1].HeartRate == nil || *got[1].HeartRate != 140 {
		t.Errorf("heart rate did not round trip: %v", got[1].HeartRate)
	}
}

func TestSamplesEmptyReplace(t *testing.T) {
	s := NewTestStore(t)
	c, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	seedWorkout(t, s, c.ID, "workout-1", "class-1", "2026-01-15")

	if err := s.ReplaceSamples("workout-1", makeSamples("workout-1", 10)); err != nil {
		t.Fatalf("ReplaceSamples: %v", err)
	}
	if err := s.ReplaceSamples("workout-1", nil); err != nil {
		t.Fatalf("empty ReplaceSamples: %v", err)
	}
	count, err := s.CountSamples("workout-1")
	if err != nil {
		t.Fatalf("CountSamples: %v", err)
	}
	if count != 0 {
		t.Errorf("got %d samples, want 0", count)
	}
}
