package syncer

import (
	"encoding/json"
	"testing"

	"pelosync/internal/peloton"
)

func TestSamplesFromGraphAlignment(t *testing.T) {
	raw := `{
		"duration": 15,
		"seconds_since_pedaling_start": [0, 5, 10],
		"metrics": [
			{"slug": "output", "values": [100, null, 180], "zones": [1, 2]},
			{"slug": "heart_rate", "values": [110]}
		]
	}`
	var g peloton.PerformanceGraph
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}

	samples := samplesFromGraph("w-1", &g)
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}

	if samples[0].TimeOffset != 0 || samples[1].TimeOffset != 5 || samples[2].TimeOffset != 10 {
		t.Errorf("offsets not aligned to timestamp array: %+v", samples)
	}
	if samples[0].Output == nil || *samples[0].Output != 100 {
		t.Errorf("sample 0 output = %v, want 100", samples[0].Output)
	}
	if samples[1].Output != nil {
		t.Error("null metric value should stay nil")
	}
	// Arrays shorter than the timestamp array run out of values, not index.
	if samples[1].HeartRate != nil || samples[2].HeartRate != nil {
		t.Error("short heart rate array should yield nil past its end")
	}
	if samples[0].Zone == nil || *samples[0].Zone != 1 {
		t.Errorf("sample 0 zone = %v, want 1", samples[0].Zone)
	}
	if samples[2].Zone != nil {
		t.Error("zone past the zones array end should be nil")
	}
	if samples[0].Cadence != nil {
		t.Error("absent metric should be nil throughout")
	}
}

func TestCompletedDateEasternView(t *testing.T) {
	tests := []struct {
		name    string
		unixSec int64
		want    string
	}{
		// 2026-01-15 03:30 UTC is still 2026-01-14 in New York.
		{"utc morning is previous eastern day", 1768447800, "2026-01-14"},
		// 2026-01-15 17:00 UTC is 12:00 in New York, same day.
		{"midday matches", 1768496400, "2026-01-15"},
		// 2026-07-01 03:30 UTC during DST is 2026-06-30 23:30 eastern.
		{"dst offset applies", 1782876600, "2026-06-30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := completedDate(tt.unixSec); got != tt.want {
				t.Errorf("completedDate(%d) = %q, want %q", tt.unixSec, got, tt.want)
			}
		})
	}
}

func TestCanonicalTimestamp(t *testing.T) {
	both := &peloton.Workout{CreatedAt: 100, StartTime: 200}
	if got := canonicalTimestamp(both); got != 100 {
		t.Errorf("created should win, got %d", got)
	}
	startOnly := &peloton.Workout{StartTime: 200}
	if got := canonicalTimestamp(startOnly); got != 200 {
		t.Errorf("start should back-fill, got %d", got)
	}
}

func TestTemplateFromDetailsClassifies(t *testing.T) {
	d := &peloton.RideDetails{
		Ride: peloton.Ride{
			ID:                "ride-1",
			Title:             "30 min Pace Target Run",
			Duration:          1800,
			FitnessDiscipline: "running",
		},
		TargetMetrics: &peloton.TargetMetrics{
			PaceTargetType: "pace_intensity",
			TargetMetrics: []peloton.TargetMetric{
				{SegmentType: "running", Metrics: []peloton.MetricRange{{Name: "pace_intensity"}}},
			},
		},
	}
	tmpl, err := templateFromDetails(d)
	if err != nil {
		t.Fatalf("templateFromDetails: %v", err)
	}
	if tmpl.ClassType != "pace_target" {
		t.Errorf("class type %q, want pace_target", tmpl.ClassType)
	}
	if tmpl.TargetMetricsJSON == "" {
		t.Error("target metrics plan not preserved")
	}
}
