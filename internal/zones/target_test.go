package zones

import (
	"testing"
	"time"

	"pelosync/internal/config"
	"pelosync/internal/peloton"
	"pelosync/internal/store"
)

func planFixture() *peloton.TargetMetrics {
	return &peloton.TargetMetrics{
		TargetMetrics: []peloton.TargetMetric{
			{
				Offsets:     peloton.Offsets{Start: 60, End: 360},
				SegmentType: "cycling",
				Metrics:     []peloton.MetricRange{{Name: "power_zone", Lower: 2, Upper: 2}},
			},
			{
				Offsets:     peloton.Offsets{Start: 360, End: 660},
				SegmentType: "cycling",
				Metrics:     []peloton.MetricRange{{Name: "power_zone", Lower: 3, Upper: 4}},
			},
		},
	}
}

func TestPowerTargetLine(t *testing.T) {
	plan := planFixture()
	// With the 60 s shift, sample offset 0 lands in the plan at 60.
	line := PowerTargetLine(plan, []int{0, 150, 300, 500, 700}, 300)
	if len(line) != 5 {
		t.Fatalf("got %d points, want 5", len(line))
	}

	// Zone 2 band at FTP 300 is [165, 225]; midpoint 195.
	if line[0].Target != 195 {
		t.Errorf("offset 0 target %v, want 195 (zone 2 midpoint)", line[0].Target)
	}
	if line[1].Target != 195 {
		t.Errorf("offset 150 target %v, want 195", line[1].Target)
	}
	// Offset 300 shifts to plan 360: the zone 3-4 segment. Combined
	// band [225, 315]; midpoint 270.
	if line[2].Target != 270 {
		t.Errorf("offset 300 target %v, want 270", line[2].Target)
	}
	if line[3].Target != 270 {
		t.Errorf("offset 500 target %v, want 270", line[3].Target)
	}
	// Offset 700 shifts past the plan's end.
	if line[4].Target != 0 {
		t.Errorf("offset 700 target %v, want 0 outside the plan", line[4].Target)
	}
}

func TestPaceTargetLine(t *testing.T) {
	plan := &peloton.TargetMetrics{
		PaceTargetType: "pace_intensity",
		TargetMetrics: []peloton.TargetMetric{
			{
				Offsets: peloton.Offsets{Start: 60, End: 360},
				Metrics: []peloton.MetricRange{{Name: "pace_intensity", Lower: 2, Upper: 4}},
			},
		},
	}
	table := map[int]float64{1: 3.5, 2: 5.0, 3: 6.5, 4: 8.0, 5: 9.5, 6: 11.0, 7: 12.5}

	line := PaceTargetLine(plan, []int{0, 200, 400}, table)
	// Levels 2 and 4 average to (5.0 + 8.0) / 2.
	if line[0].Target != 6.5 {
		t.Errorf("offset 0 target %v, want 6.5", line[0].Target)
	}
	if line[1].Target != 6.5 {
		t.Errorf("offset 200 target %v, want 6.5", line[1].Target)
	}
	if line[2].Target != 0 {
		t.Errorf("offset 400 target %v, want 0 outside the plan", line[2].Target)
	}

	// No pace table recorded: the line is flat zero rather than wrong.
	line = PaceTargetLine(plan, []int{0}, nil)
	if line[0].Target != 0 {
		t.Errorf("nil table target %v, want 0", line[0].Target)
	}
}

func TestEngineTargetLineUsesHistoricFTP(t *testing.T) {
	s := store.NewTestStore(t)
	c, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}

	err = s.UpsertClassTemplate(&store.ClassTemplate{
		RemoteID: "ride-1", Title: "45 min Power Zone Ride", Duration: 2700,
		Discipline: "cycling", ClassType: "power_zone", IsPowerZone: true,
		TargetMetricsJSON: `{"target_metrics":[{"offsets":{"start":60,"end":360},"segment_type":"cycling","metrics":[{"name":"power_zone","lower":2,"upper":2}]}]}`,
	})
	if err != nil {
		t.Fatalf("seeding class: %v", err)
	}

	started := time.Date(2026, 2, 5, 14, 0, 0, 0, time.UTC)
	// The instance carries no FTP: the engine must use the history at
	// the workout's date, not a later value.
	if _, err := s.UpsertWorkoutInstance(&store.WorkoutInstance{
		RemoteID: "w-1", ConnectionID: c.ID, ClassRemoteID: "ride-1",
		RecordedAt: started, StartedAt: started, CompletedDate: "2026-02-05",
		Discipline: "cycling",
	}); err != nil {
		t.Fatalf("seeding workout: %v", err)
	}
	if err := s.RecordFTP(c.ID, "2026-01-01", 300); err != nil {
		t.Fatalf("RecordFTP: %v", err)
	}
	if err := s.RecordFTP(c.ID, "2026-03-01", 400); err != nil {
		t.Fatalf("RecordFTP: %v", err)
	}
	if err := s.ReplaceSamples("w-1", []store.PerformanceSample{
		{TimeOffset: 0, Output: floatPtr(200)},
		{TimeOffset: 60, Output: floatPtr(200)},
	}); err != nil {
		t.Fatalf("ReplaceSamples: %v", err)
	}

	cfg := config.DefaultConfig()
	e := NewEngine(s, &cfg)
	line, err := e.TargetLine("w-1")
	if err != nil {
		t.Fatalf("TargetLine: %v", err)
	}
	if len(line) != 2 {
		t.Fatalf("got %d points, want 2", len(line))
	}
	// FTP in effect on 2026-02-05 is 300, so zone 2 midpoint is 195.
	// With the later 400 value it would be 260.
	if line[0].Target != 195 {
		t.Errorf("target %v, want 195 from the FTP in effect on the workout date", line[0].Target)
	}
}

func TestEngineTargetLineNoPlan(t *testing.T) {
	s := store.NewTestStore(t)
	c, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	err = s.UpsertClassTemplate(&store.ClassTemplate{
		RemoteID: "ride-plain", Title: "30 min Climb Ride", Duration: 1800,
		Discipline: "cycling", ClassType: "climb",
	})
	if err != nil {
		t.Fatalf("seeding class: %v", err)
	}
	started := time.Date(2026, 2, 5, 14, 0, 0, 0, time.UTC)
	if _, err := s.UpsertWorkoutInstance(&store.WorkoutInstance{
		RemoteID: "w-plain", ConnectionID: c.ID, ClassRemoteID: "ride-plain",
		RecordedAt: started, StartedAt: started, CompletedDate: "2026-02-05",
		Discipline: "cycling", FTP: 300,
	}); err != nil {
		t.Fatalf("seeding workout: %v", err)
	}

	cfg := config.DefaultConfig()
	e := NewEngine(s, &cfg)
	line, err := e.TargetLine("w-plain")
	if err != nil {
		t.Fatalf("TargetLine: %v", err)
	}
	if line != nil {
		t.Errorf("class without a plan produced a line: %v", line)
	}
}
