package syncer

import (
	"encoding/json"
	"strings"
	"time"

	"pelosync/internal/classify"
	"pelosync/internal/peloton"
	"pelosync/internal/store"
)

// The provider presents workout dates in a fixed US Eastern view
// regardless of where the athlete lives. Completed dates follow that
// convention so local records line up with what the athlete sees.
var easternTime = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// completedDate renders a workout timestamp as the provider-visible day.
func completedDate(unixSec int64) string {
	return time.Unix(unixSec, 0).In(easternTime).Format("2006-01-02")
}

// canonicalTimestamp picks the workout's ordering timestamp: the created
// time when present, the start time otherwise. Some legacy records carry
// only one of the two.
func canonicalTimestamp(w *peloton.Workout) int64 {
	if w.CreatedAt > 0 {
		return w.CreatedAt
	}
	return w.StartTime
}

// samplesFromGraph flattens the parallel per-metric value arrays into row
// records aligned by index. A metric missing at an index stays nil.
func samplesFromGraph(workoutID string, g *peloton.PerformanceGraph) []store.PerformanceSample {
	samples := make([]store.PerformanceSample, 0, len(g.SecondsSinceStart))

	output := g.Metric("output")
	cadence := g.Metric("cadence")
	resistance := g.Metric("resistance")
	speed := g.Metric("speed")
	heartRate := g.Metric("heart_rate")

	for i, sec := range g.SecondsSinceStart {
		s := store.PerformanceSample{
			WorkoutRemoteID: workoutID,
			TimeOffset:      sec,
			Output:          metricAt(output, i),
			Cadence:         metricAt(cadence, i),
			Resistance:      metricAt(resistance, i),
			Speed:           metricAt(speed, i),
			HeartRate:       metricAt(heartRate, i),
		}
		if output != nil && i < len(output.Zones) {
			zone := output.Zones[i]
			s.Zone = &zone
		}
		samples = append(samples, s)
	}
	return samples
}

func metricAt(m *peloton.PerformanceMetric, i int) *float64 {
	if m == nil || i >= len(m.Values) {
		return nil
	}
	return m.Values[i]
}

// templateFromDetails builds the stored class template from the full ride
// detail response, running the classifier over the assembled metadata.
func templateFromDetails(d *peloton.RideDetails) (*store.ClassTemplate, error) {
	meta := classify.Metadata{
		Title:             d.Ride.Title,
		FitnessDiscipline: d.Ride.FitnessDiscipline,
		IsPowerZone:       d.Ride.IsPowerZone,
		ClassTypeIDs:      d.Ride.ClassTypeIDs,
	}

	var targetJSON, segmentsJSON string
	if d.TargetMetrics != nil {
		meta.PaceTargetType = d.TargetMetrics.PaceTargetType
		for _, tm := range d.TargetMetrics.TargetMetrics {
			meta.SegmentTypes = append(meta.SegmentTypes, tm.SegmentType)
		}
		data, err := json.Marshal(d.TargetMetrics)
		if err != nil {
			return nil, err
		}
		targetJSON = string(data)
	}
	if d.SegmentData != nil {
		data, err := json.Marshal(d.SegmentData)
		if err != nil {
			return nil, err
		}
		segmentsJSON = string(data)
	}

	tmpl := &store.ClassTemplate{
		RemoteID:          d.Ride.ID,
		Title:             d.Ride.Title,
		Description:       d.Ride.Description,
		Duration:          d.Ride.Duration,
		Discipline:        d.Ride.FitnessDiscipline,
		DifficultyRating:  d.Ride.Difficulty,
		DifficultyCount:   d.Ride.DifficultyCount,
		ImageURL:          d.Ride.ImageURL,
		InstructorID:      d.Ride.InstructorID,
		ClassType:         classify.ClassType(meta),
		TargetMetricsJSON: targetJSON,
		SegmentsJSON:      segmentsJSON,
		IsPowerZone:       d.Ride.IsPowerZone,
		IsArchived:        d.Ride.IsArchived,
	}
	if d.Ride.OriginalAirTime > 0 {
		air := time.Unix(d.Ride.OriginalAirTime, 0).UTC()
		tmpl.OriginalAirTime = &air
	}
	if d.Playlist != nil {
		tmpl.PlaylistID = d.Playlist.ID
	}
	return tmpl, nil
}

// playlistFromDetails flattens the playlist for storage, or nil when the
// class carries none.
func playlistFromDetails(d *peloton.RideDetails) (*store.Playlist, error) {
	if d.Playlist == nil || d.Playlist.ID == "" {
		return nil, nil
	}
	var tags []string
	for _, t := range d.Playlist.TopTags {
		tags = append(tags, t.Name)
	}
	songs, err := json.Marshal(d.Playlist.Songs)
	if err != nil {
		return nil, err
	}
	return &store.Playlist{
		RemoteID:  d.Playlist.ID,
		TopTags:   strings.Join(tags, ","),
		SongsJSON: string(songs),
	}, nil
}
