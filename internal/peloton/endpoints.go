package peloton

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Me fetches the current user's identity.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.GetJSON(ctx, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Workouts iterates the user's workout list, newest first, with the ride
// summary joined into each record.
func (c *Client) Workouts(userID string, pageSize int) *Iterator {
	params := url.Values{}
	params.Set("joins", "ride")
	params.Set("sort_by", "-created")
	return c.Iterate("/api/user/"+userID+"/workouts", params, pageSize, 0)
}

// WorkoutDetail fetches a single workout with its ride joined.
func (c *Client) WorkoutDetail(ctx context.Context, workoutID string) (*Workout, error) {
	params := url.Values{}
	params.Set("joins", "ride")
	var w Workout
	if err := c.GetJSON(ctx, "/api/workout/"+workoutID, params, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// RideDetails fetches the full class detail: ride, target metrics plan,
// segment structure and playlist.
func (c *Client) RideDetails(ctx context.Context, rideID string) (*RideDetails, error) {
	var d RideDetails
	if err := c.GetJSON(ctx, "/api/ride/"+rideID+"/details", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// PerformanceGraph fetches the workout's time series sampled every
// intervalS seconds (the provider's default is 5).
func (c *Client) PerformanceGraph(ctx context.Context, workoutID string, intervalS int) (*PerformanceGraph, error) {
	params := url.Values{}
	params.Set("every_n", strconv.Itoa(intervalS))
	var g PerformanceGraph
	if err := c.GetJSON(ctx, "/api/workout/"+workoutID+"/performance_graph", params, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Instructor fetches one instructor.
func (c *Client) Instructor(ctx context.Context, instructorID string) (*Instructor, error) {
	var i Instructor
	if err := c.GetJSON(ctx, "/api/instructor/"+instructorID, nil, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// Instructors iterates the instructor list.
func (c *Client) Instructors(pageSize int) *Iterator {
	return c.Iterate("/api/instructor", nil, pageSize, 0)
}

// ArchivedRides iterates the archived class library for one discipline.
//
// The endpoint accepts date filters in the query string but silently
// ignores them; callers needing date-bounded results must filter with
// RideAfter on each record and stop iterating once records are provably
// older than the lower bound (records arrive newest-first).
func (c *Client) ArchivedRides(discipline string, pageSize, maxPages int) *Iterator {
	params := url.Values{}
	params.Set("browse_category", discipline)
	params.Set("content_format", "audio,video")
	params.Set("sort_by", "original_air_time")
	params.Set("desc", "true")
	return c.Iterate("/api/v2/ride/archived", params, pageSize, maxPages)
}

// RideAfter reports whether a raw archived-ride record aired strictly
// after the given unix timestamp. Malformed records count as not-after.
func RideAfter(record json.RawMessage, unixSec int64) bool {
	var r struct {
		OriginalAirTime int64 `json:"original_air_time"`
	}
	if err := json.Unmarshal(record, &r); err != nil {
		return false
	}
	return r.OriginalAirTime > unixSec
}

// DecodeWorkout decodes a workout-list record.
func DecodeWorkout(record json.RawMessage) (*Workout, error) {
	var w Workout
	if err := json.Unmarshal(record, &w); err != nil {
		return nil, fmt.Errorf("decoding workout record: %w", err)
	}
	return &w, nil
}

// DecodeRide decodes an archived-ride record.
func DecodeRide(record json.RawMessage) (*Ride, error) {
	var r Ride
	if err := json.Unmarshal(record, &r); err != nil {
		return nil, fmt.Errorf("decoding ride record: %w", err)
	}
	return &r, nil
}
