package peloton

// User is the current-user identity response.
type User struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Location        string `json:"location"`
	CyclingFTP      int    `json:"cycling_workout_ftp"`
	EstimatedFTP    int    `json:"estimated_cycling_ftp"`
	TotalWorkouts   int    `json:"total_workouts"`
	DefaultHeartMax int    `json:"default_max_heart_rate"`
}

// Workout is one entry of the user workout list (joined with its ride).
type Workout struct {
	ID                string       `json:"id"`
	UserID            string       `json:"user_id"`
	CreatedAt         int64        `json:"created_at"` // unix seconds
	StartTime         int64        `json:"start_time"` // unix seconds
	EndTime           int64        `json:"end_time"`
	Status            string       `json:"status"`
	FitnessDiscipline string       `json:"fitness_discipline"`
	WorkoutType       string       `json:"workout_type"`
	Ride              *RideSummary `json:"ride"`
	FTPInfo           *FTPInfo     `json:"ftp_info"`
}

// FTPInfo is the FTP in effect when the workout was taken.
type FTPInfo struct {
	FTP       int    `json:"ftp"`
	FTPSource string `json:"ftp_source"`
}

// RideSummary is the joined ride stub in a workout list entry.
// The id may be absent for free-ride workouts.
type RideSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

// Ride is the full class description.
type Ride struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Duration          int      `json:"duration"` // seconds
	FitnessDiscipline string   `json:"fitness_discipline"`
	Difficulty        float64  `json:"difficulty_rating_avg"`
	DifficultyCount   int      `json:"difficulty_rating_count"`
	ImageURL          string   `json:"image_url"`
	OriginalAirTime   int64    `json:"original_air_time"` // unix seconds
	InstructorID      string   `json:"instructor_id"`
	ClassTypeIDs      []string `json:"class_type_ids"`
	IsPowerZone       bool     `json:"is_power_zone"`
	IsArchived        bool     `json:"is_archived"`
}

// RideDetails is the class detail response: the ride plus its plan.
type RideDetails struct {
	Ride          Ride           `json:"ride"`
	TargetMetrics *TargetMetrics `json:"target_metrics_data"`
	SegmentData   *SegmentData   `json:"segments"`
	Playlist      *Playlist      `json:"playlist"`
}

// TargetMetrics is the structured per-segment metric plan.
type TargetMetrics struct {
	TargetMetrics  []TargetMetric `json:"target_metrics"`
	PaceTargetType string         `json:"pace_target_type"`
}

// TargetMetric is one planned segment with its metric ranges.
type TargetMetric struct {
	Offsets     Offsets       `json:"offsets"`
	SegmentType string        `json:"segment_type"`
	Metrics     []MetricRange `json:"metrics"`
}

// Offsets bound a planned segment in seconds from class start.
type Offsets struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MetricRange is a named target band within a segment.
type MetricRange struct {
	Name  string  `json:"name"`
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
}

// SegmentData is the ordered warm-up/main/cool-down block list.
type SegmentData struct {
	Segments []Segment `json:"segment_list"`
}

// Segment is one block of the class structure.
type Segment struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Length          int    `json:"length"` // seconds
	StartTimeOffset int    `json:"start_time_offset"`
	Intensity       string `json:"intensity_in_mets"`
	MetricsType     string `json:"metrics_type"`
}

// Playlist is the class's music playlist.
type Playlist struct {
	ID        string `json:"id"`
	TopTags   []Tag  `json:"top_tags"`
	Songs     []Song `json:"songs"`
	IsInClass bool   `json:"is_playlist_shown"`
}

// Tag is a playlist genre tag.
type Tag struct {
	Name string `json:"tag_name"`
}

// Song is one playlist entry.
type Song struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artists []Artist `json:"artists"`
}

// Artist credits a song.
type Artist struct {
	Name string `json:"artist_name"`
}

// Instructor describes a class instructor.
type Instructor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	Bio      string `json:"bio"`
}

// PerformanceGraph is the per-workout time series: parallel per-metric
// value arrays aligned by index against a shared timestamp array.
type PerformanceGraph struct {
	Duration            int                 `json:"duration"`
	SecondsSinceStart   []int               `json:"seconds_since_pedaling_start"`
	Metrics             []PerformanceMetric `json:"metrics"`
	AverageSummaries    []MetricSummary     `json:"average_summaries"`
	EffortZones         *EffortZones        `json:"effort_zones"`
	SampleIntervalS     int                 `json:"segment_length"`
	IsLocationDataValid bool                `json:"is_location_data_accurate"`
}

// PerformanceMetric is one metric's value array. Values are pointers:
// a metric absent at a given index is null, not zero.
type PerformanceMetric struct {
	DisplayName string     `json:"display_name"`
	Slug        string     `json:"slug"` // output, cadence, resistance, speed, heart_rate
	DisplayUnit string     `json:"display_unit"`
	Values      []*float64 `json:"values"`
	// Zones carries the provider's precomputed per-sample zone tags
	// when the class was zone-scored server side.
	Zones []int `json:"zones"`
}

// MetricSummary is a whole-workout aggregate for one metric.
type MetricSummary struct {
	DisplayName string  `json:"display_name"`
	Slug        string  `json:"slug"`
	Value       float64 `json:"value"`
}

// EffortZones is the provider's own zone scoring summary.
type EffortZones struct {
	TotalEffortPoints     float64            `json:"total_effort_points"`
	HeartRateZoneDuration map[string]float64 `json:"heart_rate_zone_durations"`
}

// Metric finds a metric by slug, or nil.
func (g *PerformanceGraph) Metric(slug string) *PerformanceMetric {
	for i := range g.Metrics {
		if g.Metrics[i].Slug == slug {
			return &g.Metrics[i]
		}
	}
	return nil
}
