package store

import "time"

// Connection is one local account's link to the remote platform.
// Credential and token fields are plaintext here; they are encrypted on
// the way into the database and decrypted on the way out.
type Connection struct {
	ID           int64
	LocalUser    string
	RemoteUserID string
	Active       bool

	Username string
	Password string

	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time

	SyncInProgress    bool
	SyncStartedAt     *time.Time
	SyncCooldownUntil *time.Time
	LastSyncAt        *time.Time
}

// ClassTemplate is the provider's reusable class definition, shared across
// all local accounts that took it.
type ClassTemplate struct {
	RemoteID         string
	Title            string
	Description      string
	Duration         int // seconds
	Discipline       string
	DifficultyRating float64
	DifficultyCount  int
	ImageURL         string
	OriginalAirTime  *time.Time
	InstructorID     string
	PlaylistID       string
	ClassType        string
	TargetMetricsJSON string
	SegmentsJSON      string
	IsPowerZone      bool
	IsArchived       bool
}

// Instructor is a class instructor.
type Instructor struct {
	RemoteID string
	Name     string
	ImageURL string
	Bio      string
}

// Playlist is a class's music playlist.
type Playlist struct {
	RemoteID  string
	TopTags   string
	SongsJSON string
}

// WorkoutInstance is one account's completed instance of a class.
type WorkoutInstance struct {
	RemoteID      string
	ConnectionID  int64
	ClassRemoteID string
	RecordedAt    time.Time // remote created timestamp
	StartedAt     time.Time // remote start timestamp
	// CompletedDate is the workout's day in the provider's fixed
	// America/New_York viewing zone, formatted 2006-01-02.
	CompletedDate string
	Discipline    string
	FTP           int // FTP in effect when the workout was taken
	SamplesSynced bool
	SyncedAt      *time.Time
}

// PerformanceSample is one sampled point of a workout's time series.
// Metric fields are nil when the metric was absent at that offset.
type PerformanceSample struct {
	WorkoutRemoteID string
	TimeOffset      int // seconds from workout start
	Output          *float64
	Cadence         *float64
	Resistance      *float64
	Speed           *float64
	HeartRate       *float64
	Zone            *int // provider-precomputed zone tag, when present
}

// FTPRecord is a point-in-time FTP value for a connection.
type FTPRecord struct {
	ConnectionID  int64
	EffectiveDate string // 2006-01-02
	FTP           int
}

// PaceZoneSet is a point-in-time pace zone table for a connection:
// zone level (1-7) to representative speed in mph.
type PaceZoneSet struct {
	ConnectionID  int64
	EffectiveDate string // 2006-01-02
	Zones         map[int]float64
}
