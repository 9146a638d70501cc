package zones

import (
	"fmt"
	"time"

	"pelosync/internal/config"
	"pelosync/internal/store"
)

// Period bounds a distribution query.
type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// Workout days follow the provider's fixed US Eastern view, so period
// boundaries are evaluated there too.
var easternTime = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// Bounds renders the period as inclusive completed-date bounds. An
// empty bound is unbounded.
func (p Period) Bounds(now time.Time) (from, to string) {
	local := now.In(easternTime)
	switch p {
	case PeriodMonth:
		return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, easternTime).Format("2006-01-02"), ""
	case PeriodYear:
		return time.Date(local.Year(), 1, 1, 0, 0, 0, 0, easternTime).Format("2006-01-02"), ""
	default:
		return "", ""
	}
}

// Band is one zone's share of a distribution.
type Band struct {
	Level    int
	Name     string
	Seconds  float64
	Duration string // FormatSeconds rendering
	Percent  float64
}

// Distribution is an ordered per-zone time distribution for a set of
// workouts. Bands are always all seven levels, in order, even when empty.
type Distribution struct {
	Bands        []Band
	TotalSeconds float64
	Workouts     int
}

// Engine computes distributions and target lines over stored workouts.
type Engine struct {
	store *store.Store
	cfg   *config.Config
}

// NewEngine creates a zone analysis engine.
func NewEngine(s *store.Store, cfg *config.Config) *Engine {
	return &Engine{store: s, cfg: cfg}
}

// PowerDistribution accumulates cycling zone time for the period.
func (e *Engine) PowerDistribution(connID int64, period Period, now time.Time) (*Distribution, error) {
	return e.distribution(connID, period, now, map[string]bool{"cycling": true},
		func(w *store.WorkoutInstance) (func(store.PerformanceSample) int, error) {
			ftp, err := e.workoutFTP(w)
			if err != nil {
				return nil, err
			}
			return func(s store.PerformanceSample) int {
				return PowerZoneForSample(s, ftp)
			}, nil
		}, PowerZoneName)
}

// PaceDistribution accumulates running and walking zone time for the period.
func (e *Engine) PaceDistribution(connID int64, period Period, now time.Time) (*Distribution, error) {
	resting := e.cfg.Athlete.RestingHR
	max := e.cfg.Athlete.MaxHR
	return e.distribution(connID, period, now, map[string]bool{"running": true, "walking": true},
		func(w *store.WorkoutInstance) (func(store.PerformanceSample) int, error) {
			return func(s store.PerformanceSample) int {
				return PaceZoneForSample(s, resting, max)
			}, nil
		}, PaceZoneName)
}

func (e *Engine) distribution(connID int64, period Period, now time.Time, disciplines map[string]bool,
	classifierFor func(*store.WorkoutInstance) (func(store.PerformanceSample) int, error),
	nameOf func(int) string) (*Distribution, error) {

	from, to := period.Bounds(now)
	workouts, err := e.store.ListWorkouts(connID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing workouts: %w", err)
	}

	var acc [Levels + 1]float64
	counted := 0
	for i := range workouts {
		w := &workouts[i]
		if !disciplines[w.Discipline] {
			continue
		}
		samples, err := e.store.GetSamples(w.RemoteID)
		if err != nil {
			return nil, fmt.Errorf("loading samples for %s: %w", w.RemoteID, err)
		}
		if len(samples) == 0 {
			continue
		}
		zoneOf, err := classifierFor(w)
		if err != nil {
			return nil, err
		}
		attributed := AttributeTime(samples, zoneOf)
		for level := 1; level <= Levels; level++ {
			acc[level] += attributed[level]
		}
		counted++
	}

	dist := &Distribution{Workouts: counted}
	for level := 1; level <= Levels; level++ {
		dist.TotalSeconds += acc[level]
	}
	for level := 1; level <= Levels; level++ {
		band := Band{
			Level:    level,
			Name:     nameOf(level),
			Seconds:  acc[level],
			Duration: FormatSeconds(acc[level]),
		}
		if dist.TotalSeconds > 0 {
			band.Percent = acc[level] / dist.TotalSeconds * 100
		}
		dist.Bands = append(dist.Bands, band)
	}
	return dist, nil
}

// workoutFTP resolves the FTP in effect for a workout: the value stored
// with the instance, then the FTP history at its date, then the
// configured fallback.
func (e *Engine) workoutFTP(w *store.WorkoutInstance) (float64, error) {
	if w.FTP > 0 {
		return float64(w.FTP), nil
	}
	ftp, err := e.store.FTPOn(w.ConnectionID, w.CompletedDate)
	if err != nil {
		return 0, fmt.Errorf("resolving ftp for %s: %w", w.RemoteID, err)
	}
	if ftp > 0 {
		return float64(ftp), nil
	}
	return float64(e.cfg.Athlete.FallbackFTP), nil
}

// FormatSeconds renders a duration as HH:MM:SS, or "Nd HH:MM:SS" from
// one day up.
func FormatSeconds(seconds float64) string {
	total := int(seconds)
	days := total / 86400
	rem := total % 86400
	h, m, s := rem/3600, rem%3600/60, rem%60
	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
