// Package zones converts per-second performance samples into
// training-intensity analytics: zone time distributions and
// target-effort lines. Everything here is pure over its inputs.
package zones

import "pelosync/internal/store"

// Levels is the number of intensity zones on both scales.
const Levels = 7

// powerBreakpoints are the zone boundaries as fractions of FTP. A
// sample at exactly a boundary belongs to the higher zone.
var powerBreakpoints = [Levels - 1]float64{0.55, 0.75, 0.90, 1.05, 1.20, 1.50}

// zone 7 has no provider-defined ceiling; a nominal one is used when a
// representative wattage for the band is needed.
const topZoneCeiling = 1.80

var powerZoneNames = [Levels + 1]string{
	"", "Active Recovery", "Endurance", "Tempo", "Threshold",
	"VO2 Max", "Anaerobic", "Neuromuscular",
}

// paceBreakpoints are the speed boundaries in mph.
var paceBreakpoints = [Levels - 1]float64{4, 5.5, 7, 8.5, 10, 12}

var paceZoneNames = [Levels + 1]string{
	"", "Recovery", "Easy", "Moderate", "Challenging",
	"Hard", "Very Hard", "Max",
}

// hrReserveBreakpoints classify effort from the fraction of heart rate
// reserve when a sample carries no speed.
var hrReserveBreakpoints = [Levels - 1]float64{0.55, 0.65, 0.75, 0.82, 0.89, 0.94}

// PowerZoneName returns the display name for a power zone level, or ""
// for an out-of-range level.
func PowerZoneName(level int) string {
	if level < 1 || level > Levels {
		return ""
	}
	return powerZoneNames[level]
}

// PaceZoneName returns the display name for a pace zone level.
func PaceZoneName(level int) string {
	if level < 1 || level > Levels {
		return ""
	}
	return paceZoneNames[level]
}

// PowerZoneForOutput classifies a wattage against the athlete's FTP.
// Returns 0 when classification is impossible.
func PowerZoneForOutput(output, ftp float64) int {
	if ftp <= 0 || output < 0 {
		return 0
	}
	pct := output / ftp
	for i, bp := range powerBreakpoints {
		if pct < bp {
			return i + 1
		}
	}
	return Levels
}

// PowerBand returns the wattage bounds of a power zone for the given
// FTP. Zone 1 starts at 0; zone 7's ceiling is nominal.
func PowerBand(level int, ftp float64) (lower, upper float64) {
	if level < 1 || level > Levels || ftp <= 0 {
		return 0, 0
	}
	if level > 1 {
		lower = powerBreakpoints[level-2] * ftp
	}
	if level < Levels {
		upper = powerBreakpoints[level-1] * ftp
	} else {
		upper = topZoneCeiling * ftp
	}
	return lower, upper
}

// PaceZoneForSpeed classifies a speed in mph.
func PaceZoneForSpeed(mph float64) int {
	if mph < 0 {
		return 0
	}
	for i, bp := range paceBreakpoints {
		if mph < bp {
			return i + 1
		}
	}
	return Levels
}

// PaceZoneForHeartRate classifies effort from heart rate reserve,
// the Karvonen fraction (hr - resting) / (max - resting). Used only
// when a sample has no speed reading.
func PaceZoneForHeartRate(hr, restingHR, maxHR float64) int {
	if maxHR <= restingHR || hr <= 0 {
		return 0
	}
	frac := (hr - restingHR) / (maxHR - restingHR)
	if frac < 0 {
		frac = 0
	}
	for i, bp := range hrReserveBreakpoints {
		if frac < bp {
			return i + 1
		}
	}
	return Levels
}

// PowerZoneForSample classifies one cycling sample: the provider's
// precomputed tag wins, then output against FTP.
func PowerZoneForSample(s store.PerformanceSample, ftp float64) int {
	if s.Zone != nil && *s.Zone >= 1 && *s.Zone <= Levels {
		return *s.Zone
	}
	if s.Output != nil {
		return PowerZoneForOutput(*s.Output, ftp)
	}
	return 0
}

// PaceZoneForSample classifies one running or walking sample: the
// precomputed tag, then speed, then the heart rate fallback.
func PaceZoneForSample(s store.PerformanceSample, restingHR, maxHR float64) int {
	if s.Zone != nil && *s.Zone >= 1 && *s.Zone <= Levels {
		return *s.Zone
	}
	if s.Speed != nil {
		return PaceZoneForSpeed(*s.Speed)
	}
	if s.HeartRate != nil {
		return PaceZoneForHeartRate(*s.HeartRate, restingHR, maxHR)
	}
	return 0
}
