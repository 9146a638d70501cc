package zones

import "pelosync/internal/store"

// maxPlausibleGap bounds the gap to the next sample; anything at or
// beyond it is a sensor artifact (pause, dropout) and attributes no time.
const maxPlausibleGap = 300.0

// decimation strides keep long series cheap to walk. Skipped samples'
// duration still lands on the retained sample via the widened gap.
const (
	decimate2Above = 1000
	decimate3Above = 2000
)

// AttributeTime sums seconds per zone for an ordered sample series.
// zoneOf maps a sample to its zone level, 0 meaning unclassifiable.
// Each sample carries the gap to the next retained sample; the last
// carries the series' mean interval.
func AttributeTime(samples []store.PerformanceSample, zoneOf func(store.PerformanceSample) int) [Levels + 1]float64 {
	var acc [Levels + 1]float64
	n := len(samples)
	if n == 0 {
		return acc
	}

	stride := 1
	switch {
	case n > decimate3Above:
		stride = 3
	case n > decimate2Above:
		stride = 2
	}

	meanInterval := 1.0
	if n > 1 {
		meanInterval = float64(samples[n-1].TimeOffset-samples[0].TimeOffset) / float64(n-1)
	}

	for i := 0; i < n; i += stride {
		var gap float64
		if next := i + stride; next < n {
			gap = float64(samples[next].TimeOffset - samples[i].TimeOffset)
		} else {
			// Last retained sample: cover the recorded trailing span
			// plus one interval for the sample itself.
			gap = float64(samples[n-1].TimeOffset-samples[i].TimeOffset) + meanInterval
		}
		if gap <= 0 || gap >= maxPlausibleGap {
			continue
		}
		if zone := zoneOf(samples[i]); zone >= 1 && zone <= Levels {
			acc[zone] += gap
		}
	}
	return acc
}
