package zones

import (
	"encoding/json"
	"fmt"
	"strings"

	"pelosync/internal/classify"
	"pelosync/internal/peloton"
)

// planShift compensates for the provider's lag between planned-segment
// timestamps and actual sample timestamps: the plan runs 60 seconds
// ahead of the samples.
const planShift = 60

// TargetPoint is one sample timestamp's planned effort: watts for power
// classes, mph for pace classes.
type TargetPoint struct {
	Offset int
	Target float64
}

// PowerTargetLine emits the planned wattage at each sample offset. A
// segment's zone range maps to the midpoint of its wattage band for the
// given FTP; offsets outside any planned segment target zero.
func PowerTargetLine(plan *peloton.TargetMetrics, offsets []int, ftp float64) []TargetPoint {
	line := make([]TargetPoint, 0, len(offsets))
	for _, off := range offsets {
		line = append(line, TargetPoint{Offset: off, Target: powerTargetAt(plan, off, ftp)})
	}
	return line
}

func powerTargetAt(plan *peloton.TargetMetrics, offset int, ftp float64) float64 {
	seg, metric := segmentAt(plan, offset, "power_zone")
	if seg == nil {
		return 0
	}
	lowZone, highZone := int(metric.Lower), int(metric.Upper)
	lower, _ := PowerBand(lowZone, ftp)
	_, upper := PowerBand(highZone, ftp)
	if upper <= 0 {
		return 0
	}
	return (lower + upper) / 2
}

// PaceTargetLine is the pace analogue: the plan's zone levels map
// through the account's pace zone table (level to representative mph).
// A nil table yields an all-zero line.
func PaceTargetLine(plan *peloton.TargetMetrics, offsets []int, paceTable map[int]float64) []TargetPoint {
	line := make([]TargetPoint, 0, len(offsets))
	for _, off := range offsets {
		line = append(line, TargetPoint{Offset: off, Target: paceTargetAt(plan, off, paceTable)})
	}
	return line
}

func paceTargetAt(plan *peloton.TargetMetrics, offset int, paceTable map[int]float64) float64 {
	if paceTable == nil {
		return 0
	}
	seg, metric := segmentAt(plan, offset, "pace")
	if seg == nil {
		return 0
	}
	low, high := paceTable[int(metric.Lower)], paceTable[int(metric.Upper)]
	if low <= 0 && high <= 0 {
		return 0
	}
	if low <= 0 {
		return high
	}
	if high <= 0 {
		return low
	}
	return (low + high) / 2
}

// segmentAt finds the planned segment enclosing a sample offset after
// the plan shift, together with its matching metric range.
func segmentAt(plan *peloton.TargetMetrics, offset int, metricName string) (*peloton.TargetMetric, *peloton.MetricRange) {
	if plan == nil {
		return nil, nil
	}
	shifted := offset + planShift
	for i := range plan.TargetMetrics {
		tm := &plan.TargetMetrics[i]
		if shifted < tm.Offsets.Start || shifted >= tm.Offsets.End {
			continue
		}
		for j := range tm.Metrics {
			if strings.Contains(tm.Metrics[j].Name, metricName) {
				return tm, &tm.Metrics[j]
			}
		}
	}
	return nil, nil
}

// TargetLine computes a stored workout's target-effort line from its
// class plan, using the FTP or pace table in effect on the workout's
// date rather than the current one. Classes that are neither power zone
// nor pace target have no line.
func (e *Engine) TargetLine(workoutID string) ([]TargetPoint, error) {
	w, err := e.store.GetWorkoutInstance(workoutID)
	if err != nil {
		return nil, err
	}
	tmpl, err := e.store.GetClassTemplate(w.ClassRemoteID)
	if err != nil {
		return nil, err
	}
	if tmpl.TargetMetricsJSON == "" {
		return nil, nil
	}

	var plan peloton.TargetMetrics
	if err := json.Unmarshal([]byte(tmpl.TargetMetricsJSON), &plan); err != nil {
		return nil, fmt.Errorf("decoding plan for class %s: %w", tmpl.RemoteID, err)
	}

	samples, err := e.store.GetSamples(workoutID)
	if err != nil {
		return nil, err
	}
	offsets := make([]int, len(samples))
	for i, s := range samples {
		offsets[i] = s.TimeOffset
	}

	switch tmpl.ClassType {
	case classify.PowerZone:
		ftp, err := e.workoutFTP(w)
		if err != nil {
			return nil, err
		}
		return PowerTargetLine(&plan, offsets, ftp), nil
	case classify.PaceTarget:
		table, err := e.store.PaceZonesOn(w.ConnectionID, w.CompletedDate)
		if err != nil {
			return nil, err
		}
		return PaceTargetLine(&plan, offsets, table), nil
	default:
		return nil, nil
	}
}
