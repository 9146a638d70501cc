// Package classify infers a class's semantic type from its metadata.
// Everything here is pure: identical input always yields the identical tag.
package classify

import "strings"

// Class type tags. An empty tag means the class could not be classified;
// that is a valid outcome, not an error.
const (
	PowerZone  = "power_zone"
	PaceTarget = "pace_target"
	WarmUp     = "warm_up"
	CoolDown   = "cool_down"
)

// Metadata is the classifier's input, assembled from the provider's
// heterogeneous class fields.
type Metadata struct {
	Title             string
	FitnessDiscipline string
	IsPowerZone       bool
	ClassTypeIDs      []string
	PaceTargetType    string
	SegmentTypes      []string
}

// powerZoneClassTypeIDs is the allow-list of provider class-type ids known
// to mark power zone classes.
var powerZoneClassTypeIDs = map[string]bool{
	"665395ff3abf4081bf315686227d1a51": true,
	"8ab6a381f72042e58d2cc0a3c72c2d90": true,
	"c22e376d5fa64b90b1d909ad47afeacc": true,
}

// rule maps a lowercase title substring to a tag. Tables are ordered;
// the first matching substring wins.
type rule struct {
	substr string
	tag    string
}

var cyclingRules = []rule{
	{"warm up", WarmUp},
	{"warmup", WarmUp},
	{"cool down", CoolDown},
	{"cooldown", CoolDown},
	{"climb", "climb"},
	{"interval", "intervals"},
	{"progression", "progression"},
	{"beginner", "beginner"},
	{"low impact", "low_impact"},
	{"recovery", "recovery"},
	{"tabata", "tabata"},
	{"hiit", "hiit"},
	{"pro cyclist", "pro_cyclist"},
	{"theme", "theme"},
	{"music", "music"},
	{"scenic", "scenic"},
}

var runningRules = []rule{
	{"warm up", WarmUp},
	{"cool down", CoolDown},
	{"pace target", PaceTarget},
	{"pace", "pace"},
	{"speed", "speed"},
	{"endurance", "endurance"},
	{"tempo", "tempo"},
	{"interval", "intervals"},
	{"progression", "progression"},
	{"recovery", "recovery"},
	{"fun run", "fun"},
	{"outdoor", "outdoor"},
}

var walkingRules = []rule{
	{"warm up", WarmUp},
	{"cool down", CoolDown},
	{"power walk", "power_walk"},
	{"hiking", "hiking"},
	{"hike", "hiking"},
	{"walk + run", "walk_run"},
	{"recovery", "recovery"},
}

var strengthRules = []rule{
	{"full body", "full_body"},
	{"full-body", "full_body"},
	{"upper body", "upper_body"},
	{"lower body", "lower_body"},
	{"core", "core"},
	{"arms", "arms"},
	{"glutes", "glutes_legs"},
	{"legs", "glutes_legs"},
	{"bodyweight", "bodyweight"},
	{"resistance band", "resistance_bands"},
}

var yogaRules = []rule{
	{"power flow", "power_flow"},
	{"slow flow", "slow_flow"},
	{"focus flow", "focus_flow"},
	{"flow", "flow"},
	{"restorative", "restorative"},
	{"anywhere", "anywhere"},
	{"basics", "basics"},
}

var meditationRules = []rule{
	{"sleep", "sleep"},
	{"morning", "morning"},
	{"calm", "calm"},
	{"gratitude", "gratitude"},
	{"anxiety", "anxiety"},
	{"breath", "breathwork"},
	{"mindful", "mindfulness"},
}

var disciplineRules = map[string][]rule{
	"cycling":    cyclingRules,
	"running":    runningRules,
	"walking":    walkingRules,
	"strength":   strengthRules,
	"yoga":       yogaRules,
	"meditation": meditationRules,
}

// ClassType maps raw class metadata to a semantic class type tag.
// Matching is checked in priority order; the first hit wins.
func ClassType(m Metadata) string {
	// 1. Explicit provider flag.
	if m.IsPowerZone {
		return PowerZone
	}

	// 2. Known power zone class type ids.
	for _, id := range m.ClassTypeIDs {
		if powerZoneClassTypeIDs[id] {
			return PowerZone
		}
	}

	// 3. A pace target type is only present on pace classes.
	if m.PaceTargetType != "" {
		return PaceTarget
	}

	// 4. Structured target metric segment types.
	for _, st := range m.SegmentTypes {
		if st == "power_zone" {
			return PowerZone
		}
		if strings.Contains(st, "pace") {
			return PaceTarget
		}
	}

	title := strings.ToLower(m.Title)

	// 5. Power zone title keywords apply regardless of discipline, so they
	// are checked before any discipline table.
	if titleMarksPowerZone(title) {
		return PowerZone
	}

	// 6. Discipline-specific keyword table.
	for _, r := range disciplineRules[m.FitnessDiscipline] {
		if strings.Contains(title, r.substr) {
			return r.tag
		}
	}

	// 7. No match.
	return ""
}

func titleMarksPowerZone(title string) bool {
	if strings.Contains(title, "power zone") {
		return true
	}
	if strings.Contains(title, " pz ") {
		return true
	}
	if strings.HasPrefix(title, "pz ") || strings.HasSuffix(title, " pz") {
		return true
	}
	return false
}
