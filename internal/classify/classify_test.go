package classify

import "testing"

func TestClassType(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
		want string
	}{
		{
			name: "explicit power zone flag wins over everything",
			meta: Metadata{
				Title:             "45 min Climb Ride",
				FitnessDiscipline: "cycling",
				IsPowerZone:       true,
			},
			want: PowerZone,
		},
		{
			name: "known power zone class type id",
			meta: Metadata{
				Title:             "60 min Endurance Ride",
				FitnessDiscipline: "cycling",
				ClassTypeIDs:      []string{"deadbeef", "665395ff3abf4081bf315686227d1a51"},
			},
			want: PowerZone,
		},
		{
			name: "pace target type field",
			meta: Metadata{
				Title:             "30 min Fun Run",
				FitnessDiscipline: "running",
				PaceTargetType:    "open",
			},
			want: PaceTarget,
		},
		{
			name: "power_zone segment type",
			meta: Metadata{
				Title:             "45 min Ride",
				FitnessDiscipline: "cycling",
				SegmentTypes:      []string{"cycling", "power_zone"},
			},
			want: PowerZone,
		},
		{
			name: "pace substring in segment type",
			meta: Metadata{
				Title:             "20 min Run",
				FitnessDiscipline: "running",
				SegmentTypes:      []string{"pace_intensity"},
			},
			want: PaceTarget,
		},
		{
			name: "power zone title keyword",
			meta: Metadata{
				Title:             "45 min Power Zone Endurance Ride",
				FitnessDiscipline: "cycling",
			},
			want: PowerZone,
		},
		{
			name: "pz keyword mid title",
			meta: Metadata{
				Title:             "45 min PZ Endurance Ride",
				FitnessDiscipline: "cycling",
			},
			want: PowerZone,
		},
		{
			name: "pz keyword trailing",
			meta: Metadata{
				Title:             "45 min Endurance PZ",
				FitnessDiscipline: "cycling",
			},
			want: PowerZone,
		},
		{
			name: "pace target run by title",
			meta: Metadata{
				Title:             "20 min Pace Target Run",
				FitnessDiscipline: "running",
			},
			want: PaceTarget,
		},
		{
			name: "generic pace run by title",
			meta: Metadata{
				Title:             "30 min Pace Run",
				FitnessDiscipline: "running",
			},
			want: "pace",
		},
		{
			name: "cycling warm up",
			meta: Metadata{
				Title:             "30 min Warm Up",
				FitnessDiscipline: "cycling",
			},
			want: WarmUp,
		},
		{
			name: "cycling climb",
			meta: Metadata{
				Title:             "45 min Climb Ride",
				FitnessDiscipline: "cycling",
			},
			want: "climb",
		},
		{
			name: "first substring wins within table",
			meta: Metadata{
				// Contains both "warm up" and "climb"; warm up is earlier.
				Title:             "10 min Warm Up Climb",
				FitnessDiscipline: "cycling",
			},
			want: WarmUp,
		},
		{
			name: "walking power walk",
			meta: Metadata{
				Title:             "30 min Power Walk",
				FitnessDiscipline: "walking",
			},
			want: "power_walk",
		},
		{
			name: "strength full body",
			meta: Metadata{
				Title:             "20 min Full Body Strength",
				FitnessDiscipline: "strength",
			},
			want: "full_body",
		},
		{
			name: "yoga flow",
			meta: Metadata{
				Title:             "30 min Power Flow",
				FitnessDiscipline: "yoga",
			},
			want: "power_flow",
		},
		{
			name: "meditation sleep",
			meta: Metadata{
				Title:             "10 min Sleep Meditation",
				FitnessDiscipline: "meditation",
			},
			want: "sleep",
		},
		{
			name: "no match",
			meta: Metadata{
				Title:             "45 min House Ride",
				FitnessDiscipline: "cycling",
			},
			want: "",
		},
		{
			name: "unknown discipline",
			meta: Metadata{
				Title:             "45 min Something",
				FitnessDiscipline: "rowing",
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassType(tt.meta); got != tt.want {
				t.Errorf("ClassType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassTypeDeterministic(t *testing.T) {
	meta := Metadata{
		Title:             "45 min Power Zone Endurance Ride",
		FitnessDiscipline: "cycling",
	}
	first := ClassType(meta)
	for i := 0; i < 100; i++ {
		if got := ClassType(meta); got != first {
			t.Fatalf("ClassType() not deterministic: %q vs %q", got, first)
		}
	}
}
