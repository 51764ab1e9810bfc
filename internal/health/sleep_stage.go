package health

import "strings"

type SleepStage string

const (
	SleepInBed             SleepStage = "in_bed"
	SleepAwake             SleepStage = "awake"
	SleepAsleepUnspecified SleepStage = "asleep_unspecified"
	SleepAsleepCore        SleepStage = "asleep_core"
	SleepAsleepDeep        SleepStage = "asleep_deep"
	SleepAsleepREM         SleepStage = "asleep_rem"
)

// ParseSleepStage maps unknown provider values to asleep_unspecified.
func ParseSleepStage(raw string) SleepStage {
	switch stage := SleepStage(strings.ToLower(strings.TrimSpace(raw))); stage {
	case SleepInBed, SleepAwake, SleepAsleepCore, SleepAsleepDeep, SleepAsleepREM:
		return stage
	default:
		return SleepAsleepUnspecified
	}
}

func (stage SleepStage) IsAsleep() bool {
	switch stage {
	case SleepAsleepUnspecified, SleepAsleepCore, SleepAsleepDeep, SleepAsleepREM:
		return true
	default:
		return false
	}
}

// AsleepSamples keeps only the samples whose stage counts as sleep.
func AsleepSamples(samples []CategorySample) []CategorySample {
	asleep := make([]CategorySample, 0, len(samples))
	for _, sample := range samples {
		if ParseSleepStage(sample.Value).IsAsleep() {
			asleep = append(asleep, sample)
		}
	}
	return asleep
}
