package health

import (
	"context"
	"embed"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/terraincognita07/symptomcy/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var embeddedProfiles embed.FS

const DefaultProfileName = "default"

type SignalProfile struct {
	Baseline float64 `yaml:"baseline"`
	Noise    float64 `yaml:"noise"`
}

type SleepProfile struct {
	Bedtime              string  `yaml:"bedtime"`
	BedtimeJitterMinutes int     `yaml:"bedtime_jitter_minutes"`
	Hours                float64 `yaml:"hours"`
	HoursNoise           float64 `yaml:"hours_noise"`
	WakeGapMinutes       int     `yaml:"wake_gap_minutes"`
}

type WorkoutProfile struct {
	Probability  float64  `yaml:"probability"`
	Start        string   `yaml:"start"`
	Minutes      float64  `yaml:"minutes"`
	MinutesNoise float64  `yaml:"minutes_noise"`
	Activities   []string `yaml:"activities"`
}

type CycleProfile struct {
	Anchor     string `yaml:"anchor"`
	Length     int    `yaml:"length"`
	PeriodDays int    `yaml:"period_days"`
}

// DemoProfile describes a synthetic person. Generation is a pure function of the profile and
// the calendar day, so any query range always sees the same samples.
type DemoProfile struct {
	Name             string         `yaml:"name"`
	Description      string         `yaml:"description"`
	Seed             int64          `yaml:"seed"`
	HRV              SignalProfile  `yaml:"hrv"`
	RestingHeartRate SignalProfile  `yaml:"resting_heart_rate"`
	Sleep            SleepProfile   `yaml:"sleep"`
	Workouts         WorkoutProfile `yaml:"workouts"`
	Cycle            CycleProfile   `yaml:"cycle"`
}

func LoadDemoProfile(path string) (DemoProfile, error) {
	if path == "" || path == DefaultProfileName {
		return DefaultDemoProfile()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DemoProfile{}, fmt.Errorf("read demo profile: %w", err)
	}
	return parseDemoProfile(data)
}

func DefaultDemoProfile() (DemoProfile, error) {
	data, err := embeddedProfiles.ReadFile("profiles/" + DefaultProfileName + ".yaml")
	if err != nil {
		return DemoProfile{}, fmt.Errorf("read embedded demo profile: %w", err)
	}
	return parseDemoProfile(data)
}

func parseDemoProfile(data []byte) (DemoProfile, error) {
	var profile DemoProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return DemoProfile{}, fmt.Errorf("parse demo profile YAML: %w", err)
	}
	if profile.Cycle.Length <= 0 {
		profile.Cycle.Length = 28
	}
	if profile.Cycle.PeriodDays <= 0 {
		profile.Cycle.PeriodDays = 5
	}
	if profile.Sleep.Hours <= 0 {
		profile.Sleep.Hours = 7.5
	}
	return profile, nil
}

// Generate fills a MemorySource with every sample for the local days in [from, to].
func (profile DemoProfile) Generate(from time.Time, to time.Time, location *time.Location) *MemorySource {
	if location == nil {
		location = time.Local
	}
	source := NewMemorySource()
	day := localMidnight(from, location)
	last := localMidnight(to, location)
	for !day.After(last) {
		profile.generateDay(source, day)
		day = day.AddDate(0, 0, 1)
	}
	return source
}

func (profile DemoProfile) generateDay(source *MemorySource, day time.Time) {
	rng := profile.rngForDay(day)

	morning := day.Add(7 * time.Hour)
	hrv := clampFloat(profile.HRV.Baseline+rng.NormFloat64()*profile.HRV.Noise, 10, 150)
	source.AddQuantity(QuantitySample{Type: QuantityHRV, Value: round1(hrv), Unit: UnitMilliseconds, Start: morning, End: morning})
	rhr := clampFloat(profile.RestingHeartRate.Baseline+rng.NormFloat64()*profile.RestingHeartRate.Noise, 35, 120)
	morningHR := morning.Add(5 * time.Minute)
	source.AddQuantity(QuantitySample{Type: QuantityRestingHeartRate, Value: round1(rhr), Unit: UnitBPM, Start: morningHR, End: morningHR})

	// The night ending on this day's morning.
	bedtime := clockOn(day.AddDate(0, 0, -1), profile.Sleep.Bedtime, 23*time.Hour)
	if jitter := profile.Sleep.BedtimeJitterMinutes; jitter > 0 {
		bedtime = bedtime.Add(time.Duration(rng.Intn(2*jitter+1)-jitter) * time.Minute)
	}
	hours := clampFloat(profile.Sleep.Hours+rng.NormFloat64()*profile.Sleep.HoursNoise, 3, 11)
	total := time.Duration(hours * float64(time.Hour))
	firstPart := total * 2 / 5
	gap := time.Duration(profile.Sleep.WakeGapMinutes) * time.Minute
	firstEnd := bedtime.Add(firstPart)
	secondStart := firstEnd.Add(gap)
	wake := secondStart.Add(total - firstPart)
	source.AddCategory(
		CategorySample{Type: CategorySleepAnalysis, Value: string(SleepInBed), Start: bedtime.Add(-15 * time.Minute), End: wake.Add(10 * time.Minute)},
		CategorySample{Type: CategorySleepAnalysis, Value: string(SleepAsleepDeep), Start: bedtime, End: firstEnd},
		CategorySample{Type: CategorySleepAnalysis, Value: string(SleepAwake), Start: firstEnd, End: secondStart},
		CategorySample{Type: CategorySleepAnalysis, Value: string(SleepAsleepCore), Start: secondStart, End: wake},
	)

	if rng.Float64() < profile.Workouts.Probability {
		start := clockOn(day, profile.Workouts.Start, 18*time.Hour)
		minutes := clampFloat(profile.Workouts.Minutes+rng.NormFloat64()*profile.Workouts.MinutesNoise, 10, 180)
		activity := "workout"
		if len(profile.Workouts.Activities) > 0 {
			activity = profile.Workouts.Activities[rng.Intn(len(profile.Workouts.Activities))]
		}
		source.AddWorkouts(Workout{Activity: activity, Start: start, End: start.Add(time.Duration(minutes * float64(time.Minute)))})
	}

	if flow, ok := profile.flowOn(day); ok {
		source.AddCategory(CategorySample{Type: CategoryMenstrualFlow, Value: string(flow), Start: day, End: day.AddDate(0, 0, 1)})
	}
}

func (profile DemoProfile) flowOn(day time.Time) (models.FlowLevel, bool) {
	cycleDay, ok := profile.cycleDayOn(day)
	if !ok || cycleDay > profile.Cycle.PeriodDays {
		return "", false
	}
	pattern := []models.FlowLevel{models.FlowMedium, models.FlowHeavy, models.FlowMedium, models.FlowLight, models.FlowSpotting}
	if cycleDay-1 < len(pattern) {
		return pattern[cycleDay-1], true
	}
	return models.FlowSpotting, true
}

func (profile DemoProfile) cycleDayOn(day time.Time) (int, bool) {
	anchor, err := time.ParseInLocation("2006-01-02", profile.Cycle.Anchor, day.Location())
	if err != nil {
		return 0, false
	}
	elapsed := int(math.Round(day.Sub(anchor).Hours() / 24))
	offset := ((elapsed % profile.Cycle.Length) + profile.Cycle.Length) % profile.Cycle.Length
	return offset + 1, true
}

// FallbackValue returns the profile's typical value for a metric, used when no provider exists.
func (profile DemoProfile) FallbackValue(metric models.MetricKind, day time.Time) (float64, bool) {
	switch metric {
	case models.MetricHRV:
		return profile.HRV.Baseline, profile.HRV.Baseline > 0
	case models.MetricRestingHR:
		return profile.RestingHeartRate.Baseline, profile.RestingHeartRate.Baseline > 0
	case models.MetricSleepHours:
		return profile.Sleep.Hours, profile.Sleep.Hours > 0
	case models.MetricWorkoutMinutes:
		return round1(profile.Workouts.Minutes * profile.Workouts.Probability), profile.Workouts.Minutes > 0
	case models.MetricCycleDay:
		cycleDay, ok := profile.cycleDayOn(day)
		return float64(cycleDay), ok
	case models.MetricFlowLevel:
		flow, ok := profile.flowOn(day)
		if !ok {
			return float64(models.FlowNone.Code()), true
		}
		return float64(flow.Code()), true
	default:
		return 0, false
	}
}

func (profile DemoProfile) rngForDay(day time.Time) *rand.Rand {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(day.Format("2006-01-02")))
	return rand.New(rand.NewSource(profile.Seed ^ int64(hasher.Sum64())))
}

// DemoSource serves samples generated from a DemoProfile on demand.
type DemoSource struct {
	profile  DemoProfile
	location *time.Location
}

func NewDemoSource(profile DemoProfile, location *time.Location) *DemoSource {
	if location == nil {
		location = time.Local
	}
	return &DemoSource{profile: profile, location: location}
}

func (source *DemoSource) Profile() DemoProfile {
	return source.profile
}

func (source *DemoSource) window(query Query) *MemorySource {
	from := query.Start
	if from.IsZero() {
		from = time.Now().AddDate(0, 0, -90)
	}
	to := query.End
	if to.IsZero() {
		to = time.Now()
	}
	return source.profile.Generate(from.AddDate(0, 0, -1), to.AddDate(0, 0, 1), source.location)
}

func (source *DemoSource) FetchQuantitySamples(ctx context.Context, quantityType QuantityType, query Query) ([]QuantitySample, error) {
	return source.window(query).FetchQuantitySamples(ctx, quantityType, query)
}

func (source *DemoSource) FetchCategorySamples(ctx context.Context, categoryType CategoryType, query Query) ([]CategorySample, error) {
	return source.window(query).FetchCategorySamples(ctx, categoryType, query)
}

func (source *DemoSource) FetchWorkouts(ctx context.Context, query Query) ([]Workout, error) {
	return source.window(query).FetchWorkouts(ctx, query)
}

func (source *DemoSource) FetchStatistics(ctx context.Context, quantityType QuantityType, query Query, options StatisticsOptions) (*Statistics, error) {
	return source.window(query).FetchStatistics(ctx, quantityType, query, options)
}

func (source *DemoSource) RequestAuthorization(ctx context.Context, _ []string, _ []string) error {
	return ctx.Err()
}

func (source *DemoSource) FallbackValue(metric models.MetricKind, day time.Time) (float64, bool) {
	return source.profile.FallbackValue(metric, localMidnight(day, source.location))
}

func localMidnight(value time.Time, location *time.Location) time.Time {
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

func clockOn(day time.Time, clock string, fallback time.Duration) time.Time {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return day.Add(fallback)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location())
}

func clampFloat(value float64, low float64, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
