package services

import (
	"testing"
	"time"

	"github.com/terraincognita07/symptomcy/internal/health"
)

func sleepSample(stage health.SleepStage, start time.Time, end time.Time) health.CategorySample {
	return health.CategorySample{
		Type:  health.CategorySleepAnalysis,
		Value: string(stage),
		Start: start,
		End:   end,
	}
}

func TestReconstructSleepSessionsMergesSmallGaps(t *testing.T) {
	night := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	samples := []health.CategorySample{
		sleepSample(health.SleepAsleepDeep, night.Add(2*time.Hour+10*time.Minute), night.Add(3*time.Hour+5*time.Minute)),
		sleepSample(health.SleepAsleepCore, night.Add(-time.Hour), night.Add(2*time.Hour)),
	}

	sessions := ReconstructSleepSessions(samples)
	if len(sessions) != 1 {
		t.Fatalf("expected one merged session, got %#v", sessions)
	}

	result, ok := SelectNightSleep(sessions, time.UTC)
	if !ok {
		t.Fatalf("expected night sleep to be found")
	}
	want := 4*time.Hour + 5*time.Minute
	if got := time.Duration(result.TotalHours * float64(time.Hour)); got.Round(time.Second) != want {
		t.Fatalf("expected %s of sleep, got %s", want, got)
	}
	if !result.BedTime.Equal(night.Add(-time.Hour)) || !result.WakeTime.Equal(night.Add(3*time.Hour+5*time.Minute)) {
		t.Fatalf("unexpected bed/wake times %s - %s", result.BedTime, result.WakeTime)
	}
}

func TestReconstructSleepSessionsSplitsLongGaps(t *testing.T) {
	start := time.Date(2026, time.March, 8, 22, 0, 0, 0, time.UTC)
	samples := []health.CategorySample{
		sleepSample(health.SleepAsleepCore, start, start.Add(2*time.Hour)),
		sleepSample(health.SleepAsleepCore, start.Add(3*time.Hour+30*time.Minute), start.Add(7*time.Hour)),
	}

	sessions := ReconstructSleepSessions(samples)
	if len(sessions) != 2 {
		t.Fatalf("expected a 90 minute gap to split sessions, got %#v", sessions)
	}

	result, ok := SelectNightSleep(sessions, time.UTC)
	if !ok {
		t.Fatalf("expected night sleep")
	}
	if len(result.Sessions) != 2 {
		t.Fatalf("expected both sessions to belong to the night, got %d", len(result.Sessions))
	}
	if result.TotalHours != 5.5 {
		t.Fatalf("expected gap excluded from 5.5h total, got %v", result.TotalHours)
	}
}

func TestReconstructSleepSessionsExactlyOneHourGapMerges(t *testing.T) {
	start := time.Date(2026, time.March, 8, 23, 0, 0, 0, time.UTC)
	samples := []health.CategorySample{
		sleepSample(health.SleepAsleepCore, start, start.Add(time.Hour)),
		sleepSample(health.SleepAsleepCore, start.Add(2*time.Hour), start.Add(3*time.Hour)),
	}

	if sessions := ReconstructSleepSessions(samples); len(sessions) != 1 {
		t.Fatalf("expected a gap of exactly one hour to merge, got %#v", sessions)
	}
}

func TestSelectNightSleepSkipsAfternoonNapsAndOldSessions(t *testing.T) {
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	sessions := []SleepSession{
		{Start: day.Add(-26 * time.Hour), End: day.Add(-20 * time.Hour)},
		{Start: day.Add(-time.Hour), End: day.Add(6 * time.Hour)},
		{Start: day.Add(15 * time.Hour), End: day.Add(15*time.Hour + 30*time.Minute)},
	}

	result, ok := SelectNightSleep(sessions, time.UTC)
	if !ok {
		t.Fatalf("expected last night to be selected")
	}
	if len(result.Sessions) != 1 || result.TotalHours != 7 {
		t.Fatalf("expected only the overnight session, got %#v", result)
	}
}

func TestLastNightSleepIgnoresNonSleepStagesAndEmptyInput(t *testing.T) {
	start := time.Date(2026, time.March, 8, 23, 0, 0, 0, time.UTC)
	samples := []health.CategorySample{
		sleepSample(health.SleepInBed, start.Add(-30*time.Minute), start.Add(8*time.Hour)),
		sleepSample(health.SleepAwake, start.Add(3*time.Hour), start.Add(3*time.Hour+20*time.Minute)),
		sleepSample(health.SleepAsleepREM, start, start.Add(3*time.Hour)),
		sleepSample(health.SleepAsleepCore, start.Add(3*time.Hour+20*time.Minute), start.Add(7*time.Hour)),
	}

	result, ok := LastNightSleep(samples, start.AddDate(0, 0, 1), time.UTC)
	if !ok {
		t.Fatalf("expected sleep from asleep stages")
	}
	if !result.BedTime.Equal(start) {
		t.Fatalf("expected in-bed time to be ignored, bed time %s", result.BedTime)
	}
	if result.TotalHours != 7 {
		t.Fatalf("expected 7h in one session, got %v", result.TotalHours)
	}

	if _, ok := LastNightSleep(nil, start, time.UTC); ok {
		t.Fatalf("expected no data for empty input")
	}
	if _, ok := LastNightSleep(samples[:2], start.AddDate(0, 0, 1), time.UTC); ok {
		t.Fatalf("expected no data when only in-bed and awake samples exist")
	}
}

func TestLastNightSleepDropsSessionsAfterTheMorning(t *testing.T) {
	date := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	samples := []health.CategorySample{
		sleepSample(health.SleepAsleepCore, date.Add(-time.Hour), date.Add(7*time.Hour)),
		sleepSample(health.SleepAsleepCore, date.Add(13*time.Hour), date.Add(13*time.Hour+30*time.Minute)),
		sleepSample(health.SleepAsleepCore, date.Add(23*time.Hour), date.Add(30*time.Hour)),
	}

	result, ok := LastNightSleep(samples, date, time.UTC)
	if !ok {
		t.Fatalf("expected the night ending on March 10")
	}
	if !result.WakeTime.Equal(date.Add(13*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected the late morning nap to count and the next night to be dropped, got %#v", result)
	}
	if len(result.Sessions) != 2 || result.TotalHours != 8.5 {
		t.Fatalf("expected two sessions totalling 8.5h, got %#v", result)
	}
}
