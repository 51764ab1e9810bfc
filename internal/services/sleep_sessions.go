package services

import (
	"sort"
	"time"

	"github.com/terraincognita07/symptomcy/internal/health"
)

const (
	SleepSessionMaxGap      = time.Hour
	SleepNightLookback      = 12 * time.Hour
	sleepNightSpan          = 8 * time.Hour
	sleepWindowEveningStart = 18
	sleepWindowMorningEnd   = 14
)

type SleepSession struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (session SleepSession) Duration() time.Duration {
	return session.End.Sub(session.Start)
}

type NightSleep struct {
	BedTime    time.Time      `json:"bed_time"`
	WakeTime   time.Time      `json:"wake_time"`
	TotalHours float64        `json:"total_hours"`
	Sessions   []SleepSession `json:"sessions"`
}

// ReconstructSleepSessions merges interval samples into contiguous sessions. A new session
// begins whenever the next sample starts more than SleepSessionMaxGap after the current end.
func ReconstructSleepSessions(samples []health.CategorySample) []SleepSession {
	if len(samples) == 0 {
		return nil
	}

	sorted := make([]health.CategorySample, 0, len(samples))
	sorted = append(sorted, samples...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	sessions := make([]SleepSession, 0)
	current := SleepSession{Start: sorted[0].Start, End: sorted[0].End}
	for _, sample := range sorted[1:] {
		if sample.Start.Sub(current.End) > SleepSessionMaxGap {
			sessions = append(sessions, current)
			current = SleepSession{Start: sample.Start, End: sample.End}
			continue
		}
		if sample.End.After(current.End) {
			current.End = sample.End
		}
	}
	sessions = append(sessions, current)
	return sessions
}

// SelectNightSleep picks the sessions belonging to the most recent night: sessions starting inside
// the typical sleep window (local hour >= 18 or < 14) that end within eight hours of the latest
// such session. The latest end is taken among sleep-window sessions only, so a later afternoon nap
// never displaces the night. The total only counts time inside sessions.
func SelectNightSleep(sessions []SleepSession, location *time.Location) (NightSleep, bool) {
	if len(sessions) == 0 {
		return NightSleep{}, false
	}
	if location == nil {
		location = time.Local
	}

	candidates := make([]SleepSession, 0, len(sessions))
	var latestEnd time.Time
	for _, session := range sessions {
		if !inTypicalSleepWindow(session.Start, location) {
			continue
		}
		candidates = append(candidates, session)
		if session.End.After(latestEnd) {
			latestEnd = session.End
		}
	}
	cutoff := latestEnd.Add(-sleepNightSpan)

	night := NightSleep{}
	var total time.Duration
	for _, session := range candidates {
		if session.End.Before(cutoff) {
			continue
		}
		if night.BedTime.IsZero() || session.Start.Before(night.BedTime) {
			night.BedTime = session.Start
		}
		if session.End.After(night.WakeTime) {
			night.WakeTime = session.End
		}
		total += session.Duration()
		night.Sessions = append(night.Sessions, session)
	}
	if len(night.Sessions) == 0 {
		return NightSleep{}, false
	}

	night.TotalHours = total.Hours()
	return night, true
}

// LastNightSleep runs reconstruction and selection on raw sleep-analysis samples for the night
// ending on date. Sessions starting at or after that morning's window end are dropped first.
func LastNightSleep(samples []health.CategorySample, date time.Time, location *time.Location) (NightSleep, bool) {
	sessions := ReconstructSleepSessions(health.AsleepSamples(samples))
	return SelectNightSleep(sessionsStartingBefore(sessions, nightCutoff(date, location)), location)
}

// nightCutoff is the end of the sleep window on the morning of date. A session starting at or
// after it is the next night's sleep.
func nightCutoff(date time.Time, location *time.Location) time.Time {
	local := date.In(location)
	return time.Date(local.Year(), local.Month(), local.Day(), sleepWindowMorningEnd, 0, 0, 0, location)
}

func sessionsStartingBefore(sessions []SleepSession, cutoff time.Time) []SleepSession {
	kept := make([]SleepSession, 0, len(sessions))
	for _, session := range sessions {
		if session.Start.Before(cutoff) {
			kept = append(kept, session)
		}
	}
	return kept
}

func inTypicalSleepWindow(start time.Time, location *time.Location) bool {
	hour := start.In(location).Hour()
	return hour >= sleepWindowEveningStart || hour < sleepWindowMorningEnd
}
