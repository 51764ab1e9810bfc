package services

import (
	"math"
	"time"
)

const dayKeyLayout = "2006-01-02"

func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// DayRange returns [local midnight, next local midnight) for the day containing value.
func DayRange(value time.Time, location *time.Location) (time.Time, time.Time) {
	start := DateAtLocation(value, location)
	return start, start.AddDate(0, 0, 1)
}

// DayKey is the canonical calendar-day key; any two instants on the same local day share it.
func DayKey(value time.Time, location *time.Location) string {
	return DateAtLocation(value, location).Format(dayKeyLayout)
}

// CalendarDaysBetween counts whole local calendar days from a to b, independent of DST shifts.
func CalendarDaysBetween(a time.Time, b time.Time, location *time.Location) int {
	from := DateAtLocation(a, location)
	to := DateAtLocation(b, location)
	fromUTC := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toUTC := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(toUTC.Sub(fromUTC).Hours() / 24))
}

func sameCalendarDay(a time.Time, b time.Time, location *time.Location) bool {
	return DayKey(a, location) == DayKey(b, location)
}
