package api

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	invalidTokenLimit  = 10
	invalidTokenWindow = 15 * time.Minute
)

// failureWindow blocks a client once it has limit failures inside the trailing window.
type failureWindow struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	failures map[string][]time.Time
}

func newFailureWindow(limit int, window time.Duration) *failureWindow {
	return &failureWindow{
		limit:    limit,
		window:   window,
		failures: make(map[string][]time.Time),
	}
}

func (tracker *failureWindow) blocked(client string, now time.Time) bool {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	return len(tracker.recentLocked(client, now)) >= tracker.limit
}

func (tracker *failureWindow) fail(client string, now time.Time) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.failures[client] = append(tracker.recentLocked(client, now), now)
}

func (tracker *failureWindow) forget(client string) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	delete(tracker.failures, client)
}

// recentLocked drops expired failures for client; the map entry goes away when none remain.
func (tracker *failureWindow) recentLocked(client string, now time.Time) []time.Time {
	cutoff := now.Add(-tracker.window)
	history := tracker.failures[client]
	first := 0
	for first < len(history) && !history[first].After(cutoff) {
		first++
	}
	if first == len(history) {
		delete(tracker.failures, client)
		return nil
	}
	recent := history[first:]
	tracker.failures[client] = recent
	return recent
}

func clientKey(c *fiber.Ctx) string {
	if key := strings.TrimSpace(c.IP()); key != "" {
		return key
	}
	return "unknown"
}
