package gate

import (
	"sync"
	"time"
)

// AlertType identifies the kind of anomaly detected.
type AlertType string

const (
	AlertValidateFailureSpike AlertType = "validate_failure_spike"
)

// AlertEvent describes an anomaly that triggered an alert.
type AlertEvent struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertFunc is the callback invoked when an anomaly is detected. It runs on
// the request goroutine that crossed the threshold and should not block.
type AlertFunc func(AlertEvent)

// failureCollector counts rejected API keys in a sliding window. It only
// observes: requests are never delayed or refused because of it.
type failureCollector struct {
	mu sync.Mutex

	failures  []time.Time
	window    time.Duration
	threshold int

	alertFn AlertFunc
}

const (
	defaultFailureWindow    = 1 * time.Minute
	defaultFailureThreshold = 50
)

func newFailureCollector(alertFn AlertFunc) *failureCollector {
	return &failureCollector{
		window:    defaultFailureWindow,
		threshold: defaultFailureThreshold,
		alertFn:   alertFn,
	}
}

// recordEvent inspects an audit event and updates the failure window.
func (c *failureCollector) recordEvent(event AuditEvent) {
	if c == nil || c.alertFn == nil {
		return
	}
	if event == AuditValidateFailure {
		c.recordFailure()
	}
}

func (c *failureCollector) recordFailure() {
	c.mu.Lock()
	now := time.Now()
	c.failures = append(c.failures, now)
	c.failures = trimWindow(c.failures, now, c.window)

	var alert *AlertEvent
	if len(c.failures) >= c.threshold {
		alert = &AlertEvent{
			Type:      AlertValidateFailureSpike,
			Message:   "invalid API key submissions exceed threshold",
			Count:     len(c.failures),
			Threshold: c.threshold,
			Timestamp: now,
		}
		// Reset to avoid repeated alerts within the same spike.
		c.failures = c.failures[:0]
	}
	c.mu.Unlock()

	if alert != nil {
		c.alertFn(*alert)
	}
}

// trimWindow removes entries older than (now - window) from the sorted slice.
func trimWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	return times[start:]
}
