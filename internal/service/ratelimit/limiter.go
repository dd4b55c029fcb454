package ratelimit

import (
	"sync"
	"time"
)

// Limit caps requests per sliding minute and per UTC day.
type Limit struct {
	Minute int
	Day    int
}

// DefaultFreeLimit applies when a plan has no configured limits.
var DefaultFreeLimit = Limit{Minute: 3, Day: 20}

type window struct {
	bucket int64
	count  int
}

// Limiter is an in-memory per-subject sliding-window rate limiter.
// State is process-local: a best-effort abuse guard, not a billing
// meter. Horizontal scaling would need an external store.
type Limiter struct {
	mu     sync.Mutex
	minute map[string]*window
	day    map[string]*window
}

func New() *Limiter {
	return &Limiter{
		minute: make(map[string]*window),
		day:    make(map[string]*window),
	}
}

// ConsumeInput identifies one request. Now enables deterministic tests;
// the zero value means wall clock.
type ConsumeInput struct {
	Subject string
	Plan    string
	Limits  map[string]Limit
	Now     time.Time
}

// Result reports the limiter decision. Scope distinguishes which window
// rejected the request.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Scope     string    `json:"scope,omitempty"` // "minute" or "day"
	Limit     int       `json:"limit,omitempty"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// Consume counts one request against both windows. The minute window is
// checked strictly before the day window; a minute rejection leaves the
// day counter untouched.
func (l *Limiter) Consume(in ConsumeInput) Result {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	limit := resolveLimit(in.Plan, in.Limits)

	minuteBucket := now.UnixMilli() / 60_000 * 60_000
	minuteReset := time.UnixMilli(minuteBucket + 60_000).UTC()
	y, m, d := now.UTC().Date()
	dayBucket := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).UnixMilli()
	dayReset := time.UnixMilli(dayBucket).Add(24 * time.Hour)

	l.mu.Lock()
	defer l.mu.Unlock()

	mw := l.roll(l.minute, in.Subject, minuteBucket)
	if mw.count+1 > limit.Minute {
		return Result{Scope: "minute", Limit: limit.Minute, ResetAt: minuteReset}
	}
	mw.count++

	dw := l.roll(l.day, in.Subject, dayBucket)
	if dw.count+1 > limit.Day {
		return Result{Scope: "day", Limit: limit.Day, ResetAt: dayReset}
	}
	dw.count++

	remaining := limit.Minute - mw.count
	if dayLeft := limit.Day - dw.count; dayLeft < remaining {
		remaining = dayLeft
	}
	return Result{Allowed: true, Remaining: remaining, ResetAt: minuteReset}
}

// roll fetches the window for subject, resetting it when the bucket
// timestamp has moved on.
func (l *Limiter) roll(m map[string]*window, subject string, bucket int64) *window {
	w, ok := m[subject]
	if !ok || w.bucket != bucket {
		w = &window{bucket: bucket}
		m[subject] = w
	}
	return w
}

func resolveLimit(plan string, limits map[string]Limit) Limit {
	if lim, ok := limits[plan]; ok {
		return lim
	}
	if lim, ok := limits["free"]; ok {
		return lim
	}
	return DefaultFreeLimit
}
