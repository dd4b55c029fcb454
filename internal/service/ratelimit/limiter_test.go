package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

var testLimits = map[string]Limit{
	"free":    {Minute: 2, Day: 3},
	"starter": {Minute: 10, Day: 200},
}

func consume(l *Limiter, subject, plan string, at time.Time) Result {
	return l.Consume(ConsumeInput{Subject: subject, Plan: plan, Limits: testLimits, Now: at})
}

func TestConsumeMinuteWindow(t *testing.T) {
	l := New()

	first := consume(l, "a@b.com", "free", testNow)
	require.True(t, first.Allowed)
	require.Equal(t, 1, first.Remaining)

	second := consume(l, "a@b.com", "free", testNow)
	require.True(t, second.Allowed)
	require.Equal(t, 0, second.Remaining)

	third := consume(l, "a@b.com", "free", testNow)
	require.False(t, third.Allowed)
	require.Equal(t, "minute", third.Scope)
	require.Equal(t, 2, third.Limit)
	require.Equal(t, testNow.Add(time.Minute), third.ResetAt)
}

func TestConsumeDayWindowAfterMinuteRollover(t *testing.T) {
	l := New()

	require.True(t, consume(l, "a@b.com", "free", testNow).Allowed)
	require.True(t, consume(l, "a@b.com", "free", testNow).Allowed)
	require.False(t, consume(l, "a@b.com", "free", testNow).Allowed)

	next := testNow.Add(time.Minute)
	fourth := consume(l, "a@b.com", "free", next)
	require.True(t, fourth.Allowed)

	fifth := consume(l, "a@b.com", "free", next)
	require.False(t, fifth.Allowed)
	require.Equal(t, "day", fifth.Scope)
	require.Equal(t, 3, fifth.Limit)
	require.Equal(t, time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC), fifth.ResetAt.UTC())
}

func TestConsumeDayWindowResetsNextDay(t *testing.T) {
	l := New()

	for i := 0; i < 2; i++ {
		require.True(t, consume(l, "a@b.com", "free", testNow).Allowed)
	}
	require.True(t, consume(l, "a@b.com", "free", testNow.Add(time.Minute)).Allowed)
	require.False(t, consume(l, "a@b.com", "free", testNow.Add(2*time.Minute)).Allowed)

	tomorrow := testNow.Add(24 * time.Hour)
	require.True(t, consume(l, "a@b.com", "free", tomorrow).Allowed)
}

func TestConsumeSubjectsAreIndependent(t *testing.T) {
	l := New()

	require.True(t, consume(l, "a@b.com", "free", testNow).Allowed)
	require.True(t, consume(l, "a@b.com", "free", testNow).Allowed)
	require.False(t, consume(l, "a@b.com", "free", testNow).Allowed)

	require.True(t, consume(l, "c@d.com", "free", testNow).Allowed)
}

func TestConsumePlanResolution(t *testing.T) {
	l := New()

	res := consume(l, "a@b.com", "starter", testNow)
	require.True(t, res.Allowed)
	require.Equal(t, 9, res.Remaining)

	// Unknown plan falls back to the configured free limits.
	res = consume(l, "e@f.com", "enterprise", testNow)
	require.True(t, res.Allowed)
	require.Equal(t, 1, res.Remaining)

	// No limits at all falls back to the built-in free defaults.
	res = l.Consume(ConsumeInput{Subject: "g@h.com", Plan: "free", Now: testNow})
	require.True(t, res.Allowed)
	require.Equal(t, DefaultFreeLimit.Minute-1, res.Remaining)
}
