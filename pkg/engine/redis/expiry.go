package redis

import (
	"strconv"
	"time"
)

// expiry is an entry's expiration in server terms: an absolute lifespan deadline and a relative
// idle time, both in milliseconds. Zero means eternal.
type expiry struct {
	deadline int64
	idle     int64
}

// newExpiry converts engine durations. It reports false when the entry expires on write.
func newExpiry(now time.Time, lifespan, maxIdle time.Duration) (expiry, bool) {
	if lifespan == 0 || maxIdle == 0 {
		return expiry{}, false
	}

	var exp expiry

	if lifespan > 0 {
		exp.deadline = now.UnixMilli() + millis(lifespan)
	}

	if maxIdle > 0 {
		exp.idle = millis(maxIdle)
	}

	return exp, true
}

// parseExpiry reads the deadline and idle hash fields. Missing or malformed fields are eternal.
func parseExpiry(deadline, idle any) expiry {
	return expiry{deadline: parseMillis(deadline), idle: parseMillis(idle)}
}

func (e expiry) expired(now time.Time) bool {
	return e.deadline > 0 && now.UnixMilli() >= e.deadline
}

// ttl is the server-side expiry to set at now: the nearer of the deadline and the idle window.
// Zero means the key persists.
func (e expiry) ttl(now time.Time) time.Duration {
	var ttl int64

	if e.deadline > 0 {
		ttl = max(e.deadline-now.UnixMilli(), 1)
	}

	if e.idle > 0 && (ttl == 0 || e.idle < ttl) {
		ttl = e.idle
	}

	return time.Duration(ttl) * time.Millisecond
}

// millis rounds d up to whole milliseconds, the server's resolution.
func millis(d time.Duration) int64 {
	ms := d.Milliseconds()
	if time.Duration(ms)*time.Millisecond < d {
		ms++
	}

	return ms
}

func parseMillis(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}

	return n
}

// score orders index members: insertion or access time in microseconds.
func score(now time.Time) float64 {
	return float64(now.UnixMicro())
}
