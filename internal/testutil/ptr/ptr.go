// Package ptr provides small value helpers for test fixtures.
package ptr

import "time"

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
