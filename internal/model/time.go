package model

// Time units in seconds. Lock ends and fee buckets are aligned to Week.
const (
	Day     int64 = 86400
	Week    int64 = 7 * Day
	MaxTime int64 = 3 * 365 * Day
)

// FloorWeek rounds t down to the start of its week.
func FloorWeek(t int64) int64 {
	return t / Week * Week
}

// CeilWeek rounds t up to the next week boundary, leaving boundaries unchanged.
func CeilWeek(t int64) int64 {
	return (t + Week - 1) / Week * Week
}
