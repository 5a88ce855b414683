package service

import (
	"time"
)

// MonthStart returns 00:00 on the first day of now's month in loc
func MonthStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// floorMinutes truncates d to whole minutes, never negative
func floorMinutes(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}
