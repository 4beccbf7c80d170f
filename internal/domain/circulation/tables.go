package circulation

import "time"

// Rule tables for the standing Hoy No Circula program. All of them are
// initialized once and read-only for the lifetime of the process.

// weekdayRestrictions maps ISO weekday (1=Monday) to the plate digits that
// rest that day, Monday through Friday. Saturday rotates, Sunday is free.
var weekdayRestrictions = map[time.Weekday][]int{
	time.Monday:    {5, 6},
	time.Tuesday:   {7, 8},
	time.Wednesday: {3, 4},
	time.Thursday:  {1, 2},
	time.Friday:    {9, 0},
}

// Saturday rotation for sticker 2 vehicles. Odd weeks of the month take one
// half of the digits, even weeks the complementary half.
var (
	saturdayOddWeeks  = []int{5, 6, 7, 8}
	saturdayEvenWeeks = []int{0, 1, 2, 3, 4, 9}
)

// phase2ExemptOverride strips the exemption from 00/0 stickers during a
// Fase 2 contingency. No entries for Saturday or Sunday: exempt stickers
// never rest on weekends regardless of the phase.
var phase2ExemptOverride = map[time.Weekday][]int{
	time.Monday:    {0, 1, 2, 3, 4},
	time.Tuesday:   {5, 6, 7, 8, 9},
	time.Wednesday: {0, 1, 2, 3, 4},
	time.Thursday:  {5, 6, 7, 8, 9},
	time.Friday:    {0, 1, 2, 3, 4},
}

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "lunes",
	time.Tuesday:   "martes",
	time.Wednesday: "miércoles",
	time.Thursday:  "jueves",
	time.Friday:    "viernes",
	time.Saturday:  "sábado",
	time.Sunday:    "domingo",
}

// weekOfMonth returns the 1-indexed 7-day block of the month the date
// falls in, computed from the day of month alone.
func weekOfMonth(date time.Time) int {
	return (date.Day()-1)/7 + 1
}

// saturdayDigits resolves the rotating Saturday digit set for the date.
func saturdayDigits(date time.Time) []int {
	if weekOfMonth(date)%2 != 0 {
		return saturdayOddWeeks
	}
	return saturdayEvenWeeks
}

func digitIn(digit int, set []int) bool {
	for _, d := range set {
		if d == digit {
			return true
		}
	}
	return false
}
