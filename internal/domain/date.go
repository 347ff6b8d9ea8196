package domain

import "time"

// ValidTradeDate reports whether d is a real calendar date in yyyymmdd
// form.
func ValidTradeDate(d int) bool {
	if d < 19000101 || d > 99991231 {
		return false
	}
	y, m, day := d/10000, time.Month(d/100%100), d%100
	t := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return t.Year() == y && t.Month() == m && t.Day() == day
}

// TradeDateOf returns t's calendar date in yyyymmdd form.
func TradeDateOf(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
