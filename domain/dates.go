package domain

import "time"

// DateKeyLayout is the canonical calendar date key form. Keys compare
// lexicographically in chronological order.
const DateKeyLayout = "2006-01-02"

// FormatDateKey renders t as a canonical date key.
func FormatDateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey parses a canonical date key into a UTC midnight time.
func ParseDateKey(key string) (time.Time, error) {
	return time.Parse(DateKeyLayout, key)
}

// ValidDateKey reports whether key is a well-formed date key.
func ValidDateKey(key string) bool {
	_, err := ParseDateKey(key)
	return err == nil
}

// Monday returns the Monday of the week containing t, at the same clock
// time. Sunday belongs to the preceding week.
func Monday(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return t.AddDate(0, 0, 1-wd)
}

// AddDaysKey shifts a date key by a number of days.
func AddDaysKey(key string, days int) (string, error) {
	t, err := ParseDateKey(key)
	if err != nil {
		return "", err
	}
	return FormatDateKey(t.AddDate(0, 0, days)), nil
}

// AddMonthsKey shifts a date key by calendar months. Month arithmetic
// follows time.AddDate overflow behavior: stepping past a shorter month
// rolls into the following month.
func AddMonthsKey(key string, months int) (string, error) {
	t, err := ParseDateKey(key)
	if err != nil {
		return "", err
	}
	return FormatDateKey(t.AddDate(0, months, 0)), nil
}

// DayOffset returns the whole-day distance from to minus from.
func DayOffset(from, to string) (int, error) {
	a, err := ParseDateKey(from)
	if err != nil {
		return 0, err
	}
	b, err := ParseDateKey(to)
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / 24), nil
}
