package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// TimeOfDay is a wall-clock time with second resolution, stored as seconds after midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM or HH:MM:SS", s)
	}

	limits := []int{23, 59, 59}
	values := []int{0, 0, 0}
	for i, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		values[i] = v
	}

	return NewTimeOfDay(values[0], values[1], values[2]), nil
}

// MustParseTimeOfDay panics on malformed input. Intended for constants and tests.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// TimeOfDayFrom extracts the wall-clock part of t in its own location.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

func (t TimeOfDay) String() string {
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// MinutesUntil returns whole minutes from t to other, negative when other is earlier.
func (t TimeOfDay) MinutesUntil(other TimeOfDay) int {
	return (int(other) - int(t)) / 60
}

func (t TimeOfDay) Before(other TimeOfDay) bool { return t < other }
func (t TimeOfDay) After(other TimeOfDay) bool  { return t > other }

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TextPtr renders an optional time for SQL parameters; nil stays NULL.
func TextPtr(t *TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

// ParsePtr is the inverse of TextPtr.
func ParsePtr(s *string) (*TimeOfDay, error) {
	if s == nil {
		return nil, nil
	}
	t, err := ParseTimeOfDay(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MinTime returns the earliest non-nil value.
func MinTime(values ...*TimeOfDay) *TimeOfDay {
	var out *TimeOfDay
	for _, v := range values {
		if v == nil {
			continue
		}
		if out == nil || *v < *out {
			c := *v
			out = &c
		}
	}
	return out
}

// MaxTime returns the latest non-nil value.
func MaxTime(values ...*TimeOfDay) *TimeOfDay {
	var out *TimeOfDay
	for _, v := range values {
		if v == nil {
			continue
		}
		if out == nil || *v > *out {
			c := *v
			out = &c
		}
	}
	return out
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func NewYearMonth(year, month int) (YearMonth, error) {
	if year < 1900 || year > 9999 {
		return YearMonth{}, fmt.Errorf("invalid year %d", year)
	}
	if month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("invalid month %d", month)
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

// ParseYearMonth accepts "YYYYMM" or "YYYY-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	if len(s) != 6 {
		return YearMonth{}, fmt.Errorf("invalid year-month %q", s)
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q", s)
	}
	m, err := strconv.Atoi(s[4:])
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q", s)
	}
	return NewYearMonth(y, m)
}

func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// String renders the compact yyyymm form used as a storage key.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(b []byte) error {
	parsed, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

func (ym YearMonth) FirstDay() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (ym YearMonth) LastDay() time.Time {
	return ym.FirstDay().AddDate(0, 1, -1)
}

func (ym YearMonth) Previous() YearMonth {
	return YearMonthOf(ym.FirstDay().AddDate(0, -1, 0))
}

func (ym YearMonth) Contains(date time.Time) bool {
	return date.Year() == ym.Year && date.Month() == ym.Month
}

// Days lists every calendar day of the month.
func (ym YearMonth) Days() []time.Time {
	var days []time.Time
	for d := ym.FirstDay(); d.Month() == ym.Month; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Weekdays counts Monday through Friday in the month.
func (ym YearMonth) Weekdays() int {
	n := 0
	for _, d := range ym.Days() {
		if !IsWeekend(d) {
			n++
		}
	}
	return n
}

func IsWeekend(d time.Time) bool {
	return d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
}

// DateOnly truncates t to a UTC midnight date, keeping its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
