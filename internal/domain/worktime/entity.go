package worktime

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// Override replaces the normal work window on a single date.
// Either end may be nil, leaving that end at the configured default.
type Override struct {
	ID            string              `json:"id"`
	Date          time.Time           `json:"date"`
	StartWorkTime *calendar.TimeOfDay `json:"start_work_time,omitempty"`
	EndWorkTime   *calendar.TimeOfDay `json:"end_work_time,omitempty"`
	Reason        string              `json:"reason"`
	CreatedBy     string              `json:"created_by"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Holiday is a non-weekend day off.
type Holiday struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// Settings are the configured defaults every date falls back to.
type Settings struct {
	WorkStart             calendar.TimeOfDay
	WorkEnd               calendar.TimeOfDay
	LunchStart            calendar.TimeOfDay
	LunchEnd              calendar.TimeOfDay
	WorkableMinutesPerDay int
}

// DefaultSettings is 09:00-18:00 with a 13:00-14:00 lunch and an 8 hour workable day.
func DefaultSettings() Settings {
	return Settings{
		WorkStart:             calendar.NewTimeOfDay(9, 0, 0),
		WorkEnd:               calendar.NewTimeOfDay(18, 0, 0),
		LunchStart:            calendar.NewTimeOfDay(13, 0, 0),
		LunchEnd:              calendar.NewTimeOfDay(14, 0, 0),
		WorkableMinutesPerDay: 480,
	}
}

// Calendar is everything the policy needs to know about one month.
type Calendar struct {
	Overrides []Override
	Holidays  []Holiday
}
