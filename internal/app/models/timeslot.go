package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// MinutesPerDay bounds TimeOfDay values.
const MinutesPerDay = 24 * 60

// TimeOfDay is a wall-clock instant expressed in minutes since midnight.
type TimeOfDay int

// Clock builds a TimeOfDay from a 24-hour clock reading.
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) valid() bool {
	return t >= 0 && t <= MinutesPerDay
}

// TimeSlot is one weekly meeting of a section. Values are immutable once built
// by NewTimeSlot.
type TimeSlot struct {
	day   time.Weekday
	start TimeOfDay
	end   TimeOfDay
}

// NewTimeSlot validates and builds a slot. A slot must end strictly after it starts.
func NewTimeSlot(day time.Weekday, start, end TimeOfDay) (TimeSlot, error) {
	if day < time.Sunday || day > time.Saturday {
		return TimeSlot{}, apperrors.NewValidationError(fmt.Sprintf("invalid weekday %d", day))
	}
	if !start.valid() || !end.valid() {
		return TimeSlot{}, apperrors.NewValidationError("time of day must be within a single day")
	}
	if end <= start {
		return TimeSlot{}, fmt.Errorf("%w: %s-%s", apperrors.ErrInvalidDuration, start, end)
	}
	return TimeSlot{day: day, start: start, end: end}, nil
}

// MustTimeSlot is NewTimeSlot for literals known to be valid; it panics otherwise.
func MustTimeSlot(day time.Weekday, start, end TimeOfDay) TimeSlot {
	slot, err := NewTimeSlot(day, start, end)
	if err != nil {
		panic(err)
	}
	return slot
}

// Day returns the weekday of the slot
func (s TimeSlot) Day() time.Weekday { return s.day }

// Start returns the start of the slot
func (s TimeSlot) Start() TimeOfDay { return s.start }

// End returns the end of the slot
func (s TimeSlot) End() TimeOfDay { return s.end }

// Duration returns the length of the slot
func (s TimeSlot) Duration() time.Duration {
	return time.Duration(s.end-s.start) * time.Minute
}

// ConflictsWith reports whether both slots fall on the same day and their
// closed intervals overlap. Slots that only touch at a boundary conflict.
func (s TimeSlot) ConflictsWith(other TimeSlot) bool {
	if s.day != other.day {
		return false
	}
	return !(s.end < other.start || other.end < s.start)
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", s.day, s.start, s.end)
}

// MarshalJSON exposes the slot's unexported fields.
func (s TimeSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Day   string `json:"day"`
		Start string `json:"start"`
		End   string `json:"end"`
	}{s.day.String(), s.start.String(), s.end.String()})
}

// SlotsConflict reports whether any slot of a conflicts with any slot of b.
func SlotsConflict(a, b []TimeSlot) bool {
	for _, existing := range a {
		for _, candidate := range b {
			if existing.ConflictsWith(candidate) {
				return true
			}
		}
	}
	return false
}

// ParseClock reads a 24-hour "HH:MM" reading.
func ParseClock(value string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		if strings.TrimSpace(value) == "24:00" {
			return MinutesPerDay, nil
		}
		return 0, apperrors.NewValidationError(fmt.Sprintf("invalid time of day %q", value))
	}
	return Clock(parsed.Hour(), parsed.Minute()), nil
}

// ParseWeekday accepts full English day names and their three-letter forms,
// in any case.
func ParseWeekday(value string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(value))
	for day := time.Sunday; day <= time.Saturday; day++ {
		full := strings.ToLower(day.String())
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) {
			return day, nil
		}
	}
	return 0, apperrors.NewValidationError(fmt.Sprintf("invalid weekday %q", value))
}
