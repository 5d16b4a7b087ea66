package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/registrar/internal/pkg/apperrors"
)

func TestNewTimeSlotRejectsEmptyOrInvertedIntervals(t *testing.T) {
	_, err := NewTimeSlot(time.Monday, Clock(9, 0), Clock(9, 0))
	require.ErrorIs(t, err, apperrors.ErrInvalidDuration)

	_, err = NewTimeSlot(time.Monday, Clock(10, 0), Clock(9, 0))
	require.ErrorIs(t, err, apperrors.ErrInvalidDuration)

	_, err = NewTimeSlot(time.Monday, Clock(-1, 0), Clock(9, 0))
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = NewTimeSlot(time.Weekday(9), Clock(8, 0), Clock(9, 0))
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestTimeSlotConflicts(t *testing.T) {
	slot1 := MustTimeSlot(time.Monday, Clock(9, 0), Clock(10, 15))
	slot2 := MustTimeSlot(time.Monday, Clock(9, 30), Clock(10, 45))
	slot3 := MustTimeSlot(time.Monday, Clock(10, 15), Clock(11, 30))
	slot4 := MustTimeSlot(time.Tuesday, Clock(9, 0), Clock(10, 15))
	slot5 := MustTimeSlot(time.Monday, Clock(13, 0), Clock(14, 0))

	tests := []struct {
		name string
		a, b TimeSlot
		want bool
	}{
		{"overlapping same day", slot1, slot2, true},
		{"touching boundary", slot1, slot3, true},
		{"touching boundary reversed", slot3, slot1, true},
		{"different day", slot1, slot4, false},
		{"disjoint same day", slot1, slot5, false},
		{"identical", slot1, slot1, true},
		{"contained", slot2, MustTimeSlot(time.Monday, Clock(9, 45), Clock(10, 0)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.ConflictsWith(tt.b))
			assert.Equal(t, tt.want, tt.b.ConflictsWith(tt.a))
		})
	}
}

func TestSlotsConflict(t *testing.T) {
	mwf := []TimeSlot{
		MustTimeSlot(time.Monday, Clock(9, 0), Clock(9, 50)),
		MustTimeSlot(time.Wednesday, Clock(9, 0), Clock(9, 50)),
	}
	tth := []TimeSlot{
		MustTimeSlot(time.Tuesday, Clock(9, 0), Clock(10, 15)),
		MustTimeSlot(time.Thursday, Clock(9, 0), Clock(10, 15)),
	}
	wedLate := []TimeSlot{MustTimeSlot(time.Wednesday, Clock(9, 30), Clock(11, 0))}

	assert.False(t, SlotsConflict(mwf, tth))
	assert.True(t, SlotsConflict(mwf, wedLate))
	assert.False(t, SlotsConflict(nil, wedLate))
}

func TestTimeSlotAccessorsAndFormatting(t *testing.T) {
	slot := MustTimeSlot(time.Friday, Clock(14, 5), Clock(15, 20))
	assert.Equal(t, time.Friday, slot.Day())
	assert.Equal(t, 14, slot.Start().Hour())
	assert.Equal(t, 5, slot.Start().Minute())
	assert.Equal(t, 75*time.Minute, slot.Duration())
	assert.Equal(t, "Friday 14:05-15:20", slot.String())

	raw, err := json.Marshal(slot)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"Friday","start":"14:05","end":"15:20"}`, string(raw))
}

func TestParseClock(t *testing.T) {
	for input, want := range map[string]TimeOfDay{
		"09:00":   Clock(9, 0),
		"9:30":    Clock(9, 30),
		" 17:45 ": Clock(17, 45),
		"24:00":   MinutesPerDay,
	} {
		got, err := ParseClock(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, input := range []string{"", "noon", "25:00", "09:60"} {
		_, err := ParseClock(input)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed, input)
	}
}

func TestParseWeekday(t *testing.T) {
	for input, want := range map[string]time.Weekday{
		"Monday":    time.Monday,
		"tue":       time.Tuesday,
		" THURSDAY": time.Thursday,
		"Sun":       time.Sunday,
	} {
		got, err := ParseWeekday(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, input := range []string{"", "Mo", "Funday"} {
		_, err := ParseWeekday(input)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed, input)
	}
}
