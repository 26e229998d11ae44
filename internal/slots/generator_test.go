package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabels(t *testing.T) {
	tests := []struct {
		name          string
		schedule      ScheduleInfo
		expectedCount int
		first, last   string
	}{
		{
			name:          "default business day",
			schedule:      DefaultSchedule(),
			expectedCount: 19,
			first:         "09:00",
			last:          "18:00",
		},
		{
			name: "hourly slots",
			schedule: ScheduleInfo{
				StartTime:    "10:00",
				EndTime:      "12:00",
				SlotDuration: 60,
			},
			expectedCount: 3,
			first:         "10:00",
			last:          "12:00",
		},
		{
			name: "zero duration falls back to 30 minutes",
			schedule: ScheduleInfo{
				StartTime: "09:00",
				EndTime:   "10:00",
			},
			expectedCount: 3,
			first:         "09:00",
			last:          "10:00",
		},
		{
			name: "single slot",
			schedule: ScheduleInfo{
				StartTime:    "09:00",
				EndTime:      "09:00",
				SlotDuration: 30,
			},
			expectedCount: 1,
			first:         "09:00",
			last:          "09:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := Labels(tt.schedule)
			require.NoError(t, err)
			require.Len(t, labels, tt.expectedCount)
			assert.Equal(t, tt.first, labels[0])
			assert.Equal(t, tt.last, labels[len(labels)-1])
		})
	}
}

func TestLabelsDefaultOrder(t *testing.T) {
	expected := []string{
		"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
		"12:00", "12:30", "13:00", "13:30", "14:00", "14:30",
		"15:00", "15:30", "16:00", "16:30", "17:00", "17:30", "18:00",
	}
	assert.Equal(t, expected, MustLabels(DefaultSchedule()))
}

func TestLabelsInvalid(t *testing.T) {
	tests := []ScheduleInfo{
		{StartTime: "9", EndTime: "18:00"},
		{StartTime: "09:00", EndTime: "25:00"},
		{StartTime: "09:xx", EndTime: "18:00"},
		{StartTime: "18:00", EndTime: "09:00"},
	}
	for _, schedule := range tests {
		_, err := Labels(schedule)
		assert.Error(t, err, "schedule %+v", schedule)
	}
}

func TestContains(t *testing.T) {
	labels := MustLabels(DefaultSchedule())
	assert.True(t, Contains(labels, "10:00"))
	assert.True(t, Contains(labels, "18:00"))
	assert.False(t, Contains(labels, "18:30"))
	assert.False(t, Contains(labels, "10:15"))
	assert.False(t, Contains(labels, ""))
}

func TestIsSelectableDate(t *testing.T) {
	// Thursday
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		date       time.Time
		selectable bool
	}{
		{"today", time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), true},
		{"today later in the day", time.Date(2026, 10, 15, 23, 59, 0, 0, time.UTC), true},
		{"yesterday", time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), false},
		{"last year", time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC), false},
		{"saturday", time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), false},
		{"sunday", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), false},
		{"next monday", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), true},
		{"monday two weeks out", time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.selectable, IsSelectableDate(tt.date, now))
		})
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 22:30 UTC is already the next day at UTC+3.
	ts := time.Date(2026, 10, 15, 22, 30, 0, 0, time.UTC)
	d := DateOf(ts, loc)
	assert.Equal(t, 16, d.Day())
	assert.Equal(t, 0, d.Hour())
	assert.Equal(t, loc, d.Location())
}
