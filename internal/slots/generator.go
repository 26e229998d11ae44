// Package slots provides the bookable time slots and date eligibility rules
// for call scheduling.
package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScheduleInfo contains schedule parameters for a bookable day.
type ScheduleInfo struct {
	StartTime    string // "09:00"
	EndTime      string // "18:00", last slot starts here
	SlotDuration int    // minutes
}

// DefaultSchedule is the business day offered for calls.
func DefaultSchedule() ScheduleInfo {
	return ScheduleInfo{
		StartTime:    "09:00",
		EndTime:      "18:00",
		SlotDuration: 30,
	}
}

// Labels generates the ordered slot labels for a schedule. Both ends are
// inclusive, so 09:00-18:00 at 30 minutes yields 19 labels.
func Labels(schedule ScheduleInfo) ([]string, error) {
	if schedule.SlotDuration <= 0 {
		schedule.SlotDuration = 30
	}

	// Any date works, labels carry no date component.
	day := time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)

	start, err := parseTimeOnDate(day, schedule.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}
	end, err := parseTimeOnDate(day, schedule.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parse end time: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end time %s before start time %s", schedule.EndTime, schedule.StartTime)
	}

	step := time.Duration(schedule.SlotDuration) * time.Minute
	var labels []string
	for cursor := start; !cursor.After(end); cursor = cursor.Add(step) {
		labels = append(labels, cursor.Format("15:04"))
	}
	return labels, nil
}

// MustLabels is like Labels but panics on an invalid schedule.
func MustLabels(schedule ScheduleInfo) []string {
	labels, err := Labels(schedule)
	if err != nil {
		panic(err)
	}
	return labels
}

// Contains reports whether label is one of labels.
func Contains(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// IsWeekend reports whether d falls on Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsPastDate reports whether d's calendar date is strictly before now's.
// d is interpreted in now's location.
func IsPastDate(d, now time.Time) bool {
	return DateOf(d, now.Location()).Before(DateOf(now, now.Location()))
}

// IsSelectableDate combines the weekend and past-date filters.
func IsSelectableDate(d, now time.Time) bool {
	return !IsWeekend(DateOf(d, now.Location())) && !IsPastDate(d, now)
}

// DateOf truncates t to midnight of its calendar date in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func parseTimeOnDate(date time.Time, timeStr string) (time.Time, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid hour: %s", parts[0])
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid minute: %s", parts[1])
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}
