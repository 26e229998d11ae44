package slots

import (
	"fmt"
	"time"
)

// Day is one cell of a month grid. Padding cells have Day == 0.
type Day struct {
	Date       string `json:"date,omitempty"` // YYYY-MM-DD
	Day        int    `json:"day"`
	Selectable bool   `json:"selectable"`
}

// Month is a Monday-first calendar grid.
type Month struct {
	Year     int      `json:"year"`
	Month    int      `json:"month"`
	Title    string   `json:"title"`
	Weekdays []string `json:"weekdays"`
	Weeks    [][]Day  `json:"weeks"`
}

var weekdayHeader = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// BuildMonth builds the grid for year/month marking which days can be picked
// relative to now.
func BuildMonth(year, month int, now time.Time) (Month, error) {
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("invalid month: %d", month)
	}

	loc := now.Location()
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	offset := int(first.Weekday())
	if offset == 0 {
		offset = 7 // Monday-first grid
	}
	days := daysIn(time.Month(month), year)

	grid := Month{
		Year:     year,
		Month:    month,
		Title:    fmt.Sprintf("%s %d", time.Month(month), year),
		Weekdays: weekdayHeader,
	}

	day := 1
	for day <= days {
		week := make([]Day, 0, 7)
		for col := 1; col <= 7; col++ {
			if len(grid.Weeks) == 0 && col < offset {
				week = append(week, Day{})
				continue
			}
			if day > days {
				week = append(week, Day{})
				continue
			}
			date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
			week = append(week, Day{
				Date:       date.Format("2006-01-02"),
				Day:        day,
				Selectable: IsSelectableDate(date, now),
			})
			day++
		}
		grid.Weeks = append(grid.Weeks, week)
	}

	return grid, nil
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
