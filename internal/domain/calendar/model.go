package calendar

import "time"

// DayCell is one day of a month grid.
type DayCell struct {
	Date            time.Time `json:"date"`
	Day             int       `json:"day"`
	InMonth         bool      `json:"in_month"`
	Weekend         bool      `json:"weekend"`
	Holiday         bool      `json:"holiday"`
	HolidayName     string    `json:"holiday_name,omitempty"`
	Today           bool      `json:"today"`
	Users           []string  `json:"users"`
	ViewerAvailable bool      `json:"viewer_available"`
	AvailableCount  int       `json:"available_count"`
	TotalMembers    int       `json:"total_members"`
	Percentage      int       `json:"percentage"`
	Disabled        bool      `json:"disabled"`
}

// Grid is a month laid out in full weeks, Sunday first.
type Grid struct {
	GroupID   string    `json:"group_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	MonthName string    `json:"month_name"`
	PrevMonth string    `json:"prev_month"`
	NextMonth string    `json:"next_month"`
	Days      []DayCell `json:"days"`
}

// Weeks splits the grid into rows of seven days.
func (g Grid) Weeks() [][]DayCell {
	var rows [][]DayCell
	for i := 0; i+7 <= len(g.Days); i += 7 {
		rows = append(rows, g.Days[i:i+7])
	}
	return rows
}
