package mcp

import (
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/activity"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/calendar"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/domain/results"
	"github.com/ganot/overlap/internal/holiday"
)

type GroupParams struct {
	GroupID string `json:"group_id"`
}

type RangeParams struct {
	GroupID   string `json:"group_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type DeleteAvailabilityParams struct {
	GroupID string   `json:"group_id"`
	ID      string   `json:"id,omitempty"`
	IDs     []string `json:"ids,omitempty"`
}

type GetResultsParams struct {
	GroupID string `json:"group_id"`
	Limit   int    `json:"limit,omitempty"`
}

type GetCalendarParams struct {
	GroupID string `json:"group_id"`
	Month   string `json:"month,omitempty"`
}

type PreviewHolidaysParams struct {
	Country string `json:"country,omitempty"`
	Year    int    `json:"year,omitempty"`
}

type AddAllHolidaysParams struct {
	GroupID string `json:"group_id"`
	Year    int    `json:"year,omitempty"`
}

type GetRecentActivityParams struct {
	GroupID string                 `json:"group_id"`
	UserID  string                 `json:"user_id,omitempty"`
	Type    *activity.ActivityType `json:"type,omitempty"`
	Limit   int                    `json:"limit,omitempty"`
	Offset  int                    `json:"offset,omitempty"`
}

type CreateGroupParams struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	IsPublic     bool   `json:"is_public,omitempty"`
	WeekendsOnly bool   `json:"weekends_only,omitempty"`
	CountryCode  string `json:"country_code,omitempty"`
}

type UpdateGroupParams struct {
	GroupID      string  `json:"group_id"`
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	IsPublic     *bool   `json:"is_public,omitempty"`
	WeekendsOnly *bool   `json:"weekends_only,omitempty"`
	CountryCode  *string `json:"country_code,omitempty"`
}

type JoinGroupParams struct {
	GroupID string `json:"group_id"`
	Token   string `json:"token,omitempty"`
}

type InvitationParams struct {
	GroupID string `json:"group_id"`
	Action  string `json:"action,omitempty"`
}

type RemoveMemberParams struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type IntervalResponse struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

type AvailabilityListResponse struct {
	GroupID   string             `json:"group_id"`
	UserID    string             `json:"user_id"`
	Intervals []IntervalResponse `json:"intervals"`
	TotalDays int                `json:"total_days"`
}

type DeleteResponse struct {
	Deleted int `json:"deleted"`
}

type AddHolidaysResponse struct {
	Year  int `json:"year"`
	Added int `json:"added"`
}

type DateResultResponse struct {
	Date       string   `json:"date"`
	Users      []string `json:"users"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
	IsFull     bool     `json:"is_full"`
	Weekend    bool     `json:"weekend"`
	Holiday    string   `json:"holiday,omitempty"`
}

type ResultsResponse struct {
	GroupID      string               `json:"group_id"`
	TotalMembers int                  `json:"total_members"`
	Results      []DateResultResponse `json:"results"`
}

type DayCellResponse struct {
	Date            string   `json:"date"`
	Day             int      `json:"day"`
	InMonth         bool     `json:"in_month"`
	Weekend         bool     `json:"weekend"`
	Holiday         bool     `json:"holiday"`
	HolidayName     string   `json:"holiday_name,omitempty"`
	Today           bool     `json:"today"`
	Users           []string `json:"users"`
	ViewerAvailable bool     `json:"viewer_available"`
	AvailableCount  int      `json:"available_count"`
	TotalMembers    int      `json:"total_members"`
	Percentage      int      `json:"percentage"`
	Disabled        bool     `json:"disabled"`
}

type CalendarResponse struct {
	GroupID   string              `json:"group_id"`
	Year      int                 `json:"year"`
	Month     int                 `json:"month"`
	MonthName string              `json:"month_name"`
	PrevMonth string              `json:"prev_month"`
	NextMonth string              `json:"next_month"`
	Weeks     [][]DayCellResponse `json:"weeks"`
}

type MemberDaysResponse struct {
	GroupID string         `json:"group_id"`
	Days    map[string]int `json:"days"`
}

type HolidayPreview struct {
	Date      string `json:"date"`
	DateISO   string `json:"date_iso"`
	Name      string `json:"name"`
	DayOfWeek string `json:"day_of_week"`
}

type PreviewHolidaysResponse struct {
	Country  string           `json:"country"`
	Year     int              `json:"year"`
	Count    int              `json:"count"`
	Holidays []HolidayPreview `json:"holidays"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	UserID    string                `json:"user_id"`
	Summary   string                `json:"summary"`
	Details   string                `json:"details,omitempty"`
}

type GetRecentActivityResponse struct {
	Activity []ActivityEntryResponse `json:"activity"`
}

type InvitationResponse struct {
	GroupID string `json:"group_id"`
	Token   string `json:"token,omitempty"`
	Enabled bool   `json:"enabled"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

func intervalResponses(ivs []availability.Interval) ([]IntervalResponse, int) {
	out := make([]IntervalResponse, 0, len(ivs))
	total := 0
	for _, iv := range ivs {
		out = append(out, intervalResponse(iv))
		total += iv.Days()
	}
	return out, total
}

func intervalResponse(iv availability.Interval) IntervalResponse {
	return IntervalResponse{
		ID:        iv.ID,
		StartDate: dates.Format(iv.StartDate),
		EndDate:   dates.Format(iv.EndDate),
		Days:      iv.Days(),
	}
}

func dateResultResponses(rs []results.DateResult) []DateResultResponse {
	out := make([]DateResultResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, DateResultResponse{
			Date:       dates.Format(r.Date),
			Users:      r.Users,
			Count:      r.Count,
			Percentage: r.Percentage,
			IsFull:     r.IsFull,
			Weekend:    r.Weekend,
			Holiday:    r.Holiday,
		})
	}
	return out
}

func calendarResponse(g *calendar.Grid) CalendarResponse {
	resp := CalendarResponse{
		GroupID:   g.GroupID,
		Year:      g.Year,
		Month:     g.Month,
		MonthName: g.MonthName,
		PrevMonth: g.PrevMonth,
		NextMonth: g.NextMonth,
	}
	for _, week := range g.Weeks() {
		row := make([]DayCellResponse, 0, len(week))
		for _, c := range week {
			row = append(row, DayCellResponse{
				Date:            dates.Format(c.Date),
				Day:             c.Day,
				InMonth:         c.InMonth,
				Weekend:         c.Weekend,
				Holiday:         c.Holiday,
				HolidayName:     c.HolidayName,
				Today:           c.Today,
				Users:           c.Users,
				ViewerAvailable: c.ViewerAvailable,
				AvailableCount:  c.AvailableCount,
				TotalMembers:    c.TotalMembers,
				Percentage:      c.Percentage,
				Disabled:        c.Disabled,
			})
		}
		resp.Weeks = append(resp.Weeks, row)
	}
	return resp
}

func holidayPreviews(hs []holiday.Holiday) []HolidayPreview {
	out := make([]HolidayPreview, 0, len(hs))
	for _, h := range hs {
		out = append(out, HolidayPreview{
			Date:      h.Date.Format("January 02, 2006"),
			DateISO:   dates.Format(h.Date),
			Name:      h.Name,
			DayOfWeek: h.Date.Weekday().String(),
		})
	}
	return out
}

func rosterResponse(r *group.Roster, g *group.Group, viewerID string) GroupResponse {
	view := g.ForViewer(viewerID)
	return GroupResponse{
		ID:                view.ID,
		Name:              view.Name,
		Description:       view.Description,
		OwnerID:           view.OwnerID,
		IsPublic:          view.IsPublic,
		WeekendsOnly:      view.WeekendsOnly,
		CountryCode:       view.CountryCode,
		InvitationEnabled: view.InvitationEnabled,
		InvitationToken:   view.InvitationToken,
		Members:           r.MemberIDs,
		CreatedAt:         view.CreatedAt,
	}
}

type GroupResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	OwnerID           string    `json:"owner_id"`
	IsPublic          bool      `json:"is_public"`
	WeekendsOnly      bool      `json:"weekends_only"`
	CountryCode       string    `json:"country_code"`
	InvitationEnabled bool      `json:"invitation_enabled"`
	InvitationToken   string    `json:"invitation_token,omitempty"`
	Members           []string  `json:"members"`
	CreatedAt         time.Time `json:"created_at"`
}
