package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/activity"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/calendar"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/domain/results"
	"github.com/ganot/overlap/internal/holiday"
	"github.com/ganot/overlap/internal/ics"
)

// AvailabilityService defines availability operations needed by MCP.
type AvailabilityService interface {
	Add(ctx context.Context, userID, groupID string, start, end time.Time) (*availability.Interval, error)
	Remove(ctx context.Context, userID, groupID string, start, end time.Time) error
	Clear(ctx context.Context, userID, groupID string) (int, error)
	DeleteInterval(ctx context.Context, userID, groupID, id string) error
	DeleteIntervals(ctx context.Context, userID, groupID string, ids []string) (int, error)
	AddHolidays(ctx context.Context, userID, groupID, country string, year int) (int, error)
	List(ctx context.Context, userID, groupID string) ([]availability.Interval, error)
	MemberDays(ctx context.Context, groupID string) (map[string]int, error)
}

// GroupService defines group operations needed by MCP.
type GroupService interface {
	Create(ctx context.Context, ownerID string, req group.CreateRequest) (*group.Group, error)
	Get(ctx context.Context, id string) (*group.Group, error)
	RequireMember(ctx context.Context, groupID, userID string) (*group.Roster, error)
	Join(ctx context.Context, groupID, userID, token string) error
	Leave(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, actorID, groupID, userID string) error
	Update(ctx context.Context, actorID, groupID string, req group.UpdateRequest) (*group.Group, error)
	Destroy(ctx context.Context, actorID, groupID string) error
	Invitation(ctx context.Context, actorID, groupID string) (*group.Invitation, error)
	EnableInvitations(ctx context.Context, actorID, groupID string) (*group.Invitation, error)
	DisableInvitations(ctx context.Context, actorID, groupID string) (*group.Invitation, error)
	RegenerateInvitation(ctx context.Context, actorID, groupID string) (*group.Invitation, error)
}

// ResultsService defines aggregation operations needed by MCP.
type ResultsService interface {
	Best(ctx context.Context, groupID string, limit int) ([]results.DateResult, error)
}

// CalendarService defines grid operations needed by MCP.
type CalendarService interface {
	Grid(ctx context.Context, groupID string, month time.Time, viewerID string) (*calendar.Grid, error)
}

// HolidayService defines holiday lookups needed by MCP.
type HolidayService interface {
	Between(country string, from, to time.Time) []holiday.Holiday
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, groupID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Availability AvailabilityService
	Groups       GroupService
	Results      ResultsService
	Calendar     CalendarService
	Holidays     HolidayService
	Activity     ActivityService
}

// Handler dispatches MCP commands.
type Handler struct {
	availability AvailabilityService
	groups       GroupService
	results      ResultsService
	calendar     CalendarService
	holidays     HolidayService
	activity     ActivityService
	country      string
	now          func() time.Time
}

// NewHandler creates a new MCP handler. country is the default for
// preview_holidays; a nil clock uses time.Now.
func NewHandler(svcs Services, country string, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	if country == "" {
		country = group.DefaultCountry
	}
	return &Handler{
		availability: svcs.Availability,
		groups:       svcs.Groups,
		results:      svcs.Results,
		calendar:     svcs.Calendar,
		holidays:     svcs.Holidays,
		activity:     svcs.Activity,
		country:      strings.ToUpper(country),
		now:          now,
	}
}

// Handle dispatches MCP requests to domain services on behalf of userID.
func (h *Handler) Handle(ctx context.Context, userID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "add_availability":
		var req RangeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		start, end, err := parseRange(req)
		if err != nil {
			return nil, err
		}
		if _, err := h.groups.RequireMember(ctx, req.GroupID, userID); err != nil {
			return nil, mapError(err)
		}
		iv, err := h.availability.Add(ctx, userID, req.GroupID, start, end)
		if err != nil {
			return nil, mapError(err)
		}
		return intervalResponse(*iv), nil
	case "remove_availability":
		var req RangeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		start, end, err := parseRange(req)
		if err != nil {
			return nil, err
		}
		if _, err := h.groups.RequireMember(ctx, req.GroupID, userID); err != nil {
			return nil, mapError(err)
		}
		if err := h.availability.Remove(ctx, userID, req.GroupID, start, end); err != nil {
			return nil, mapError(err)
		}
		return h.listAvailability(ctx, userID, req.GroupID)
	case "clear_availability":
		var req GroupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.groups.RequireMember(ctx, req.GroupID, userID); err != nil {
			return nil, mapError(err)
		}
		n, err := h.availability.Clear(ctx, userID, req.GroupID)
		if err != nil {
			return nil, mapError(err)
		}
		return DeleteResponse{Deleted: n}, nil
	case "list_availability":
		var req GroupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.groups.RequireMember(ctx, req.GroupID, userID); err != nil {
			return nil, mapError(err)
		}
		return h.listAvailability(ctx, userID, req.GroupID)
	case "delete_availability":
		var req DeleteAvailabilityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ID == "" && len(req.IDs) == 0 {
			return nil, &APIError{Code: CodeInvalidInput, Message: "id or ids is required"}
		}
		if _, err := h.groups.RequireMember(ctx, req.GroupID, userID); err != nil {
			return nil, mapError(err)
		}
		if len(req.IDs) == 0 {
			if err := h.availability.DeleteInterval(ctx, userID, req.GroupID, req.ID); err != nil {
				return nil, mapError(err)
			}
			return DeleteResponse{Deleted: 1}, nil
		}
		ids := req.IDs
		if req.ID != "" {
			ids = append([]string{req.ID}, ids...)
		}
		n, err := h.availability.DeleteIntervals(ctx, userID, req.GroupID, ids)
		if err != nil {
			return nil, mapError(err)
		}
		return DeleteResponse{Deleted: n}, nil
	case "add_all_holidays":
		var req AddAllHolidaysParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		roster, err := h.groups.RequireMember(ctx, req.GroupID, userID)
		if err != nil {
			return nil, mapError(err)
		}
		year := h.yearOrCurrent(req.Year)
		n, err := h.availability.AddHolidays(ctx, userID, req.GroupID, roster.CountryCode, year)
		if err != nil {
			return nil, mapError(err)
		}
		return AddHolidaysResponse{Year: year, Added: n}, nil
	case "get_results":
		var req GetResultsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		roster, err := h.groups.RequireMember(ctx, req.GroupID, userID)
		if err != nil {
			return nil, mapError(err)
		}
		best, err := h.results.Best(ctx, req.GroupID, req.Limit)
		if err != nil {
			return nil, mapError(err)
		}
		return ResultsResponse{
			GroupID:      req.GroupID,
			TotalMembers: roster.Total(),
			Results:      dateResultResponses(best),
		}, nil
	case "get_calendar":
		var req GetCalendarParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		month := dates.FirstOfMonth(h.now())
		if req.Month != "" {
			m, err := dates.ParseMonth(req.Month)
			if err != nil {
				return nil, invalidParams(err)
			}
			month = m
		}
		if _, err := h.groups.RequireMember(ctx, req.GroupID, userID); err != nil {
			return nil, mapError(err)
		}
		grid, err := h.calendar.Grid(ctx, req.GroupID, month, userID)
		if err != nil {
			return nil, mapError(err)
		}
		return calendarResponse(grid), nil
	case "get_member_days":
		var req GroupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.groups.RequireMember(ctx, req.GroupID, userID); err != nil {
			return nil, mapError(err)
		}
		days, err := h.availability.MemberDays(ctx, req.GroupID)
		if err != nil {
			return nil, mapError(err)
		}
		return MemberDaysResponse{GroupID: req.GroupID, Days: days}, nil
	case "preview_holidays":
		var req PreviewHolidaysParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.PreviewHolidays(req.Country, req.Year), nil
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.groups.RequireMember(ctx, req.GroupID, userID); err != nil {
			return nil, mapError(err)
		}
		entries, err := h.activity.GetRecentActivity(ctx, req.GroupID, activity.ListActivityOptions{
			UserID:       req.UserID,
			ActivityType: req.Type,
			Limit:        req.Limit,
			Offset:       req.Offset,
		})
		if err != nil {
			return nil, mapError(err)
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				UserID:    entry.UserID,
				Summary:   entry.Summary,
				Details:   entry.Details,
			})
		}
		return GetRecentActivityResponse{Activity: resp}, nil
	case "create_group":
		var req CreateGroupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		g, err := h.groups.Create(ctx, userID, group.CreateRequest{
			Name:         req.Name,
			Description:  req.Description,
			IsPublic:     req.IsPublic,
			WeekendsOnly: req.WeekendsOnly,
			CountryCode:  req.CountryCode,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return rosterResponse(&group.Roster{MemberIDs: []string{userID}}, g, userID), nil
	case "update_group":
		var req UpdateGroupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.groups.Update(ctx, userID, req.GroupID, group.UpdateRequest{
			Name:         req.Name,
			Description:  req.Description,
			IsPublic:     req.IsPublic,
			WeekendsOnly: req.WeekendsOnly,
			CountryCode:  req.CountryCode,
		}); err != nil {
			return nil, mapError(err)
		}
		return h.groupResponse(ctx, req.GroupID, userID)
	case "delete_group":
		var req GroupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.groups.Destroy(ctx, userID, req.GroupID); err != nil {
			return nil, mapError(err)
		}
		return StatusResponse{Status: "deleted"}, nil
	case "manage_invitation":
		var req InvitationParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		inv, err := h.invitation(ctx, userID, req)
		if err != nil {
			return nil, err
		}
		return InvitationResponse{GroupID: inv.GroupID, Token: inv.Token, Enabled: inv.Enabled}, nil
	case "get_group":
		var req GroupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.groupResponse(ctx, req.GroupID, userID)
	case "join_group":
		var req JoinGroupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.groups.Join(ctx, req.GroupID, userID, req.Token); err != nil {
			return nil, mapError(err)
		}
		return h.groupResponse(ctx, req.GroupID, userID)
	case "leave_group":
		var req GroupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.groups.Leave(ctx, req.GroupID, userID); err != nil {
			return nil, mapError(err)
		}
		return StatusResponse{Status: "left"}, nil
	case "remove_member":
		var req RemoveMemberParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.groups.RemoveMember(ctx, userID, req.GroupID, req.UserID); err != nil {
			return nil, mapError(err)
		}
		return StatusResponse{Status: "removed"}, nil
	default:
		return nil, &APIError{Code: CodeUnknownTool, Message: fmt.Sprintf("unknown method: %s", method)}
	}
}

// PreviewHolidays lists a country's holidays for year. Zero values fall
// back to the default country and the current year.
func (h *Handler) PreviewHolidays(country string, year int) PreviewHolidaysResponse {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		country = h.country
	}
	year = h.yearOrCurrent(year)
	list := h.holidays.Between(country, dates.New(year, time.January, 1), dates.New(year, time.December, 31))
	return PreviewHolidaysResponse{
		Country:  country,
		Year:     year,
		Count:    len(list),
		Holidays: holidayPreviews(list),
	}
}

// ExportMember renders userID's availability in a group as iCalendar.
func (h *Handler) ExportMember(ctx context.Context, userID, groupID string) (string, error) {
	if _, err := h.groups.RequireMember(ctx, groupID, userID); err != nil {
		return "", mapError(err)
	}
	g, err := h.groups.Get(ctx, groupID)
	if err != nil {
		return "", mapError(err)
	}
	list, err := h.availability.List(ctx, userID, groupID)
	if err != nil {
		return "", mapError(err)
	}
	return ics.Member(g.Name, list, h.now()), nil
}

// ExportResults renders the group's best dates as iCalendar.
func (h *Handler) ExportResults(ctx context.Context, userID, groupID string, limit int) (string, error) {
	roster, err := h.groups.RequireMember(ctx, groupID, userID)
	if err != nil {
		return "", mapError(err)
	}
	g, err := h.groups.Get(ctx, groupID)
	if err != nil {
		return "", mapError(err)
	}
	best, err := h.results.Best(ctx, groupID, limit)
	if err != nil {
		return "", mapError(err)
	}
	return ics.BestDates(g.Name, groupID, best, roster.Total(), h.now()), nil
}

func (h *Handler) listAvailability(ctx context.Context, userID, groupID string) (AvailabilityListResponse, error) {
	list, err := h.availability.List(ctx, userID, groupID)
	if err != nil {
		return AvailabilityListResponse{}, mapError(err)
	}
	intervals, total := intervalResponses(list)
	return AvailabilityListResponse{
		GroupID:   groupID,
		UserID:    userID,
		Intervals: intervals,
		TotalDays: total,
	}, nil
}

func (h *Handler) groupResponse(ctx context.Context, groupID, userID string) (GroupResponse, error) {
	roster, err := h.groups.RequireMember(ctx, groupID, userID)
	if err != nil {
		return GroupResponse{}, mapError(err)
	}
	g, err := h.groups.Get(ctx, groupID)
	if err != nil {
		return GroupResponse{}, mapError(err)
	}
	return rosterResponse(roster, g, userID), nil
}

func (h *Handler) invitation(ctx context.Context, userID string, req InvitationParams) (*group.Invitation, error) {
	var (
		inv *group.Invitation
		err error
	)
	switch req.Action {
	case "", "get":
		inv, err = h.groups.Invitation(ctx, userID, req.GroupID)
	case "enable":
		inv, err = h.groups.EnableInvitations(ctx, userID, req.GroupID)
	case "disable":
		inv, err = h.groups.DisableInvitations(ctx, userID, req.GroupID)
	case "regenerate":
		inv, err = h.groups.RegenerateInvitation(ctx, userID, req.GroupID)
	default:
		return nil, &APIError{Code: CodeInvalidInput, Message: fmt.Sprintf("unknown action %q", req.Action), RecoveryHint: "Use get, enable, disable or regenerate"}
	}
	if err != nil {
		return nil, mapError(err)
	}
	return inv, nil
}

func (h *Handler) yearOrCurrent(year int) int {
	if year <= 0 {
		return h.now().Year()
	}
	return year
}

func parseRange(req RangeParams) (time.Time, time.Time, error) {
	start, err := dates.Parse(req.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, &APIError{Code: CodeInvalidRange, Message: fmt.Sprintf("invalid start_date %q", req.StartDate), RecoveryHint: "Use YYYY-MM-DD"}
	}
	end, err := dates.Parse(req.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, &APIError{Code: CodeInvalidRange, Message: fmt.Sprintf("invalid end_date %q", req.EndDate), RecoveryHint: "Use YYYY-MM-DD"}
	}
	return start, end, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return invalidParams(err)
	}
	return nil
}
