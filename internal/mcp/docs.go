package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `overlap finds the dates when the most members of a group are free.

Core concepts:
- Group: a set of members with one owner, a holiday country and an optional weekends-only flag.
  Public groups are open to anyone. Private groups (the default) need the owner's invitation token.
- Interval: an inclusive [start_date, end_date] range when one member is available. Dates are YYYY-MM-DD.
- A member's intervals never overlap or touch. Adding a range merges it with anything adjacent; removing a range trims or splits what it covers.

Typical workflow:
1) create_group or join_group, then get_group to see the roster. Owners share a private group
   with manage_invitation (action enable) and hand out the token.
2) add_availability / remove_availability for each free range. add_all_holidays marks a whole year of public holidays.
3) get_results ranks dates by how many members are free. get_calendar shows one month as a grid.
4) get_recent_activity shows who changed what.

Docs:
- overlap://docs/index
- overlap://docs/concepts
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "overlap://docs/index",
		Name:        "docs_index",
		Title:       "overlap docs index",
		Description: "Entry point: which tools exist and when to call them.",
		Content: `# overlap: Agent Docs Index

## Tools by task

Availability (always scoped to you and one group):
- add_availability, remove_availability: edit one date range.
- clear_availability: drop everything you marked in the group.
- list_availability: your intervals with their IDs and day counts.
- delete_availability: delete intervals by ID, one or many.
- add_all_holidays: mark every public holiday of a year.

Reading the group:
- get_results: dates ranked by participation, best first. Pass limit for a top-N.
- get_calendar: one month, Sunday first, always whole weeks.
- get_member_days: total available days per member.
- get_recent_activity: newest changes first, filterable by member and type.
- preview_holidays: a country's holidays, without changing anything.

Groups:
- create_group, get_group, join_group, leave_group, remove_member.
- update_group, delete_group: owner only.
- manage_invitation: owner only; get, enable, disable or regenerate the join token.

## Errors

Tool errors come back as JSON with code, message and recovery_hint.
- INVALID_RANGE: a bad date or end_date before start_date.
- INVALID_INPUT: a missing or malformed argument.
- NOT_FOUND: unknown group or interval.
- FORBIDDEN: you are not a member, not the owner, or the group is private and the token is wrong.
- LOCKED: another change to the same availability is running. Retry.

See overlap://docs/concepts for the rules behind merging and scoring.
`,
	},
	{
		URI:         "overlap://docs/concepts",
		Name:        "docs_concepts",
		Title:       "overlap concepts",
		Description: "Glossary plus the merge, split and scoring rules.",
		Content: `# overlap: Concepts

## Intervals

An interval is inclusive on both ends: 2025-03-01..2025-03-03 covers three days.
For one member in one group, stored intervals never overlap and never touch.

Adding [s, e] removes every interval that overlaps it or ends the day before s
or starts the day after e, and stores a single interval spanning all of them.
Adding a range that is already covered stores nothing new.
A single range may span at most 731 days.

Removing [s, e] leaves the uncovered parts of each overlapping interval:
- covered entirely: deleted
- covers the start: trimmed to begin at e+1
- covers the end: trimmed to finish at s-1
- strictly inside: split into two intervals

## Results

Only current members count. Every date with at least one available member becomes a result with
count, users and percentage = count / members * 100 (one decimal).
is_full is true when every member is available.
Results are ordered by count (highest first), then by date.
Groups with weekends_only keep only weekend dates (Friday to Sunday) and holidays.

## Calendar

The grid starts on the Sunday on or before the 1st and ends on the Saturday
on or after the last day. Cells outside the month are marked in_month=false.
Percentage in the grid is rounded to a whole number.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
