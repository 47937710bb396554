package mcp

import "github.com/google/jsonschema-go/jsonschema"

// ToolDefinition describes one MCP tool.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

func str(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func date(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc, Pattern: `^\d{4}-\d{2}-\d{2}$`}
}

func integer(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc}
}

func object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

var groupIDProp = str("Group ID")

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	rangeSchema := object(map[string]*jsonschema.Schema{
		"group_id":   groupIDProp,
		"start_date": date("First day of the range (YYYY-MM-DD, inclusive)"),
		"end_date":   date("Last day of the range (YYYY-MM-DD, inclusive)"),
	}, "group_id", "start_date", "end_date")

	return []ToolDefinition{
		// Availability
		{
			Name:        "add_availability",
			Description: "Mark a date range as available. Overlapping or adjacent ranges you already have are merged into one.",
			InputSchema: rangeSchema,
		},
		{
			Name:        "remove_availability",
			Description: "Remove a date range from your availability. Ranges that straddle it are trimmed or split.",
			InputSchema: rangeSchema,
		},
		{
			Name:        "clear_availability",
			Description: "Remove all of your availability in a group",
			InputSchema: object(map[string]*jsonschema.Schema{"group_id": groupIDProp}, "group_id"),
		},
		{
			Name:        "list_availability",
			Description: "List your availability intervals in a group, ordered by start date",
			InputSchema: object(map[string]*jsonschema.Schema{"group_id": groupIDProp}, "group_id"),
		},
		{
			Name:        "delete_availability",
			Description: "Delete stored intervals by ID. IDs that are not yours are ignored.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"group_id": groupIDProp,
				"id":       str("Interval ID to delete"),
				"ids": {
					Type:        "array",
					Description: "Interval IDs to delete in one batch",
					Items:       &jsonschema.Schema{Type: "string"},
				},
			}, "group_id"),
		},
		{
			Name:        "add_all_holidays",
			Description: "Mark every public holiday of the group's country in a year as available",
			InputSchema: object(map[string]*jsonschema.Schema{
				"group_id": groupIDProp,
				"year":     integer("Calendar year (defaults to the current year)"),
			}, "group_id"),
		},

		// Aggregation
		{
			Name:        "get_results",
			Description: "Rank the group's dates by how many members are available, best first",
			InputSchema: object(map[string]*jsonschema.Schema{
				"group_id": groupIDProp,
				"limit":    integer("Maximum number of dates to return (omit for all)"),
			}, "group_id"),
		},
		{
			Name:        "get_calendar",
			Description: "Get a month grid (Sunday first, full weeks) with per-day participation",
			InputSchema: object(map[string]*jsonschema.Schema{
				"group_id": groupIDProp,
				"month":    &jsonschema.Schema{Type: "string", Description: "Month as YYYY-MM (defaults to the current month)", Pattern: `^\d{4}-\d{2}$`},
			}, "group_id"),
		},
		{
			Name:        "get_member_days",
			Description: "Total available days per member of the group",
			InputSchema: object(map[string]*jsonschema.Schema{"group_id": groupIDProp}, "group_id"),
		},
		{
			Name:        "preview_holidays",
			Description: "List a country's public holidays for a year without changing anything",
			InputSchema: object(map[string]*jsonschema.Schema{
				"country": str("ISO country code (defaults to the server's country)"),
				"year":    integer("Calendar year (defaults to the current year)"),
			}),
		},
		{
			Name:        "get_recent_activity",
			Description: "Recent availability changes in a group, newest first",
			InputSchema: object(map[string]*jsonschema.Schema{
				"group_id": groupIDProp,
				"user_id":  str("Only show changes by this member"),
				"type": {
					Type:        "string",
					Description: "Only show this kind of change",
					Enum: []any{
						"availability_added", "availability_removed", "availability_cleared",
						"intervals_deleted", "holidays_added",
					},
				},
				"limit":  integer("Maximum number of entries (default 50)"),
				"offset": integer("Entries to skip"),
			}, "group_id"),
		},

		// Groups
		{
			Name:        "create_group",
			Description: "Create a group. You become its owner and first member.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"name":          str("Group name"),
				"description":   str("Group description"),
				"is_public":     {Type: "boolean", Description: "Anyone may join a public group. Private groups need an invitation token."},
				"weekends_only": {Type: "boolean", Description: "Only count Fridays, weekends and holidays in results"},
				"country_code":  str("ISO country code used for holidays (defaults to the server's country)"),
			}, "name"),
		},
		{
			Name:        "update_group",
			Description: "Owner only: change a group's name, description, visibility, weekend filter or country. Omitted fields stay as they are.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"group_id":      groupIDProp,
				"name":          str("New group name"),
				"description":   str("New description"),
				"is_public":     {Type: "boolean", Description: "Open the group to anyone, or make it invitation only"},
				"weekends_only": {Type: "boolean", Description: "Only count Fridays, weekends and holidays in results"},
				"country_code":  str("ISO country code used for holidays"),
			}, "group_id"),
		},
		{
			Name:        "delete_group",
			Description: "Owner only: delete a group with all memberships and availability",
			InputSchema: object(map[string]*jsonschema.Schema{"group_id": groupIDProp}, "group_id"),
		},
		{
			Name:        "manage_invitation",
			Description: "Owner only: show, enable, disable or regenerate the invitation token of a private group",
			InputSchema: object(map[string]*jsonschema.Schema{
				"group_id": groupIDProp,
				"action": {
					Type:        "string",
					Description: "What to do (defaults to get)",
					Enum:        []any{"get", "enable", "disable", "regenerate"},
				},
			}, "group_id"),
		},
		{
			Name:        "get_group",
			Description: "Get a group and its members",
			InputSchema: object(map[string]*jsonschema.Schema{"group_id": groupIDProp}, "group_id"),
		},
		{
			Name:        "join_group",
			Description: "Join a group. Private groups need the owner's invitation token. Joining twice has no effect.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"group_id": groupIDProp,
				"token":    str("Invitation token for a private group"),
			}, "group_id"),
		},
		{
			Name:        "leave_group",
			Description: "Leave a group. Your availability in it is deleted.",
			InputSchema: object(map[string]*jsonschema.Schema{"group_id": groupIDProp}, "group_id"),
		},
		{
			Name:        "remove_member",
			Description: "Owner only: remove a member and their availability",
			InputSchema: object(map[string]*jsonschema.Schema{
				"group_id": groupIDProp,
				"user_id":  str("Member to remove"),
			}, "group_id", "user_id"),
		},
	}
}
