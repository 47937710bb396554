package group

import (
	"sort"
	"time"
)

// Group is a set of people comparing availability.
type Group struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	OwnerID           string    `json:"owner_id"`
	IsPublic          bool      `json:"is_public"`
	WeekendsOnly      bool      `json:"weekends_only"`
	CountryCode       string    `json:"country_code"`
	InvitationToken   string    `json:"invitation_token,omitempty"`
	InvitationEnabled bool      `json:"invitation_enabled"`
	CreatedAt         time.Time `json:"created_at"`
}

// ForViewer hides the invitation token from everyone but the owner.
func (g Group) ForViewer(userID string) Group {
	if userID != g.OwnerID {
		g.InvitationToken = ""
	}
	return g
}

// Roster is the membership view used as the denominator for coverage.
type Roster struct {
	GroupID      string   `json:"group_id"`
	OwnerID      string   `json:"owner_id"`
	MemberIDs    []string `json:"member_ids"`
	WeekendsOnly bool     `json:"weekends_only"`
	CountryCode  string   `json:"country_code"`
}

// Total returns the number of members.
func (r Roster) Total() int {
	return len(r.MemberIDs)
}

// Has reports whether userID is a member.
func (r Roster) Has(userID string) bool {
	i := sort.SearchStrings(r.MemberIDs, userID)
	return i < len(r.MemberIDs) && r.MemberIDs[i] == userID
}

// CreateRequest contains fields for creating a group.
type CreateRequest struct {
	Name         string
	Description  string
	IsPublic     bool
	WeekendsOnly bool
	CountryCode  string
}

// UpdateRequest changes the fields that are set.
type UpdateRequest struct {
	Name         *string
	Description  *string
	IsPublic     *bool
	WeekendsOnly *bool
	CountryCode  *string
}

// Invitation is what the owner shares to let people into a private group.
type Invitation struct {
	GroupID string `json:"group_id"`
	Token   string `json:"token,omitempty"`
	Enabled bool   `json:"enabled"`
}
