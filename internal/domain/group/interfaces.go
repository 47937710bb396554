package group

import "context"

// Repository provides persistence operations for groups and memberships.
type Repository interface {
	Create(ctx context.Context, g *Group) error
	Get(ctx context.Context, id string) (*Group, error)
	Update(ctx context.Context, g *Group) error
	// Delete removes the group together with its memberships and any
	// availability stored against it.
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string) ([]string, error)
}

// AvailabilityEvictor clears a member's availability in a group and runs
// detach before any concurrent add for the same member can proceed.
type AvailabilityEvictor interface {
	Evict(ctx context.Context, userID, groupID string, detach func(context.Context) error) (int, error)
}
