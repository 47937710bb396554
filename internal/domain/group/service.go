package group

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ganot/overlap/internal/repository"
	"github.com/google/uuid"
)

// DefaultCountry is used for holiday lookups when a group names none.
const DefaultCountry = "BR"

// Service handles group membership. Membership side effects are explicit
// steps here: creating a group enrolls its owner, and dropping a member
// clears that member's availability before the membership row goes.
type Service struct {
	repo    Repository
	evictor AvailabilityEvictor
	country string
	logger  *slog.Logger
}

// NewService creates a new group service. country is the default holiday
// country for new groups.
func NewService(repo Repository, evictor AvailabilityEvictor, country string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if country == "" {
		country = DefaultCountry
	}
	return &Service{repo: repo, evictor: evictor, country: strings.ToUpper(country), logger: logger}
}

// Create stores a new group and enrolls the owner as its first member.
// Private groups get an invitation token, disabled until the owner turns
// invitations on. A failed enrollment removes the group again.
func (s *Service) Create(ctx context.Context, ownerID string, req CreateRequest) (*Group, error) {
	if ownerID == "" || strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}
	country := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if country == "" {
		country = s.country
	}

	g := &Group{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		OwnerID:      ownerID,
		IsPublic:     req.IsPublic,
		WeekendsOnly: req.WeekendsOnly,
		CountryCode:  country,
		CreatedAt:    time.Now().UTC(),
	}
	if !g.IsPublic {
		g.InvitationToken = newInvitationToken()
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}
	if err := s.repo.AddMember(ctx, g.ID, ownerID); err != nil {
		if delErr := s.repo.Delete(ctx, g.ID); delErr != nil {
			s.logger.Error("failed to roll back group without owner", "group_id", g.ID, "error", delErr)
		}
		return nil, fmt.Errorf("enrolling owner: %w", err)
	}
	s.logger.Info("group created", "group_id", g.ID, "owner_id", ownerID, "public", g.IsPublic)
	return g, nil
}

// Get loads a group.
func (s *Service) Get(ctx context.Context, id string) (*Group, error) {
	return load(ctx, s.repo, id)
}

// Roster returns the group's members (owner included) and its filters.
func (s *Service) Roster(ctx context.Context, groupID string) (*Roster, error) {
	return loadRoster(ctx, s.repo, groupID)
}

// RequireMember returns the roster when userID belongs to the group.
func (s *Service) RequireMember(ctx context.Context, groupID, userID string) (*Roster, error) {
	r, err := s.Roster(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !r.Has(userID) {
		return nil, ErrNotMember
	}
	return r, nil
}

// Join adds userID to the group. Public groups are open; private groups
// need the current invitation token while invitations are enabled.
// Joining twice is a no-op.
func (s *Service) Join(ctx context.Context, groupID, userID, token string) error {
	if userID == "" {
		return ErrInvalidInput
	}
	g, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsPublic && !g.acceptsToken(token) {
		// Existing members may call join again without a token.
		if r, err := s.Roster(ctx, groupID); err == nil && r.Has(userID) {
			return nil
		}
		return ErrJoinDenied
	}
	if err := s.repo.AddMember(ctx, groupID, userID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil
		}
		return fmt.Errorf("adding member: %w", err)
	}
	s.logger.Info("member joined group", "group_id", groupID, "user_id", userID, "via_invitation", !g.IsPublic)
	return nil
}

// Update lets the owner edit the group. Making a group private issues an
// invitation token if it has none.
func (s *Service) Update(ctx context.Context, actorID, groupID string, req UpdateRequest) (*Group, error) {
	g, err := s.owned(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		g.Name = name
	}
	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.WeekendsOnly != nil {
		g.WeekendsOnly = *req.WeekendsOnly
	}
	if req.CountryCode != nil {
		if country := strings.ToUpper(strings.TrimSpace(*req.CountryCode)); country != "" {
			g.CountryCode = country
		}
	}
	if req.IsPublic != nil {
		g.IsPublic = *req.IsPublic
		if !g.IsPublic && g.InvitationToken == "" {
			g.InvitationToken = newInvitationToken()
		}
	}
	if err := s.save(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Info("group updated", "group_id", g.ID, "public", g.IsPublic, "weekends_only", g.WeekendsOnly)
	return g, nil
}

// Destroy lets the owner delete the group with its memberships and
// availability. Each member's pair is swept under its lock afterwards so an
// add already past its membership check cannot leave rows behind.
func (s *Service) Destroy(ctx context.Context, actorID, groupID string) error {
	if _, err := s.owned(ctx, actorID, groupID); err != nil {
		return err
	}
	r, err := s.Roster(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, groupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("deleting group: %w", err)
	}
	for _, member := range r.MemberIDs {
		if _, err := s.evictor.Evict(ctx, member, groupID, nil); err != nil {
			s.logger.Warn("failed to sweep availability of deleted group", "group_id", groupID, "user_id", member, "error", err)
		}
	}
	s.logger.Info("group deleted", "group_id", groupID, "members", r.Total())
	return nil
}

// Invitation returns the group's invitation for its owner.
func (s *Service) Invitation(ctx context.Context, actorID, groupID string) (*Invitation, error) {
	g, err := s.owned(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	return g.invitation(), nil
}

// EnableInvitations turns token joins on, issuing a token if missing.
func (s *Service) EnableInvitations(ctx context.Context, actorID, groupID string) (*Invitation, error) {
	return s.changeInvitation(ctx, actorID, groupID, func(g *Group) {
		g.InvitationEnabled = true
		if g.InvitationToken == "" {
			g.InvitationToken = newInvitationToken()
		}
	})
}

// DisableInvitations turns token joins off. The token is kept.
func (s *Service) DisableInvitations(ctx context.Context, actorID, groupID string) (*Invitation, error) {
	return s.changeInvitation(ctx, actorID, groupID, func(g *Group) {
		g.InvitationEnabled = false
	})
}

// RegenerateInvitation replaces the token, invalidating links already shared.
func (s *Service) RegenerateInvitation(ctx context.Context, actorID, groupID string) (*Invitation, error) {
	return s.changeInvitation(ctx, actorID, groupID, func(g *Group) {
		g.InvitationToken = newInvitationToken()
	})
}

func (s *Service) changeInvitation(ctx context.Context, actorID, groupID string, fn func(*Group)) (*Invitation, error) {
	g, err := s.owned(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	fn(g)
	if err := s.save(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Info("group invitation changed", "group_id", g.ID, "enabled", g.InvitationEnabled)
	return g.invitation(), nil
}

// Leave drops userID from the group along with their availability.
func (s *Service) Leave(ctx context.Context, groupID, userID string) error {
	g, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if userID == g.OwnerID {
		return ErrOwnerCannotLeave
	}
	return s.drop(ctx, groupID, userID)
}

// RemoveMember lets the owner drop another member along with their availability.
func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, userID string) error {
	g, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if actorID != g.OwnerID {
		return ErrNotOwner
	}
	if userID == g.OwnerID {
		return ErrOwnerCannotLeave
	}
	return s.drop(ctx, groupID, userID)
}

// drop clears the member's availability and deletes the membership while
// the member's availability lock is held.
func (s *Service) drop(ctx context.Context, groupID, userID string) error {
	r, err := s.Roster(ctx, groupID)
	if err != nil {
		return err
	}
	if !r.Has(userID) {
		return ErrNotMember
	}

	cleared, err := s.evictor.Evict(ctx, userID, groupID, func(ctx context.Context) error {
		if err := s.repo.RemoveMember(ctx, groupID, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotMember
			}
			return fmt.Errorf("removing member: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			return err
		}
		return fmt.Errorf("dropping member: %w", err)
	}
	s.logger.Info("member left group", "group_id", groupID, "user_id", userID, "cleared_intervals", cleared)
	return nil
}

func (s *Service) owned(ctx context.Context, actorID, groupID string) (*Group, error) {
	g, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if actorID != g.OwnerID {
		return nil, ErrNotOwner
	}
	return g, nil
}

func (s *Service) save(ctx context.Context, g *Group) error {
	if err := s.repo.Update(ctx, g); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("updating group: %w", err)
	}
	return nil
}

func (g *Group) acceptsToken(token string) bool {
	if !g.InvitationEnabled || g.InvitationToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(g.InvitationToken), []byte(token)) == 1
}

func (g *Group) invitation() *Invitation {
	return &Invitation{GroupID: g.ID, Token: g.InvitationToken, Enabled: g.InvitationEnabled}
}

func newInvitationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Guard checks membership straight from the repository. It needs no
// availability service, so it can be handed to one.
type Guard struct {
	repo Repository
}

// NewGuard creates a membership guard over repo.
func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// CheckMember returns ErrNotMember unless userID belongs to the group.
func (g *Guard) CheckMember(ctx context.Context, userID, groupID string) error {
	r, err := loadRoster(ctx, g.repo, groupID)
	if err != nil {
		return err
	}
	if !r.Has(userID) {
		return ErrNotMember
	}
	return nil
}

func load(ctx context.Context, repo Repository, id string) (*Group, error) {
	g, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("loading group: %w", err)
	}
	return g, nil
}

func loadRoster(ctx context.Context, repo Repository, groupID string) (*Roster, error) {
	g, err := load(ctx, repo, groupID)
	if err != nil {
		return nil, err
	}
	members, err := repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}

	seen := map[string]struct{}{g.OwnerID: {}}
	ids := []string{g.OwnerID}
	for _, m := range members {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		ids = append(ids, m)
	}
	sort.Strings(ids)

	return &Roster{
		GroupID:      g.ID,
		OwnerID:      g.OwnerID,
		MemberIDs:    ids,
		WeekendsOnly: g.WeekendsOnly,
		CountryCode:  g.CountryCode,
	}, nil
}
