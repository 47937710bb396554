package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/repository"
)

// GroupRepository implements group.Repository for SQLite
type GroupRepository struct {
	db *DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a new group
func (r *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO groups (id, name, description, owner_id, is_public, weekends_only, country_code,
			invitation_token, invitation_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.Name, g.Description, g.OwnerID, g.IsPublic, g.WeekendsOnly, g.CountryCode,
		g.InvitationToken, g.InvitationEnabled, g.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// Get retrieves a group by ID
func (r *GroupRepository) Get(ctx context.Context, id string) (*group.Group, error) {
	var g group.Group
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, owner_id, is_public, weekends_only, country_code,
			invitation_token, invitation_enabled, created_at
		FROM groups
		WHERE id = ?
	`, id).Scan(&g.ID, &g.Name, &g.Description, &g.OwnerID, &g.IsPublic, &g.WeekendsOnly, &g.CountryCode,
		&g.InvitationToken, &g.InvitationEnabled, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &g, nil
}

// Update saves the group's editable fields.
func (r *GroupRepository) Update(ctx context.Context, g *group.Group) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE groups
		SET name = ?, description = ?, is_public = ?, weekends_only = ?, country_code = ?,
			invitation_token = ?, invitation_enabled = ?
		WHERE id = ?
	`, g.Name, g.Description, g.IsPublic, g.WeekendsOnly, g.CountryCode,
		g.InvitationToken, g.InvitationEnabled, g.ID)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a group with its memberships, availability and activity
// in one transaction.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"availabilities", "group_members", "activity_log"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE group_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group delete: %w", err)
	}
	return nil
}

// AddMember enrolls a user. An existing membership returns ErrConflict.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)
	`, groupID, userID, time.Now())
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return repository.ErrConflict
		case isForeignKeyViolation(err):
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember drops a membership row.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM group_members WHERE group_id = ? AND user_id = ?
	`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListMembers returns member user IDs in join order.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM group_members WHERE group_id = ? ORDER BY joined_at, user_id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}
