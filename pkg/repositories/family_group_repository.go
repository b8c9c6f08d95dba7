package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/finolhu/kinship-engine/pkg/apperrors"
	"github.com/finolhu/kinship-engine/pkg/database"
	"github.com/finolhu/kinship-engine/pkg/models"
)

// FamilyGroupRepository provides data access for family groups.
type FamilyGroupRepository interface {
	// Create inserts a new family group. A unique-constraint race on
	// (address, island) surfaces as apperrors.ErrConcurrency.
	Create(ctx context.Context, group *models.FamilyGroup) error
	// GetByID returns the group or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.FamilyGroup, error)
	// GetByAddress returns the live group at (address, island), or nil
	// when none exists.
	GetByAddress(ctx context.Context, address string, islandID uuid.UUID) (*models.FamilyGroup, error)
	// SetManuallyLocked flips the manual-override lock.
	SetManuallyLocked(ctx context.Context, id uuid.UUID, locked bool) error
	// Delete removes the group. Members and relationships cascade;
	// person back-references are the caller's responsibility.
	Delete(ctx context.Context, id uuid.UUID) error
}

type familyGroupRepository struct{}

// NewFamilyGroupRepository creates a new FamilyGroupRepository.
func NewFamilyGroupRepository() FamilyGroupRepository {
	return &familyGroupRepository{}
}

var _ FamilyGroupRepository = (*familyGroupRepository)(nil)

const familyGroupColumns = `id, name, description, address, island_id,
	       is_manually_locked, parent_family_id, created_by, created_at, updated_at`

func (r *familyGroupRepository) Create(ctx context.Context, group *models.FamilyGroup) error {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO family_groups (
			id, name, description, address, island_id,
			is_manually_locked, parent_family_id, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := scope.Conn.Exec(ctx, query,
		group.ID, group.Name, group.Description, group.Address, group.IslandID,
		group.IsManuallyLocked, group.ParentFamilyID, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		// 23505 on the (address, island) unique index means a concurrent
		// inference won the race; callers retry.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("family group for address %q already exists: %w",
				group.Address, apperrors.ErrConcurrency)
		}
		return fmt.Errorf("failed to create family group: %w", err)
	}

	return nil
}

func (r *familyGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FamilyGroup, error) {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	query := `SELECT ` + familyGroupColumns + ` FROM family_groups WHERE id = $1`

	group, err := scanFamilyGroup(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("family group %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, err
	}

	return group, nil
}

func (r *familyGroupRepository) GetByAddress(ctx context.Context, address string, islandID uuid.UUID) (*models.FamilyGroup, error) {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	query := `
		SELECT ` + familyGroupColumns + `
		FROM family_groups
		WHERE address = $1 AND island_id = $2 AND parent_family_id IS NULL`

	group, err := scanFamilyGroup(scope.Conn.QueryRow(ctx, query, address, islandID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // no group yet
		}
		return nil, err
	}

	return group, nil
}

func (r *familyGroupRepository) SetManuallyLocked(ctx context.Context, id uuid.UUID, locked bool) error {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	query := `UPDATE family_groups SET is_manually_locked = $1, updated_at = $2 WHERE id = $3`

	tag, err := scope.Conn.Exec(ctx, query, locked, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update manual lock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("family group %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func (r *familyGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `DELETE FROM family_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete family group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("family group %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func scanFamilyGroup(row pgx.Row) (*models.FamilyGroup, error) {
	var g models.FamilyGroup

	err := row.Scan(
		&g.ID, &g.Name, &g.Description, &g.Address, &g.IslandID,
		&g.IsManuallyLocked, &g.ParentFamilyID, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan family group: %w", err)
	}

	return &g, nil
}
