package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/finolhu/kinship-engine/pkg/apperrors"
	"github.com/finolhu/kinship-engine/pkg/database"
	"github.com/finolhu/kinship-engine/pkg/models"
)

// FamilyMemberRepository provides data access for family-group membership.
type FamilyMemberRepository interface {
	// BulkInsert writes the membership rows of one rebuild. A duplicate
	// (person, group) pair surfaces as apperrors.ErrValidation.
	BulkInsert(ctx context.Context, members []*models.FamilyMember) error
	ListByFamilyGroup(ctx context.Context, familyGroupID uuid.UUID) ([]*models.FamilyMember, error)
	// DeleteAutoGenerated removes the rows the inference pipeline wrote
	// for this group; manually added members survive.
	DeleteAutoGenerated(ctx context.Context, familyGroupID uuid.UUID) error
	DeleteByFamilyGroup(ctx context.Context, familyGroupID uuid.UUID) error
}

type familyMemberRepository struct{}

// NewFamilyMemberRepository creates a new FamilyMemberRepository.
func NewFamilyMemberRepository() FamilyMemberRepository {
	return &familyMemberRepository{}
}

var _ FamilyMemberRepository = (*familyMemberRepository)(nil)

func (r *familyMemberRepository) BulkInsert(ctx context.Context, members []*models.FamilyMember) error {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	if len(members) == 0 {
		return nil
	}

	query := `
		INSERT INTO family_members (id, person_id, family_group_id, role_label, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now()
	for _, m := range members {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		if m.CreatedBy == "" {
			m.CreatedBy = models.CreatedBySystem
		}

		_, err := scope.Conn.Exec(ctx, query,
			m.ID, m.PersonID, m.FamilyGroupID, m.RoleLabel, m.CreatedBy, m.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("person %s is already a member of group %s: %w",
					m.PersonID, m.FamilyGroupID, apperrors.ErrValidation)
			}
			return fmt.Errorf("failed to insert family member: %w", err)
		}
	}

	return nil
}

func (r *familyMemberRepository) ListByFamilyGroup(ctx context.Context, familyGroupID uuid.UUID) ([]*models.FamilyMember, error) {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	query := `
		SELECT id, person_id, family_group_id, role_label, created_by, created_at
		FROM family_members
		WHERE family_group_id = $1
		ORDER BY role_label, person_id`

	rows, err := scope.Conn.Query(ctx, query, familyGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	var members []*models.FamilyMember
	for rows.Next() {
		var m models.FamilyMember
		if err := rows.Scan(&m.ID, &m.PersonID, &m.FamilyGroupID, &m.RoleLabel, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating family members: %w", err)
	}

	return members, nil
}

func (r *familyMemberRepository) DeleteAutoGenerated(ctx context.Context, familyGroupID uuid.UUID) error {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	query := `DELETE FROM family_members WHERE family_group_id = $1 AND created_by = $2`

	_, err := scope.Conn.Exec(ctx, query, familyGroupID, models.CreatedBySystem)
	if err != nil {
		return fmt.Errorf("failed to delete auto-generated family members: %w", err)
	}

	return nil
}

func (r *familyMemberRepository) DeleteByFamilyGroup(ctx context.Context, familyGroupID uuid.UUID) error {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	_, err := scope.Conn.Exec(ctx, `DELETE FROM family_members WHERE family_group_id = $1`, familyGroupID)
	if err != nil {
		return fmt.Errorf("failed to delete family members: %w", err)
	}

	return nil
}
