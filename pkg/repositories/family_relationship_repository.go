package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/finolhu/kinship-engine/pkg/apperrors"
	"github.com/finolhu/kinship-engine/pkg/database"
	"github.com/finolhu/kinship-engine/pkg/models"
)

// FamilyRelationshipRepository validates and idempotently persists
// relationship edges. It owns enforcement of the closed vocabulary.
type FamilyRelationshipRepository interface {
	// Upsert persists a relationship edge. If an active edge with the
	// same (person1, person2, type, group) key exists it is returned
	// unchanged. Invalid edges surface apperrors.ErrValidation.
	Upsert(ctx context.Context, rel *models.FamilyRelationship) (*models.FamilyRelationship, error)
	ListByFamilyGroup(ctx context.Context, familyGroupID uuid.UUID) ([]*models.FamilyRelationship, error)
	// DeleteAutoGenerated removes the edges the inference pipeline wrote
	// for this group; manually created edges survive.
	DeleteAutoGenerated(ctx context.Context, familyGroupID uuid.UUID) error
	DeleteByFamilyGroup(ctx context.Context, familyGroupID uuid.UUID) error
}

type familyRelationshipRepository struct{}

// NewFamilyRelationshipRepository creates a new FamilyRelationshipRepository.
func NewFamilyRelationshipRepository() FamilyRelationshipRepository {
	return &familyRelationshipRepository{}
}

var _ FamilyRelationshipRepository = (*familyRelationshipRepository)(nil)

const familyRelationshipColumns = `id, person1_id, person2_id, relationship_type, family_group_id,
	       notes, is_active, start_date, end_date, relationship_status,
	       is_biological, is_legal, confidence_level, created_by, created_at`

// validateRelationship enforces the edge invariants before anything
// touches the database.
func validateRelationship(rel *models.FamilyRelationship) error {
	if rel.Person1ID == rel.Person2ID {
		return fmt.Errorf("self-relationship for person %s: %w", rel.Person1ID, apperrors.ErrValidation)
	}
	if !models.IsValidRelationshipType(rel.RelationshipType) {
		return fmt.Errorf("unknown relationship type %q: %w", rel.RelationshipType, apperrors.ErrValidation)
	}
	if rel.ConfidenceLevel < 0 || rel.ConfidenceLevel > 100 {
		return fmt.Errorf("confidence level %d outside [0,100]: %w", rel.ConfidenceLevel, apperrors.ErrValidation)
	}
	if rel.RelationshipStatus != "" && !models.IsValidRelationshipStatus(rel.RelationshipStatus) {
		return fmt.Errorf("unknown relationship status %q: %w", rel.RelationshipStatus, apperrors.ErrValidation)
	}
	return nil
}

func (r *familyRelationshipRepository) Upsert(ctx context.Context, rel *models.FamilyRelationship) (*models.FamilyRelationship, error) {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	if err := validateRelationship(rel); err != nil {
		return nil, err
	}

	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now()
	}
	if rel.RelationshipStatus == "" {
		rel.RelationshipStatus = models.RelationshipStatusActive
	}
	if rel.CreatedBy == "" {
		rel.CreatedBy = models.CreatedBySystem
	}

	query := `
		INSERT INTO family_relationships (
			id, person1_id, person2_id, relationship_type, family_group_id,
			notes, is_active, start_date, end_date, relationship_status,
			is_biological, is_legal, confidence_level, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (person1_id, person2_id, relationship_type, family_group_id)
		DO NOTHING
		RETURNING ` + familyRelationshipColumns

	inserted, err := scanFamilyRelationship(scope.Conn.QueryRow(ctx, query,
		rel.ID, rel.Person1ID, rel.Person2ID, rel.RelationshipType, rel.FamilyGroupID,
		rel.Notes, rel.IsActive, rel.StartDate, rel.EndDate, rel.RelationshipStatus,
		rel.IsBiological, rel.IsLegal, rel.ConfidenceLevel, rel.CreatedBy, rel.CreatedAt,
	))
	if err == nil {
		return inserted, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to upsert family relationship: %w", err)
	}

	// Conflict: the edge already exists. Return it unchanged.
	existing, err := r.getByKey(ctx, rel.Person1ID, rel.Person2ID, rel.RelationshipType, rel.FamilyGroupID)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *familyRelationshipRepository) getByKey(ctx context.Context, person1, person2 uuid.UUID, relType string, familyGroupID uuid.UUID) (*models.FamilyRelationship, error) {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	query := `
		SELECT ` + familyRelationshipColumns + `
		FROM family_relationships
		WHERE person1_id = $1 AND person2_id = $2 AND relationship_type = $3 AND family_group_id = $4`

	rel, err := scanFamilyRelationship(scope.Conn.QueryRow(ctx, query, person1, person2, relType, familyGroupID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("family relationship %s->%s (%s): %w",
				person1, person2, relType, apperrors.ErrNotFound)
		}
		return nil, err
	}

	return rel, nil
}

func (r *familyRelationshipRepository) ListByFamilyGroup(ctx context.Context, familyGroupID uuid.UUID) ([]*models.FamilyRelationship, error) {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	query := `
		SELECT ` + familyRelationshipColumns + `
		FROM family_relationships
		WHERE family_group_id = $1
		ORDER BY relationship_type, person1_id, person2_id`

	rows, err := scope.Conn.Query(ctx, query, familyGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family relationships: %w", err)
	}
	defer rows.Close()

	var relationships []*models.FamilyRelationship
	for rows.Next() {
		rel, err := scanFamilyRelationship(rows)
		if err != nil {
			return nil, err
		}
		relationships = append(relationships, rel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating family relationships: %w", err)
	}

	return relationships, nil
}

func (r *familyRelationshipRepository) DeleteAutoGenerated(ctx context.Context, familyGroupID uuid.UUID) error {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	query := `DELETE FROM family_relationships WHERE family_group_id = $1 AND created_by = $2`

	_, err := scope.Conn.Exec(ctx, query, familyGroupID, models.CreatedBySystem)
	if err != nil {
		return fmt.Errorf("failed to delete auto-generated relationships: %w", err)
	}

	return nil
}

func (r *familyRelationshipRepository) DeleteByFamilyGroup(ctx context.Context, familyGroupID uuid.UUID) error {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	_, err := scope.Conn.Exec(ctx, `DELETE FROM family_relationships WHERE family_group_id = $1`, familyGroupID)
	if err != nil {
		return fmt.Errorf("failed to delete family relationships: %w", err)
	}

	return nil
}

func scanFamilyRelationship(row pgx.Row) (*models.FamilyRelationship, error) {
	var rel models.FamilyRelationship

	err := row.Scan(
		&rel.ID, &rel.Person1ID, &rel.Person2ID, &rel.RelationshipType, &rel.FamilyGroupID,
		&rel.Notes, &rel.IsActive, &rel.StartDate, &rel.EndDate, &rel.RelationshipStatus,
		&rel.IsBiological, &rel.IsLegal, &rel.ConfidenceLevel, &rel.CreatedBy, &rel.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan family relationship: %w", err)
	}

	return &rel, nil
}
