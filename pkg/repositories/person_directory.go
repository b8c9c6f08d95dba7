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

// PersonDirectory provides read access to the person directory and
// maintains the person→family-group back-reference. The engine never
// creates or deletes person records.
type PersonDirectory interface {
	// FindByAddress returns all persons registered at one address on one island.
	FindByAddress(ctx context.Context, address string, islandID uuid.UUID) ([]*models.Person, error)
	// ResolveIsland resolves a free-form island name to its canonical
	// reference. Returns apperrors.ErrNotFound for unknown islands.
	ResolveIsland(ctx context.Context, name string) (*models.Island, error)
	// SetFamilyGroup writes the family-group back-reference on the given persons.
	SetFamilyGroup(ctx context.Context, personIDs []uuid.UUID, familyGroupID uuid.UUID) error
	// ClearFamilyGroup removes the back-reference from every person
	// pointing at the given group. Person records are otherwise untouched.
	ClearFamilyGroup(ctx context.Context, familyGroupID uuid.UUID) error
}

type personDirectory struct{}

// NewPersonDirectory creates a new PersonDirectory.
func NewPersonDirectory() PersonDirectory {
	return &personDirectory{}
}

var _ PersonDirectory = (*personDirectory)(nil)

const personColumns = `id, pid, name, address, island_id, date_of_birth, gender,
	       contact, email, national_id, profession, atoll, family_group_id, created_at, updated_at`

func (r *personDirectory) FindByAddress(ctx context.Context, address string, islandID uuid.UUID) ([]*models.Person, error) {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	query := `
		SELECT ` + personColumns + `
		FROM persons
		WHERE address = $1 AND island_id = $2
		ORDER BY pid`

	rows, err := scope.Conn.Query(ctx, query, address, islandID)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons by address: %w", err)
	}
	defer rows.Close()

	var persons []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating persons: %w", err)
	}

	return persons, nil
}

func (r *personDirectory) ResolveIsland(ctx context.Context, name string) (*models.Island, error) {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	query := `
		SELECT id, name, atoll
		FROM islands
		WHERE lower(name) = lower($1)
		ORDER BY atoll
		LIMIT 1`

	var island models.Island
	err := scope.Conn.QueryRow(ctx, query, name).Scan(&island.ID, &island.Name, &island.Atoll)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("island %q: %w", name, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve island: %w", err)
	}

	return &island, nil
}

func (r *personDirectory) SetFamilyGroup(ctx context.Context, personIDs []uuid.UUID, familyGroupID uuid.UUID) error {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	if len(personIDs) == 0 {
		return nil
	}

	query := `UPDATE persons SET family_group_id = $1, updated_at = $2 WHERE id = ANY($3)`

	_, err := scope.Conn.Exec(ctx, query, familyGroupID, time.Now(), personIDs)
	if err != nil {
		return fmt.Errorf("failed to set family group back-reference: %w", err)
	}

	return nil
}

func (r *personDirectory) ClearFamilyGroup(ctx context.Context, familyGroupID uuid.UUID) error {
	scope, ok := database.GetConnScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	query := `UPDATE persons SET family_group_id = NULL, updated_at = $1 WHERE family_group_id = $2`

	_, err := scope.Conn.Exec(ctx, query, time.Now(), familyGroupID)
	if err != nil {
		return fmt.Errorf("failed to clear family group back-reference: %w", err)
	}

	return nil
}

func scanPerson(row pgx.Row) (*models.Person, error) {
	var p models.Person

	err := row.Scan(
		&p.ID, &p.PID, &p.Name, &p.Address, &p.IslandID, &p.DateOfBirth, &p.Gender,
		&p.Contact, &p.Email, &p.NationalID, &p.Profession, &p.Atoll,
		&p.FamilyGroupID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan person: %w", err)
	}

	return &p, nil
}
