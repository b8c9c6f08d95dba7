package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finolhu/kinship-engine/pkg/apperrors"
	"github.com/finolhu/kinship-engine/pkg/database"
	"github.com/finolhu/kinship-engine/pkg/models"
	"github.com/finolhu/kinship-engine/pkg/repositories"
)

// FamilyInferenceService is the top-level entry point of the engine: it
// loads the persons of an address cluster, infers a nuclear family
// structure and commits the rebuilt group atomically.
type FamilyInferenceService interface {
	// InferFamily rebuilds the family group at (address, island). A
	// manually locked group is returned unchanged. Returns
	// apperrors.ErrNotFound for unknown islands and
	// apperrors.ErrInsufficientData when no persons live at the address.
	InferFamily(ctx context.Context, address, islandName, requestedBy string) (*models.FamilyGroup, error)

	// GetFamily returns a group with its members and relationship edges.
	GetFamily(ctx context.Context, familyGroupID uuid.UUID) (*models.FamilyDetail, error)

	// MarkManuallyLocked flags a group so that automatic rebuilds no
	// longer overwrite it. Called whenever a human edits relationships.
	MarkManuallyLocked(ctx context.Context, familyGroupID uuid.UUID) error

	// DeleteFamily removes a group with its members and relationships
	// and clears person back-references. Person records are never deleted.
	DeleteFamily(ctx context.Context, familyGroupID uuid.UUID) error

	// DeleteFamilyByAddress is DeleteFamily keyed by (address, island).
	DeleteFamilyByAddress(ctx context.Context, address, islandName string) error
}

type familyInferenceService struct {
	personDir    repositories.PersonDirectory
	groupRepo    repositories.FamilyGroupRepository
	memberRepo   repositories.FamilyMemberRepository
	relRepo      repositories.FamilyRelationshipRepository
	deduplicator *Deduplicator
	builder      *NuclearFamilyBuilder
	logger       *zap.Logger
}

// NewFamilyInferenceService creates a new FamilyInferenceService.
func NewFamilyInferenceService(
	personDir repositories.PersonDirectory,
	groupRepo repositories.FamilyGroupRepository,
	memberRepo repositories.FamilyMemberRepository,
	relRepo repositories.FamilyRelationshipRepository,
	deduplicator *Deduplicator,
	builder *NuclearFamilyBuilder,
	logger *zap.Logger,
) FamilyInferenceService {
	return &familyInferenceService{
		personDir:    personDir,
		groupRepo:    groupRepo,
		memberRepo:   memberRepo,
		relRepo:      relRepo,
		deduplicator: deduplicator,
		builder:      builder,
		logger:       logger.Named("family-inference"),
	}
}

var _ FamilyInferenceService = (*familyInferenceService)(nil)

func (s *familyInferenceService) InferFamily(ctx context.Context, address, islandName, requestedBy string) (*models.FamilyGroup, error) {
	island, err := s.personDir.ResolveIsland(ctx, islandName)
	if err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetByAddress(ctx, address, island.ID)
	if err != nil {
		return nil, err
	}
	if group != nil && group.IsManuallyLocked {
		s.logger.Info("skipping rebuild of manually locked group",
			zap.String("family_group_id", group.ID.String()),
			zap.String("address", address))
		return group, nil
	}

	persons, err := s.personDir.FindByAddress(ctx, address, island.ID)
	if err != nil {
		return nil, err
	}
	if len(persons) == 0 {
		return nil, fmt.Errorf("no persons at address %q on island %q: %w",
			address, islandName, apperrors.ErrInsufficientData)
	}

	// The whole pipeline runs in memory; only the final member and edge
	// sets touch the database.
	referenceYear := time.Now().Year()
	deduped := s.deduplicator.Deduplicate(persons, referenceYear)
	family := s.builder.Build(deduped.Individuals)

	err = database.WithinTransaction(ctx, func(txCtx context.Context) error {
		if group == nil {
			group = &models.FamilyGroup{
				Name:        fmt.Sprintf("%s family", address),
				Description: fmt.Sprintf("Inferred family group at %s, %s", address, island.Name),
				Address:     address,
				IslandID:    island.ID,
			}
			if requestedBy != "" {
				group.CreatedBy = &requestedBy
			}
			if err := s.groupRepo.Create(txCtx, group); err != nil {
				return err
			}
		}

		if err := s.relRepo.DeleteAutoGenerated(txCtx, group.ID); err != nil {
			return err
		}
		if err := s.memberRepo.DeleteAutoGenerated(txCtx, group.ID); err != nil {
			return err
		}

		if err := s.memberRepo.BulkInsert(txCtx, membersFor(family, group.ID)); err != nil {
			return err
		}

		for _, edge := range MaterializeEdges(family, group.ID) {
			if _, err := s.relRepo.Upsert(txCtx, edge); err != nil {
				return err
			}
		}

		var personIDs []uuid.UUID
		for _, ind := range deduped.Individuals {
			personIDs = append(personIDs, ind.Person.ID)
		}
		return s.personDir.SetFamilyGroup(txCtx, personIDs, group.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("family group rebuilt",
		zap.String("family_group_id", group.ID.String()),
		zap.String("address", address),
		zap.Int("persons", len(persons)),
		zap.Int("distinct_individuals", len(deduped.Individuals)),
		zap.Int("collapsed_duplicates", len(deduped.Collapsed)),
		zap.Int("parents", len(family.Parents)),
		zap.Int("children", len(family.Children)),
		zap.Int("outliers", len(family.Outliers)),
		zap.Bool("degraded", family.Degraded))

	return group, nil
}

func (s *familyInferenceService) GetFamily(ctx context.Context, familyGroupID uuid.UUID) (*models.FamilyDetail, error) {
	group, err := s.groupRepo.GetByID(ctx, familyGroupID)
	if err != nil {
		return nil, err
	}

	members, err := s.memberRepo.ListByFamilyGroup(ctx, familyGroupID)
	if err != nil {
		return nil, err
	}

	relationships, err := s.relRepo.ListByFamilyGroup(ctx, familyGroupID)
	if err != nil {
		return nil, err
	}

	return &models.FamilyDetail{
		Group:         group,
		Members:       members,
		Relationships: relationships,
	}, nil
}

func (s *familyInferenceService) MarkManuallyLocked(ctx context.Context, familyGroupID uuid.UUID) error {
	if err := s.groupRepo.SetManuallyLocked(ctx, familyGroupID, true); err != nil {
		return err
	}
	s.logger.Info("family group manually locked",
		zap.String("family_group_id", familyGroupID.String()))
	return nil
}

func (s *familyInferenceService) DeleteFamily(ctx context.Context, familyGroupID uuid.UUID) error {
	// Existence check up front so callers get ErrNotFound before any
	// mutation starts.
	if _, err := s.groupRepo.GetByID(ctx, familyGroupID); err != nil {
		return err
	}

	err := database.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.personDir.ClearFamilyGroup(txCtx, familyGroupID); err != nil {
			return err
		}
		if err := s.relRepo.DeleteByFamilyGroup(txCtx, familyGroupID); err != nil {
			return err
		}
		if err := s.memberRepo.DeleteByFamilyGroup(txCtx, familyGroupID); err != nil {
			return err
		}
		return s.groupRepo.Delete(txCtx, familyGroupID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("family group deleted",
		zap.String("family_group_id", familyGroupID.String()))
	return nil
}

func (s *familyInferenceService) DeleteFamilyByAddress(ctx context.Context, address, islandName string) error {
	island, err := s.personDir.ResolveIsland(ctx, islandName)
	if err != nil {
		return err
	}

	group, err := s.groupRepo.GetByAddress(ctx, address, island.ID)
	if err != nil {
		return err
	}
	if group == nil {
		return fmt.Errorf("no family group at address %q on island %q: %w",
			address, islandName, apperrors.ErrNotFound)
	}

	return s.DeleteFamily(ctx, group.ID)
}

// membersFor flattens a classified family into membership rows. Every
// individual stays a member of the group, including outliers and
// unclassified individuals that received no edges.
func membersFor(family *NuclearFamily, familyGroupID uuid.UUID) []*models.FamilyMember {
	var members []*models.FamilyMember
	add := func(inds []*Individual, role string) {
		for _, ind := range inds {
			members = append(members, &models.FamilyMember{
				PersonID:      ind.Person.ID,
				FamilyGroupID: familyGroupID,
				RoleLabel:     role,
				CreatedBy:     models.CreatedBySystem,
			})
		}
	}
	add(family.Parents, models.RoleLabelParent)
	add(family.Children, models.RoleLabelChild)
	add(family.Outliers, models.RoleLabelMember)
	add(family.Unclassified, models.RoleLabelMember)
	return members
}
