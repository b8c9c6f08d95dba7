//go:build integration

package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finolhu/kinship-engine/pkg/apperrors"
	"github.com/finolhu/kinship-engine/pkg/config"
	"github.com/finolhu/kinship-engine/pkg/models"
	"github.com/finolhu/kinship-engine/pkg/repositories"
	"github.com/finolhu/kinship-engine/pkg/testhelpers"
)

func newService() FamilyInferenceService {
	logger := zap.NewNop()
	return NewFamilyInferenceService(
		repositories.NewPersonDirectory(),
		repositories.NewFamilyGroupRepository(),
		repositories.NewFamilyMemberRepository(),
		repositories.NewFamilyRelationshipRepository(),
		NewDeduplicator(NewAgeResolver(0), logger),
		NewNuclearFamilyBuilder(config.InferenceConfig{}, logger),
		logger,
	)
}

func seedCluster(t *testing.T, db *testhelpers.TestDB) (islandName, address string) {
	t.Helper()

	islandName = fmt.Sprintf("Thoddoo-%s", uuid.NewString()[:8])
	address = fmt.Sprintf("Hiyaavahi-%s", uuid.NewString()[:8])
	islandID := uuid.New()
	ctx := context.Background()

	_, err := db.DB.Exec(ctx,
		`INSERT INTO islands (id, name, atoll) VALUES ($1, $2, 'Alif Alif')`,
		islandID, islandName)
	require.NoError(t, err)

	persons := []struct {
		pid, name, dob string
		gender         *string
	}{
		{"P1", "Ahmed Waheed", "1981-01-01", ptr(models.GenderMale)},
		{"P2", "Mariyam Saeed", "1984-01-01", ptr(models.GenderFemale)},
		{"P3", "Hawwa Waheed", "2011-01-01", nil},
		{"P4", "Ali Waheed", "2014-01-01", nil},
	}
	for _, p := range persons {
		_, err := db.DB.Exec(ctx,
			`INSERT INTO persons (id, pid, name, address, island_id, date_of_birth, gender)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), p.pid+"-"+address, p.name, address, islandID, p.dob, p.gender)
		require.NoError(t, err)
	}

	return islandName, address
}

func ptr(s string) *string { return &s }

func TestFamilyInference_EndToEnd(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	ctx := testhelpers.ScopedContext(t, db)
	svc := newService()

	islandName, address := seedCluster(t, db)

	group, err := svc.InferFamily(ctx, address, islandName, "")
	require.NoError(t, err)
	require.NotNil(t, group)

	detail, err := svc.GetFamily(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Members, 4)
	assert.Len(t, detail.Relationships, 12)

	roleCount := map[string]int{}
	for _, m := range detail.Members {
		roleCount[m.RoleLabel]++
	}
	assert.Equal(t, 2, roleCount[models.RoleLabelParent])
	assert.Equal(t, 2, roleCount[models.RoleLabelChild])

	// Rebuild on identical data is idempotent.
	again, err := svc.InferFamily(ctx, address, islandName, "")
	require.NoError(t, err)
	assert.Equal(t, group.ID, again.ID)

	detail, err = svc.GetFamily(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Members, 4)
	assert.Len(t, detail.Relationships, 12)
}

func TestFamilyInference_LockPreservesManualEdits(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	ctx := testhelpers.ScopedContext(t, db)
	svc := newService()

	islandName, address := seedCluster(t, db)

	group, err := svc.InferFamily(ctx, address, islandName, "")
	require.NoError(t, err)

	// A human records a godparent edge and locks the group.
	detail, err := svc.GetFamily(ctx, group.ID)
	require.NoError(t, err)
	relRepo := repositories.NewFamilyRelationshipRepository()
	_, err = relRepo.Upsert(ctx, &models.FamilyRelationship{
		Person1ID:        detail.Relationships[0].Person1ID,
		Person2ID:        detail.Relationships[0].Person2ID,
		RelationshipType: models.RelTypeGodparent,
		FamilyGroupID:    group.ID,
		CreatedBy:        "admin@example.com",
	})
	require.NoError(t, err)
	require.NoError(t, svc.MarkManuallyLocked(ctx, group.ID))

	locked, err := svc.InferFamily(ctx, address, islandName, "")
	require.NoError(t, err)
	assert.True(t, locked.IsManuallyLocked)

	detail, err = svc.GetFamily(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Relationships, 13, "locked rebuild must not touch edges")
}

func TestFamilyInference_DeleteKeepsPersons(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	ctx := testhelpers.ScopedContext(t, db)
	svc := newService()

	islandName, address := seedCluster(t, db)

	group, err := svc.InferFamily(ctx, address, islandName, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFamilyByAddress(ctx, address, islandName))

	_, err = svc.GetFamily(ctx, group.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var personCount int
	require.NoError(t, db.DB.QueryRow(context.Background(),
		`SELECT count(*) FROM persons WHERE address = $1`, address).Scan(&personCount))
	assert.Equal(t, 4, personCount, "person records must survive family deletion")

	var withBackRef int
	require.NoError(t, db.DB.QueryRow(context.Background(),
		`SELECT count(*) FROM persons WHERE address = $1 AND family_group_id IS NOT NULL`,
		address).Scan(&withBackRef))
	assert.Zero(t, withBackRef, "back-references must be cleared")
}

func TestFamilyInference_UnknownIslandAndEmptyCluster(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	ctx := testhelpers.ScopedContext(t, db)
	svc := newService()

	islandName, _ := seedCluster(t, db)

	_, err := svc.InferFamily(ctx, "Somewhere", "no-such-island", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.InferFamily(ctx, "empty-address", islandName, "")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)
}
