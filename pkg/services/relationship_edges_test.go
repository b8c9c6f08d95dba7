package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finolhu/kinship-engine/pkg/models"
)

func withID(ind *Individual) *Individual {
	ind.Person.ID = uuid.New()
	return ind
}

func edgeKey(e *models.FamilyRelationship) string {
	return fmt.Sprintf("%s->%s:%s", e.Person1ID, e.Person2ID, e.RelationshipType)
}

func TestMaterializeEdges_TwoParentTwoChildren(t *testing.T) {
	groupID := uuid.New()
	a := withID(individual("A", 45, models.GenderMale))
	b := withID(individual("B", 42, models.GenderFemale))
	c := withID(individual("C", 15, ""))
	d := withID(individual("D", 12, ""))

	family := &NuclearFamily{
		Parents:  []*Individual{a, b},
		Children: []*Individual{c, d},
	}

	edges := MaterializeEdges(family, groupID)

	// 4 parent + 4 child + 2 spouse + 2 sibling.
	require.Len(t, edges, 12)

	want := []string{
		edgeKeyFor(a, c, models.RelTypeParent), edgeKeyFor(c, a, models.RelTypeChild),
		edgeKeyFor(a, d, models.RelTypeParent), edgeKeyFor(d, a, models.RelTypeChild),
		edgeKeyFor(b, c, models.RelTypeParent), edgeKeyFor(c, b, models.RelTypeChild),
		edgeKeyFor(b, d, models.RelTypeParent), edgeKeyFor(d, b, models.RelTypeChild),
		edgeKeyFor(a, b, models.RelTypeSpouse), edgeKeyFor(b, a, models.RelTypeSpouse),
		edgeKeyFor(c, d, models.RelTypeSibling), edgeKeyFor(d, c, models.RelTypeSibling),
	}
	var got []string
	for _, e := range edges {
		got = append(got, edgeKey(e))
	}
	assert.ElementsMatch(t, want, got)

	for _, e := range edges {
		assert.NotEqual(t, e.Person1ID, e.Person2ID, "no self-relationships")
		assert.Equal(t, groupID, e.FamilyGroupID)
		assert.Equal(t, models.CreatedBySystem, e.CreatedBy)
		assert.True(t, e.IsActive)
		switch e.RelationshipType {
		case models.RelTypeParent, models.RelTypeChild:
			assert.Equal(t, ConfidenceParentChild, e.ConfidenceLevel)
		case models.RelTypeSpouse:
			assert.Equal(t, ConfidenceSpouse, e.ConfidenceLevel)
		case models.RelTypeSibling:
			assert.Equal(t, ConfidenceSibling, e.ConfidenceLevel)
		}
	}
}

func edgeKeyFor(from, to *Individual, relType string) string {
	return fmt.Sprintf("%s->%s:%s", from.Person.ID, to.Person.ID, relType)
}

func TestMaterializeEdges_SingleParentNoSpouse(t *testing.T) {
	a := withID(individual("A", 45, models.GenderFemale))
	c := withID(individual("C", 15, ""))

	edges := MaterializeEdges(&NuclearFamily{
		Parents:  []*Individual{a},
		Children: []*Individual{c},
	}, uuid.New())

	require.Len(t, edges, 2)
	for _, e := range edges {
		assert.NotEqual(t, models.RelTypeSpouse, e.RelationshipType)
	}
}

func TestMaterializeEdges_OutliersGetNoEdges(t *testing.T) {
	a := withID(individual("A", 45, ""))
	b := withID(individual("B", 42, ""))
	elder := withID(individual("E", 85, ""))

	edges := MaterializeEdges(&NuclearFamily{
		Parents:  []*Individual{a, b},
		Outliers: []*Individual{elder},
	}, uuid.New())

	for _, e := range edges {
		assert.NotEqual(t, elder.Person.ID, e.Person1ID)
		assert.NotEqual(t, elder.Person.ID, e.Person2ID)
	}
}

func TestMaterializeEdges_UnverifiedConfidenceForAgelessChild(t *testing.T) {
	a := withID(individual("A", 45, ""))
	x := withID(agelessIndividual("X"))
	c := withID(individual("C", 15, ""))

	edges := MaterializeEdges(&NuclearFamily{
		Parents:  []*Individual{a},
		Children: []*Individual{c, x},
	}, uuid.New())

	for _, e := range edges {
		touchesAgeless := e.Person1ID == x.Person.ID || e.Person2ID == x.Person.ID
		if touchesAgeless {
			assert.Equal(t, ConfidenceUnverified, e.ConfidenceLevel, "edge %s", edgeKey(e))
		} else {
			assert.NotEqual(t, ConfidenceUnverified, e.ConfidenceLevel, "edge %s", edgeKey(e))
		}
	}
}

func TestMaterializeEdges_Deterministic(t *testing.T) {
	a := withID(individual("A", 45, ""))
	b := withID(individual("B", 42, ""))
	c := withID(individual("C", 15, ""))

	family := &NuclearFamily{Parents: []*Individual{a, b}, Children: []*Individual{c}}
	groupID := uuid.New()

	first := MaterializeEdges(family, groupID)
	second := MaterializeEdges(family, groupID)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, edgeKey(first[i]), edgeKey(second[i]))
	}
}

func TestMaterializeEdges_Degraded(t *testing.T) {
	edges := MaterializeEdges(&NuclearFamily{
		Unclassified: []*Individual{withID(agelessIndividual("X"))},
		Degraded:     true,
	}, uuid.New())
	assert.Empty(t, edges)
}

func TestMaterializeEdges_AllAutoInferable(t *testing.T) {
	a := withID(individual("A", 45, ""))
	b := withID(individual("B", 42, ""))
	c := withID(individual("C", 15, ""))
	d := withID(individual("D", 12, ""))

	edges := MaterializeEdges(&NuclearFamily{
		Parents:  []*Individual{a, b},
		Children: []*Individual{c, d},
	}, uuid.New())

	for _, e := range edges {
		assert.True(t, models.IsAutoInferable(e.RelationshipType),
			"inference must only create nuclear relationship types, got %s", e.RelationshipType)
	}
}
