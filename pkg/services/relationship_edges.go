package services

import (
	"github.com/google/uuid"

	"github.com/finolhu/kinship-engine/pkg/models"
)

// Confidence levels attached to inferred edges. Edges touching an
// individual whose age could not be resolved carry the unverified level
// and are expected to be reviewed manually.
const (
	ConfidenceParentChild = 75
	ConfidenceSpouse      = 70
	ConfidenceSibling     = 65
	ConfidenceUnverified  = 40
)

// MaterializeEdges converts a classified nuclear family into the target
// relationship edge set for one family group:
//
//   - parent→child and child→parent for every parent × child pair,
//   - one mutual spouse pair when exactly two parents were selected,
//   - mutual sibling edges for every unordered pair of children.
//
// Outliers and unclassified members receive no edges. The output order is
// deterministic so that repeated rebuilds of identical input persist an
// identical set.
func MaterializeEdges(family *NuclearFamily, familyGroupID uuid.UUID) []*models.FamilyRelationship {
	var edges []*models.FamilyRelationship

	for _, parent := range family.Parents {
		for _, child := range family.Children {
			confidence := ConfidenceParentChild
			if !child.HasAge || !parent.HasAge {
				confidence = ConfidenceUnverified
			}
			edges = append(edges,
				newEdge(parent, child, models.RelTypeParent, familyGroupID, confidence),
				newEdge(child, parent, models.RelTypeChild, familyGroupID, confidence))
		}
	}

	if len(family.Parents) == 2 {
		p1, p2 := family.Parents[0], family.Parents[1]
		edges = append(edges,
			newEdge(p1, p2, models.RelTypeSpouse, familyGroupID, ConfidenceSpouse),
			newEdge(p2, p1, models.RelTypeSpouse, familyGroupID, ConfidenceSpouse))
	}

	for i := 0; i < len(family.Children); i++ {
		for j := i + 1; j < len(family.Children); j++ {
			c1, c2 := family.Children[i], family.Children[j]
			confidence := ConfidenceSibling
			if !c1.HasAge || !c2.HasAge {
				confidence = ConfidenceUnverified
			}
			edges = append(edges,
				newEdge(c1, c2, models.RelTypeSibling, familyGroupID, confidence),
				newEdge(c2, c1, models.RelTypeSibling, familyGroupID, confidence))
		}
	}

	return edges
}

func newEdge(from, to *Individual, relType string, familyGroupID uuid.UUID, confidence int) *models.FamilyRelationship {
	return &models.FamilyRelationship{
		Person1ID:          from.Person.ID,
		Person2ID:          to.Person.ID,
		RelationshipType:   relType,
		FamilyGroupID:      familyGroupID,
		IsActive:           true,
		RelationshipStatus: models.RelationshipStatusActive,
		IsBiological:       relType != models.RelTypeSpouse,
		IsLegal:            relType == models.RelTypeSpouse,
		ConfidenceLevel:    confidence,
		CreatedBy:          models.CreatedBySystem,
	}
}
