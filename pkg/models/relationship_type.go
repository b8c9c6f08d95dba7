package models

// Relationship type vocabulary. Closed set: persistence rejects anything
// outside it. Automatic inference may only create the nuclear types
// (parent, child, spouse, sibling); everything else is reserved for
// manual editing.
const (
	RelTypeParent        = "parent"
	RelTypeChild         = "child"
	RelTypeSpouse        = "spouse"
	RelTypeSibling       = "sibling"
	RelTypeStepParent    = "step_parent"
	RelTypeStepChild     = "step_child"
	RelTypeStepSibling   = "step_sibling"
	RelTypeFatherInLaw   = "father_in_law"
	RelTypeMotherInLaw   = "mother_in_law"
	RelTypeSonInLaw      = "son_in_law"
	RelTypeDaughterInLaw = "daughter_in_law"
	RelTypeSiblingInLaw  = "sibling_in_law"
	RelTypeAdoptedParent = "adopted_parent"
	RelTypeAdoptedChild  = "adopted_child"
	RelTypeLegalGuardian = "legal_guardian"
	RelTypeLegalWard     = "legal_ward"
	RelTypeFosterParent  = "foster_parent"
	RelTypeFosterChild   = "foster_child"
	RelTypeGodparent     = "godparent"
	RelTypeGodchild      = "godchild"
	RelTypeSponsor       = "sponsor"
	RelTypeOther         = "other"
)

// Relationship status values.
const (
	RelationshipStatusActive    = "active"
	RelationshipStatusEnded     = "ended"
	RelationshipStatusDivorced  = "divorced"
	RelationshipStatusSuspended = "suspended"
)

// reciprocals maps each relationship type to the type implied in the
// opposite direction. Every vocabulary entry has exactly one reciprocal
// and the mapping is an involution: reciprocals[reciprocals[t]] == t.
var reciprocals = map[string]string{
	RelTypeParent:        RelTypeChild,
	RelTypeChild:         RelTypeParent,
	RelTypeSpouse:        RelTypeSpouse,
	RelTypeSibling:       RelTypeSibling,
	RelTypeStepParent:    RelTypeStepChild,
	RelTypeStepChild:     RelTypeStepParent,
	RelTypeStepSibling:   RelTypeStepSibling,
	RelTypeFatherInLaw:   RelTypeSonInLaw,
	RelTypeSonInLaw:      RelTypeFatherInLaw,
	RelTypeMotherInLaw:   RelTypeDaughterInLaw,
	RelTypeDaughterInLaw: RelTypeMotherInLaw,
	RelTypeSiblingInLaw:  RelTypeSiblingInLaw,
	RelTypeAdoptedParent: RelTypeAdoptedChild,
	RelTypeAdoptedChild:  RelTypeAdoptedParent,
	RelTypeLegalGuardian: RelTypeLegalWard,
	RelTypeLegalWard:     RelTypeLegalGuardian,
	RelTypeFosterParent:  RelTypeFosterChild,
	RelTypeFosterChild:   RelTypeFosterParent,
	RelTypeGodparent:     RelTypeGodchild,
	RelTypeGodchild:      RelTypeGodparent,
	RelTypeSponsor:       RelTypeSponsor,
	RelTypeOther:         RelTypeOther,
}

// autoInferable is the subset of the vocabulary that the inference
// pipeline is allowed to create. Grandparent-generation and legal types
// require a human editor.
var autoInferable = map[string]bool{
	RelTypeParent:  true,
	RelTypeChild:   true,
	RelTypeSpouse:  true,
	RelTypeSibling: true,
}

// ReciprocalOf returns the relationship type implied in the opposite
// direction. Unknown types map to RelTypeOther.
func ReciprocalOf(relType string) string {
	if r, ok := reciprocals[relType]; ok {
		return r
	}
	return RelTypeOther
}

// IsValidRelationshipType reports whether relType is in the vocabulary.
func IsValidRelationshipType(relType string) bool {
	_, ok := reciprocals[relType]
	return ok
}

// IsAutoInferable reports whether the inference pipeline may create
// relationships of this type without human review.
func IsAutoInferable(relType string) bool {
	return autoInferable[relType]
}

// IsValidRelationshipStatus reports whether status is a known lifecycle value.
func IsValidRelationshipStatus(status string) bool {
	switch status {
	case RelationshipStatusActive, RelationshipStatusEnded,
		RelationshipStatusDivorced, RelationshipStatusSuspended:
		return true
	}
	return false
}

// RelationshipTypes returns the full vocabulary. The result is a copy;
// callers may not mutate the vocabulary.
func RelationshipTypes() []string {
	types := make([]string, 0, len(reciprocals))
	for t := range reciprocals {
		types = append(types, t)
	}
	return types
}
