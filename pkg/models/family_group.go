package models

import (
	"time"

	"github.com/google/uuid"
)

// CreatedBySystem marks rows written by the inference pipeline. Rebuilds
// only ever delete rows with this provenance; human edits survive.
const CreatedBySystem = "inference"

// Member role labels assigned during a rebuild.
const (
	RoleLabelParent = "parent"
	RoleLabelChild  = "child"
	RoleLabelMember = "member"
)

// FamilyGroup groups the persons of one address cluster. Identified by
// (address, island) — the pair is unique among live groups, but multiple
// sub-families may exist over time through the parent-family hierarchy.
type FamilyGroup struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Address          string     `json:"address"`
	IslandID         uuid.UUID  `json:"island_id"`
	IsManuallyLocked bool       `json:"is_manually_locked"`
	ParentFamilyID   *uuid.UUID `json:"parent_family_id,omitempty"`
	CreatedBy        *string    `json:"created_by,omitempty"` // nil for system-generated groups
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// FamilyMember links one person to one family group. A (person, group)
// pair is unique.
type FamilyMember struct {
	ID            uuid.UUID `json:"id"`
	PersonID      uuid.UUID `json:"person_id"`
	FamilyGroupID uuid.UUID `json:"family_group_id"`
	RoleLabel     string    `json:"role_label"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// FamilyRelationship is a directed edge between two persons, scoped to a
// family group. (person1, person2, type, group) is unique; person1 and
// person2 are never equal.
type FamilyRelationship struct {
	ID                 uuid.UUID  `json:"id"`
	Person1ID          uuid.UUID  `json:"person1_id"`
	Person2ID          uuid.UUID  `json:"person2_id"`
	RelationshipType   string     `json:"relationship_type"`
	FamilyGroupID      uuid.UUID  `json:"family_group_id"`
	Notes              string     `json:"notes"`
	IsActive           bool       `json:"is_active"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	RelationshipStatus string     `json:"relationship_status"`
	IsBiological       bool       `json:"is_biological"`
	IsLegal            bool       `json:"is_legal"`
	ConfidenceLevel    int        `json:"confidence_level"` // 0-100, heuristic certainty
	CreatedBy          string     `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
}

// FamilyDetail is the read model returned to callers: a group with its
// current members and relationship edges.
type FamilyDetail struct {
	Group         *FamilyGroup          `json:"group"`
	Members       []*FamilyMember       `json:"members"`
	Relationships []*FamilyRelationship `json:"relationships"`
}
