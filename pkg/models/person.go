package models

import (
	"time"

	"github.com/google/uuid"
)

// Gender values recorded in the directory. Absent or unrecognized values
// are treated as GenderUnknown by the inference pipeline.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderOther   = "other"
	GenderUnknown = "unknown"
)

// Person is a directory record. The engine reads persons and maintains
// their FamilyGroupID back-reference; it never creates or deletes them.
type Person struct {
	ID            uuid.UUID  `json:"id"`
	PID           string     `json:"pid"` // directory-wide person identifier
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	IslandID      *uuid.UUID `json:"island_id,omitempty"`
	DateOfBirth   string     `json:"date_of_birth"` // free-form, may be malformed or empty
	Gender        *string    `json:"gender,omitempty"`
	Contact       string     `json:"contact"`
	Email         string     `json:"email"`
	NationalID    string     `json:"national_id"`
	Profession    string     `json:"profession"`
	Atoll         string     `json:"atoll"`
	FamilyGroupID *uuid.UUID `json:"family_group_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// GenderOrUnknown returns the recorded gender, or GenderUnknown when the
// field is absent or not a recognized value.
func (p *Person) GenderOrUnknown() string {
	if p.Gender == nil {
		return GenderUnknown
	}
	switch *p.Gender {
	case GenderMale, GenderFemale, GenderOther:
		return *p.Gender
	}
	return GenderUnknown
}

// IsValidGender reports whether gender is a recognized value.
func IsValidGender(gender string) bool {
	switch gender {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

// Island is a canonical island reference resolved by the person directory.
type Island struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Atoll string    `json:"atoll"`
}
