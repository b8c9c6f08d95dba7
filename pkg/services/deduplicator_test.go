package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finolhu/kinship-engine/pkg/models"
)

const dedupeRefYear = 2026

func newTestDeduplicator() *Deduplicator {
	return NewDeduplicator(NewAgeResolver(0), zap.NewNop())
}

func strPtr(s string) *string { return &s }

func testPerson(pid, name, dob string, mutate ...func(*models.Person)) *models.Person {
	p := &models.Person{PID: pid, Name: name, DateOfBirth: dob}
	for _, m := range mutate {
		m(p)
	}
	return p
}

func TestDeduplicate_SingletonsPassThrough(t *testing.T) {
	d := newTestDeduplicator()

	persons := []*models.Person{
		testPerson("p1", "Ahmed Waheed", "1980-01-01"),
		testPerson("p2", "Mariyam Saeed", "not a date"),
	}

	result := d.Deduplicate(persons, dedupeRefYear)

	require.Len(t, result.Individuals, 2)
	assert.Empty(t, result.Collapsed)

	assert.True(t, result.Individuals[0].HasAge)
	assert.Equal(t, 46, result.Individuals[0].Age)
	assert.False(t, result.Individuals[1].HasAge)
}

func TestDeduplicate_PrefersAgeResolvableRecord(t *testing.T) {
	d := newTestDeduplicator()

	// The ageless record is more complete, but a resolvable age wins.
	complete := testPerson("p1", "Hassan Ali", "", func(p *models.Person) {
		p.Contact = "7781234"
		p.Email = "hassan@example.mv"
		p.NationalID = "A123456"
		p.Profession = "fisherman"
	})
	withAge := testPerson("p2", "Hassan Ali", "1975-03-02", func(p *models.Person) {
		p.Contact = "7781234"
	})

	result := d.Deduplicate([]*models.Person{complete, withAge}, dedupeRefYear)

	require.Len(t, result.Individuals, 1)
	assert.Equal(t, "p2", result.Individuals[0].Person.PID)
	assert.True(t, result.Individuals[0].HasAge)

	require.Len(t, result.Collapsed, 1)
	assert.Equal(t, "p2", result.Collapsed[0].KeptPID)
	assert.Equal(t, "p1", result.Collapsed[0].DroppedPID)
}

func TestDeduplicate_CompletenessBreaksTies(t *testing.T) {
	d := newTestDeduplicator()

	sparse := testPerson("p1", "Aminath Shifa", "1990-06-06")
	rich := testPerson("p2", "Aminath Shifa", "1990-06-06", func(p *models.Person) {
		p.Email = "shifa@example.mv"
		p.Gender = strPtr(models.GenderFemale)
	})

	result := d.Deduplicate([]*models.Person{sparse, rich}, dedupeRefYear)

	require.Len(t, result.Individuals, 1)
	assert.Equal(t, "p2", result.Individuals[0].Person.PID)
}

func TestDeduplicate_NoAgeFallsBackToCompleteness(t *testing.T) {
	d := newTestDeduplicator()

	sparse := testPerson("p1", "Ibrahim Manik", "??")
	rich := testPerson("p2", "Ibrahim Manik", "??", func(p *models.Person) {
		p.NationalID = "A654321"
		p.Atoll = "Kaafu"
	})

	result := d.Deduplicate([]*models.Person{sparse, rich}, dedupeRefYear)

	require.Len(t, result.Individuals, 1)
	assert.Equal(t, "p2", result.Individuals[0].Person.PID)
	assert.False(t, result.Individuals[0].HasAge)
}

func TestDeduplicate_DifferingContactRetainsRecord(t *testing.T) {
	d := newTestDeduplicator()

	// Father and son sharing a given name, distinguished by contact.
	father := testPerson("p1", "Mohamed Rasheed", "1960-01-01", func(p *models.Person) {
		p.Contact = "7700001"
	})
	son := testPerson("p2", "Mohamed Rasheed", "1995-01-01", func(p *models.Person) {
		p.Contact = "7700002"
	})

	result := d.Deduplicate([]*models.Person{father, son}, dedupeRefYear)

	require.Len(t, result.Individuals, 2)
	assert.Empty(t, result.Collapsed)
}

func TestDeduplicate_EmptyContactIsNoSignal(t *testing.T) {
	d := newTestDeduplicator()

	canonical := testPerson("p1", "Fathimath Nasira", "1970-01-01", func(p *models.Person) {
		p.Contact = "7700003"
	})
	blank := testPerson("p2", "Fathimath Nasira", "")

	result := d.Deduplicate([]*models.Person{canonical, blank}, dedupeRefYear)

	require.Len(t, result.Individuals, 1)
	require.Len(t, result.Collapsed, 1)
	assert.Equal(t, "p2", result.Collapsed[0].DroppedPID)
}

func TestDeduplicate_NameNormalization(t *testing.T) {
	d := newTestDeduplicator()

	a := testPerson("p1", "  Ali   Niyaz ", "1985-01-01")
	b := testPerson("p2", "ali niyaz", "")

	result := d.Deduplicate([]*models.Person{a, b}, dedupeRefYear)

	require.Len(t, result.Individuals, 1)
	assert.Equal(t, "p1", result.Individuals[0].Person.PID)
}

func TestDeduplicate_NearMissNamesFlaggedNotCollapsed(t *testing.T) {
	d := newTestDeduplicator()

	a := testPerson("p1", "Aishath Leela", "1980-01-01")
	b := testPerson("p2", "Aishath Leena", "1982-01-01")

	result := d.Deduplicate([]*models.Person{a, b}, dedupeRefYear)

	require.Len(t, result.Individuals, 2, "near-miss names must never be collapsed")
	require.Len(t, result.NearMisses, 1)
	assert.Equal(t, 1, result.NearMisses[0].Distance)
}

func TestDeduplicate_Empty(t *testing.T) {
	d := newTestDeduplicator()
	result := d.Deduplicate(nil, dedupeRefYear)
	assert.Empty(t, result.Individuals)
}
