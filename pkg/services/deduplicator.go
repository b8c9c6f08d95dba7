package services

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"github.com/finolhu/kinship-engine/pkg/logging"
	"github.com/finolhu/kinship-engine/pkg/models"
)

// nearMissMaxDistance is the Levenshtein distance up to which two distinct
// normalized names are flagged as possible duplicates for human review.
const nearMissMaxDistance = 2

// Individual is a directory person with their age resolved, the unit the
// nuclear family builder operates on.
type Individual struct {
	Person *models.Person
	Age    int
	HasAge bool
}

// DuplicatePair records one collapsed duplicate for the rebuild audit trail.
type DuplicatePair struct {
	KeptPID    string `json:"kept_pid"`
	DroppedPID string `json:"dropped_pid"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

// NearMissPair is a pair of distinct names close enough to suggest the
// same real person. Never collapsed automatically.
type NearMissPair struct {
	Name1    string `json:"name1"`
	Name2    string `json:"name2"`
	Distance int    `json:"distance"`
}

// DedupeResult is the canonical list of distinct inferred individuals at
// one address, plus the audit trail of what was collapsed or flagged.
type DedupeResult struct {
	Individuals []*Individual
	Collapsed   []DuplicatePair
	NearMisses  []NearMissPair
}

// Deduplicator collapses multiple records that likely represent the same
// individual at one address. Input is pre-filtered to one address and island.
type Deduplicator struct {
	resolver *AgeResolver
	logger   *zap.Logger
}

// NewDeduplicator creates a Deduplicator.
func NewDeduplicator(resolver *AgeResolver, logger *zap.Logger) *Deduplicator {
	return &Deduplicator{
		resolver: resolver,
		logger:   logger.Named("deduplicator"),
	}
}

// Deduplicate returns one entry per distinct inferred individual,
// age-resolved where possible. Records sharing a normalized name collapse
// to the most complete age-resolvable record; a same-name record with a
// different contact value is kept as a distinct person, since parent and
// child sharing a given name is common in the directory.
func (d *Deduplicator) Deduplicate(persons []*models.Person, referenceYear int) *DedupeResult {
	result := &DedupeResult{}

	groups := make(map[string][]*models.Person)
	var order []string
	for _, p := range persons {
		key := normalizeName(p.Name)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			result.Individuals = append(result.Individuals, d.resolve(group[0], referenceYear))
			continue
		}

		canonical := d.selectCanonical(group, referenceYear)
		result.Individuals = append(result.Individuals, d.resolve(canonical, referenceYear))

		for _, p := range group {
			if p == canonical {
				continue
			}
			if p.Contact != "" && p.Contact != canonical.Contact {
				// Differing contact is our signal that two real people share
				// this name; keep both.
				d.logger.Info("retained same-name record with differing contact",
					zap.String("name", key),
					zap.String("pid", p.PID),
					zap.String("contact", logging.MaskContact(p.Contact)))
				result.Individuals = append(result.Individuals, d.resolve(p, referenceYear))
				continue
			}
			result.Collapsed = append(result.Collapsed, DuplicatePair{
				KeptPID:    canonical.PID,
				DroppedPID: p.PID,
				Name:       key,
				Reason:     "same normalized name, no distinguishing contact",
			})
			d.logger.Info("collapsed duplicate record",
				zap.String("name", key),
				zap.String("kept_pid", canonical.PID),
				zap.String("dropped_pid", p.PID))
		}
	}

	result.NearMisses = d.findNearMisses(order)
	return result
}

func (d *Deduplicator) resolve(p *models.Person, referenceYear int) *Individual {
	age, ok := d.resolver.ResolveAge(p.DateOfBirth, referenceYear)
	return &Individual{Person: p, Age: age, HasAge: ok}
}

// selectCanonical picks the representative record for a same-name group:
// the most complete record among those with a resolvable age, or the most
// complete record overall when no record has one.
func (d *Deduplicator) selectCanonical(group []*models.Person, referenceYear int) *models.Person {
	var best *models.Person
	bestScore := -1
	var bestNoAge *models.Person
	bestNoAgeScore := -1

	for _, p := range group {
		score := completenessScore(p)
		if _, hasAge := d.resolver.ResolveAge(p.DateOfBirth, referenceYear); hasAge {
			if score > bestScore {
				best = p
				bestScore = score
			}
			continue
		}
		if score > bestNoAgeScore {
			bestNoAge = p
			bestNoAgeScore = score
		}
	}

	if best != nil {
		return best
	}
	return bestNoAge
}

// findNearMisses flags distinct normalized names within a small edit
// distance of each other. These often turn out to be misspellings of one
// person, but collapsing them automatically is too risky.
func (d *Deduplicator) findNearMisses(names []string) []NearMissPair {
	var misses []NearMissPair
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			dist := fuzzy.LevenshteinDistance(names[i], names[j])
			if dist > 0 && dist <= nearMissMaxDistance {
				misses = append(misses, NearMissPair{
					Name1:    names[i],
					Name2:    names[j],
					Distance: dist,
				})
				d.logger.Info("near-miss name pair flagged for review",
					zap.String("name1", names[i]),
					zap.String("name2", names[j]),
					zap.Int("distance", dist))
			}
		}
	}
	return misses
}

// completenessScore counts the filled optional fields of a record.
func completenessScore(p *models.Person) int {
	score := 0
	for _, field := range []string{p.Contact, p.Email, p.NationalID, p.Profession, p.Atoll} {
		if field != "" {
			score++
		}
	}
	if p.Gender != nil && *p.Gender != "" {
		score++
	}
	if p.IslandID != nil {
		score++
	}
	return score
}

// normalizeName lowercases a name and collapses interior whitespace.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
