package services

import (
	"strconv"
	"strings"
)

// DefaultMinBirthYear is the lower bound for a plausible birth-year token.
const DefaultMinBirthYear = 1900

// AgeResolver parses free-form date-of-birth strings into whole-year ages.
// Directory DOB strings arrive in inconsistent formats with day and month
// transposed often enough that only the year token is trustworthy, so age
// is computed from the year alone.
type AgeResolver struct {
	minBirthYear int
}

// NewAgeResolver creates an AgeResolver. minBirthYear <= 0 selects the default.
func NewAgeResolver(minBirthYear int) *AgeResolver {
	if minBirthYear <= 0 {
		minBirthYear = DefaultMinBirthYear
	}
	return &AgeResolver{minBirthYear: minBirthYear}
}

// ResolveAge returns the whole-year age implied by dob relative to
// referenceYear. The second return is false when dob holds no usable
// birth year; callers must treat that as unknown, never as zero.
func (r *AgeResolver) ResolveAge(dob string, referenceYear int) (int, bool) {
	year, ok := r.resolveBirthYear(dob, referenceYear)
	if !ok {
		return 0, false
	}
	return referenceYear - year, true
}

// resolveBirthYear finds the birth year in a free-form DOB string.
// Accepts "/" and "-" separated dates holding exactly one 4-digit token in
// [minBirthYear, referenceYear], or a bare 4-digit year.
func (r *AgeResolver) resolveBirthYear(dob string, referenceYear int) (int, bool) {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		return 0, false
	}

	// Bare 4-digit year.
	if len(dob) == 4 {
		if year, err := strconv.Atoi(dob); err == nil {
			if year >= r.minBirthYear && year <= referenceYear {
				return year, true
			}
			return 0, false
		}
	}

	tokens := strings.FieldsFunc(dob, func(c rune) bool {
		return c == '/' || c == '-'
	})

	year := 0
	found := 0
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if len(tok) != 4 {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if n >= r.minBirthYear && n <= referenceYear {
			year = n
			found++
		}
	}

	// Exactly one candidate year token; anything else is ambiguous.
	if found != 1 {
		return 0, false
	}
	return year, true
}
