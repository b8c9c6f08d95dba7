package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveAge(t *testing.T) {
	resolver := NewAgeResolver(0)
	const refYear = 2026

	tests := []struct {
		name    string
		dob     string
		wantAge int
		wantOK  bool
	}{
		{"slash separated dmy", "14/02/1980", 46, true},
		{"dash separated ymd", "1980-02-14", 46, true},
		{"slash separated ymd", "1975/06/01", 51, true},
		{"bare year", "1990", 36, true},
		{"transposed day month still resolves", "02/14/1980", 46, true},
		{"current year newborn", "2026", 0, true},
		{"lower bound year", "1900-01-01", 126, true},
		{"below lower bound", "1899-01-01", 0, false},
		{"future year", "2030-01-01", 0, false},
		{"two candidate years is ambiguous", "1980/1985", 0, false},
		{"no year token", "14/02/80", 0, false},
		{"garbage", "unknown", 0, false},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"year with surrounding spaces", " 1980 ", 46, true},
		{"four letters not a year", "abcd", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			age, ok := resolver.ResolveAge(tt.dob, refYear)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantAge, age)
		})
	}
}

func TestResolveAge_ReferenceYearProperty(t *testing.T) {
	// For any DOB with exactly one valid 4-digit year token Y,
	// age must equal referenceYear - Y.
	resolver := NewAgeResolver(0)

	for year := 1900; year <= 2026; year += 7 {
		for _, refYear := range []int{2026, 2030} {
			dob := fmt.Sprintf("01/01/%04d", year)
			age, ok := resolver.ResolveAge(dob, refYear)
			assert.True(t, ok, "year %d should resolve", year)
			assert.Equal(t, refYear-year, age)
		}
	}
}

func TestResolveAge_CustomMinBirthYear(t *testing.T) {
	resolver := NewAgeResolver(1950)

	_, ok := resolver.ResolveAge("1949-01-01", 2026)
	assert.False(t, ok, "years below the configured floor must not resolve")

	age, ok := resolver.ResolveAge("1950-01-01", 2026)
	assert.True(t, ok)
	assert.Equal(t, 76, age)
}
