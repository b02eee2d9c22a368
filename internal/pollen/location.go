package pollen

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// CountrySuffix is appended to resolved place names.
const CountrySuffix = ", UK"

// postcodePattern matches a UK postcode with all whitespace removed:
// outward code (area, district) then inward code (sector, unit).
var postcodePattern = regexp.MustCompile(`^([A-Z]{1,2}[0-9][A-Z0-9]?)([0-9][A-Z]{2})$`)

// LocationIndex looks a normalized query up in the provider's location index.
type LocationIndex interface {
	// LookupLocation returns the provider's match for query, or
	// ErrLocationNotFound.
	LookupLocation(ctx context.Context, query string) (Location, error)
}

// NormalizeQuery tidies free-text input. Postcodes are uppercased with a
// single space before the inward code; anything else has its whitespace
// collapsed and keeps its casing. Applying it twice changes nothing.
func NormalizeQuery(input string) string {
	collapsed := strings.Join(strings.Fields(input), " ")
	if postcode, ok := NormalizePostcode(collapsed); ok {
		return postcode
	}
	return collapsed
}

// NormalizePostcode formats s as "OUTWARD INWARD" if it is a UK postcode.
func NormalizePostcode(s string) (string, bool) {
	compact := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	m := postcodePattern.FindStringSubmatch(compact)
	if m == nil {
		return "", false
	}
	return m[1] + " " + m[2], true
}

// IsPostcode reports whether s is a UK postcode in any casing or spacing.
func IsPostcode(s string) bool {
	_, ok := NormalizePostcode(s)
	return ok
}

// Resolver turns free-text input into a Location.
type Resolver struct {
	index LocationIndex
}

// NewResolver creates a resolver backed by the given index.
func NewResolver(index LocationIndex) *Resolver {
	return &Resolver{index: index}
}

// Resolve normalizes input and looks it up. Blank input fails without
// touching the index.
func (r *Resolver) Resolve(ctx context.Context, input string) (Location, error) {
	query := NormalizeQuery(input)
	if query == "" {
		return Location{}, fmt.Errorf("%w: empty query", ErrLocationNotFound)
	}

	loc, err := r.index.LookupLocation(ctx, query)
	if err != nil {
		return Location{}, err
	}
	if strings.TrimSpace(loc.Name) == "" {
		return Location{}, fmt.Errorf("%w: %q", ErrLocationNotFound, query)
	}

	loc.Name = displayName(loc.Name)
	if loc.Query == "" {
		loc.Query = query
	}
	return loc, nil
}

func displayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if strings.HasSuffix(strings.ToUpper(name), strings.ToUpper(CountrySuffix)) {
		return name
	}
	return name + CountrySuffix
}
