package pollen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Detail strings carry one category's species for one day:
//
//	detail  := segment ("|" segment)*
//	segment := name "," count "," severity
//
// e.g. "Timothy,45,high|Ryegrass,32,moderate".
const (
	segmentSeparator = "|"
	fieldSeparator   = ","
	segmentFields    = 3
)

// ParseDetail tokenizes a detail string into species entries, preserving
// their original order. Segments that cannot be read are dropped and
// reported as MalformedRecord errors; counts that are not non-negative
// integers become zero and are reported without dropping the species.
func ParseDetail(detail string) ([]SpeciesEntry, []error) {
	var (
		species  []SpeciesEntry
		problems []error
	)

	for i, segment := range strings.Split(detail, segmentSeparator) {
		if strings.TrimSpace(segment) == "" {
			continue
		}

		entry, countErr, err := parseSegment(segment)
		if err != nil {
			problems = append(problems, fmt.Errorf("segment %d %q: %w", i, segment, err))
			continue
		}
		if countErr != nil {
			problems = append(problems, fmt.Errorf("segment %d %q: %w", i, segment, countErr))
		}
		species = append(species, entry)
	}

	return species, problems
}

func parseSegment(segment string) (entry SpeciesEntry, countErr, err error) {
	fields := strings.Split(segment, fieldSeparator)
	if len(fields) != segmentFields {
		return SpeciesEntry{}, nil, fmt.Errorf("%w: want %d fields, got %d",
			ErrMalformedRecord, segmentFields, len(fields))
	}

	name := strings.TrimSpace(fields[0])
	if name == "" {
		return SpeciesEntry{}, nil, fmt.Errorf("%w: empty species name", ErrMalformedRecord)
	}

	severity, ok := ParseSeverity(fields[2])
	if !ok {
		return SpeciesEntry{}, nil, fmt.Errorf("%w: unknown severity %q",
			ErrMalformedRecord, strings.TrimSpace(fields[2]))
	}

	count, countErr := parseCount(fields[1])

	return SpeciesEntry{Name: name, Count: count, Severity: severity}, countErr, nil
}

// parseCount reads a non-negative integer. Anything else yields zero and an
// error describing why; upstream counts are advisory, so callers keep going.
func parseCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty count")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}
