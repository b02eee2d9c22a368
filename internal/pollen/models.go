package pollen

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Pollen errors.
var (
	ErrLocationNotFound    = errors.New("location not found")
	ErrUpstreamUnavailable = errors.New("pollen provider unavailable")
	ErrUpstreamRejected    = errors.New("pollen provider rejected request")
	ErrMalformedRecord     = errors.New("malformed pollen record")
	ErrIncompleteForecast  = errors.New("incomplete pollen forecast")
)

// Category is a class of pollen tracked independently per day.
type Category string

const (
	CategoryGrass Category = "Grass"
	CategoryTrees Category = "Trees"
	CategoryWeeds Category = "Weeds"
)

// AllCategories returns the categories in their stable display order.
func AllCategories() []Category {
	return []Category{CategoryGrass, CategoryTrees, CategoryWeeds}
}

// Severity is the provider's classification of pollen concentration.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityModerate Severity = "Moderate"
	SeverityHigh     Severity = "High"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityModerate: 2,
	SeverityHigh:     3,
}

// Rank orders severities; unknown values rank 0.
func (s Severity) Rank() int {
	return severityRank[s]
}

// ParseSeverity maps a provider label to a Severity, ignoring case and
// surrounding whitespace. "Very High" is folded into High.
func ParseSeverity(label string) (Severity, bool) {
	switch strings.ToLower(strings.Join(strings.Fields(label), " ")) {
	case "low":
		return SeverityLow, true
	case "moderate", "medium":
		return SeverityModerate, true
	case "high", "very high":
		return SeverityHigh, true
	default:
		return "", false
	}
}

// AlertLevel is the overall alert derived from a day's categories.
type AlertLevel string

const (
	AlertNone     AlertLevel = "None"
	AlertLow      AlertLevel = AlertLevel(SeverityLow)
	AlertModerate AlertLevel = AlertLevel(SeverityModerate)
	AlertHigh     AlertLevel = AlertLevel(SeverityHigh)
)

// Location is a resolved UK place.
type Location struct {
	Name      string `json:"name"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`

	// Query is the provider-side identifier the location was matched with.
	Query string `json:"-"`
}

// SpeciesEntry is one pollen species reading.
type SpeciesEntry struct {
	Name     string   `json:"name"`
	Count    int      `json:"count"`
	Severity Severity `json:"severity"`
}

// CategoryLevel is the reading for one category on one day.
type CategoryLevel struct {
	Category Category       `json:"category"`
	Level    Severity       `json:"level"`
	Count    int            `json:"count"`
	Species  []SpeciesEntry `json:"species"`
}

// DayForecast is one calendar day as reported by the provider.
type DayForecast struct {
	DayName    string                     `json:"day_name"`
	DayNumber  string                     `json:"day_number"`
	Categories map[Category]CategoryLevel `json:"categories"`
}

// Category returns the reading for c, if the provider reported one.
func (d DayForecast) Category(c Category) (CategoryLevel, bool) {
	level, ok := d.Categories[c]
	return level, ok
}

// PollenReport is the normalized result of one pipeline run.
type PollenReport struct {
	Location          Location                    `json:"location"`
	CurrentDay        DayForecast                 `json:"current_day"`
	Forecast          []DayForecast               `json:"forecast"`
	DetailedBreakdown map[Category][]SpeciesEntry `json:"detailed_breakdown"`

	// Warnings lists non-fatal findings such as dropped days or a short forecast.
	Warnings  []string  `json:"warnings,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// CategorySet is a set of categories that serializes in stable order.
type CategorySet map[Category]struct{}

// NewCategorySet builds a set from the given categories.
func NewCategorySet(categories ...Category) CategorySet {
	set := make(CategorySet, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return set
}

// Has reports whether c is in the set.
func (s CategorySet) Has(c Category) bool {
	_, ok := s[c]
	return ok
}

// Sorted returns the members in Grass, Trees, Weeds order.
func (s CategorySet) Sorted() []Category {
	out := make([]Category, 0, len(s))
	for _, c := range AllCategories() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// MarshalJSON writes the set as an ordered array.
func (s CategorySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON reads an array of category names.
func (s *CategorySet) UnmarshalJSON(data []byte) error {
	var categories []Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return err
	}
	*s = NewCategorySet(categories...)
	return nil
}

// HealthAdvice is derived from a single day's category levels.
type HealthAdvice struct {
	Advice         []string    `json:"advice"`
	AlertLevel     AlertLevel  `json:"alert_level"`
	HighLevels     CategorySet `json:"high_levels"`
	ModerateLevels CategorySet `json:"moderate_levels"`
}
