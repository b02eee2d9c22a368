package pollen

import (
	"fmt"
)

// ForecastDays is the number of days a complete forecast covers, today included.
const ForecastDays = 5

// IncompleteForecastError reports a forecast shorter than ForecastDays.
type IncompleteForecastError struct {
	Got int
}

func (e *IncompleteForecastError) Error() string {
	return fmt.Sprintf("%s: %d of %d days", ErrIncompleteForecast, e.Got, ForecastDays)
}

// Unwrap lets errors.Is match ErrIncompleteForecast.
func (e *IncompleteForecastError) Unwrap() error {
	return ErrIncompleteForecast
}

// AssembleForecast orders parsed days into the report forecast. The provider's
// ordering is authoritative: the first day is today, no wall-clock checks.
//
// With fewer than ForecastDays days the partial forecast is still returned
// alongside an *IncompleteForecastError so the caller can decide whether to
// accept it. With no days at all the forecast is nil.
func AssembleForecast(days []DayForecast) ([]DayForecast, error) {
	if len(days) == 0 {
		return nil, &IncompleteForecastError{Got: 0}
	}

	n := min(len(days), ForecastDays)
	forecast := make([]DayForecast, n)
	copy(forecast, days[:n])

	if n < ForecastDays {
		return forecast, &IncompleteForecastError{Got: n}
	}
	return forecast, nil
}

// DetailedBreakdown collects the species readings of each category reported
// for the given day.
func DetailedBreakdown(day DayForecast) map[Category][]SpeciesEntry {
	breakdown := make(map[Category][]SpeciesEntry, len(day.Categories))
	for _, category := range AllCategories() {
		level, ok := day.Category(category)
		if !ok {
			continue
		}
		species := make([]SpeciesEntry, len(level.Species))
		copy(species, level.Species)
		breakdown[category] = species
	}
	return breakdown
}
