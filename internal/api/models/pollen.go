package models

import "github.com/pollenpal/pollenpal/internal/pollen"

// CurrentResponse is the body of GET /pollen/{city}/current.
type CurrentResponse struct {
	Location   pollen.Location    `json:"location"`
	CurrentDay pollen.DayForecast `json:"current_day"`
}

// ForecastResponse is the body of GET /pollen/{city}/forecast.
type ForecastResponse struct {
	Location pollen.Location      `json:"location"`
	Forecast []pollen.DayForecast `json:"forecast"`
	Warnings []string             `json:"warnings"`
}

// DetailedResponse is the body of GET /pollen/{city}/detailed.
type DetailedResponse struct {
	Location          pollen.Location                           `json:"location"`
	DetailedBreakdown map[pollen.Category][]pollen.SpeciesEntry `json:"detailed_breakdown"`
}
