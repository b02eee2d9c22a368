package pollen

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Payload is everything extracted from one provider response.
type Payload struct {
	// Location as echoed back by the provider. Name is the bare place name.
	Location Location

	// Days in the provider's own order; unparsable days are omitted.
	Days []DayForecast

	// Warnings describes recovered problems: dropped days, dropped species,
	// zeroed counts.
	Warnings []string
}

// categoryAttrs names the data attributes a day button carries per category.
// The detail attribute names are singular upstream.
type categoryAttrs struct {
	level  string
	count  string
	detail string
}

var dayButtonAttrs = map[Category]categoryAttrs{
	CategoryGrass: {level: "data-grass", count: "data-grass-count", detail: "data-grass-detail"},
	CategoryTrees: {level: "data-trees", count: "data-trees-count", detail: "data-tree-detail"},
	CategoryWeeds: {level: "data-weeds", count: "data-weeds-count", detail: "data-weed-detail"},
}

const (
	selectorCityName  = "input#cityName"
	selectorLatitude  = "input.pollen-lat"
	selectorLongitude = "input.pollen-lng"
	selectorDayButton = "button.day-link"
	selectorDayName   = "span.day-name"
	selectorDayNumber = "span.day-number"
)

// ParsePayload extracts the location and per-day readings from the
// provider's HTML fragment. It only fails when the document cannot be read
// at all; malformed days and species are dropped and reported as warnings.
func ParsePayload(raw string) (*Payload, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}

	payload := &Payload{
		Location: parseLocation(doc),
	}

	doc.Find(selectorDayButton).Each(func(i int, button *goquery.Selection) {
		day, warnings, err := parseDay(button)
		for _, w := range warnings {
			payload.Warnings = append(payload.Warnings, fmt.Sprintf("day %d: %s", i, w))
		}
		if err != nil {
			payload.Warnings = append(payload.Warnings, fmt.Sprintf("day %d dropped: %v", i, err))
			return
		}
		payload.Days = append(payload.Days, day)
	})

	return payload, nil
}

func parseLocation(doc *goquery.Document) Location {
	return Location{
		Name:      attr(doc.Find(selectorCityName), "value"),
		Latitude:  attr(doc.Find(selectorLatitude), "value"),
		Longitude: attr(doc.Find(selectorLongitude), "value"),
	}
}

// parseDay reads one day button. A category level that is present but not a
// known severity makes the whole day malformed; a missing level just means the
// provider has nothing for that category.
func parseDay(button *goquery.Selection) (DayForecast, []string, error) {
	day := DayForecast{
		DayName:    strings.TrimSpace(button.Find(selectorDayName).First().Text()),
		DayNumber:  strings.TrimSpace(button.Find(selectorDayNumber).First().Text()),
		Categories: make(map[Category]CategoryLevel, len(dayButtonAttrs)),
	}

	var warnings []string
	for _, category := range AllCategories() {
		names := dayButtonAttrs[category]

		label := attr(button, names.level)
		if label == "" {
			continue
		}
		level, ok := ParseSeverity(label)
		if !ok {
			return DayForecast{}, warnings, fmt.Errorf("%w: %s level %q", ErrMalformedRecord, category, label)
		}

		count, err := parseCount(attr(button, names.count))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s count: %v", category, err))
		}

		species, problems := ParseDetail(attr(button, names.detail))
		for _, p := range problems {
			warnings = append(warnings, fmt.Sprintf("%s detail: %v", category, p))
		}
		if species == nil {
			species = []SpeciesEntry{}
		}

		day.Categories[category] = CategoryLevel{
			Category: category,
			Level:    level,
			Count:    count,
			Species:  species,
		}
	}

	if len(day.Categories) == 0 {
		return DayForecast{}, warnings, fmt.Errorf("%w: no category levels", ErrMalformedRecord)
	}

	return day, warnings, nil
}

func attr(sel *goquery.Selection, name string) string {
	value, _ := sel.First().Attr(name)
	return strings.TrimSpace(value)
}
