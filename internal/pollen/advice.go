package pollen

import "fmt"

// adviceRule is what the advisor says when a severity is the day's worst.
type adviceRule struct {
	// alert is formatted once per category at this severity, in category order.
	// Empty means no per-category line.
	alert string

	// guidance follows the alerts, added once.
	guidance []string
}

// adviceRules is the full rule table, keyed by the highest severity present.
var adviceRules = map[Severity]adviceRule{
	SeverityHigh: {
		alert: "HIGH ALERT: %s pollen levels are high",
		guidance: []string{
			"Stay indoors during peak hours (5-10 AM and dusk)",
			"Keep windows closed",
			"Consider antihistamines",
			"Wear wraparound sunglasses outdoors",
			"Shower after being outdoors",
			"Dry laundry indoors",
			"Use HEPA air filters",
		},
	},
	SeverityModerate: {
		alert: "MODERATE: %s pollen levels are moderate",
		guidance: []string{
			"Check forecast daily",
			"Consider precautions when outdoors",
			"Monitor symptoms closely",
		},
	},
	SeverityLow: {
		guidance: []string{
			"GOOD NEWS: All pollen levels are currently low",
			"Conditions are favorable for outdoor activities",
		},
	},
}

const noDataAdvice = "Unable to provide advice - no data available"

// Advise derives health advice from a single day's category levels. It is a
// pure function of its input.
func Advise(day DayForecast) HealthAdvice {
	high := NewCategorySet()
	moderate := NewCategorySet()
	worst := Severity("")

	for _, category := range AllCategories() {
		level, ok := day.Category(category)
		if !ok {
			continue
		}
		switch level.Level {
		case SeverityHigh:
			high[category] = struct{}{}
		case SeverityModerate:
			moderate[category] = struct{}{}
		}
		if level.Level.Rank() > worst.Rank() {
			worst = level.Level
		}
	}

	if worst == "" {
		return HealthAdvice{
			Advice:         []string{noDataAdvice},
			AlertLevel:     AlertNone,
			HighLevels:     high,
			ModerateLevels: moderate,
		}
	}

	rule := adviceRules[worst]
	var advice []string
	if rule.alert != "" {
		flagged := high
		if worst == SeverityModerate {
			flagged = moderate
		}
		for _, category := range flagged.Sorted() {
			advice = append(advice, fmt.Sprintf(rule.alert, category))
		}
	}
	advice = append(advice, rule.guidance...)

	return HealthAdvice{
		Advice:         advice,
		AlertLevel:     AlertLevel(worst),
		HighLevels:     high,
		ModerateLevels: moderate,
	}
}
