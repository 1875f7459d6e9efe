// Package artifact derives presentation artifacts from solution approaches.
// Derivation is pure: the same solutions and start time always produce the
// same timelines and scores, with no model call involved.
package artifact

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"venturelens/internal/schema"
)

// defaultPhaseMonths stands in for a phase duration with no usable number.
const defaultPhaseMonths = 3

// Timeline lays the phases of a solution end to end from the start date.
// Each phase contributes its parsed duration in months.
func Timeline(s schema.SolutionApproach, start time.Time) schema.SolutionTimeline {
	tl := schema.SolutionTimeline{
		SolutionID: s.ID,
		Entries:    make([]schema.TimelineEntry, 0, len(s.Phases)),
	}
	cursor := start
	for _, phase := range s.Phases {
		months := phaseMonths(phase.Duration)
		end := cursor.AddDate(0, months, 0)
		tl.Entries = append(tl.Entries, schema.TimelineEntry{
			Phase:      phase.Name,
			StartDate:  cursor,
			EndDate:    end,
			Months:     months,
			Milestones: phase.Milestones,
		})
		cursor = end
		tl.TotalMonths += months
	}
	return tl
}

// Scores rates a solution on five fixed axes, each 0-100. Fields that parse
// to nothing score the neutral midpoint.
func Scores(s schema.SolutionApproach) schema.SolutionScores {
	return schema.SolutionScores{
		SolutionID:        s.ID,
		TimeToMarket:      timeToMarketScore(s.TimeToMarket),
		CapitalEfficiency: capitalScore(s.CapitalRequired),
		Risk:              riskScore(s.RiskLevel),
		Scalability:       scalabilityScore(s.Category),
		ProvenTrackRecord: trackRecordScore(len(s.ProvenExamples)),
	}
}

// Recommend picks the solution with the highest score total. Ties keep the
// earlier solution. An empty list yields an empty id.
func Recommend(scores []schema.SolutionScores) string {
	best := ""
	bestTotal := -1
	for _, s := range scores {
		if total := s.Total(); total > bestTotal {
			best = s.SolutionID
			bestTotal = total
		}
	}
	return best
}

var numberPattern = regexp.MustCompile(`\d+`)

// parseMonths reads a duration phrase into whole months. The first integer
// in the text counts; week and year units convert, everything else is taken
// as months already.
func parseMonths(text string) (int, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "week"):
		return (n + 3) / 4, true
	case strings.Contains(lower, "year"):
		return n * 12, true
	}
	return n, true
}

func phaseMonths(duration string) int {
	if months, ok := parseMonths(duration); ok && months > 0 {
		return months
	}
	return defaultPhaseMonths
}

func timeToMarketScore(timeToMarket string) int {
	months, ok := parseMonths(timeToMarket)
	if !ok {
		return 50
	}
	switch {
	case months <= 3:
		return 90
	case months <= 6:
		return 75
	case months <= 12:
		return 60
	case months <= 18:
		return 45
	case months <= 24:
		return 30
	default:
		return 15
	}
}

var dollarPattern = regexp.MustCompile(`\$?\s*([\d,]+(?:\.\d+)?)\s*([kKmM])?`)

// parseDollars reads the first dollar figure in the text, honoring k and m
// suffixes.
func parseDollars(text string) (float64, bool) {
	match := dollarPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(match[1], ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(match[2]) {
	case "k":
		value *= 1000
	case "m":
		value *= 1000000
	}
	return value, true
}

func capitalScore(capital string) int {
	dollars, ok := parseDollars(capital)
	if !ok {
		return 50
	}
	switch {
	case dollars < 10000:
		return 90
	case dollars < 50000:
		return 75
	case dollars < 250000:
		return 60
	case dollars < 1000000:
		return 40
	default:
		return 25
	}
}

func riskScore(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return 85
	case "medium", "moderate":
		return 60
	case "high":
		return 35
	}
	return 50
}

func scalabilityScore(category string) int {
	switch category {
	case schema.CategoryTechnology:
		return 90
	case schema.CategoryCapital:
		return 70
	case schema.CategoryExpertise:
		return 50
	}
	return 50
}

func trackRecordScore(examples int) int {
	switch {
	case examples <= 0:
		return 20
	case examples == 1:
		return 40
	case examples == 2:
		return 55
	case examples == 3:
		return 70
	case examples == 4:
		return 80
	}
	return 90
}
