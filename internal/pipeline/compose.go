package pipeline

import (
	"fmt"
	"strings"

	"venturelens/internal/schema"
)

// compose assembles the narrative fields of a report from stage outputs.
// Assembly is deterministic; no model call is involved.
func compose(report *schema.DecisionReport) (summary string, insights []string, nextSteps []string) {
	return composeSummary(report), composeInsights(report), composeNextSteps(report)
}

func composeSummary(report *schema.DecisionReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluated %d solution approaches for this venture.", len(report.Solutions))
	if rec := findSolution(report.Solutions, report.RecommendedID); rec != nil {
		fmt.Fprintf(&b, " Recommended path: %s (%s), estimated capital %s, time to market %s.",
			rec.Name, rec.Category, rec.CapitalRequired, rec.TimeToMarket)
	}
	fmt.Fprintf(&b, " Research credibility: %d/100.", report.Validation.Credibility.Score)
	if n := len(report.DegradedStages); n > 0 {
		fmt.Fprintf(&b, " %d of 4 stages degraded to defaults; treat findings as provisional.", n)
	}
	return b.String()
}

func composeInsights(report *schema.DecisionReport) []string {
	insights := []string{}
	if report.Research.Market.Size != "Unknown" {
		insights = append(insights, fmt.Sprintf("Market size %s, growth %s.",
			report.Research.Market.Size, report.Research.Market.GrowthRate))
	}
	for _, c := range report.Validation.Contradictions {
		insights = append(insights, fmt.Sprintf("Contradiction (%s severity): %s", c.Severity, c.Claim))
	}
	for _, gap := range report.Validation.Gaps {
		insights = append(insights, "Evidence gap: "+gap)
	}
	for _, method := range report.Research.ProvenMethods {
		insights = append(insights, "Proven method: "+method.Method)
	}
	return insights
}

func composeNextSteps(report *schema.DecisionReport) []string {
	steps := []string{}
	if rec := findSolution(report.Solutions, report.RecommendedID); rec != nil && len(rec.Phases) > 0 {
		first := rec.Phases[0]
		steps = append(steps, fmt.Sprintf("Begin the %q phase of the recommended approach (%s).",
			first.Name, first.Duration))
		for _, m := range first.Milestones {
			steps = append(steps, "Milestone: "+m)
		}
	}
	steps = append(steps, report.Validation.Recommendations...)
	if len(steps) == 0 {
		if len(report.DegradedStages) > 0 {
			steps = append(steps, "Re-run the analysis once model access is restored.")
		} else {
			steps = append(steps, "Validate the findings with direct customer conversations.")
		}
	}
	return steps
}

func findSolution(solutions []schema.SolutionApproach, id string) *schema.SolutionApproach {
	if id == "" {
		return nil
	}
	for i := range solutions {
		if solutions[i].ID == id {
			return &solutions[i]
		}
	}
	return nil
}
