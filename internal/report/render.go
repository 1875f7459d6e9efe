// Package report renders decision reports for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"venturelens/internal/schema"
	"venturelens/internal/store"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	solutionNameWidth  = 32
	milestoneColWidth  = 40
	ventureColumnWidth = 40
)

// ShouldColorize reports whether ANSI color is appropriate for the writer.
func ShouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Render formats a full decision report as terminal text.
func Render(report *schema.DecisionReport, venture string, colorize bool) string {
	var b strings.Builder
	writeLines := func(lines []string) {
		for _, line := range lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	writeLines(sectionHeader("Decision Report", colorize))
	if venture != "" {
		b.WriteString("Venture:    " + venture + "\n")
	}
	b.WriteString("Report ID:  " + report.ID + "\n")
	b.WriteString("Created:    " + report.CreatedAt.Format("2006-01-02 15:04 MST") + "\n")
	b.WriteString(confidenceLine(report.Confidence, colorize) + "\n")
	if len(report.DegradedStages) > 0 {
		line := fmt.Sprintf("Degraded:   stages %s used fallback output", joinInts(report.DegradedStages))
		if colorize {
			line = ansiYellow + line + ansiReset
		}
		b.WriteString(line + "\n")
	}

	if report.ExecutiveSummary != "" {
		b.WriteString("\n")
		writeLines(sectionHeader("Executive Summary", colorize))
		b.WriteString(report.ExecutiveSummary + "\n")
	}

	if lines := marketSection(report.Research); len(lines) > 0 {
		b.WriteString("\n")
		writeLines(sectionHeader("Research", colorize))
		writeLines(lines)
	}

	b.WriteString("\n")
	writeLines(sectionHeader("Validation", colorize))
	writeLines(validationSection(report.Validation))

	if len(report.Solutions) > 0 {
		b.WriteString("\n")
		writeLines(sectionHeader("Solution Approaches", colorize))
		b.WriteString(solutionsTable(report) + "\n")
		if report.RecommendedID != "" {
			b.WriteString("  * recommended approach\n")
		}
	}

	if timeline, ok := timelineTable(report); ok {
		b.WriteString("\n")
		writeLines(sectionHeader("Recommended Timeline", colorize))
		b.WriteString(timeline + "\n")
	}

	if len(report.KeyInsights) > 0 {
		b.WriteString("\n")
		writeLines(sectionHeader("Key Insights", colorize))
		for _, insight := range report.KeyInsights {
			b.WriteString("  - " + insight + "\n")
		}
	}

	if len(report.NextSteps) > 0 {
		b.WriteString("\n")
		writeLines(sectionHeader("Next Steps", colorize))
		for i, step := range report.NextSteps {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	return b.String()
}

// RenderList formats stored report summaries, one row per report.
func RenderList(summaries []store.ReportSummary) string {
	if len(summaries) == 0 {
		return "No reports stored yet."
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Venture", "Created", "Solutions", "Confidence"})
	for _, summary := range summaries {
		confidence := strconv.Itoa(summary.Confidence)
		if summary.Degraded > 0 {
			confidence += fmt.Sprintf(" (%d degraded)", summary.Degraded)
		}
		tw.AppendRow(table.Row{
			summary.ID,
			summary.Venture,
			summary.CreatedAt.Format("2006-01-02 15:04"),
			summary.SolutionCount,
			confidence,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: ventureColumnWidth},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func solutionsTable(report *schema.DecisionReport) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"", "Solution", "Category", "Capital", "Launch", "Risk", "Score"})

	for _, solution := range report.Solutions {
		marker := ""
		if report.RecommendedID != "" && solution.ID == report.RecommendedID {
			marker = "*"
		}
		score := ""
		if total, ok := scoreFor(report, solution.ID); ok {
			score = strconv.Itoa(total)
		}
		tw.AppendRow(table.Row{
			marker,
			solution.Name,
			categoryLabel(solution.Category),
			solution.CapitalRequired,
			solution.TimeToMarket,
			solution.RiskLevel,
			score,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: solutionNameWidth},
		{Number: 7, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func timelineTable(report *schema.DecisionReport) (string, bool) {
	timeline := timelineFor(report, report.RecommendedID)
	if timeline == nil || len(timeline.Entries) == 0 {
		return "", false
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Phase", "Start", "End", "Months", "Milestones"})
	for _, entry := range timeline.Entries {
		tw.AppendRow(table.Row{
			entry.Phase,
			entry.StartDate.Format("Jan 2006"),
			entry.EndDate.Format("Jan 2006"),
			entry.Months,
			strings.Join(entry.Milestones, "; "),
		})
	}
	tw.AppendFooter(table.Row{"", "", "Total", timeline.TotalMonths, ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, WidthMax: milestoneColWidth},
	})
	return tw.Render(), true
}

func marketSection(dossier schema.ResearchDossier) []string {
	var lines []string
	if dossier.Market.Size != "" {
		lines = append(lines, fmt.Sprintf("Market size: %s (growth %s)", dossier.Market.Size, dossier.Market.GrowthRate))
	}
	if len(dossier.Competitors.Competitors) > 0 {
		lines = append(lines, "Competitors: "+strings.Join(dossier.Competitors.Competitors, ", "))
	}
	for _, method := range dossier.ProvenMethods {
		lines = append(lines, "Proven method: "+method.Method)
	}
	if len(dossier.AllSources) > 0 {
		lines = append(lines, "Sources:")
		for _, source := range dossier.AllSources {
			lines = append(lines, "  - "+source)
		}
	}
	return lines
}

func validationSection(validation schema.ValidationAnalysis) []string {
	lines := []string{fmt.Sprintf("Credibility: %d/100", validation.Credibility.Score)}
	for _, c := range validation.Contradictions {
		lines = append(lines, fmt.Sprintf("  [%s] %s (finding: %s)", c.Severity, c.Claim, c.Finding))
	}
	for _, gap := range validation.Gaps {
		lines = append(lines, "  gap: "+gap)
	}
	return lines
}

func sectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func confidenceLine(confidence int, colorize bool) string {
	line := fmt.Sprintf("Confidence: %d/100", confidence)
	if !colorize {
		return line
	}
	switch {
	case confidence >= 75:
		return ansiGreen + line + ansiReset
	case confidence >= 50:
		return ansiYellow + line + ansiReset
	default:
		return ansiRed + line + ansiReset
	}
}

func categoryLabel(category string) string {
	switch category {
	case schema.CategoryCapital:
		return "Capital"
	case schema.CategoryExpertise:
		return "Expertise"
	case schema.CategoryTechnology:
		return "Technology"
	default:
		return category
	}
}

func scoreFor(report *schema.DecisionReport, id string) (int, bool) {
	for _, scores := range report.Artifacts.Scores {
		if scores.SolutionID == id {
			return scores.Total(), true
		}
	}
	return 0, false
}

func timelineFor(report *schema.DecisionReport, id string) *schema.SolutionTimeline {
	for i := range report.Artifacts.Timelines {
		if report.Artifacts.Timelines[i].SolutionID == id {
			return &report.Artifacts.Timelines[i]
		}
	}
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
