package schema

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// SHAPE NORMALIZERS
// =============================================================================
//
// Each normalizer accepts any candidate value the extractor may produce
// (nil, map, slice, scalar) and returns a fully populated canonical shape:
// required scalars carry type-correct values, required lists are never nil,
// nested structures are normalized recursively, and candidate fields outside
// the canonical shape are kept in Extra rather than discarded. A normalizer
// never fails.

// NormalizeContext coerces a candidate into the stage 1 shape. The two
// instruction fields default to empty strings; the prompt builders supply
// their own directives when instructions are missing.
func NormalizeContext(candidate interface{}) ContextAnalysis {
	m := asMap(candidate)
	situation := subMap(m, "situation")
	return ContextAnalysis{
		Situation: UserSituation{
			Stage:       stringOr(situation, "stage", "Unknown"),
			Resources:   stringList(situation, "resources"),
			Constraints: stringList(situation, "constraints"),
			Goals:       stringList(situation, "goals"),
		},
		KeyClaims:              stringList(m, "key_claims"),
		ResearchQueries:        stringList(m, "research_queries"),
		DecisionPoints:         stringList(m, "decision_points"),
		ResearchInstructions:   stringOr(m, "research_instructions", ""),
		ValidationInstructions: stringOr(m, "validation_instructions", ""),
		Extra: leftover(m, "situation", "key_claims", "research_queries",
			"decision_points", "research_instructions", "validation_instructions"),
	}
}

// NormalizeDossier coerces a candidate into the stage 2 shape. When the
// candidate has no all_sources list, one is built by flattening the sources
// of the nested sections in order, deduplicated.
func NormalizeDossier(candidate interface{}) ResearchDossier {
	m := asMap(candidate)
	market := subMap(m, "market_analysis")
	comp := subMap(m, "competitor_analysis")
	d := ResearchDossier{
		Market: MarketAnalysis{
			Size:       stringOr(market, "size", "Unknown"),
			GrowthRate: stringOr(market, "growth_rate", "Unknown"),
			Trends:     stringList(market, "trends"),
			Sources:    stringList(market, "sources"),
		},
		Competitors: CompetitorAnalysis{
			Competitors: stringList(comp, "competitors"),
			Sources:     stringList(comp, "sources"),
		},
		ProvenMethods: normalizeProvenMethods(rawList(m, "proven_methods")),
		AllSources:    stringList(m, "all_sources"),
		Extra: leftover(m, "market_analysis", "competitor_analysis",
			"proven_methods", "all_sources"),
	}
	if len(d.AllSources) == 0 {
		d.AllSources = flattenSources(d)
	}
	return d
}

// NormalizeValidation coerces a candidate into the stage 3 shape. A missing
// or unparsable credibility score defaults to the neutral midpoint 50.
func NormalizeValidation(candidate interface{}) ValidationAnalysis {
	m := asMap(candidate)
	cred := subMap(m, "credibility")
	return ValidationAnalysis{
		Contradictions: normalizeContradictions(rawList(m, "contradictions")),
		Gaps:           stringList(m, "gaps"),
		Credibility: CredibilityAssessment{
			Score:   scoreOr(cred, "score", 50),
			Factors: stringList(cred, "factors"),
		},
		Recommendations: stringList(m, "recommendations"),
		Extra:           leftover(m, "contradictions", "gaps", "credibility", "recommendations"),
	}
}

// NormalizeSolutions coerces a candidate into an ordered solution list. Three
// candidate forms are accepted: a bare list, an object wrapping a list under
// a known field, or a single solution object. Records missing an id receive a
// freshly generated one, unique within the run.
func NormalizeSolutions(candidate interface{}) []SolutionApproach {
	items := solutionCandidates(candidate)
	out := make([]SolutionApproach, 0, len(items))
	for _, item := range items {
		out = append(out, normalizeSolution(item))
	}
	return out
}

func solutionCandidates(candidate interface{}) []interface{} {
	switch v := candidate.(type) {
	case []interface{}:
		return v
	case map[string]interface{}:
		for _, key := range []string{"solutions", "approaches", "solution_approaches"} {
			if list, ok := v[key].([]interface{}); ok {
				return list
			}
		}
		if len(v) == 0 {
			return nil
		}
		return []interface{}{v}
	}
	return nil
}

func normalizeSolution(item interface{}) SolutionApproach {
	m := asMap(item)
	res := subMap(m, "resource_requirements")
	s := SolutionApproach{
		ID:              stringOr(m, "id", ""),
		Name:            stringOr(m, "name", "Unnamed Approach"),
		Category:        stringOr(m, "category", "Unknown"),
		CapitalRequired: stringOr(m, "capital_required", "Unknown"),
		TimeToMarket:    stringOr(m, "time_to_market", "Unknown"),
		Resources: ResourceRequirements{
			TeamSize:       stringOr(res, "team_size", "Unknown"),
			Skills:         stringList(res, "skills"),
			Infrastructure: stringList(res, "infrastructure"),
		},
		RiskLevel:      stringOr(m, "risk_level", "Unknown"),
		RiskFactors:    stringList(m, "risk_factors"),
		Mitigations:    stringList(m, "mitigations"),
		Phases:         normalizePhases(rawList(m, "phases")),
		ProvenExamples: normalizeProvenExamples(rawList(m, "proven_examples")),
		Sources:        stringList(m, "sources"),
		Summary:        stringOr(m, "summary", ""),
		Extra: leftover(m, "id", "name", "category", "capital_required",
			"time_to_market", "resource_requirements", "risk_level", "risk_factors",
			"mitigations", "phases", "proven_examples", "sources", "summary"),
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return s
}

func normalizeProvenMethods(items []interface{}) []ProvenMethod {
	out := make([]ProvenMethod, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, ProvenMethod{Method: s, Examples: []string{}, Sources: []string{}})
			continue
		}
		m := asMap(item)
		out = append(out, ProvenMethod{
			Method:   stringOr(m, "method", "Unknown"),
			Examples: stringList(m, "examples"),
			Sources:  stringList(m, "sources"),
		})
	}
	return out
}

func normalizeContradictions(items []interface{}) []Contradiction {
	out := make([]Contradiction, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, Contradiction{Claim: s, Finding: "Unknown", Severity: "Unknown"})
			continue
		}
		m := asMap(item)
		out = append(out, Contradiction{
			Claim:    stringOr(m, "claim", "Unknown"),
			Finding:  stringOr(m, "finding", "Unknown"),
			Severity: stringOr(m, "severity", "Unknown"),
		})
	}
	return out
}

func normalizePhases(items []interface{}) []Phase {
	out := make([]Phase, 0, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, Phase{
				Name:          s,
				Duration:      "3 months",
				Milestones:    []string{},
				Deliverables:  []string{},
				EstimatedCost: "Unknown",
				Sources:       []string{},
			})
			continue
		}
		m := asMap(item)
		out = append(out, Phase{
			Name:          stringOr(m, "name", "Phase "+strconv.Itoa(i+1)),
			Duration:      stringOr(m, "duration", "3 months"),
			Milestones:    stringList(m, "milestones"),
			Deliverables:  stringList(m, "deliverables"),
			EstimatedCost: stringOr(m, "estimated_cost", "Unknown"),
			Sources:       stringList(m, "sources"),
		})
	}
	return out
}

func normalizeProvenExamples(items []interface{}) []ProvenExample {
	out := make([]ProvenExample, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, ProvenExample{Company: s})
			continue
		}
		m := asMap(item)
		out = append(out, ProvenExample{
			Company: stringOr(m, "company", "Unknown"),
			Outcome: stringOr(m, "outcome", ""),
			Source:  stringOr(m, "source", ""),
		})
	}
	return out
}

// flattenSources collects every nested source list in section order,
// first occurrence wins.
func flattenSources(d ResearchDossier) []string {
	seen := make(map[string]struct{})
	all := []string{}
	add := func(sources []string) {
		for _, s := range sources {
			if _, dup := seen[s]; dup || s == "" {
				continue
			}
			seen[s] = struct{}{}
			all = append(all, s)
		}
	}
	add(d.Market.Sources)
	add(d.Competitors.Sources)
	for _, pm := range d.ProvenMethods {
		add(pm.Sources)
	}
	return all
}

// ========== candidate field helpers ==========

// asMap returns the candidate as a map, or nil for any other value. Lookups
// on a nil map are safe, so callers read fields without checking.
func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func subMap(m map[string]interface{}, key string) map[string]interface{} {
	return asMap(m[key])
}

func rawList(m map[string]interface{}, key string) []interface{} {
	list, _ := m[key].([]interface{})
	return list
}

// toText renders a scalar candidate value as text. Structured values are
// serialized compactly so no content is lost when a string field receives
// an object or list.
func toText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func stringOr(m map[string]interface{}, key, fallback string) string {
	v, ok := m[key]
	if !ok {
		return fallback
	}
	s := strings.TrimSpace(toText(v))
	if s == "" {
		return fallback
	}
	return s
}

// stringList coerces a field into a non-nil string slice. A lone scalar
// becomes a one-element list.
func stringList(m map[string]interface{}, key string) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return []string{}
	}
	items, ok := v.([]interface{})
	if !ok {
		if s := strings.TrimSpace(toText(v)); s != "" {
			return []string{s}
		}
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(toText(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// scoreOr reads a 0-100 score, accepting numbers and numeric strings, and
// clamps out-of-range values.
func scoreOr(m map[string]interface{}, key string, fallback int) int {
	v, ok := m[key]
	if !ok {
		return fallback
	}
	var score float64
	switch t := v.(type) {
	case float64:
		score = t
	case int:
		score = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return fallback
		}
		score = parsed
	default:
		return fallback
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}

// leftover returns candidate fields outside the canonical key set, or nil
// when there are none.
func leftover(m map[string]interface{}, canonical ...string) map[string]interface{} {
	if len(m) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(canonical))
	for _, key := range canonical {
		known[key] = struct{}{}
	}
	var extra map[string]interface{}
	for key, val := range m {
		if _, ok := known[key]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]interface{})
		}
		extra[key] = val
	}
	return extra
}
