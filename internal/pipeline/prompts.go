package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"venturelens/internal/llm"
	"venturelens/internal/schema"
)

const contextSystemPrompt = `You are a venture context analyst. You read a founder's description of a business idea and extract the decision-relevant structure: where they stand, what they have, what they claim, and what must be researched or challenged before committing capital. You also write working instructions for the two analysts who run after you.`

const researchSystemPrompt = `You are a market research engine. You assemble a factual dossier on a venture's market: size, growth, competitors, and methods that worked for comparable companies. Cite a source for every figure you report.`

const validationSystemPrompt = `You are a skeptical validator. You hunt for contradictions between a founder's claims and the evidence, name the gaps no one has checked, and rate how credible the overall picture is. You are rewarded for finding problems, not for agreeing.`

const solutionSystemPrompt = `You are a solution architect for early-stage ventures. You turn an analyzed venture into concrete, fundable paths to market, each with phases, costs, risks, and proven precedents.`

// Fallback directives used when stage 1 produced no usable instructions.
const (
	defaultResearchInstructions   = "Research the market size, growth rate, main competitors, and proven go-to-market methods for this venture."
	defaultValidationInstructions = "Challenge every claim in this venture description and identify the evidence gaps a diligent investor would flag."
)

func contextMessages(venture schema.Venture) []llm.Message {
	prompt := fmt.Sprintf(`Analyze this venture. Output JSON only, in exactly this structure:
{
  "situation": {
    "stage": "idea|prototype|revenue|scaling",
    "resources": ["what the founder has"],
    "constraints": ["what limits them"],
    "goals": ["what they want"]
  },
  "key_claims": ["testable claims the founder is making"],
  "research_queries": ["specific questions a researcher should answer"],
  "decision_points": ["decisions this analysis must inform"],
  "research_instructions": "one paragraph of working instructions for a market research analyst",
  "validation_instructions": "one paragraph of working instructions for a skeptical validator"
}

VENTURE:
%s`, ventureBlock(venture))

	return []llm.Message{
		llm.SystemMessage(contextSystemPrompt),
		llm.UserMessage(prompt),
	}
}

func researchMessages(venture schema.Venture, contextResult schema.ContextAnalysis) []llm.Message {
	instructions := contextResult.ResearchInstructions
	if strings.TrimSpace(instructions) == "" {
		instructions = defaultResearchInstructions
	}

	var queries string
	if len(contextResult.ResearchQueries) > 0 {
		queries = "\n\nQUESTIONS TO ANSWER:\n- " + strings.Join(contextResult.ResearchQueries, "\n- ")
	}

	prompt := fmt.Sprintf(`INSTRUCTIONS:
%s%s

Output JSON only, in exactly this structure:
{
  "market_analysis": {
    "size": "market size with figure",
    "growth_rate": "annual growth",
    "trends": ["relevant trends"],
    "sources": ["where each figure comes from"]
  },
  "competitor_analysis": {
    "competitors": ["named competitors"],
    "sources": ["where they were found"]
  },
  "proven_methods": [
    {"method": "what worked", "examples": ["who used it"], "sources": ["citations"]}
  ],
  "all_sources": ["every source cited above"]
}

VENTURE:
%s`, instructions, queries, ventureBlock(venture))

	return []llm.Message{
		llm.SystemMessage(researchSystemPrompt),
		llm.UserMessage(prompt),
	}
}

func validationMessages(venture schema.Venture, contextResult schema.ContextAnalysis) []llm.Message {
	instructions := contextResult.ValidationInstructions
	if strings.TrimSpace(instructions) == "" {
		instructions = defaultValidationInstructions
	}

	var claims string
	if len(contextResult.KeyClaims) > 0 {
		claims = "\n\nCLAIMS TO CHALLENGE:\n- " + strings.Join(contextResult.KeyClaims, "\n- ")
	}

	prompt := fmt.Sprintf(`INSTRUCTIONS:
%s%s

Output JSON only, in exactly this structure:
{
  "contradictions": [
    {"claim": "what was claimed", "finding": "what the evidence says", "severity": "low|medium|high"}
  ],
  "gaps": ["questions nobody has answered"],
  "credibility": {
    "score": 0,
    "factors": ["what raised or lowered the score"]
  },
  "recommendations": ["what to verify before proceeding"]
}

The credibility score is an integer from 0 to 100.

VENTURE:
%s`, instructions, claims, ventureBlock(venture))

	return []llm.Message{
		llm.SystemMessage(validationSystemPrompt),
		llm.UserMessage(prompt),
	}
}

func solutionMessages(venture schema.Venture, contextResult schema.ContextAnalysis, research schema.ResearchDossier, validation schema.ValidationAnalysis) []llm.Message {
	prompt := fmt.Sprintf(`Design exactly %d solution approaches for this venture, one per category:
1. %s - spend money to buy speed
2. %s - leverage the founder's skills and relationships
3. %s - build product leverage and automation

Ground every approach in the research dossier and respect the validation findings below.

Output JSON only, in exactly this structure:
{
  "solutions": [
    {
      "name": "approach name",
      "category": "%s|%s|%s",
      "summary": "two sentences on how it works",
      "capital_required": "$ estimate",
      "time_to_market": "duration estimate",
      "resource_requirements": {
        "team_size": "people needed",
        "skills": ["required skills"],
        "infrastructure": ["required infrastructure"]
      },
      "risk_level": "low|medium|high",
      "risk_factors": ["what could kill it"],
      "mitigations": ["how to hedge each risk"],
      "phases": [
        {"name": "phase name", "duration": "N months", "milestones": ["checkpoints"], "deliverables": ["outputs"], "estimated_cost": "$ estimate"}
      ],
      "proven_examples": [
        {"company": "who did this", "outcome": "what happened", "source": "citation"}
      ],
      "sources": ["citations backing this approach"]
    }
  ]
}

SITUATION:
%s

RESEARCH DOSSIER:
%s

VALIDATION FINDINGS:
%s

VENTURE:
%s`,
		expectedSolutions,
		schema.CategoryCapital, schema.CategoryExpertise, schema.CategoryTechnology,
		schema.CategoryCapital, schema.CategoryExpertise, schema.CategoryTechnology,
		mustJSON(contextResult.Situation),
		mustJSON(research),
		mustJSON(validation),
		ventureBlock(venture))

	return []llm.Message{
		llm.SystemMessage(solutionSystemPrompt),
		llm.UserMessage(prompt),
	}
}

// ventureBlock renders the venture with detail keys in sorted order so the
// same venture always produces the same prompt.
func ventureBlock(v schema.Venture) string {
	var b strings.Builder
	b.WriteString(v.Description)
	if len(v.Details) > 0 {
		keys := make([]string, 0, len(v.Details))
		for k := range v.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n%s: %s", k, v.Details[k])
		}
	}
	return b.String()
}

func mustJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
