package schema

import (
	"encoding/json"
	"time"
)

// =============================================================================
// CANONICAL PIPELINE SHAPES
// =============================================================================
//
// These are the four guaranteed output shapes of the decision pipeline plus
// the aggregate report returned to callers. Model output never reaches these
// types directly: raw text passes through extraction and normalization first,
// and the normalizers in this package are the single source of truth for what
// each shape guarantees. Prompt text describes intent only.

// StageStatus is the lifecycle state of one pipeline stage.
type StageStatus string

const (
	StatusPending    StageStatus = "pending"
	StatusProcessing StageStatus = "processing"
	StatusCompleted  StageStatus = "completed"
	StatusError      StageStatus = "error"
)

// StageLog is one append-only progress entry. Entries are ordered by emission
// time, which may interleave across concurrently running stages.
type StageLog struct {
	Stage     int         `json:"stage"` // ordinal 1-4
	StageName string      `json:"stage_name"`
	Role      string      `json:"role"`
	Status    StageStatus `json:"status"`
	Message   string      `json:"message"`
	Output    interface{} `json:"output,omitempty"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
}

// Venture is the opaque input record describing the business venture under
// analysis. No field is validated; content is included in prompts best-effort.
type Venture struct {
	Description string            `json:"description"`
	Details     map[string]string `json:"details,omitempty"`
}

// UserSituation captures where the venture currently stands.
type UserSituation struct {
	Stage       string   `json:"stage"`
	Resources   []string `json:"resources"`
	Constraints []string `json:"constraints"`
	Goals       []string `json:"goals"`
}

// ContextAnalysis is the stage 1 shape. The two instruction strings become
// the literal prompt content for stages 2 and 3.
type ContextAnalysis struct {
	Situation              UserSituation `json:"situation"`
	KeyClaims              []string      `json:"key_claims"`
	ResearchQueries        []string      `json:"research_queries"`
	DecisionPoints         []string      `json:"decision_points"`
	ResearchInstructions   string        `json:"research_instructions"`
	ValidationInstructions string        `json:"validation_instructions"`

	Extra map[string]interface{} `json:"-"`
}

// MarketAnalysis summarizes market size and direction.
type MarketAnalysis struct {
	Size       string   `json:"size"`
	GrowthRate string   `json:"growth_rate"`
	Trends     []string `json:"trends"`
	Sources    []string `json:"sources"`
}

// CompetitorAnalysis lists known competitors.
type CompetitorAnalysis struct {
	Competitors []string `json:"competitors"`
	Sources     []string `json:"sources"`
}

// ProvenMethod is one approach that has worked elsewhere.
type ProvenMethod struct {
	Method   string   `json:"method"`
	Examples []string `json:"examples"`
	Sources  []string `json:"sources"`
}

// ResearchDossier is the stage 2 shape.
type ResearchDossier struct {
	Market        MarketAnalysis     `json:"market_analysis"`
	Competitors   CompetitorAnalysis `json:"competitor_analysis"`
	ProvenMethods []ProvenMethod     `json:"proven_methods"`
	AllSources    []string           `json:"all_sources"`

	Extra map[string]interface{} `json:"-"`
}

// Contradiction is a claim that conflicts with an external finding.
type Contradiction struct {
	Claim    string `json:"claim"`
	Finding  string `json:"finding"`
	Severity string `json:"severity"`
}

// CredibilityAssessment scores how trustworthy the venture's claims are.
type CredibilityAssessment struct {
	Score   int      `json:"score"` // 0-100
	Factors []string `json:"factors"`
}

// ValidationAnalysis is the stage 3 shape.
type ValidationAnalysis struct {
	Contradictions  []Contradiction       `json:"contradictions"`
	Gaps            []string              `json:"gaps"`
	Credibility     CredibilityAssessment `json:"credibility"`
	Recommendations []string              `json:"recommendations"`

	Extra map[string]interface{} `json:"-"`
}

// Solution categories requested from the model. The normalizer does not
// enforce membership; these are prompt vocabulary, not a validation rule.
const (
	CategoryCapital    = "capital_driven"
	CategoryExpertise  = "expertise_driven"
	CategoryTechnology = "technology_driven"
)

// ResourceRequirements describes what a solution needs to execute.
type ResourceRequirements struct {
	TeamSize       string   `json:"team_size"`
	Skills         []string `json:"skills"`
	Infrastructure []string `json:"infrastructure"`
}

// Phase is one ordered step in a solution's execution plan.
type Phase struct {
	Name          string   `json:"name"`
	Duration      string   `json:"duration"`
	Milestones    []string `json:"milestones"`
	Deliverables  []string `json:"deliverables"`
	EstimatedCost string   `json:"estimated_cost"`
	Sources       []string `json:"sources,omitempty"`
}

// ProvenExample is a company that executed a comparable approach.
type ProvenExample struct {
	Company string `json:"company"`
	Outcome string `json:"outcome"`
	Source  string `json:"source"`
}

// SolutionApproach is one record in the stage 4 solution list.
type SolutionApproach struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Category        string               `json:"category"`
	CapitalRequired string               `json:"capital_required"`
	TimeToMarket    string               `json:"time_to_market"`
	Resources       ResourceRequirements `json:"resource_requirements"`
	RiskLevel       string               `json:"risk_level"`
	RiskFactors     []string             `json:"risk_factors"`
	Mitigations     []string             `json:"mitigations"`
	Phases          []Phase              `json:"phases"`
	ProvenExamples  []ProvenExample      `json:"proven_examples"`
	Sources         []string             `json:"sources"`
	Summary         string               `json:"summary"`

	Extra map[string]interface{} `json:"-"`
}

// TimelineEntry is one phase placed on the calendar.
type TimelineEntry struct {
	Phase      string    `json:"phase"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Months     int       `json:"months"`
	Milestones []string  `json:"milestones"`
}

// SolutionTimeline is the derived execution calendar for one solution.
type SolutionTimeline struct {
	SolutionID  string          `json:"solution_id"`
	Entries     []TimelineEntry `json:"entries"`
	TotalMonths int             `json:"total_months"`
}

// SolutionScores rates one solution 0-100 on five comparison axes.
// Higher is always better; the risk axis scores low risk high.
type SolutionScores struct {
	SolutionID        string `json:"solution_id"`
	TimeToMarket      int    `json:"time_to_market"`
	CapitalEfficiency int    `json:"capital_efficiency"`
	Risk              int    `json:"risk"`
	Scalability       int    `json:"scalability"`
	ProvenTrackRecord int    `json:"proven_track_record"`
}

// Total sums the five axes for cross-solution ranking.
func (s SolutionScores) Total() int {
	return s.TimeToMarket + s.CapitalEfficiency + s.Risk + s.Scalability + s.ProvenTrackRecord
}

// ReportArtifacts holds the derived visual descriptors.
type ReportArtifacts struct {
	Timelines []SolutionTimeline `json:"timelines"`
	Scores    []SolutionScores   `json:"scores"`
}

// DecisionReport is the aggregate returned by one pipeline run. All fields
// are freshly constructed per invocation; nothing persists between runs.
type DecisionReport struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Venture   Venture   `json:"venture"`

	Log        []StageLog         `json:"pipeline_log"`
	Context    ContextAnalysis    `json:"context_analysis"`
	Research   ResearchDossier    `json:"research_dossier"`
	Validation ValidationAnalysis `json:"validation_analysis"`
	Solutions  []SolutionApproach `json:"solutions"`

	RecommendedID string          `json:"recommended_solution_id"`
	Artifacts     ReportArtifacts `json:"artifacts"`

	ExecutiveSummary string   `json:"executive_summary"`
	KeyInsights      []string `json:"key_insights"`
	NextSteps        []string `json:"next_steps"`

	// DegradedStages lists stage ordinals whose model output was unusable
	// and fell back to placeholder content. Confidence is 100 minus 25 per
	// degraded stage, floored at 5.
	DegradedStages []int `json:"degraded_stages"`
	Confidence     int   `json:"confidence"`
}

// marshalWithExtra serializes v and merges preserved candidate fields back
// in at the top level. Canonical keys win over preserved ones.
func marshalWithExtra(v interface{}, extra map[string]interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return data, nil
	}
	var merged map[string]interface{}
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, val := range extra {
		if _, exists := merged[key]; !exists {
			merged[key] = val
		}
	}
	return json.Marshal(merged)
}

func (c ContextAnalysis) MarshalJSON() ([]byte, error) {
	type plain ContextAnalysis
	return marshalWithExtra(plain(c), c.Extra)
}

func (d ResearchDossier) MarshalJSON() ([]byte, error) {
	type plain ResearchDossier
	return marshalWithExtra(plain(d), d.Extra)
}

func (v ValidationAnalysis) MarshalJSON() ([]byte, error) {
	type plain ValidationAnalysis
	return marshalWithExtra(plain(v), v.Extra)
}

func (s SolutionApproach) MarshalJSON() ([]byte, error) {
	type plain SolutionApproach
	return marshalWithExtra(plain(s), s.Extra)
}
