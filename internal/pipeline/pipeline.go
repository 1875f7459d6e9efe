// Package pipeline runs the staged venture analysis. Stage 1 reads the
// venture and writes instructions for the rest; stages 2 and 3 research and
// challenge it concurrently; stage 4 designs solution approaches from both.
// A failed stage 1 aborts the run. Every later failure degrades its stage to
// defaults and the pipeline finishes anyway.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"venturelens/internal/artifact"
	"venturelens/internal/extract"
	"venturelens/internal/llm"
	"venturelens/internal/schema"
)

const (
	stageContext    = 1
	stageResearch   = 2
	stageValidation = 3
	stageSolutions  = 4

	expectedSolutions = 3
)

var stageNames = map[int]string{
	stageContext:    "Context Analysis",
	stageResearch:   "Market Research",
	stageValidation: "Validation",
	stageSolutions:  "Solution Architecture",
}

var stageRoles = map[int]llm.Role{
	stageContext:    llm.RoleContextAnalyzer,
	stageResearch:   llm.RoleResearchEngine,
	stageValidation: llm.RoleValidator,
	stageSolutions:  llm.RoleSolutionArchitect,
}

// Invoker runs one model call for a role. *llm.Registry satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, role llm.Role, messages []llm.Message) (string, error)
}

// Observer receives each pipeline log entry as it is appended.
type Observer func(entry schema.StageLog)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver streams log entries to fn during the run.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// Orchestrator executes pipeline runs. One orchestrator serves any number
// of concurrent runs; per-run state lives in the run value.
type Orchestrator struct {
	invoker  Invoker
	logger   *zap.Logger
	observer Observer
	clock    func() time.Time
}

// New creates an orchestrator over the given invoker.
func New(invoker Invoker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		invoker: invoker,
		logger:  zap.NewNop(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline for one venture and assembles the decision
// report. Only a stage 1 call failure returns an error; every other failure
// shows up as a degraded stage inside a complete report.
func (o *Orchestrator) Run(ctx context.Context, venture schema.Venture) (*schema.DecisionReport, error) {
	r := &run{
		o:        o,
		log:      []schema.StageLog{},
		degraded: make(map[int]bool),
	}

	// Stage 1: context analysis. A failed call is fatal; without the
	// generated instructions the later stages have nothing to steer by.
	r.emitProcessing(stageContext, "analyzing venture context")
	raw, err := o.invoker.Invoke(ctx, llm.RoleContextAnalyzer, contextMessages(venture))
	if err != nil {
		r.emitError(stageContext, err)
		o.logger.Error("context analysis failed", zap.Error(err))
		return nil, fmt.Errorf("context analysis: %w", err)
	}
	candidate := extract.JSON(raw)
	if extract.Empty(candidate) {
		r.markDegraded(stageContext)
	}
	contextResult := schema.NormalizeContext(candidate)
	r.emitCompleted(stageContext, "context analysis complete", contextResult)

	// Stages 2 and 3 run concurrently and degrade independently. Wait is
	// the barrier: stage 4 never starts before both finish.
	var (
		research   schema.ResearchDossier
		validation schema.ValidationAnalysis
	)
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		research = r.researchStage(egCtx, venture, contextResult)
		return nil
	})
	eg.Go(func() error {
		validation = r.validationStage(egCtx, venture, contextResult)
		return nil
	})
	if err := eg.Wait(); err != nil {
		o.logger.Warn("parallel stages reported errors", zap.Error(err))
	}

	// Stage 4: solution architecture over everything gathered so far.
	r.emitProcessing(stageSolutions, "designing solution approaches")
	solutions := []schema.SolutionApproach{}
	raw4, err := o.invoker.Invoke(ctx, llm.RoleSolutionArchitect,
		solutionMessages(venture, contextResult, research, validation))
	if err != nil {
		r.degrade(stageSolutions, err)
	} else {
		candidate := extract.JSON(raw4)
		if extract.Empty(candidate) {
			r.markDegraded(stageSolutions)
		}
		solutions = schema.NormalizeSolutions(candidate)
		r.emitCompleted(stageSolutions,
			fmt.Sprintf("%d solution approaches designed", len(solutions)), solutions)
	}
	if len(solutions) != expectedSolutions {
		o.logger.Warn("unexpected solution count",
			zap.Int("got", len(solutions)),
			zap.Int("want", expectedSolutions))
	}

	now := o.clock()
	artifacts := schema.ReportArtifacts{
		Timelines: make([]schema.SolutionTimeline, 0, len(solutions)),
		Scores:    make([]schema.SolutionScores, 0, len(solutions)),
	}
	for _, s := range solutions {
		artifacts.Timelines = append(artifacts.Timelines, artifact.Timeline(s, now))
		artifacts.Scores = append(artifacts.Scores, artifact.Scores(s))
	}

	report := &schema.DecisionReport{
		ID:             uuid.New().String(),
		CreatedAt:      now,
		Venture:        venture,
		Log:            r.snapshot(),
		Context:        contextResult,
		Research:       research,
		Validation:     validation,
		Solutions:      solutions,
		RecommendedID:  artifact.Recommend(artifacts.Scores),
		Artifacts:      artifacts,
		DegradedStages: r.degradedStages(),
	}
	report.Confidence = confidence(report.DegradedStages)
	report.ExecutiveSummary, report.KeyInsights, report.NextSteps = compose(report)

	o.logger.Info("pipeline complete",
		zap.String("report_id", report.ID),
		zap.Int("solutions", len(solutions)),
		zap.Int("confidence", report.Confidence),
		zap.Ints("degraded_stages", report.DegradedStages))
	return report, nil
}

// run holds the mutable state of a single pipeline execution.
type run struct {
	o *Orchestrator

	mu       sync.Mutex
	log      []schema.StageLog
	degraded map[int]bool
}

func (r *run) researchStage(ctx context.Context, venture schema.Venture, contextResult schema.ContextAnalysis) schema.ResearchDossier {
	r.emitProcessing(stageResearch, "gathering market research")
	raw, err := r.o.invoker.Invoke(ctx, llm.RoleResearchEngine, researchMessages(venture, contextResult))
	if err != nil {
		r.degrade(stageResearch, err)
		return schema.NormalizeDossier(nil)
	}
	candidate := extract.JSON(raw)
	if extract.Empty(candidate) {
		r.markDegraded(stageResearch)
	}
	dossier := schema.NormalizeDossier(candidate)
	r.emitCompleted(stageResearch, "research dossier assembled", dossier)
	return dossier
}

func (r *run) validationStage(ctx context.Context, venture schema.Venture, contextResult schema.ContextAnalysis) schema.ValidationAnalysis {
	r.emitProcessing(stageValidation, "challenging claims and findings")
	raw, err := r.o.invoker.Invoke(ctx, llm.RoleValidator, validationMessages(venture, contextResult))
	if err != nil {
		r.degrade(stageValidation, err)
		return schema.NormalizeValidation(nil)
	}
	candidate := extract.JSON(raw)
	if extract.Empty(candidate) {
		r.markDegraded(stageValidation)
	}
	analysis := schema.NormalizeValidation(candidate)
	r.emitCompleted(stageValidation, "validation analysis complete", analysis)
	return analysis
}

// degrade records a stage whose model call failed. The stage keeps its
// default shape and the pipeline moves on.
func (r *run) degrade(stage int, err error) {
	r.o.logger.Warn("stage degraded",
		zap.Int("stage", stage),
		zap.String("stage_name", stageNames[stage]),
		zap.Error(err))
	r.markDegraded(stage)
	r.emitError(stage, err)
}

func (r *run) markDegraded(stage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded[stage] = true
}

// emit appends an entry and notifies the observer under the log lock, so
// observers see entries in append order.
func (r *run) emit(entry schema.StageLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, entry)
	if r.o.observer != nil {
		r.o.observer(entry)
	}
}

func (r *run) emitProcessing(stage int, message string) {
	now := r.o.clock()
	r.emit(schema.StageLog{
		Stage:     stage,
		StageName: stageNames[stage],
		Role:      string(stageRoles[stage]),
		Status:    schema.StatusProcessing,
		Message:   message,
		StartedAt: &now,
	})
}

func (r *run) emitCompleted(stage int, message string, output interface{}) {
	now := r.o.clock()
	r.emit(schema.StageLog{
		Stage:     stage,
		StageName: stageNames[stage],
		Role:      string(stageRoles[stage]),
		Status:    schema.StatusCompleted,
		Message:   message,
		Output:    output,
		EndedAt:   &now,
	})
}

func (r *run) emitError(stage int, err error) {
	now := r.o.clock()
	r.emit(schema.StageLog{
		Stage:     stage,
		StageName: stageNames[stage],
		Role:      string(stageRoles[stage]),
		Status:    schema.StatusError,
		Message:   err.Error(),
		EndedAt:   &now,
	})
}

func (r *run) snapshot() []schema.StageLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]schema.StageLog, len(r.log))
	copy(entries, r.log)
	return entries
}

func (r *run) degradedStages() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	stages := make([]int, 0, len(r.degraded))
	for stage := range r.degraded {
		stages = append(stages, stage)
	}
	sort.Ints(stages)
	return stages
}

// confidence starts at 100 and loses 25 per degraded stage, floored at 5.
func confidence(degraded []int) int {
	score := 100 - 25*len(degraded)
	if score < 5 {
		return 5
	}
	return score
}
