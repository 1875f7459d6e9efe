package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"venturelens/internal/config"
	"venturelens/internal/llm"
	"venturelens/internal/logging"
	"venturelens/internal/pipeline"
	"venturelens/internal/report"
	"venturelens/internal/schema"
	"venturelens/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Analyze flags
	ventureStage string
	resources    []string
	constraints  []string
	goals        []string
	details      []string
	ventureFile  string
	noSave       bool
	jsonOutput   bool

	// Report flags
	listLimit int
	showJSON  bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "venturelens",
	Short: "VentureLens - staged venture analysis pipeline",
	Long: `VentureLens evaluates a business venture through four model stages.

Stage 1 reads the venture and derives research and validation instructions.
Stages 2 and 3 run concurrently: one builds a market research dossier, the
other challenges the venture's claims. Stage 4 designs capital, expertise,
and technology driven solution approaches. The result is a decision report
with derived timelines, comparison scores, and a recommended path.

Stages 2 through 4 degrade to documented defaults when a model call fails;
only a stage 1 failure aborts the run.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		// Initialize logger
		opts := logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			File:   cfg.Logging.File,
		}
		if verbose {
			opts.Level = "debug"
		}
		logger, err = logging.New(opts)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// analyzeCmd runs the four stage pipeline for one venture
var analyzeCmd = &cobra.Command{
	Use:   "analyze [venture description]",
	Short: "Analyze a venture and produce a decision report",
	Long: `Runs the full pipeline against the given venture description. The
description comes from the positional arguments or, with --file, from a
text file.

Example:
  venturelens analyze "AI appointment scheduling for dental clinics" \
    --stage idea --resources "2 founders" --goals "sign 10 pilot clinics"`,
	Args: cobra.ArbitraryArgs,
	RunE: runAnalyze,
}

// reportCmd manages stored decision reports
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List, show, and delete stored decision reports",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports, newest first",
	RunE:  runReportList,
}

var reportShowCmd = &cobra.Command{
	Use:   "show [report-id]",
	Short: "Show one stored report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

var reportDeleteCmd = &cobra.Command{
	Use:   "delete [report-id]",
	Short: "Delete a stored report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportDelete,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "venturelens.yaml", "Config file path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Overall run timeout")

	// Analyze flags
	analyzeCmd.Flags().StringVar(&ventureStage, "stage", "", "Current venture stage (idea, prototype, revenue)")
	analyzeCmd.Flags().StringSliceVar(&resources, "resources", nil, "Resources available to the founders")
	analyzeCmd.Flags().StringSliceVar(&constraints, "constraints", nil, "Constraints the venture operates under")
	analyzeCmd.Flags().StringSliceVar(&goals, "goals", nil, "Goals for the next planning horizon")
	analyzeCmd.Flags().StringSliceVar(&details, "detail", nil, "Extra venture detail as key=value")
	analyzeCmd.Flags().StringVar(&ventureFile, "file", "", "Read the venture description from a file")
	analyzeCmd.Flags().BoolVar(&noSave, "no-save", false, "Skip saving the report to the local store")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON instead of tables")

	// Report subcommands
	reportListCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum reports to list")
	reportShowCmd.Flags().BoolVar(&showJSON, "json", false, "Emit the report as JSON instead of tables")
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportDeleteCmd)

	// Add commands to root
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runAnalyze executes the pipeline and renders the resulting report
func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	description, err := resolveDescription(args)
	if err != nil {
		return err
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	venture := schema.Venture{
		Description: description,
		Details:     ventureDetails(),
	}
	logger.Info("Analyzing venture",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("venture", venture.Description))

	orchestrator := pipeline.New(registry,
		pipeline.WithLogger(logger),
		pipeline.WithObserver(stageProgress(cmd)),
	)

	result, err := orchestrator.Run(ctx, venture)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if jsonOutput {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	} else {
		fmt.Fprint(cmd.OutOrStdout(), report.Render(result, venture.Description, report.ShouldColorize(os.Stdout)))
	}

	if noSave {
		return nil
	}
	reportStore, err := store.NewReportStore(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer reportStore.Close()
	if err := reportStore.Save(result, venture); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nSaved report %s\n", result.ID)
	return nil
}

// runReportList prints stored reports newest first
func runReportList(cmd *cobra.Command, args []string) error {
	reportStore, err := openStore()
	if err != nil {
		return err
	}
	defer reportStore.Close()

	summaries, err := reportStore.List(listLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.RenderList(summaries))
	return nil
}

// runReportShow renders one stored report
func runReportShow(cmd *cobra.Command, args []string) error {
	reportStore, err := openStore()
	if err != nil {
		return err
	}
	defer reportStore.Close()

	stored, venture, err := reportStore.Get(args[0])
	if err != nil {
		return err
	}
	if showJSON {
		encoded, err := json.MarshalIndent(stored, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), report.Render(stored, venture, report.ShouldColorize(os.Stdout)))
	return nil
}

// runReportDelete removes one stored report
func runReportDelete(cmd *cobra.Command, args []string) error {
	reportStore, err := openStore()
	if err != nil {
		return err
	}
	defer reportStore.Close()

	if err := reportStore.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted report %s\n", args[0])
	return nil
}

// buildRegistry binds one client per pipeline role from the configured provider
func buildRegistry(cfg *config.Config) (*llm.Registry, error) {
	bindings := make(map[llm.Role]llm.Client, len(llm.Roles()))
	for _, role := range llm.Roles() {
		client, err := buildClient(cfg, role)
		if err != nil {
			return nil, err
		}
		bindings[role] = client
	}
	return llm.NewRegistry(bindings, cfg.GetCallTimeout())
}

func buildClient(cfg *config.Config, role llm.Role) (llm.Client, error) {
	model := cfg.ModelFor(string(role))
	switch cfg.LLM.Provider {
	case "anthropic":
		clientConfig := llm.DefaultAnthropicConfig(cfg.LLM.APIKey)
		if model != "" {
			clientConfig.Model = model
		}
		if cfg.LLM.BaseURL != "" {
			clientConfig.BaseURL = cfg.LLM.BaseURL
		}
		clientConfig.Timeout = cfg.GetLLMTimeout()
		return llm.NewAnthropicClientWithConfig(clientConfig), nil
	case "openai":
		clientConfig := llm.DefaultOpenAIConfig(cfg.LLM.APIKey)
		if model != "" {
			clientConfig.Model = model
		}
		if cfg.LLM.BaseURL != "" {
			clientConfig.BaseURL = cfg.LLM.BaseURL
		}
		clientConfig.Timeout = cfg.GetLLMTimeout()
		return llm.NewOpenAIClientWithConfig(clientConfig), nil
	case "gemini":
		clientConfig := llm.DefaultGeminiConfig(cfg.LLM.APIKey)
		if model != "" {
			clientConfig.Model = model
		}
		return llm.NewGeminiClientWithConfig(clientConfig), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.LLM.Provider)
	}
}

// stageProgress prints live stage transitions while the pipeline runs
func stageProgress(cmd *cobra.Command) pipeline.Observer {
	out := cmd.OutOrStdout()
	return func(entry schema.StageLog) {
		switch entry.Status {
		case schema.StatusProcessing:
			fmt.Fprintf(out, "[stage %d/4] %s...\n", entry.Stage, entry.StageName)
		case schema.StatusCompleted, schema.StatusError:
			fmt.Fprintf(out, "[stage %d/4] %s: %s\n", entry.Stage, entry.StageName, entry.Message)
		}
	}
}

// resolveDescription builds the venture description from positional args or,
// when --file is set, from the file contents.
func resolveDescription(args []string) (string, error) {
	description := strings.TrimSpace(strings.Join(args, " "))
	if ventureFile != "" {
		data, err := os.ReadFile(ventureFile)
		if err != nil {
			return "", fmt.Errorf("failed to read venture file: %w", err)
		}
		description = strings.TrimSpace(string(data))
	}
	if description == "" {
		return "", fmt.Errorf("venture description required (argument or --file)")
	}
	return description, nil
}

// ventureDetails folds situation flags and key=value pairs into the venture record
func ventureDetails() map[string]string {
	out := make(map[string]string)
	if ventureStage != "" {
		out["stage"] = ventureStage
	}
	if len(resources) > 0 {
		out["resources"] = strings.Join(resources, ", ")
	}
	if len(constraints) > 0 {
		out["constraints"] = strings.Join(constraints, ", ")
	}
	if len(goals) > 0 {
		out["goals"] = strings.Join(goals, ", ")
	}
	// Explicit key=value pairs win over the dedicated flags
	for _, pair := range details {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// openStore opens the report store at the configured database path
func openStore() (*store.ReportStore, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return store.NewReportStore(cfg.Storage.DatabasePath)
}
