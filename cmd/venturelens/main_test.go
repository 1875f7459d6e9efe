package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"venturelens/internal/config"
	"venturelens/internal/llm"
	"venturelens/internal/schema"
)

func resetAnalyzeFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		ventureStage = ""
		resources = nil
		constraints = nil
		goals = nil
		details = nil
		ventureFile = ""
	})
}

func TestVentureDetails(t *testing.T) {
	resetAnalyzeFlags(t)
	ventureStage = "idea"
	resources = []string{"2 founders", "$30k savings"}
	goals = []string{"sign 10 pilot clinics"}

	got := ventureDetails()
	if got["stage"] != "idea" {
		t.Errorf("stage = %q, want idea", got["stage"])
	}
	if got["resources"] != "2 founders, $30k savings" {
		t.Errorf("resources = %q", got["resources"])
	}
	if got["goals"] != "sign 10 pilot clinics" {
		t.Errorf("goals = %q", got["goals"])
	}
	if _, ok := got["constraints"]; ok {
		t.Error("constraints present without a flag value")
	}
}

func TestVentureDetailsEmpty(t *testing.T) {
	resetAnalyzeFlags(t)
	if got := ventureDetails(); got != nil {
		t.Fatalf("ventureDetails() = %v, want nil", got)
	}
}

func TestVentureDetailsExplicitPairWins(t *testing.T) {
	resetAnalyzeFlags(t)
	ventureStage = "idea"
	details = []string{"stage=revenue", "market = dental", "malformed", "=dropped"}

	got := ventureDetails()
	if got["stage"] != "revenue" {
		t.Errorf("stage = %q, want revenue from explicit pair", got["stage"])
	}
	if got["market"] != "dental" {
		t.Errorf("market = %q, want dental", got["market"])
	}
	if len(got) != 2 {
		t.Errorf("details = %v, want 2 entries", got)
	}
}

func TestResolveDescription(t *testing.T) {
	resetAnalyzeFlags(t)

	got, err := resolveDescription([]string{"scheduling", "SaaS"})
	if err != nil {
		t.Fatalf("resolveDescription returned error: %v", err)
	}
	if got != "scheduling SaaS" {
		t.Errorf("description = %q", got)
	}

	if _, err := resolveDescription(nil); err == nil {
		t.Error("resolveDescription accepted an empty description")
	}
}

func TestResolveDescriptionFromFile(t *testing.T) {
	resetAnalyzeFlags(t)
	path := filepath.Join(t.TempDir(), "venture.txt")
	if err := os.WriteFile(path, []byte("  marketplace for reclaimed lumber\n"), 0644); err != nil {
		t.Fatalf("Failed to write venture file: %v", err)
	}

	ventureFile = path
	got, err := resolveDescription(nil)
	if err != nil {
		t.Fatalf("resolveDescription returned error: %v", err)
	}
	if got != "marketplace for reclaimed lumber" {
		t.Errorf("description = %q", got)
	}

	ventureFile = filepath.Join(t.TempDir(), "missing.txt")
	if _, err := resolveDescription(nil); err == nil {
		t.Error("resolveDescription succeeded for a missing file")
	}
}

func TestBuildClientProviders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.APIKey = "test-key"

	for _, provider := range config.ValidProviders {
		cfg.LLM.Provider = provider
		client, err := buildClient(cfg, llm.RoleContextAnalyzer)
		if err != nil {
			t.Errorf("buildClient(%s) returned error: %v", provider, err)
		}
		if client == nil {
			t.Errorf("buildClient(%s) returned nil client", provider)
		}
	}

	cfg.LLM.Provider = "mistral"
	if _, err := buildClient(cfg, llm.RoleContextAnalyzer); err == nil {
		t.Error("buildClient accepted an unsupported provider")
	}
}

func TestBuildClientUsesRoleModel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.APIKey = "test-key"
	cfg.Models.Validator = "claude-haiku-4-5"

	client, err := buildClient(cfg, llm.RoleValidator)
	if err != nil {
		t.Fatalf("buildClient returned error: %v", err)
	}
	anthropic, ok := client.(*llm.AnthropicClient)
	if !ok {
		t.Fatalf("expected an Anthropic client, got %T", client)
	}
	if got := anthropic.GetModel(); got != "claude-haiku-4-5" {
		t.Errorf("GetModel() = %q, want role override", got)
	}
}

func TestBuildRegistryBindsAllRoles(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.APIKey = "test-key"

	registry, err := buildRegistry(cfg)
	if err != nil {
		t.Fatalf("buildRegistry returned error: %v", err)
	}
	if registry == nil {
		t.Fatal("buildRegistry returned nil registry")
	}
}

func TestStageProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	observe := stageProgress(cmd)
	observe(schema.StageLog{Stage: 2, StageName: "Market Research", Status: schema.StatusProcessing})
	observe(schema.StageLog{Stage: 2, StageName: "Market Research", Status: schema.StatusCompleted, Message: "research dossier assembled"})
	observe(schema.StageLog{Stage: 3, StageName: "Validation", Status: schema.StatusPending})

	out := buf.String()
	if !strings.Contains(out, "[stage 2/4] Market Research...") {
		t.Errorf("processing line missing: %s", out)
	}
	if !strings.Contains(out, "[stage 2/4] Market Research: research dossier assembled") {
		t.Errorf("completed line missing: %s", out)
	}
	if strings.Contains(out, "stage 3") {
		t.Errorf("pending entries should not print: %s", out)
	}
}

func TestReportCommandsAgainstEmptyStore(t *testing.T) {
	t.Setenv("VENTURELENS_DB", "")
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Storage.DatabasePath = filepath.Join(dir, "reports.db")
	cfgPath := filepath.Join(dir, "venturelens.yaml")
	if err := cfg.Save(cfgPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	origConfigPath := configPath
	configPath = cfgPath
	t.Cleanup(func() { configPath = origConfigPath })

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	if err := runReportList(cmd, nil); err != nil {
		t.Fatalf("runReportList returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "No reports stored yet.") {
		t.Errorf("expected empty store notice, got: %s", buf.String())
	}

	if err := runReportShow(cmd, []string{"missing-id"}); err == nil {
		t.Error("runReportShow succeeded for a missing report")
	}
	if err := runReportDelete(cmd, []string{"missing-id"}); err == nil {
		t.Error("runReportDelete succeeded for a missing report")
	}
}
