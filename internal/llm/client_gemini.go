package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey: apiKey,
		Model:  "gemini-2.5-flash",
	}
}

// GeminiClient calls Gemini through the GenAI SDK. The SDK client is built
// on first use; initialization runs once and later calls observe the same
// client or the same failure. Each Invoke makes exactly one request.
type GeminiClient struct {
	apiKey string
	model  string

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(apiKey string) *GeminiClient {
	config := DefaultGeminiConfig(apiKey)
	return NewGeminiClientWithConfig(config)
}

// NewGeminiClientWithConfig creates a new Gemini client with custom config.
func NewGeminiClientWithConfig(config GeminiConfig) *GeminiClient {
	return &GeminiClient{
		apiKey: config.APIKey,
		model:  config.Model,
	}
}

func (c *GeminiClient) ensureClient(ctx context.Context) error {
	c.once.Do(func() {
		if c.apiKey == "" {
			c.initErr = fmt.Errorf("%w: API key not configured", ErrCapabilityUnavailable)
			return
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: c.apiKey,
		})
		if err != nil {
			c.initErr = fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
			return
		}
		c.client = client
	})
	return c.initErr
}

// Invoke sends the conversation and returns the completion text. System
// turns become the system instruction; assistant turns map to the model
// role. Conversations that ask for JSON get a JSON response MIME type.
func (c *GeminiClient) Invoke(ctx context.Context, messages []Message) (string, error) {
	if err := c.ensureClient(ctx); err != nil {
		return "", err
	}

	system, turns := splitSystem(messages)
	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		role := genai.RoleUser
		if m.Role == roleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.1)), // Low temperature for structured output
		MaxOutputTokens: 4096,
	}
	if system != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if wantsJSON(messages) {
		genConfig.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no completion returned")
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			result.WriteString(part.Text)
		}
	}

	if result.Len() == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	return strings.TrimSpace(result.String()), nil
}

// SetModel changes the model used for completions.
func (c *GeminiClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *GeminiClient) GetModel() string {
	return c.model
}
