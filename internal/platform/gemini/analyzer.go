package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/0xM4sk/researcher/internal/analysis"
	"github.com/0xM4sk/researcher/internal/config"
)

// defaultPromptTemplate asks the model for a relevance score and summary as
// strict JSON so the response can be unmarshaled directly.
const defaultPromptTemplate = `You are a research assistant evaluating content for relevance.

Analyze the following content and respond with a JSON object containing
exactly two fields:
  "summary": a concise summary of at most three sentences
  "relevance_score": a number between 0.0 and 1.0 rating how substantive
  and information-dense the content is

Respond with JSON only, no markdown fences.

Content:
{{.Content}}`

// responseSchema is the JSON shape the prompt requests from the model.
type responseSchema struct {
	Summary        string  `json:"summary"`
	RelevanceScore float64 `json:"relevance_score"`
}

// promptData carries values into the prompt template.
type promptData struct {
	Content string
}

// Analyzer implements analysis.Analyzer using the Gemini API.
type Analyzer struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	client         *genai.Client
	model          string
}

// NewAnalyzer creates a Gemini-backed analyzer.
//
// Parameters:
//   - ctx: Context for client initialization, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing the API key, model name and retry settings
//
// Returns a properly initialized Analyzer or an error if initialization fails.
func NewAnalyzer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Analyzer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", analysis.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", analysis.ErrInvalidConfig)
	}

	promptTemplate, err := template.New("analysis").Parse(defaultPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", analysis.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", analysis.ErrInvalidConfig, err)
	}

	return &Analyzer{
		logger:         logger.With("component", "gemini_analyzer"),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// Analyze scores and summarizes a single piece of content via the Gemini
// API, retrying transient failures with exponential backoff.
func (a *Analyzer) Analyze(ctx context.Context, content string) (*analysis.Result, error) {
	if content == "" {
		return &analysis.Result{RelevanceScore: 0}, nil
	}

	prompt, err := a.createPrompt(content)
	if err != nil {
		return nil, err
	}

	parsed, err := a.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &analysis.Result{
		Text:           content,
		Summary:        parsed.Summary,
		RelevanceScore: clampScore(parsed.RelevanceScore),
	}, nil
}

// createPrompt renders the prompt template with the provided content.
func (a *Analyzer) createPrompt(content string) (string, error) {
	var buf bytes.Buffer
	if err := a.promptTemplate.Execute(&buf, promptData{Content: content}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callWithRetry makes the Gemini API call, retrying transient errors up to
// MaxRetries times with exponential backoff and jitter. Permanent errors
// (safety blocks, malformed responses) are returned immediately.
func (a *Analyzer) callWithRetry(ctx context.Context, prompt string) (*responseSchema, error) {
	maxRetries := a.config.MaxRetries
	if maxRetries < 0 {
		a.logger.Warn("invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	baseDelaySeconds := a.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		parsed, err := a.call(ctx, prompt)
		if err == nil {
			return parsed, nil
		}
		lastErr = err

		if errors.Is(err, analysis.ErrContentBlocked) || errors.Is(err, analysis.ErrInvalidResponse) {
			a.logger.Warn("permanent analyzer error, not retrying", "error", err)
			return nil, err
		}

		if attempt == maxRetries {
			break
		}

		// Exponential backoff with jitter
		delay := time.Duration(baseDelaySeconds) * time.Second << attempt
		delay += time.Duration(rng.Int63n(int64(time.Second)))
		a.logger.Warn("transient analyzer error, retrying",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1,
			"retry_in", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", analysis.ErrTransientFailure, ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("%w: retries exhausted: %v", analysis.ErrTransientFailure, lastErr)
}

// call makes a single Gemini API request and parses the JSON response.
func (a *Analyzer) call(ctx context.Context, prompt string) (*responseSchema, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", analysis.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: response finished for safety reasons", analysis.ErrContentBlocked)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty content in response", analysis.ErrInvalidResponse)
	}

	var text string
	for _, part := range candidate.Content.Parts {
		text += part.Text
	}

	var parsed responseSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", analysis.ErrInvalidResponse, err)
	}
	return &parsed, nil
}

// clampScore forces the model's score into [0,1].
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
