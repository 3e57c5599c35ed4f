package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/dmehra/quizforge/internal/config"
	"github.com/dmehra/quizforge/internal/domain"
	"github.com/dmehra/quizforge/internal/generation"
	"github.com/dmehra/quizforge/internal/redact"
)

// modelCaller abstracts the Gemini model invocation so tests can substitute
// a fake without a real API client.
type modelCaller interface {
	generateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		cfg *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// genaiCaller is the production modelCaller backed by a genai.Client.
type genaiCaller struct {
	client *genai.Client
}

func (c *genaiCaller) generateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, cfg)
}

// newGenaiCaller builds a modelCaller authenticated with the given API key.
func newGenaiCaller(ctx context.Context, apiKey string) (modelCaller, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}
	return &genaiCaller{client: client}, nil
}

// Generator implements the generation.Generator interface using Google's
// Gemini API. It keeps one client per credential, created lazily, so the
// caller can switch credentials between calls without paying client setup
// on the hot path.
type Generator struct {
	logger *slog.Logger
	model  string

	// limiter paces all outbound calls regardless of credential.
	limiter *rate.Limiter

	// templates maps each generation mode to its prompt template.
	templates map[generation.Mode]*template.Template

	mu      sync.Mutex
	callers map[string]modelCaller

	// newCaller builds a client for a credential. Tests replace it.
	newCaller func(ctx context.Context, apiKey string) (modelCaller, error)
}

// NewGenerator creates a Generator from LLM configuration.
//
// The credential used for each call is supplied by the caller of
// GenerateRecords, so the configuration's key list is not consumed here;
// only model name and pacing settings are.
func NewGenerator(logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("%w: requests per minute must be positive", generation.ErrInvalidConfig)
	}

	extraction, err := template.New("extraction").Parse(extractionPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse extraction prompt: %v",
			generation.ErrInvalidConfig, err)
	}
	gen, err := template.New("generation").Parse(generationPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse generation prompt: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger: logger.With(slog.String("component", "gemini_generator")),
		model:  cfg.ModelName,
		limiter: rate.NewLimiter(
			rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1),
		templates: map[generation.Mode]*template.Template{
			generation.ModeExtraction: extraction,
			generation.ModeGeneration: gen,
		},
		callers:   make(map[string]modelCaller),
		newCaller: newGenaiCaller,
	}, nil
}

// Ensure Generator implements generation.Generator interface
var _ generation.Generator = (*Generator)(nil)

// GenerateRecords implements generation.Generator.GenerateRecords.
// It sends the batch of items to Gemini under the given mode and parses
// the structured response into quiz records. Errors are mapped into the
// generation package's taxonomy so the caller can decide between rotating
// credentials, retrying, and failing.
func (g *Generator) GenerateRecords(
	ctx context.Context,
	items []generation.ItemRef,
	mode generation.Mode,
	credential domain.Credential,
) ([]domain.QuizRecord, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %w", generation.ErrInvalidInput, ErrNoItems)
	}
	if err := credential.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	}

	prompt, err := g.buildPrompt(mode, len(items))
	if err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, len(items)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, item := range items {
		parts = append(parts, genai.NewPartFromURI(item.URI, mimeTypeFor(item.URI)))
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrTransient, err)
	}

	caller, err := g.callerFor(ctx, credential)
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "calling Gemini",
		slog.String("model", g.model),
		slog.String("mode", string(mode)),
		slog.String("credential_id", credential.ID),
		slog.Int("item_count", len(items)))

	resp, err := caller.generateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		mapped := mapAPIError(err)
		// Provider errors can echo the request URL with the key in it.
		g.logger.WarnContext(ctx, "Gemini call failed",
			slog.String("credential_id", credential.ID),
			slog.String("error", redact.Error(err)))
		return nil, mapped
	}

	records, err := g.parseResponse(resp)
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "Gemini call succeeded",
		slog.String("mode", string(mode)),
		slog.Int("item_count", len(items)),
		slog.Int("record_count", len(records)))
	return records, nil
}

// buildPrompt renders the template for the given mode.
func (g *Generator) buildPrompt(mode generation.Mode, itemCount int) (string, error) {
	tmpl, ok := g.templates[mode]
	if !ok {
		return "", fmt.Errorf("%w: unknown generation mode %q", generation.ErrInvalidInput, mode)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{ItemCount: itemCount}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callerFor returns the cached client for the credential, creating it on
// first use.
func (g *Generator) callerFor(ctx context.Context, credential domain.Credential) (modelCaller, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if caller, ok := g.callers[credential.ID]; ok {
		return caller, nil
	}

	caller, err := g.newCaller(ctx, credential.Secret)
	if err != nil {
		return nil, err
	}
	g.callers[credential.ID] = caller
	return caller, nil
}

// parseResponse validates the model response and converts it into quiz
// records. The response must be JSON matching responseSchema; a leading
// markdown code fence is tolerated because models occasionally add one
// despite instructions.
func (g *Generator) parseResponse(resp *genai.GenerateContentResponse) ([]domain.QuizRecord, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := stripCodeFence(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}

	var parsed responseSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}

	records := make([]domain.QuizRecord, 0, len(parsed.Questions))
	for i, q := range parsed.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("%w: question %d has empty text",
				generation.ErrInvalidResponse, i)
		}
		if len(q.Options) < domain.MinOptions || len(q.Options) > domain.MaxOptions {
			return nil, fmt.Errorf("%w: question %d has %d options",
				generation.ErrInvalidResponse, i, len(q.Options))
		}
		if q.Answer < 1 || q.Answer > len(q.Options) {
			return nil, fmt.Errorf("%w: question %d answer %d out of range",
				generation.ErrInvalidResponse, i, q.Answer)
		}

		records = append(records, domain.QuizRecord{
			Question:     q.Question,
			Options:      q.Options,
			CorrectIndex: q.Answer - 1,
			Explanation:  q.Explanation,
		})
	}

	return records, nil
}

// mapAPIError translates a genai API error into the generation taxonomy.
// Quota exhaustion (429) and permission denial (403, which Gemini returns
// for exhausted free-tier keys) ask the caller to rotate credentials;
// server-side failures are transient; the rest are invalid input.
func mapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests,
			apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %v", generation.ErrRateLimited, err)
		case apiErr.Code == http.StatusBadRequest,
			apiErr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %v", generation.ErrInvalidInput, err)
		default:
			return fmt.Errorf("%w: %v", generation.ErrTransient, err)
		}
	}

	// Network-level failures without an API status.
	return fmt.Errorf("%w: %v", generation.ErrTransient, err)
}

// stripCodeFence removes a wrapping markdown code fence if present.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// mimeTypeFor guesses the MIME type of a stored item from its extension.
func mimeTypeFor(uri string) string {
	switch strings.ToLower(path.Ext(uri)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
