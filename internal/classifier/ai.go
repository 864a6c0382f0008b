package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const classifySystemPrompt = `You are a help-desk ticket classifier. Categorize the ticket into exactly one of: billing, technical, account, general, other.

Respond with a single JSON object and nothing else:
{"category": "<one of the five categories>", "explanation": "<one sentence explaining the choice>", "confidence": <number between 0 and 1>}`

// completionClient abstracts the one-shot model call so the strategy can be
// exercised without network access.
type completionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type anthropicClient struct {
	client anthropic.Client
	model  string
}

func (a *anthropicClient) Complete(ctx context.Context, system, user string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api: %w", err)
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("no text content in anthropic response")
}

// Anthropic classifies tickets with a one-shot model call. Every internal
// failure degrades to the Random strategy; callers never observe an error.
type Anthropic struct {
	client   completionClient
	fallback *Random
	logger   *zap.Logger
}

// NewAnthropic builds the AI-backed strategy from resolved configuration.
func NewAnthropic(cfg config.AIConfig, logger *zap.Logger) *Anthropic {
	strategy := &Anthropic{
		fallback: NewRandom(),
		logger:   logger,
	}
	if cfg.APIKey != "" {
		strategy.client = &anthropicClient{
			client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
			model:  cfg.Model,
		}
	}
	return strategy
}

type aiResponse struct {
	Category    string   `json:"category"`
	Explanation string   `json:"explanation"`
	Confidence  *float64 `json:"confidence"`
}

// Classify sends subject and body to the model and validates the structured
// response. Missing credential, call errors and malformed responses all fall
// through to the random fallback.
func (a *Anthropic) Classify(ctx context.Context, subject, body string) domain.ClassificationResult {
	if a.client == nil {
		a.logger.Warn("ai classification skipped: no api key configured")
		return a.fallback.Classify(ctx, subject, body)
	}

	userPrompt := fmt.Sprintf("Subject: %s\n\nBody: %s", subject, body)
	raw, err := a.client.Complete(ctx, classifySystemPrompt, userPrompt)
	if err != nil {
		a.logger.Warn("ai classification failed, using random fallback", zap.Error(err))
		return a.fallback.Classify(ctx, subject, body)
	}

	result, err := parseAIResponse(raw)
	if err != nil {
		a.logger.Warn("unparseable ai response, using random fallback", zap.Error(err))
		return a.fallback.Classify(ctx, subject, body)
	}
	return result
}

func parseAIResponse(raw string) (domain.ClassificationResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return domain.ClassificationResult{}, errors.New("no json object in response")
	}

	var parsed aiResponse
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Category == "" || parsed.Explanation == "" || parsed.Confidence == nil {
		return domain.ClassificationResult{}, errors.New("response missing required fields")
	}

	category := domain.Category(strings.ToLower(strings.TrimSpace(parsed.Category)))
	if !domain.ValidCategory(category) {
		category = domain.CategoryOther
	}
	return domain.ClassificationResult{
		Category:    category,
		Explanation: strings.TrimSpace(parsed.Explanation),
		Confidence:  domain.RoundConfidence(domain.ClampConfidence(*parsed.Confidence)),
	}, nil
}
