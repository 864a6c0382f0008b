package classifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Strategy maps ticket text to a classification result. Implementations are
// total: they never fail outwardly, internal failures degrade to a fallback.
type Strategy interface {
	Classify(ctx context.Context, subject, body string) domain.ClassificationResult
}

// FromConfig selects the top-level strategy. When AI is enabled the
// Anthropic-backed strategy is used and falls back to Random on internal
// failure; otherwise the configured default strategy applies. Keyword scoring
// is selectable here but is deliberately not part of the AI fallback chain.
func FromConfig(cfg config.AIConfig, logger *zap.Logger) Strategy {
	if cfg.Enabled {
		return NewAnthropic(cfg, logger)
	}
	if cfg.DefaultStrategy == "random" {
		return NewRandom()
	}
	return NewKeyword()
}
