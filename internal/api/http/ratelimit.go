package http

import (
	"math"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/ratelimit"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const classifyRateKeyPrefix = "classify_rate:"

// ClassifyRateLimit gates manual re-classify requests per client address.
// When the window is exhausted the request is rejected before any job is
// enqueued, with a retry-after hint in seconds.
func ClassifyRateLimit(limiter ratelimit.Limiter, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := classifyRateKeyPrefix + c.IP()
		allowed, retryAfter, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			// Limiter backend down: log and let the request through rather
			// than blocking all classification.
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			return apperrors.NewTooManyRequests(
				"Too many classification requests. Please try again later.", seconds)
		}
		return c.Next()
	}
}
