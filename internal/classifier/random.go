package classifier

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const randomExplanation = "Automatically categorized without content analysis."

// Random picks a category uniformly at random from the fixed set. It is the
// fallback whenever external AI is disabled or its call fails.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom builds a Random strategy seeded from the clock.
func NewRandom() *Random {
	return NewRandomWithSeed(time.Now().UnixNano())
}

// NewRandomWithSeed builds a Random strategy with a fixed seed.
func NewRandomWithSeed(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Classify returns a uniformly random category with a confidence drawn from
// [0.50, 1.00] rounded to two decimals.
func (r *Random) Classify(ctx context.Context, subject, body string) domain.ClassificationResult {
	r.mu.Lock()
	category := domain.Categories[r.rng.Intn(len(domain.Categories))]
	confidence := float64(50+r.rng.Intn(51)) / 100
	r.mu.Unlock()

	return domain.ClassificationResult{
		Category:    category,
		Explanation: randomExplanation,
		Confidence:  domain.RoundConfidence(confidence),
	}
}
