package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const noMatchExplanation = "No specific keywords matched; the ticket does not fit a known category."

type keywordEntry struct {
	category    domain.Category
	keywords    []string
	description string
}

// keywordTable is iterated in fixed order; ties between equal scores go to
// the first-encountered category. "other" carries no keywords and is only
// returned when nothing else scores.
var keywordTable = []keywordEntry{
	{
		category: domain.CategoryBilling,
		keywords: []string{
			"payment", "invoice", "charge", "charged", "refund", "billing",
			"subscription", "price", "cost", "credit card",
		},
		description: "payments, invoices and subscription charges",
	},
	{
		category: domain.CategoryTechnical,
		keywords: []string{
			"error", "crash", "bug", "broken", "timeout", "slow", "loading",
			"database", "api", "not working", "fail",
		},
		description: "errors, outages and malfunctioning features",
	},
	{
		category: domain.CategoryAccount,
		keywords: []string{
			"account", "password", "login", "log in", "locked", "access",
			"profile", "permission", "two-factor", "authentication",
		},
		description: "account access, credentials and profile settings",
	},
	{
		category: domain.CategoryGeneral,
		keywords: []string{
			"question", "help", "how to", "information", "guidance",
			"request", "documentation",
		},
		description: "general questions and requests for assistance",
	},
}

// Keyword scores tickets by counting distinct keyword hits per category.
type Keyword struct{}

// NewKeyword builds the keyword-scoring strategy.
func NewKeyword() *Keyword {
	return &Keyword{}
}

// Classify lower-cases subject and body, scores every category by the number
// of distinct keywords found as substrings and picks the highest nonzero
// score. Confidence is min(0.95, 0.40 + 0.15 * score).
func (k *Keyword) Classify(ctx context.Context, subject, body string) domain.ClassificationResult {
	text := strings.ToLower(subject + " " + body)

	var (
		best        *keywordEntry
		bestScore   int
		bestMatched []string
	)
	for i := range keywordTable {
		entry := &keywordTable[i]
		var matched []string
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > bestScore {
			best = entry
			bestScore = len(matched)
			bestMatched = matched
		}
	}

	if best == nil {
		return domain.ClassificationResult{
			Category:    domain.CategoryOther,
			Explanation: noMatchExplanation,
			Confidence:  0.30,
		}
	}

	confidence := 0.40 + 0.15*float64(bestScore)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return domain.ClassificationResult{
		Category: best.category,
		Explanation: fmt.Sprintf("Categorized as %s because the ticket mentions %s; this category covers %s.",
			best.category, strings.Join(bestMatched, ", "), best.description),
		Confidence: domain.RoundConfidence(confidence),
	}
}
