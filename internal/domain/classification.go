package domain

import "math"

// Category enumerates the fixed classification category set.
type Category string

const (
	CategoryBilling   Category = "billing"
	CategoryTechnical Category = "technical"
	CategoryAccount   Category = "account"
	CategoryGeneral   Category = "general"
	CategoryOther     Category = "other"
)

// Categories lists the fixed category set in canonical order.
var Categories = []Category{
	CategoryBilling,
	CategoryTechnical,
	CategoryAccount,
	CategoryGeneral,
	CategoryOther,
}

// ValidCategory reports whether c belongs to the fixed category set.
func ValidCategory(c Category) bool {
	for _, candidate := range Categories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ClassificationResult is the ephemeral outcome of one classification
// attempt. It is produced fresh on every run and never persisted on its own.
type ClassificationResult struct {
	Category    Category
	Explanation string
	Confidence  float64
}

// RoundConfidence rounds a confidence score to two decimals.
func RoundConfidence(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClampConfidence restricts a confidence score to [0, 1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
