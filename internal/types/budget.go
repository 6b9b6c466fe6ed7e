package types

import (
	"fmt"
	"strings"
)

type BudgetTier string

const (
	BudgetLow    BudgetTier = "low"
	BudgetMedium BudgetTier = "medium"
	BudgetHigh   BudgetTier = "high"
)

const (
	lowBudgetCeiling    = 30.0
	mediumBudgetCeiling = 200.0
)

// ParseBudgetTier accepts low, medium or high in any case.
func ParseBudgetTier(s string) (BudgetTier, error) {
	switch tier := BudgetTier(strings.ToLower(strings.TrimSpace(s))); tier {
	case BudgetLow, BudgetMedium, BudgetHigh:
		return tier, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBudgetTier, s)
	}
}

// Contains reports whether price falls inside the tier.
// low: price <= 30, medium: 30 < price <= 200, high: price > 200.
func (b BudgetTier) Contains(price float64) bool {
	switch b {
	case BudgetLow:
		return price <= lowBudgetCeiling
	case BudgetMedium:
		return price > lowBudgetCeiling && price <= mediumBudgetCeiling
	case BudgetHigh:
		return price > mediumBudgetCeiling
	default:
		return true
	}
}

// Admits applies the tier to a point of interest. Records without a usable
// price pass every tier.
func (b BudgetTier) Admits(poi PointOfInterest) bool {
	if poi.Metadata.Price == nil {
		return true
	}
	price, ok := poi.Metadata.Price.Float()
	if !ok {
		return true
	}
	return b.Contains(price)
}
