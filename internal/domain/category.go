package domain

import "strings"

// Category labels. The order of AllCategories is the order keyword matching
// walks them in.
const (
	CategoryFood          = "Food & Dining"
	CategoryShopping      = "Shopping"
	CategoryTransport     = "Transportation"
	CategoryBills         = "Bills & Utilities"
	CategoryEntertainment = "Entertainment"
	CategoryGaming        = "Gaming"
	CategorySubscriptions = "Subscriptions & Software"
	CategoryHealth        = "Health & Medical"
	CategoryTravel        = "Travel"
	CategoryEducation     = "Education"
	CategoryGroceries     = "Groceries"
	CategoryTransfer      = "Transfer"
	CategoryIncome        = "Income"
	CategoryOther         = "Other"
)

// AllCategories is the closed category set, Other last.
var AllCategories = []string{
	CategoryFood,
	CategoryShopping,
	CategoryTransport,
	CategoryBills,
	CategoryEntertainment,
	CategoryGaming,
	CategorySubscriptions,
	CategoryHealth,
	CategoryTravel,
	CategoryEducation,
	CategoryGroceries,
	CategoryTransfer,
	CategoryIncome,
	CategoryOther,
}

// IsKnownCategory reports whether label is in the closed category set.
func IsKnownCategory(label string) bool {
	for _, c := range AllCategories {
		if c == label {
			return true
		}
	}
	return false
}

// CanonicalCategory maps a label to its canonical spelling, ignoring case and
// surrounding whitespace.
func CanonicalCategory(label string) (string, bool) {
	norm := normalizeCategory(label)
	for _, c := range AllCategories {
		if normalizeCategory(c) == norm {
			return c, true
		}
	}
	return "", false
}

func normalizeCategory(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
