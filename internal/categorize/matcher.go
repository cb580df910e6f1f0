// Package categorize assigns spending categories to transaction descriptions.
package categorize

import (
	"strings"

	"github.com/dvloznov/spendlens/internal/domain"
)

// Rule binds a category to the keywords that select it.
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Matcher assigns categories by keyword containment. Rules are walked in
// order and the first rule with a keyword inside the lowercased description
// wins, so declaration order settles overlaps.
type Matcher struct {
	rules []Rule
}

// NewMatcher builds a matcher over rules, lowercasing every keyword.
func NewMatcher(rules []Rule) *Matcher {
	m := &Matcher{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}
		m.rules = append(m.rules, Rule{Category: r.Category, Keywords: kws})
	}
	return m
}

// DefaultMatcher uses DefaultRules.
func DefaultMatcher() *Matcher {
	return NewMatcher(DefaultRules())
}

// Match returns the category for description, or Other.
func (m *Matcher) Match(description string) string {
	desc := strings.ToLower(description)
	for _, r := range m.rules {
		for _, k := range r.Keywords {
			if strings.Contains(desc, k) {
				return r.Category
			}
		}
	}
	return domain.CategoryOther
}

// Rules returns a copy of the rules in match order.
func (m *Matcher) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	for i, r := range m.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// DefaultRules is the built-in keyword table. Entertainment precedes
// Subscriptions & Software so streaming services land in Entertainment.
func DefaultRules() []Rule {
	return []Rule{
		{Category: domain.CategoryFood, Keywords: []string{
			"restaurant", "cafe", "coffee", "starbucks", "mcdonald", "burger", "pizza",
			"kfc", "doordash", "uber eats", "grubhub", "foodpanda", "deliveroo",
			"dunkin", "domino", "chipotle", "bakery", "diner", "dining", "takeaway",
		}},
		{Category: domain.CategoryShopping, Keywords: []string{
			"amazon", "ebay", "walmart", "target", "daraz", "etsy", "ikea", "best buy",
			"aliexpress", "temu", "shein", "zara", "h&m", "nike", "shopping", "mall",
		}},
		{Category: domain.CategoryTransport, Keywords: []string{
			"uber", "lyft", "careem", "taxi", "metro", "transit", "parking", "fuel",
			"petrol", "gas station", "shell", "chevron", "exxon", "toll",
		}},
		{Category: domain.CategoryBills, Keywords: []string{
			"electric", "water bill", "utility", "utilities", "internet", "broadband",
			"comcast", "verizon", "at&t", "t-mobile", "phone bill", "mobile bill",
			"insurance", "rent payment", "landlord", "mortgage", "ptcl", "sui gas",
		}},
		{Category: domain.CategoryEntertainment, Keywords: []string{
			"netflix", "spotify", "hulu", "disney+", "disney plus", "hbo", "prime video",
			"youtube premium", "cinema", "movie", "theater", "theatre", "concert",
			"ticketmaster", "twitch",
		}},
		{Category: domain.CategoryGaming, Keywords: []string{
			"steam", "playstation", "xbox", "nintendo", "epic games", "riot games",
			"blizzard", "roblox", "pubg", "gaming",
		}},
		{Category: domain.CategorySubscriptions, Keywords: []string{
			"subscription", "adobe", "microsoft", "google one", "google storage",
			"icloud", "dropbox", "github", "openai", "chatgpt", "notion", "slack",
			"zoom", "canva", "app store", "google play", "1password", "software",
		}},
		{Category: domain.CategoryHealth, Keywords: []string{
			"pharmacy", "hospital", "clinic", "doctor", "dental", "dentist", "medical",
			"cvs", "walgreens", "health", "optician", "gym", "fitness",
		}},
		{Category: domain.CategoryTravel, Keywords: []string{
			"airline", "airways", "flight", "hotel", "airbnb", "booking.com", "expedia",
			"marriott", "hilton", "emirates", "hostel", "amtrak", "railway", "travel",
		}},
		{Category: domain.CategoryEducation, Keywords: []string{
			"tuition", "school", "university", "college", "course", "udemy", "coursera",
			"edx", "skillshare", "bookstore", "education",
		}},
		{Category: domain.CategoryGroceries, Keywords: []string{
			"grocery", "groceries", "supermarket", "whole foods", "trader joe", "kroger",
			"safeway", "aldi", "lidl", "tesco", "sainsbury", "carrefour", "costco",
			"imtiaz",
		}},
		{Category: domain.CategoryTransfer, Keywords: []string{
			"transfer", "zelle", "venmo", "paypal", "wire", "ibft", "raast",
			"easypaisa", "jazzcash", "atm withdrawal", "cash withdrawal",
		}},
		{Category: domain.CategoryIncome, Keywords: []string{
			"salary", "payroll", "paycheck", "direct deposit", "interest", "dividend",
			"refund", "cashback", "income", "bonus",
		}},
	}
}
