// Package gate decides whether a question is about personal finance before
// any retrieval or model call is spent on it.
package gate

import (
	"slices"
	"strings"
)

var defaultKeywords = []string{
	// money and budgeting
	"money", "finance", "financial", "budget", "budgeting", "savings", "save",
	"expense", "spending", "cost", "price", "afford", "emergency", "goal",
	"wealth", "rich", "poor", "networth", "cashflow", "frugal", "cheap",
	"expensive", "value", "worth", "deal", "bargain", "discount", "sale",
	// investing
	"investment", "invest", "stock", "stocks", "bond", "bonds", "portfolio",
	"asset", "liability", "equity", "fund", "funds", "risk", "return",
	"profit", "loss", "dividend",
	// debt and credit
	"debt", "credit", "loan", "mortgage", "interest", "rate", "apr", "apy",
	"compound", "simple", "principal", "balance", "payment", "pay", "owe",
	"owing",
	// banking and insurance
	"account", "bank", "banking", "insurance",
	// retirement and tax
	"retirement", "pension", "tax", "taxes", "401k", "ira", "roth",
	"traditional",
	// income and career
	"income", "salary", "wage", "wages", "negotiate", "negotiation", "raise",
	"promotion", "compensation", "paycheck", "bonus", "benefits", "career",
	"job", "work", "employment", "employer", "employee", "freelance",
	"contractor", "hourly",
	// housing
	"house", "home", "rent", "renting", "buying", "selling", "property",
	"realtor", "downpayment", "closing", "refinance",
}

// Gate is a coarse keyword filter. It matches substrings, so it has false
// positives and false negatives; it only short-circuits obviously off-topic
// questions.
type Gate struct {
	keywords []string
}

// New creates a gate over the given keywords. Keywords are lower-cased and
// blanks are dropped.
func New(keywords ...string) *Gate {
	g := &Gate{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && !slices.Contains(g.keywords, k) {
			g.keywords = append(g.keywords, k)
		}
	}
	return g
}

// Default returns a gate with the built-in personal finance vocabulary.
func Default() *Gate {
	return New(defaultKeywords...)
}

// IsInDomain reports whether the lower-cased question contains any keyword.
func (g *Gate) IsInDomain(question string) bool {
	q := strings.ToLower(question)
	for _, k := range g.keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

// Keywords returns a sorted copy of the vocabulary.
func (g *Gate) Keywords() []string {
	out := slices.Clone(g.keywords)
	slices.Sort(out)
	return out
}
