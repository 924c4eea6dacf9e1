package classifier

import (
	"context"
	"strings"

	"kb-chat/internal/domain"
)

// defaultKeywords is the built-in product-support vocabulary. A query
// containing any of these is assumed to be about the product even when it
// does not name it.
var defaultKeywords = []string{
	"return", "refund", "policy", "price", "pricing", "cost",
	"warranty", "order", "shipping", "delivery", "install",
	"setup", "support", "feature", "subscription", "upgrade",
	"license", "manual", "documentation",
}

// Keyword classifies by keyword presence. It is fully deterministic and
// makes no external calls.
type Keyword struct {
	keywords []string
}

// NewKeyword builds the keyword policy from the product name tokens, the
// built-in vocabulary, and any extra configured keywords.
func NewKeyword(productName string, extra []string) *Keyword {
	var kws []string
	seen := map[string]bool{}
	add := func(kw string) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			return
		}
		seen[kw] = true
		kws = append(kws, kw)
	}

	add(productName)
	for _, tok := range strings.Fields(productName) {
		// single-token product names are already covered; short tokens
		// like "of" would match everything
		if len(tok) > 2 {
			add(tok)
		}
	}
	for _, kw := range defaultKeywords {
		add(kw)
	}
	for _, kw := range extra {
		add(kw)
	}
	return &Keyword{keywords: kws}
}

func (k *Keyword) Classify(_ context.Context, query string) (domain.Category, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.CategoryGeneric, nil
	}
	for _, kw := range k.keywords {
		if strings.Contains(q, kw) {
			return domain.CategoryProduct, nil
		}
	}
	return domain.CategoryGeneric, nil
}
