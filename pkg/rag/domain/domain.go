// Package domain holds the keyword-gated retrievers for auxiliary civic data:
// budget lines, contracts and lobbying filings.
package domain

import (
	"context"
	"sort"

	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/pkg/rag/extract"
	"civic-assistant-be/pkg/rag/retrieval"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Retriever is one auxiliary dataset. Gate is checked before launch; a
// retriever whose gate does not match is never started.
type Retriever interface {
	Name() string
	Gate(q retrieval.Query) bool
	Retrieve(ctx context.Context, q retrieval.Query) *retrieval.Result
}

const historyGateTurns = 3

var printer = message.NewPrinter(language.English)

func money(amount float64) string {
	return printer.Sprintf("$%.0f", amount)
}

// searchTerms drops the gating words so "budget for transportation" searches "transportation".
func searchTerms(gate extract.Gate, text string) []string {
	return extract.Keywords(gate.Strip(text))
}

// merge concatenates result sets, keeping the first occurrence of every id,
// then orders by salience and caps the total.
func merge[T any](id func(T) string, salience func(T) float64, limit int, sets ...[]T) []T {
	seen := make(map[string]struct{})
	var out []T
	for _, set := range sets {
		for _, item := range set {
			key := id(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return salience(out[i]) > salience(out[j])
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func logLookupFailure(log logger.ILogger, name, lookup string, err error) {
	log.Warn("Domain:"+name, "lookup failed", map[string]interface{}{
		"lookup": lookup,
		"error":  err.Error(),
	})
}
