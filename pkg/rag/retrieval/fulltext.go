package retrieval

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/pkg/rag/extract"
)

type FullTextStore interface {
	FindByNumbers(ctx context.Context, session int, numbers []string, limit int) ([]*entity.Bill, error)
}

const (
	defaultFullTextRecords  = 2
	defaultFullTextMaxChars = 8000
	fullTextHistoryTurns    = 3
	truncationMarker        = "\n[text truncated]"
)

// FullTextRetriever supplies verbatim bill text when the turn names a bill explicitly,
// either in the question or, failing that, in the last few turns.
type FullTextRetriever struct {
	store      FullTextStore
	maxRecords int
	maxChars   int
	logger     logger.ILogger
}

func NewFullTextRetriever(store FullTextStore, maxChars int, log logger.ILogger) *FullTextRetriever {
	if maxChars <= 0 {
		maxChars = defaultFullTextMaxChars
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FullTextRetriever{store: store, maxRecords: defaultFullTextRecords, maxChars: maxChars, logger: log}
}

func (r *FullTextRetriever) Retrieve(ctx context.Context, q Query, session int) *Result {
	ids := extract.Identifiers(q.Text)
	if len(ids) == 0 {
		for _, turn := range q.RecentTurns(fullTextHistoryTurns) {
			if ids = extract.Identifiers(turn); len(ids) > 0 {
				break
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > r.maxRecords {
		ids = ids[:r.maxRecords]
	}

	bills, err := r.store.FindByNumbers(ctx, session, ids, r.maxRecords)
	if err != nil {
		r.logger.Warn("FullTextRetriever", "full text lookup failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	res := &Result{Source: SourceFullText}
	for _, b := range bills {
		text := strings.TrimSpace(b.FullText)
		if text == "" {
			continue
		}
		res.Records = append(res.Records, Record{
			ID:       b.Number,
			Fragment: fmt.Sprintf("%s: %s\n%s", b.Number, b.Title, clip(text, r.maxChars)),
		})
	}
	if res.Empty() {
		return nil
	}
	return res
}

// clip shortens text to at most max bytes, cutting at the last line or word break.
func clip(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if i := strings.LastIndexAny(cut, "\n "); i > max/2 {
		cut = cut[:i]
	}
	for !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return strings.TrimRight(cut, " \n") + truncationMarker
}
