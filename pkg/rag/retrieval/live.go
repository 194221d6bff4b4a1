package retrieval

import (
	"context"
	"fmt"
	"strings"

	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/pkg/openleg"
	"civic-assistant-be/pkg/rag/extract"
)

// LiveSource is the remote legislature system.
type LiveSource interface {
	GetBill(ctx context.Context, session int, printNo string) (*openleg.Bill, error)
	SearchBills(ctx context.Context, session int, term string, limit int) ([]*openleg.Bill, error)
}

const (
	maxLiveLookups = 3
	liveSearchSize = 5
)

// LiveRetriever asks the remote legislature API for up-to-date status and
// companion bills. It runs beside the local store, never instead of it.
type LiveRetriever struct {
	source LiveSource
	logger logger.ILogger
}

func NewLiveRetriever(source LiveSource, log logger.ILogger) *LiveRetriever {
	if log == nil {
		log = logger.Nop()
	}
	return &LiveRetriever{source: source, logger: log}
}

func (r *LiveRetriever) Retrieve(ctx context.Context, q Query, session int) *Result {
	ids := extract.Identifiers(q.Text)
	if len(ids) == 0 && q.Entity != nil && q.Entity.Kind == EntityBill {
		ids = []string{extract.Normalize(q.Entity.Name)}
	}

	var bills []*openleg.Bill
	if len(ids) > 0 {
		if len(ids) > maxLiveLookups {
			ids = ids[:maxLiveLookups]
		}
		for _, id := range ids {
			bill, err := r.source.GetBill(ctx, session, id)
			if err != nil {
				r.logger.Warn("LiveRetriever", "bill lookup failed", map[string]interface{}{
					"bill":  id,
					"error": err.Error(),
				})
				continue
			}
			bills = append(bills, bill)
		}
	} else if keywords := extract.Keywords(q.Text); len(keywords) > 0 {
		found, err := r.source.SearchBills(ctx, session, strings.Join(keywords, " "), liveSearchSize)
		if err != nil {
			r.logger.Warn("LiveRetriever", "bill search failed", map[string]interface{}{"error": err.Error()})
			return nil
		}
		bills = found
	}

	if len(bills) == 0 {
		return nil
	}
	res := &Result{Source: SourceLive, Records: make([]Record, 0, len(bills))}
	for _, b := range bills {
		res.Records = append(res.Records, Record{ID: extract.Normalize(b.PrintNo), Fragment: renderLiveBill(b)})
	}
	return res
}

func renderLiveBill(b *openleg.Bill) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d session): %s\n", b.PrintNo, b.Session, b.Title)
	if b.Status != "" {
		sb.WriteString("Status: " + b.Status)
		if b.StatusDate != "" {
			sb.WriteString(" as of " + b.StatusDate)
		}
		sb.WriteString("\n")
	}
	if b.CommitteeName != "" {
		fmt.Fprintf(&sb, "Committee: %s\n", b.CommitteeName)
	}
	if b.Sponsor != "" {
		fmt.Fprintf(&sb, "Sponsor: %s\n", b.Sponsor)
	}
	if len(b.SameAs) > 0 {
		fmt.Fprintf(&sb, "Same as (other chamber): %s\n", strings.Join(b.SameAs, ", "))
	}
	if b.Summary != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", b.Summary)
	}
	return strings.TrimRight(sb.String(), "\n")
}
