package citation

import (
	"context"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/pkg/logger"
)

type RelatedFinder interface {
	FindRelatedByCommittee(ctx context.Context, committee string, exclude []string, limit int) ([]*entity.Bill, error)
}

const defaultRelatedLimit = 5

// RelatedEnricher suggests other bills from the committee of the first cited bill.
type RelatedEnricher struct {
	bills  RelatedFinder
	limit  int
	logger logger.ILogger
}

func NewRelatedEnricher(bills RelatedFinder, limit int, log logger.ILogger) *RelatedEnricher {
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RelatedEnricher{bills: bills, limit: limit, logger: log}
}

func (r *RelatedEnricher) Related(ctx context.Context, cited []entity.BillCitation) []entity.BillCitation {
	if len(cited) == 0 || cited[0].Committee == "" {
		return nil
	}

	exclude := make([]string, len(cited))
	for i, c := range cited {
		exclude[i] = c.Identifier
	}

	bills, err := r.bills.FindRelatedByCommittee(ctx, cited[0].Committee, exclude, r.limit)
	if err != nil {
		r.logger.Warn("RelatedEnricher", "related bill lookup failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	out := make([]entity.BillCitation, 0, len(bills))
	for _, b := range bills {
		out = append(out, entity.BillCitation{
			Identifier:  b.Number,
			Title:       b.Title,
			Status:      b.Status,
			Committee:   b.Committee,
			SponsorName: b.SponsorName,
		})
	}
	return out
}
