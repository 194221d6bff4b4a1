package retrieval

import (
	"context"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/pkg/rag/extract"

	"github.com/google/uuid"
)

// BillStore is the part of the bill repository the tiers need.
type BillStore interface {
	FindByNumbers(ctx context.Context, session int, numbers []string, limit int) ([]*entity.Bill, error)
	SearchByKeywords(ctx context.Context, session int, keywords []string, limit int) ([]*entity.Bill, error)
	FindBySponsorNames(ctx context.Context, session int, names []string, limit int) ([]*entity.Bill, error)
	FindByCommitteeNames(ctx context.Context, session int, names []string, limit int) ([]*entity.Bill, error)
	SponsorCounts(ctx context.Context, billIds []uuid.UUID) (map[uuid.UUID]entity.SponsorCounts, error)
}

const defaultTierLimit = 10

// TieredRetriever searches the structured store exact-id, keyword, sponsor
// then committee, and stops at the first tier that returns anything.
type TieredRetriever struct {
	store  BillStore
	limit  int
	logger logger.ILogger
}

func NewTieredRetriever(store BillStore, limit int, log logger.ILogger) *TieredRetriever {
	if limit <= 0 {
		limit = defaultTierLimit
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TieredRetriever{store: store, limit: limit, logger: log}
}

type tier struct {
	source Source
	run    func() ([]*entity.Bill, error)
}

func (r *TieredRetriever) Retrieve(ctx context.Context, q Query, session int) *Result {
	ids := extract.Identifiers(q.Text)
	if len(ids) == 0 && q.Entity != nil && q.Entity.Kind == EntityBill {
		ids = []string{extract.Normalize(q.Entity.Name)}
	}
	keywords := extract.Keywords(q.Text)

	var tiers []tier
	if len(ids) > 0 {
		tiers = append(tiers, tier{SourceExactID, func() ([]*entity.Bill, error) {
			return r.store.FindByNumbers(ctx, session, ids, r.limit)
		}})
	}
	if len(keywords) > 0 {
		tiers = append(tiers,
			tier{SourceKeyword, func() ([]*entity.Bill, error) {
				return r.store.SearchByKeywords(ctx, session, keywords, r.limit)
			}},
			tier{SourceSponsor, func() ([]*entity.Bill, error) {
				return r.store.FindBySponsorNames(ctx, session, keywords, r.limit)
			}},
			tier{SourceCommittee, func() ([]*entity.Bill, error) {
				return r.store.FindByCommitteeNames(ctx, session, keywords, r.limit)
			}},
		)
	}

	for _, t := range tiers {
		if ctx.Err() != nil {
			return nil
		}
		bills, err := t.run()
		if err != nil {
			r.logger.Warn("TieredRetriever", "tier lookup failed", map[string]interface{}{
				"tier":  string(t.source),
				"error": err.Error(),
			})
			continue
		}
		if len(bills) == 0 {
			continue
		}

		r.enrich(ctx, bills)
		r.logger.Info("TieredRetriever", "tier matched", map[string]interface{}{
			"tier":  string(t.source),
			"count": len(bills),
		})
		return billResult(t.source, bills)
	}
	return nil
}

// enrich attaches sponsor and co-sponsor counts. A failed lookup leaves them at zero.
func (r *TieredRetriever) enrich(ctx context.Context, bills []*entity.Bill) {
	ids := make([]uuid.UUID, len(bills))
	for i, b := range bills {
		ids[i] = b.Id
	}

	counts, err := r.store.SponsorCounts(ctx, ids)
	if err != nil {
		r.logger.Warn("TieredRetriever", "sponsor count lookup failed", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, b := range bills {
		if c, ok := counts[b.Id]; ok {
			b.SponsorCount = c.Sponsors
			b.CosponsorCount = c.Cosponsors
		}
	}
}

func billResult(source Source, bills []*entity.Bill) *Result {
	res := &Result{Source: source, Records: make([]Record, 0, len(bills))}
	for _, b := range bills {
		res.Records = append(res.Records, Record{ID: b.Number, Fragment: RenderBill(b)})
	}
	return res
}
