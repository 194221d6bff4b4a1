package contract

import (
	"context"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type BillRepository interface {
	Create(ctx context.Context, bill *entity.Bill) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Bill, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Bill, error)

	FindByNumbers(ctx context.Context, session int, numbers []string, limit int) ([]*entity.Bill, error)
	SearchByKeywords(ctx context.Context, session int, keywords []string, limit int) ([]*entity.Bill, error)
	FindBySponsorNames(ctx context.Context, session int, names []string, limit int) ([]*entity.Bill, error)
	FindByCommitteeNames(ctx context.Context, session int, names []string, limit int) ([]*entity.Bill, error)
	FindRelatedByCommittee(ctx context.Context, committee string, exclude []string, limit int) ([]*entity.Bill, error)
	SponsorCounts(ctx context.Context, billIds []uuid.UUID) (map[uuid.UUID]entity.SponsorCounts, error)
}

type BillChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.BillChunk) error
	DeleteByBillId(ctx context.Context, billId uuid.UUID) error
	SearchSimilarWithScore(ctx context.Context, embedding []float32, session int, threshold float64, limit int) ([]*entity.BillChunkMatch, error)
}
