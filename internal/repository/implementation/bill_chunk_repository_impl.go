package implementation

import (
	"context"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/mapper"
	"civic-assistant-be/internal/model"
	"civic-assistant-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type BillChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BillMapper
}

func NewBillChunkRepository(db *gorm.DB) contract.BillChunkRepository {
	return &BillChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewBillMapper(),
	}
}

func (r *BillChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.BillChunk) error {
	models := make([]*model.BillChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ChunkToModel(c)
	}
	return r.db.WithContext(ctx).CreateInBatches(models, 100).Error
}

func (r *BillChunkRepositoryImpl) DeleteByBillId(ctx context.Context, billId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("bill_id = ?", billId).Delete(&model.BillChunk{}).Error
}

// SearchSimilarWithScore returns chunks ranked by cosine similarity, filtered by threshold.
// pgvector's <=> is cosine distance, so similarity = 1 - distance.
func (r *BillChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, session int, threshold float64, limit int) ([]*entity.BillChunkMatch, error) {
	if limit <= 0 {
		limit = 15
	}

	var results []model.BillChunkWithScore
	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("bill_chunks").
		Select(`bill_chunks.id, bill_chunks.bill_id, bill_chunks.bill_number, bill_chunks.session_year,
			bill_chunks.chunk_index, bill_chunks.content, bill_chunks.created_at,
			bills.title, bills.status, 1 - (bill_chunks.embedding <=> ?) AS similarity`, queryVector).
		Joins("JOIN bills ON bills.id = bill_chunks.bill_id").
		Where("1 - (bill_chunks.embedding <=> ?) >= ?", queryVector, threshold)

	if session != 0 {
		query = query.Where("bill_chunks.session_year = ?", session)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	matches := make([]*entity.BillChunkMatch, len(results))
	for i := range results {
		matches[i] = r.mapper.ChunkMatchToEntity(&results[i])
	}
	return matches, nil
}
