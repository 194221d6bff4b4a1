package mapper

import (
	"time"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type BillMapper struct{}

func NewBillMapper() *BillMapper {
	return &BillMapper{}
}

func (m *BillMapper) ToEntity(b *model.Bill) *entity.Bill {
	if b == nil {
		return nil
	}

	var updatedAt *time.Time
	if !b.UpdatedAt.IsZero() {
		t := b.UpdatedAt
		updatedAt = &t
	}

	e := &entity.Bill{
		Id:              b.Id,
		Number:          b.Number,
		SessionYear:     b.SessionYear,
		Chamber:         b.Chamber,
		Title:           b.Title,
		Description:     b.Description,
		Summary:         b.Summary,
		Status:          b.Status,
		Committee:       b.Committee,
		SponsorMemberId: b.SponsorMemberId,
		FullText:        b.FullText,
		CompanionNumber: b.CompanionNumber,
		LastActionAt:    b.LastActionAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       updatedAt,
	}
	if b.Sponsor != nil {
		e.SponsorName = b.Sponsor.Name
	}
	return e
}

func (m *BillMapper) ToModel(b *entity.Bill) *model.Bill {
	if b == nil {
		return nil
	}

	var updatedAt time.Time
	if b.UpdatedAt != nil {
		updatedAt = *b.UpdatedAt
	}

	return &model.Bill{
		Id:              b.Id,
		Number:          b.Number,
		SessionYear:     b.SessionYear,
		Chamber:         b.Chamber,
		Title:           b.Title,
		Description:     b.Description,
		Summary:         b.Summary,
		Status:          b.Status,
		Committee:       b.Committee,
		SponsorMemberId: b.SponsorMemberId,
		FullText:        b.FullText,
		CompanionNumber: b.CompanionNumber,
		LastActionAt:    b.LastActionAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *BillMapper) ToEntities(models []*model.Bill) []*entity.Bill {
	entities := make([]*entity.Bill, len(models))
	for i, b := range models {
		entities[i] = m.ToEntity(b)
	}
	return entities
}

func (m *BillMapper) ChunkToModel(c *entity.BillChunk) *model.BillChunk {
	if c == nil {
		return nil
	}
	return &model.BillChunk{
		Id:          c.Id,
		BillId:      c.BillId,
		BillNumber:  c.BillNumber,
		SessionYear: c.SessionYear,
		ChunkIndex:  c.ChunkIndex,
		Content:     c.Content,
		Embedding:   pgvector.NewVector(c.Embedding),
		CreatedAt:   c.CreatedAt,
	}
}

func (m *BillMapper) ChunkMatchToEntity(c *model.BillChunkWithScore) *entity.BillChunkMatch {
	if c == nil {
		return nil
	}
	return &entity.BillChunkMatch{
		BillChunk: entity.BillChunk{
			Id:          c.Id,
			BillId:      c.BillId,
			BillNumber:  c.BillNumber,
			SessionYear: c.SessionYear,
			ChunkIndex:  c.ChunkIndex,
			Content:     c.Content,
			CreatedAt:   c.CreatedAt,
		},
		Title:      c.Title,
		Status:     c.Status,
		Similarity: c.Similarity,
	}
}
