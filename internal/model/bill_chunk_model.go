package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type BillChunk struct {
	Id          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BillId      uuid.UUID       `gorm:"type:uuid;not null;index"`
	BillNumber  string          `gorm:"type:varchar(16);not null;index"`
	SessionYear int             `gorm:"not null;index"`
	ChunkIndex  int             `gorm:"default:0"` // 0-based index for ordering
	Content     string          `gorm:"type:text"`
	Embedding   pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

func (BillChunk) TableName() string {
	return "bill_chunks"
}

// BillChunkWithScore is the scan target of similarity search.
type BillChunkWithScore struct {
	BillChunk
	Title      string
	Status     string
	Similarity float64
}
