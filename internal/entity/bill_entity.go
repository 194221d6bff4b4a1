package entity

import (
	"time"

	"github.com/google/uuid"
)

type Bill struct {
	Id              uuid.UUID
	Number          string // canonical form, e.g. "S256"
	SessionYear     int
	Chamber         string
	Title           string
	Description     string
	Summary         string
	Status          string
	Committee       string
	SponsorMemberId *uuid.UUID
	SponsorName     string
	FullText        string
	CompanionNumber string
	LastActionAt    *time.Time
	SponsorCount    int
	CosponsorCount  int
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

type Member struct {
	Id       uuid.UUID
	Name     string
	Chamber  string
	District int
	Party    string
}

type Committee struct {
	Id      uuid.UUID
	Name    string
	Chamber string
}

type BillSponsor struct {
	BillId    uuid.UUID
	MemberId  uuid.UUID
	IsPrimary bool
}

// SponsorCounts holds the number of primary sponsors and co-sponsors of a bill.
type SponsorCounts struct {
	Sponsors   int
	Cosponsors int
}

type BillChunk struct {
	Id          uuid.UUID
	BillId      uuid.UUID
	BillNumber  string
	SessionYear int
	ChunkIndex  int
	Content     string
	Embedding   []float32
	CreatedAt   time.Time
}

// BillChunkMatch is a chunk returned by similarity search.
type BillChunkMatch struct {
	BillChunk
	Title      string
	Status     string
	Similarity float64
}
