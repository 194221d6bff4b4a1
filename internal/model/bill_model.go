package model

import (
	"time"

	"github.com/google/uuid"
)

type Bill struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number          string     `gorm:"type:varchar(16);not null;uniqueIndex:idx_bill_number_session"`
	SessionYear     int        `gorm:"not null;uniqueIndex:idx_bill_number_session;index"`
	Chamber         string     `gorm:"type:varchar(16)"`
	Title           string     `gorm:"type:text;not null"`
	Description     string     `gorm:"type:text"`
	Summary         string     `gorm:"type:text"`
	Status          string     `gorm:"type:varchar(64)"`
	Committee       string     `gorm:"type:text;index"`
	SponsorMemberId *uuid.UUID `gorm:"type:uuid;index"`
	Sponsor         *Member    `gorm:"foreignKey:SponsorMemberId"`
	FullText        string     `gorm:"type:text"`
	CompanionNumber string     `gorm:"type:varchar(16)"`
	LastActionAt    *time.Time `gorm:"index"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (Bill) TableName() string {
	return "bills"
}

type Member struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name     string    `gorm:"type:text;not null;index"`
	Chamber  string    `gorm:"type:varchar(16)"`
	District int
	Party    string `gorm:"type:varchar(32)"`
}

func (Member) TableName() string {
	return "members"
}

type Committee struct {
	Id      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name    string    `gorm:"type:text;not null;index"`
	Chamber string    `gorm:"type:varchar(16)"`
}

func (Committee) TableName() string {
	return "committees"
}

type BillSponsor struct {
	BillId    uuid.UUID `gorm:"type:uuid;primaryKey"`
	MemberId  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	IsPrimary bool      `gorm:"default:false"`
}

func (BillSponsor) TableName() string {
	return "bill_sponsors"
}
