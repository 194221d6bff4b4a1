package model

import (
	"time"

	"github.com/google/uuid"
)

type BudgetItem struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FiscalYear  int       `gorm:"not null;index"`
	Agency      string    `gorm:"type:text;not null;index"`
	Category    string    `gorm:"type:text;index"`
	Program     string    `gorm:"type:text"`
	Description string    `gorm:"type:text"`
	Amount      float64   `gorm:"type:numeric(18,2);not null"`
}

func (BudgetItem) TableName() string {
	return "budget_items"
}

type Contract struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Vendor      string     `gorm:"type:text;not null;index"`
	Agency      string     `gorm:"type:text;index"`
	Category    string     `gorm:"type:text"`
	Description string     `gorm:"type:text"`
	Amount      float64    `gorm:"type:numeric(18,2);not null"`
	StartDate   *time.Time `gorm:"type:date"`
}

func (Contract) TableName() string {
	return "contracts"
}

type LobbyingFiling struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Year         int       `gorm:"not null;index"`
	Lobbyist     string    `gorm:"type:text;not null;index"`
	Client       string    `gorm:"type:text;not null;index"`
	Subject      string    `gorm:"type:text"`
	Compensation float64   `gorm:"type:numeric(18,2)"`
}

func (LobbyingFiling) TableName() string {
	return "lobbying_filings"
}
