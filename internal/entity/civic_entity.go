package entity

import (
	"time"

	"github.com/google/uuid"
)

type BudgetItem struct {
	Id          uuid.UUID
	FiscalYear  int
	Agency      string
	Category    string
	Program     string
	Description string
	Amount      float64
}

type Contract struct {
	Id          uuid.UUID
	Vendor      string
	Agency      string
	Category    string
	Description string
	Amount      float64
	StartDate   *time.Time
}

type LobbyingFiling struct {
	Id           uuid.UUID
	Year         int
	Lobbyist     string
	Client       string
	Subject      string
	Compensation float64
}
