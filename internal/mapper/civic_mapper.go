package mapper

import (
	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/model"
)

type CivicMapper struct{}

func NewCivicMapper() *CivicMapper {
	return &CivicMapper{}
}

func (m *CivicMapper) BudgetItemToEntity(b *model.BudgetItem) *entity.BudgetItem {
	if b == nil {
		return nil
	}
	return &entity.BudgetItem{
		Id:          b.Id,
		FiscalYear:  b.FiscalYear,
		Agency:      b.Agency,
		Category:    b.Category,
		Program:     b.Program,
		Description: b.Description,
		Amount:      b.Amount,
	}
}

func (m *CivicMapper) ContractToEntity(c *model.Contract) *entity.Contract {
	if c == nil {
		return nil
	}
	return &entity.Contract{
		Id:          c.Id,
		Vendor:      c.Vendor,
		Agency:      c.Agency,
		Category:    c.Category,
		Description: c.Description,
		Amount:      c.Amount,
		StartDate:   c.StartDate,
	}
}

func (m *CivicMapper) LobbyingFilingToEntity(f *model.LobbyingFiling) *entity.LobbyingFiling {
	if f == nil {
		return nil
	}
	return &entity.LobbyingFiling{
		Id:           f.Id,
		Year:         f.Year,
		Lobbyist:     f.Lobbyist,
		Client:       f.Client,
		Subject:      f.Subject,
		Compensation: f.Compensation,
	}
}
