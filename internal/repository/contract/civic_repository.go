package contract

import (
	"context"

	"civic-assistant-be/internal/entity"
)

type BudgetRepository interface {
	FindByCategoryTerms(ctx context.Context, terms []string, limit int) ([]*entity.BudgetItem, error)
	FindByAgencyTerms(ctx context.Context, terms []string, limit int) ([]*entity.BudgetItem, error)
}

type ContractRepository interface {
	FindByCategoryTerms(ctx context.Context, terms []string, limit int) ([]*entity.Contract, error)
	FindByVendorTerms(ctx context.Context, terms []string, limit int) ([]*entity.Contract, error)
}

type LobbyingRepository interface {
	FindBySubjectTerms(ctx context.Context, terms []string, limit int) ([]*entity.LobbyingFiling, error)
	FindByPartyTerms(ctx context.Context, terms []string, limit int) ([]*entity.LobbyingFiling, error)
}
