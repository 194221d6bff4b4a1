package implementation

import (
	"context"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/mapper"
	"civic-assistant-be/internal/model"
	"civic-assistant-be/internal/repository/contract"
	"civic-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
)

type BudgetRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CivicMapper
}

func NewBudgetRepository(db *gorm.DB) contract.BudgetRepository {
	return &BudgetRepositoryImpl{db: db, mapper: mapper.NewCivicMapper()}
}

func (r *BudgetRepositoryImpl) find(ctx context.Context, specs ...specification.Specification) ([]*entity.BudgetItem, error) {
	var models []*model.BudgetItem
	if err := applySpecs(r.db.WithContext(ctx).Model(&model.BudgetItem{}), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]*entity.BudgetItem, len(models))
	for i, m := range models {
		items[i] = r.mapper.BudgetItemToEntity(m)
	}
	return items, nil
}

func (r *BudgetRepositoryImpl) FindByCategoryTerms(ctx context.Context, terms []string, limit int) ([]*entity.BudgetItem, error) {
	return r.find(ctx,
		specification.AnyFieldILike{Columns: []string{"category", "program", "description"}, Terms: terms},
		specification.OrderBy{Field: "fiscal_year", Desc: true},
		specification.OrderBy{Field: "amount", Desc: true},
		specification.Pagination{Limit: limit},
	)
}

func (r *BudgetRepositoryImpl) FindByAgencyTerms(ctx context.Context, terms []string, limit int) ([]*entity.BudgetItem, error) {
	return r.find(ctx,
		specification.AnyFieldILike{Columns: []string{"agency"}, Terms: terms},
		specification.OrderBy{Field: "fiscal_year", Desc: true},
		specification.OrderBy{Field: "amount", Desc: true},
		specification.Pagination{Limit: limit},
	)
}

type ContractRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CivicMapper
}

func NewContractRepository(db *gorm.DB) contract.ContractRepository {
	return &ContractRepositoryImpl{db: db, mapper: mapper.NewCivicMapper()}
}

func (r *ContractRepositoryImpl) find(ctx context.Context, specs ...specification.Specification) ([]*entity.Contract, error) {
	var models []*model.Contract
	if err := applySpecs(r.db.WithContext(ctx).Model(&model.Contract{}), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	contracts := make([]*entity.Contract, len(models))
	for i, m := range models {
		contracts[i] = r.mapper.ContractToEntity(m)
	}
	return contracts, nil
}

func (r *ContractRepositoryImpl) FindByCategoryTerms(ctx context.Context, terms []string, limit int) ([]*entity.Contract, error) {
	return r.find(ctx,
		specification.AnyFieldILike{Columns: []string{"category", "description", "agency"}, Terms: terms},
		specification.OrderBy{Field: "amount", Desc: true},
		specification.Pagination{Limit: limit},
	)
}

func (r *ContractRepositoryImpl) FindByVendorTerms(ctx context.Context, terms []string, limit int) ([]*entity.Contract, error) {
	return r.find(ctx,
		specification.AnyFieldILike{Columns: []string{"vendor"}, Terms: terms},
		specification.OrderBy{Field: "amount", Desc: true},
		specification.Pagination{Limit: limit},
	)
}

type LobbyingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CivicMapper
}

func NewLobbyingRepository(db *gorm.DB) contract.LobbyingRepository {
	return &LobbyingRepositoryImpl{db: db, mapper: mapper.NewCivicMapper()}
}

func (r *LobbyingRepositoryImpl) find(ctx context.Context, specs ...specification.Specification) ([]*entity.LobbyingFiling, error) {
	var models []*model.LobbyingFiling
	if err := applySpecs(r.db.WithContext(ctx).Model(&model.LobbyingFiling{}), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	filings := make([]*entity.LobbyingFiling, len(models))
	for i, m := range models {
		filings[i] = r.mapper.LobbyingFilingToEntity(m)
	}
	return filings, nil
}

func (r *LobbyingRepositoryImpl) FindBySubjectTerms(ctx context.Context, terms []string, limit int) ([]*entity.LobbyingFiling, error) {
	return r.find(ctx,
		specification.AnyFieldILike{Columns: []string{"subject"}, Terms: terms},
		specification.OrderBy{Field: "compensation", Desc: true},
		specification.Pagination{Limit: limit},
	)
}

func (r *LobbyingRepositoryImpl) FindByPartyTerms(ctx context.Context, terms []string, limit int) ([]*entity.LobbyingFiling, error) {
	return r.find(ctx,
		specification.AnyFieldILike{Columns: []string{"lobbyist", "client"}, Terms: terms},
		specification.OrderBy{Field: "compensation", Desc: true},
		specification.Pagination{Limit: limit},
	)
}
