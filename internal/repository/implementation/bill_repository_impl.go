package implementation

import (
	"context"
	"errors"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/mapper"
	"civic-assistant-be/internal/model"
	"civic-assistant-be/internal/repository/contract"
	"civic-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BillRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BillMapper
}

func NewBillRepository(db *gorm.DB) contract.BillRepository {
	return &BillRepositoryImpl{
		db:     db,
		mapper: mapper.NewBillMapper(),
	}
}

func (r *BillRepositoryImpl) Create(ctx context.Context, bill *entity.Bill) error {
	m := r.mapper.ToModel(bill)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*bill = *r.mapper.ToEntity(m)
	return nil
}

func (r *BillRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Bill, error) {
	var m model.Bill
	query := applySpecs(r.db.WithContext(ctx).Model(&model.Bill{}).Preload("Sponsor"), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *BillRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Bill, error) {
	var models []*model.Bill
	query := applySpecs(r.db.WithContext(ctx).Model(&model.Bill{}).Preload("Sponsor"), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *BillRepositoryImpl) FindByNumbers(ctx context.Context, session int, numbers []string, limit int) ([]*entity.Bill, error) {
	if len(numbers) == 0 {
		return []*entity.Bill{}, nil
	}
	return r.FindAll(ctx,
		specification.BillNumberIn{Numbers: numbers},
		specification.BySession{Year: session},
		specification.OrderBy{Field: "bills.session_year", Desc: true},
		specification.Pagination{Limit: limit},
	)
}

func (r *BillRepositoryImpl) SearchByKeywords(ctx context.Context, session int, keywords []string, limit int) ([]*entity.Bill, error) {
	return r.FindAll(ctx,
		specification.BillKeywordSearch{Keywords: keywords},
		specification.BySession{Year: session},
		specification.RecentFirst{},
		specification.Pagination{Limit: limit},
	)
}

func (r *BillRepositoryImpl) FindBySponsorNames(ctx context.Context, session int, names []string, limit int) ([]*entity.Bill, error) {
	return r.FindAll(ctx,
		specification.BySponsorNames{Names: names},
		specification.BySession{Year: session},
		specification.RecentFirst{},
		specification.Pagination{Limit: limit},
	)
}

func (r *BillRepositoryImpl) FindByCommitteeNames(ctx context.Context, session int, names []string, limit int) ([]*entity.Bill, error) {
	return r.FindAll(ctx,
		specification.ByCommitteeNames{Names: names},
		specification.BySession{Year: session},
		specification.RecentFirst{},
		specification.Pagination{Limit: limit},
	)
}

func (r *BillRepositoryImpl) FindRelatedByCommittee(ctx context.Context, committee string, exclude []string, limit int) ([]*entity.Bill, error) {
	return r.FindAll(ctx,
		specification.FilterBy{Field: "bills.committee", Value: committee},
		specification.ExcludeBillNumbers{Numbers: exclude},
		specification.RecentFirst{},
		specification.Pagination{Limit: limit},
	)
}

// SponsorCounts returns primary and co-sponsor totals per bill in one grouped query.
func (r *BillRepositoryImpl) SponsorCounts(ctx context.Context, billIds []uuid.UUID) (map[uuid.UUID]entity.SponsorCounts, error) {
	counts := make(map[uuid.UUID]entity.SponsorCounts, len(billIds))
	if len(billIds) == 0 {
		return counts, nil
	}

	type row struct {
		BillId     uuid.UUID
		Sponsors   int
		Cosponsors int
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Model(&model.BillSponsor{}).
		Select("bill_id, COUNT(*) FILTER (WHERE is_primary) AS sponsors, COUNT(*) FILTER (WHERE NOT is_primary) AS cosponsors").
		Where("bill_id IN ?", billIds).
		Group("bill_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.BillId] = entity.SponsorCounts{Sponsors: row.Sponsors, Cosponsors: row.Cosponsors}
	}
	return counts, nil
}
