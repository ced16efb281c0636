package mysql

import (
	"context"

	interestDomain "realestate-lifecycle/internal/domain/interest"

	"gorm.io/gorm"
)

type InterestRepository struct{ db *gorm.DB }

func NewInterestRepository(db *gorm.DB) *InterestRepository { return &InterestRepository{db: db} }

func (r *InterestRepository) Create(ctx context.Context, i *interestDomain.Interest) error {
	if i.Version == 0 {
		i.Version = 1
	}
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *InterestRepository) GetByInterestID(ctx context.Context, interestID string) (*interestDomain.Interest, error) {
	var out interestDomain.Interest
	res := r.db.WithContext(ctx).Where("interest_id = ?", interestID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "interest "+interestID)
	}
	return &out, nil
}

// Save is an optimistic update: the row must still carry expectedVersion.
func (r *InterestRepository) Save(ctx context.Context, i *interestDomain.Interest, expectedVersion int) error {
	i.Version = expectedVersion + 1
	res := r.db.WithContext(ctx).
		Model(i).
		Where("version = ?", expectedVersion).
		Select("*").Omit("id", "created_at").
		Updates(i)
	if res.Error != nil {
		i.Version = expectedVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		i.Version = expectedVersion
		return versionConflict("interest "+i.InterestID, expectedVersion)
	}
	return nil
}

func (r *InterestRepository) List(ctx context.Context, f interestDomain.Filter) ([]interestDomain.Interest, error) {
	q := r.db.WithContext(ctx).Model(&interestDomain.Interest{})
	if f.InvestorID != "" {
		q = q.Where("investor_id = ?", f.InvestorID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var out []interestDomain.Interest
	if err := q.Order("submitted_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *InterestRepository) CountByStatus(ctx context.Context, investorID string) (map[interestDomain.Status]int64, error) {
	type row struct {
		Status interestDomain.Status
		N      int64
	}
	q := r.db.WithContext(ctx).Model(&interestDomain.Interest{}).Select("status, COUNT(*) AS n")
	if investorID != "" {
		q = q.Where("investor_id = ?", investorID)
	}
	var rows []row
	if err := q.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[interestDomain.Status]int64, len(interestDomain.AllStatuses))
	for _, s := range interestDomain.AllStatuses {
		out[s] = 0
	}
	for _, rw := range rows {
		out[rw.Status] = rw.N
	}
	return out, nil
}
