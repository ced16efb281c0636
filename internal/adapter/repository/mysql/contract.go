package mysql

import (
	"context"
	"errors"

	contractDomain "realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/shared"

	"gorm.io/gorm"
)

type ContractRepository struct{ db *gorm.DB }

func NewContractRepository(db *gorm.DB) *ContractRepository { return &ContractRepository{db: db} }

func (r *ContractRepository) Create(ctx context.Context, c *contractDomain.Contract) error {
	if c.Version == 0 {
		c.Version = 1
	}
	db := r.db.WithContext(ctx)
	if err := db.Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.duplicate(ctx, c, err)
		}
		return err
	}
	return r.insertInstallments(ctx, c)
}

// duplicate names the unique index c collided with. The driver error does not carry it,
// so the conflicting row is looked up.
func (r *ContractRepository) duplicate(ctx context.Context, c *contractDomain.Contract, err error) error {
	if c.OriginInterestID != nil {
		if existing, lookupErr := r.GetByOriginInterestID(ctx, *c.OriginInterestID); lookupErr == nil {
			return shared.Wrap(shared.KindAlreadyConverted,
				"interest "+*c.OriginInterestID+" already has contract "+existing.ContractID, err)
		}
	}
	if _, lookupErr := r.GetByContractCode(ctx, c.ContractCode); lookupErr == nil {
		return codeTaken(c.ContractCode, err)
	}
	return err
}

func (r *ContractRepository) GetByContractCode(ctx context.Context, code string) (*contractDomain.Contract, error) {
	var out contractDomain.Contract
	if err := r.db.WithContext(ctx).Where("contract_code = ?", code).First(&out).Error; err != nil {
		return nil, translate(err, "contract with code "+code)
	}
	if err := r.loadInstallments(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ContractRepository) GetByContractID(ctx context.Context, contractID string) (*contractDomain.Contract, error) {
	var out contractDomain.Contract
	if err := r.db.WithContext(ctx).Where("contract_id = ?", contractID).First(&out).Error; err != nil {
		return nil, translate(err, "contract "+contractID)
	}
	if err := r.loadInstallments(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ContractRepository) GetByOriginInterestID(ctx context.Context, interestID string) (*contractDomain.Contract, error) {
	var out contractDomain.Contract
	if err := r.db.WithContext(ctx).Where("origin_interest_id = ?", interestID).First(&out).Error; err != nil {
		return nil, translate(err, "contract for interest "+interestID)
	}
	if err := r.loadInstallments(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Save is an optimistic update of the contract row followed by a full replace of its schedule.
func (r *ContractRepository) Save(ctx context.Context, c *contractDomain.Contract, expectedVersion int) error {
	c.Version = expectedVersion + 1
	res := r.db.WithContext(ctx).
		Model(c).
		Where("version = ?", expectedVersion).
		Select("*").Omit("id", "created_at").
		Updates(c)
	if res.Error != nil {
		c.Version = expectedVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		c.Version = expectedVersion
		return versionConflict("contract "+c.ContractID, expectedVersion)
	}
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", c.ID).
		Delete(&contractDomain.Installment{}).Error; err != nil {
		return err
	}
	// rows are re-inserted with fresh surrogate keys; installment_id stays stable
	for i := range c.Installments {
		c.Installments[i].ID = 0
	}
	return r.insertInstallments(ctx, c)
}

func (r *ContractRepository) List(ctx context.Context, f contractDomain.Filter) ([]contractDomain.Contract, error) {
	q := r.db.WithContext(ctx).Model(&contractDomain.Contract{})
	if f.InvestorID != "" {
		q = q.Where("investor_id = ?", f.InvestorID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var out []contractDomain.Contract
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]uint64, len(out))
	byID := make(map[uint64]int, len(out))
	for i := range out {
		ids[i] = out[i].ID
		byID[out[i].ID] = i
	}
	var items []contractDomain.Installment
	if err := r.db.WithContext(ctx).
		Where("contract_id IN ?", ids).
		Order("contract_id ASC, seq ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	for _, in := range items {
		i := byID[in.ContractID]
		out[i].Installments = append(out[i].Installments, in)
	}
	return out, nil
}

func (r *ContractRepository) loadInstallments(ctx context.Context, c *contractDomain.Contract) error {
	var items []contractDomain.Installment
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", c.ID).
		Order("seq ASC").
		Find(&items).Error; err != nil {
		return err
	}
	c.Installments = items
	return nil
}

func (r *ContractRepository) insertInstallments(ctx context.Context, c *contractDomain.Contract) error {
	if len(c.Installments) == 0 {
		return nil
	}
	for i := range c.Installments {
		c.Installments[i].ContractID = c.ID
	}
	return r.db.WithContext(ctx).Create(&c.Installments).Error
}
