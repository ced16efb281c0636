package mysql

import (
	"context"

	"realestate-lifecycle/internal/domain/audit"
	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"
	"realestate-lifecycle/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct {
	db       *gorm.DB
	auditFor func(tx *gorm.DB) audit.Recorder
}

type UoWOption func(*GormUoW)

// WithAuditRecorder swaps the recorder bound to each transaction.
func WithAuditRecorder(fn func(tx *gorm.DB) audit.Recorder) UoWOption {
	return func(u *GormUoW) { u.auditFor = fn }
}

func NewGormUoW(db *gorm.DB, opts ...UoWOption) *GormUoW {
	u := &GormUoW{
		db:       db,
		auditFor: func(tx *gorm.DB) audit.Recorder { return NewAuditRecorder(tx) },
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *GormUoW) repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Interests: &InterestRepository{db: tx},
		Contracts: &ContractRepository{db: tx},
		Audit:     u.auditFor(tx),
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(u.repos(tx))
	})
}

func (u *GormUoW) WithinContractTx(ctx context.Context, contractID string, fn func(r uow.Repos, c *contract.Contract) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := u.repos(tx)
		c, err := r.Contracts.GetByContractID(ctx, contractID)
		if err != nil {
			return err
		}
		return fn(r, c)
	})
}

func (u *GormUoW) WithinInterestTx(ctx context.Context, interestID string, fn func(r uow.Repos, i *interest.Interest) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := u.repos(tx)
		i, err := r.Interests.GetByInterestID(ctx, interestID)
		if err != nil {
			return err
		}
		return fn(r, i)
	})
}
