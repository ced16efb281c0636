package contractmock

import (
	"context"
	"errors"

	domain "realestate-lifecycle/internal/domain/contract"
)

var _ domain.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("contractmock: method not implemented")

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to a no-op; reads default to errUnimplemented.
type Repo struct {
	CreateFn                func(ctx context.Context, c *domain.Contract) error
	GetByContractIDFn       func(ctx context.Context, contractID string) (*domain.Contract, error)
	GetByContractCodeFn     func(ctx context.Context, code string) (*domain.Contract, error)
	GetByOriginInterestIDFn func(ctx context.Context, interestID string) (*domain.Contract, error)
	SaveFn                  func(ctx context.Context, c *domain.Contract, expectedVersion int) error
	ListFn                  func(ctx context.Context, f domain.Filter) ([]domain.Contract, error)
}

func (m *Repo) Create(ctx context.Context, c *domain.Contract) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetByContractID(ctx context.Context, contractID string) (*domain.Contract, error) {
	if m.GetByContractIDFn != nil {
		return m.GetByContractIDFn(ctx, contractID)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByContractCode(ctx context.Context, code string) (*domain.Contract, error) {
	if m.GetByContractCodeFn != nil {
		return m.GetByContractCodeFn(ctx, code)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByOriginInterestID(ctx context.Context, interestID string) (*domain.Contract, error) {
	if m.GetByOriginInterestIDFn != nil {
		return m.GetByOriginInterestIDFn(ctx, interestID)
	}
	return nil, errUnimplemented
}

func (m *Repo) Save(ctx context.Context, c *domain.Contract, expectedVersion int) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, c, expectedVersion)
	}
	c.Version = expectedVersion + 1
	return nil
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Contract, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, errUnimplemented
}
