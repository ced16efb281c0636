package uowmock

import (
	"context"
	"errors"

	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"
	"realestate-lifecycle/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn         func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinContractTxFn func(ctx context.Context, contractID string, fn func(r uow.Repos, c *contract.Contract) error) error
	WithinInterestTxFn func(ctx context.Context, interestID string, fn func(r uow.Repos, i *interest.Interest) error) error
}

func New() *UoW { return &UoW{} }

// Passthrough runs every body directly against repos with no transaction, loading the
// aggregate through the repos first. Rollback is not simulated.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinContractTxFn: func(ctx context.Context, id string, fn func(uow.Repos, *contract.Contract) error) error {
			c, err := repos.Contracts.GetByContractID(ctx, id)
			if err != nil {
				return err
			}
			return fn(repos, c)
		},
		WithinInterestTxFn: func(ctx context.Context, id string, fn func(uow.Repos, *interest.Interest) error) error {
			i, err := repos.Interests.GetByInterestID(ctx, id)
			if err != nil {
				return err
			}
			return fn(repos, i)
		},
	}
}

func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinContractTx(fn func(context.Context, string, func(uow.Repos, *contract.Contract) error) error) *UoW {
	m.WithinContractTxFn = fn
	return m
}
func (m *UoW) WithWithinInterestTx(fn func(context.Context, string, func(uow.Repos, *interest.Interest) error) error) *UoW {
	m.WithinInterestTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinContractTx(ctx context.Context, contractID string, fn func(r uow.Repos, c *contract.Contract) error) error {
	if m.WithinContractTxFn != nil {
		return m.WithinContractTxFn(ctx, contractID, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinInterestTx(ctx context.Context, interestID string, fn func(r uow.Repos, i *interest.Interest) error) error {
	if m.WithinInterestTxFn != nil {
		return m.WithinInterestTxFn(ctx, interestID, fn)
	}
	return errUnimplemented
}
