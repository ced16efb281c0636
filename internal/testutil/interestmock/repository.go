package interestmock

import (
	"context"
	"errors"

	domain "realestate-lifecycle/internal/domain/interest"
)

var _ domain.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("interestmock: method not implemented")

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to a no-op; reads default to errUnimplemented.
type Repo struct {
	CreateFn          func(ctx context.Context, i *domain.Interest) error
	GetByInterestIDFn func(ctx context.Context, interestID string) (*domain.Interest, error)
	SaveFn            func(ctx context.Context, i *domain.Interest, expectedVersion int) error
	ListFn            func(ctx context.Context, f domain.Filter) ([]domain.Interest, error)
	CountByStatusFn   func(ctx context.Context, investorID string) (map[domain.Status]int64, error)
}

func (m *Repo) Create(ctx context.Context, i *domain.Interest) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, i)
	}
	return nil
}

func (m *Repo) GetByInterestID(ctx context.Context, interestID string) (*domain.Interest, error) {
	if m.GetByInterestIDFn != nil {
		return m.GetByInterestIDFn(ctx, interestID)
	}
	return nil, errUnimplemented
}

func (m *Repo) Save(ctx context.Context, i *domain.Interest, expectedVersion int) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, i, expectedVersion)
	}
	i.Version = expectedVersion + 1
	return nil
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Interest, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, errUnimplemented
}

func (m *Repo) CountByStatus(ctx context.Context, investorID string) (map[domain.Status]int64, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx, investorID)
	}
	return map[domain.Status]int64{}, nil
}
