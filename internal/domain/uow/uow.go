package uow

import (
	"context"

	"realestate-lifecycle/internal/domain/audit"
	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"
)

// Repos are bound to one transaction; the audit recorder writes in the same transaction.
type Repos struct {
	Interests interest.Repository
	Contracts contract.Repository
	Audit     audit.Recorder
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: load the contract first, then pass it in
	WithinContractTx(ctx context.Context, contractID string, fn func(r Repos, c *contract.Contract) error) error
	// convenience: load the interest first, then pass it in
	WithinInterestTx(ctx context.Context, interestID string, fn func(r Repos, i *interest.Interest) error) error
}
