package contract

import "context"

type Filter struct {
	InvestorID string
	Status     Status
	Limit      int
	Offset     int
}

type Repository interface {
	// Create inserts the contract and its installments.
	Create(ctx context.Context, c *Contract) error

	// GetByContractID loads a contract by public id together with its schedule ordered by seq.
	GetByContractID(ctx context.Context, contractID string) (*Contract, error)

	// GetByContractCode loads a contract by its human-facing code.
	GetByContractCode(ctx context.Context, code string) (*Contract, error)

	// GetByOriginInterestID finds the contract converted from an interest, if any.
	GetByOriginInterestID(ctx context.Context, interestID string) (*Contract, error)

	// Save persists c only if its stored version still equals expectedVersion, bumping
	// c.Version, and replaces its installments. Must run inside a unit of work.
	Save(ctx context.Context, c *Contract, expectedVersion int) error

	// List returns contracts with their schedules.
	List(ctx context.Context, f Filter) ([]Contract, error)
}
