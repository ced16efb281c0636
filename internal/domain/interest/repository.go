package interest

import "context"

type Filter struct {
	InvestorID string
	Status     Status
	Limit      int
	Offset     int
}

type Repository interface {
	Create(ctx context.Context, i *Interest) error

	GetByInterestID(ctx context.Context, interestID string) (*Interest, error)

	// Save persists i only if its stored version still equals expectedVersion, bumping i.Version.
	Save(ctx context.Context, i *Interest, expectedVersion int) error

	List(ctx context.Context, f Filter) ([]Interest, error)

	// CountByStatus counts interests per status, optionally scoped to one investor.
	CountByStatus(ctx context.Context, investorID string) (map[Status]int64, error)
}
