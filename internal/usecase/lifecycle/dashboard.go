package lifecycle

import (
	"context"
	"time"

	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"
)

type Bucket struct {
	Count  int64 `json:"count"`
	Amount int64 `json:"amount"`
}

func (b *Bucket) add(amount int64) {
	b.Count++
	b.Amount += amount
}

type InstallmentStats struct {
	Pending       Bucket `json:"pending"`
	Overdue       Bucket `json:"overdue"`
	DueToday      Bucket `json:"due_today"`
	PaidThisMonth Bucket `json:"paid_this_month"`
	Paid          Bucket `json:"paid"`
}

type Stats struct {
	GeneratedAt    time.Time                 `json:"generated_at"`
	InvestorID     string                    `json:"investor_id,omitempty"`
	TotalContracts int64                     `json:"total_contracts"`
	Contracts      map[contract.Status]int64 `json:"contracts"`
	Interests      map[interest.Status]int64 `json:"interests"`
	Installments   InstallmentStats          `json:"installments"`
	ContractValue  int64                     `json:"contract_value"`
}

// Stats projects dashboard counters by re-running the sweep and the resolver over current
// data. Nothing here is persisted and no counter is maintained separately.
// Unpaid installments of archived or cancelled contracts are left out of the open buckets.
func (e *Engine) Stats(ctx context.Context, investorID string) (*Stats, error) {
	now := e.now()
	all, err := e.contracts.List(ctx, contract.Filter{InvestorID: investorID})
	if err != nil {
		return nil, err
	}
	interests, err := e.interests.CountByStatus(ctx, investorID)
	if err != nil {
		return nil, err
	}
	return Aggregate(all, interests, now, e.policy, investorID), nil
}

// Aggregate is the pure core of Stats.
func Aggregate(all []contract.Contract, interests map[interest.Status]int64, now time.Time, p contract.Policy, investorID string) *Stats {
	out := &Stats{
		GeneratedAt: now,
		InvestorID:  investorID,
		Contracts:   make(map[contract.Status]int64, len(contract.AllStatuses)),
		Interests:   make(map[interest.Status]int64, len(interest.AllStatuses)),
	}
	for _, s := range contract.AllStatuses {
		out.Contracts[s] = 0
	}
	for _, s := range interest.AllStatuses {
		out.Interests[s] = interests[s]
	}

	for _, c := range all {
		schedule, _ := contract.SweepOverdue(c.Installments, now)
		st := contract.Resolve(c, schedule, now, p)
		out.Contracts[st]++
		out.TotalContracts++
		if !st.Administrative() {
			out.ContractValue += c.TotalAmount
		}

		for _, in := range schedule {
			if in.Status == contract.InstallmentPaid {
				out.Installments.Paid.add(in.Amount)
				if in.PaidAt != nil && contract.SameMonth(*in.PaidAt, now) {
					out.Installments.PaidThisMonth.add(in.Amount)
				}
				continue
			}
			if st.Administrative() {
				continue
			}
			switch in.Status {
			case contract.InstallmentOverdue:
				out.Installments.Overdue.add(in.Amount)
			case contract.InstallmentPending:
				out.Installments.Pending.add(in.Amount)
			}
			if contract.SameDay(in.DueDate, now) {
				out.Installments.DueToday.add(in.Amount)
			}
		}
	}
	return out
}
