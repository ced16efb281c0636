package contract

import (
	"sort"
	"time"

	"realestate-lifecycle/internal/domain/shared"
)

var (
	errNegativeAmount   = shared.Validationf("total_amount must not be negative")
	errNegativeDuration = shared.Validationf("duration must not be negative")
)

// Split divides total into n integer shares; the last share absorbs the remainder.
func Split(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	out := make([]int64, n)
	base := total / int64(n)
	for i := range out {
		out[i] = base
	}
	out[n-1] += total - base*int64(n)
	return out
}

// Generate derives a fresh pending schedule from complete terms.
func Generate(t Terms) ([]Installment, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}
	if !t.Complete() {
		return nil, shared.Validationf("contract terms incomplete: asset, investor, amount, duration and start date are required")
	}
	start := StartOfDay(*t.StartDate)
	amounts := Split(t.TotalAmount, t.Duration)
	out := make([]Installment, t.Duration)
	for k := 1; k <= t.Duration; k++ {
		out[k-1] = Installment{
			Seq:     k,
			DueDate: AddPeriods(start, k),
			Amount:  amounts[k-1],
			Status:  InstallmentPending,
		}
	}
	return out, nil
}

// Amend rebuilds the unpaid part of an activated schedule for new terms.
// Paid installments are kept verbatim; the unpaid sequence numbers share
// what is left of the new total, the highest unpaid seq taking the remainder.
func Amend(existing []Installment, t Terms) ([]Installment, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}
	if !t.Complete() {
		return nil, shared.Validationf("amended terms incomplete")
	}

	paid := map[int]Installment{}
	var paidSum int64
	for _, in := range existing {
		if in.Status != InstallmentPaid {
			continue
		}
		if in.Seq > t.Duration {
			return nil, shared.InvalidTransitionf("installment %d is paid and cannot be dropped by shortening duration to %d", in.Seq, t.Duration)
		}
		paid[in.Seq] = in
		paidSum += in.Amount
	}

	remaining := t.TotalAmount - paidSum
	if remaining < 0 {
		return nil, shared.InvalidTransitionf("new total %d is below the %d already paid", t.TotalAmount, paidSum)
	}
	open := t.Duration - len(paid)
	if open == 0 {
		if remaining != 0 {
			return nil, shared.InvalidTransitionf("every installment is paid; total cannot change to %d", t.TotalAmount)
		}
	} else if remaining < int64(open) {
		return nil, shared.Validationf("remaining amount %d cannot cover %d unpaid installments", remaining, open)
	}

	prior := map[int]Installment{}
	for _, in := range existing {
		prior[in.Seq] = in
	}

	shares := Split(remaining, open)
	start := StartOfDay(*t.StartDate)
	out := make([]Installment, 0, t.Duration)
	j := 0
	for k := 1; k <= t.Duration; k++ {
		if p, ok := paid[k]; ok {
			out = append(out, p)
			continue
		}
		in := Installment{
			Seq:     k,
			DueDate: AddPeriods(start, k),
			Amount:  shares[j],
			Status:  InstallmentPending,
		}
		// keep identity of rows that survive the amendment
		if old, ok := prior[k]; ok {
			in.ID = old.ID
			in.InstallmentID = old.InstallmentID
			in.ContractID = old.ContractID
		}
		out = append(out, in)
		j++
	}
	return out, nil
}

// MarkPaid returns a copy of s with installment seq paid at paidAt.
func MarkPaid(s []Installment, seq int, paidAt time.Time) ([]Installment, error) {
	out := Clone(s)
	for i := range out {
		if out[i].Seq != seq {
			continue
		}
		if out[i].Status == InstallmentPaid {
			return nil, shared.Newf(shared.KindAlreadyPaid, "installment %d already paid", seq)
		}
		at := paidAt.UTC()
		out[i].Status = InstallmentPaid
		out[i].PaidAt = &at
		return out, nil
	}
	return nil, shared.NotFoundf("installment %d not found on contract", seq)
}

// SweepOverdue returns a copy of s where every pending installment due on a day
// strictly before now's day is overdue, and whether anything changed.
// Due dates are calendar days in UTC: an installment due today is not overdue
// at any time of that day; it is reported as due today instead.
func SweepOverdue(s []Installment, now time.Time) ([]Installment, bool) {
	out := Clone(s)
	changed := false
	cutoff := StartOfDay(now)
	for i := range out {
		if out[i].Status == InstallmentPending && out[i].DueDate.Before(cutoff) {
			out[i].Status = InstallmentOverdue
			changed = true
		}
	}
	return out, changed
}

func Total(s []Installment) int64 {
	var sum int64
	for _, in := range s {
		sum += in.Amount
	}
	return sum
}

func Clone(s []Installment) []Installment {
	if s == nil {
		return nil
	}
	out := make([]Installment, len(s))
	for i, in := range s {
		out[i] = in
		if in.PaidAt != nil {
			p := *in.PaidAt
			out[i].PaidAt = &p
		}
	}
	return out
}

func SortBySeq(s []Installment) {
	sort.Slice(s, func(i, j int) bool { return s[i].Seq < s[j].Seq })
}

// SameDay compares calendar dates in UTC.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// SameMonth compares calendar months in UTC.
func SameMonth(a, b time.Time) bool {
	ay, am, _ := a.UTC().Date()
	by, bm, _ := b.UTC().Date()
	return ay == by && am == bm
}
