package lifecycle

import (
	"context"
	"strings"
	"time"

	"realestate-lifecycle/internal/domain/audit"
	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"
	"realestate-lifecycle/internal/domain/shared"
	"realestate-lifecycle/internal/domain/uow"
	"realestate-lifecycle/pkg/id"
)

func (e *Engine) SubmitInterest(ctx context.Context, actor shared.Actor, in SubmitInterestInput) (*interest.Interest, error) {
	var out *interest.Interest
	err := e.run("submit_interest", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		in.InvestorID = strings.TrimSpace(in.InvestorID)
		in.AssetID = strings.TrimSpace(in.AssetID)
		if in.InvestorID == "" || in.AssetID == "" {
			return shared.Validationf("investor_id and asset_id are required")
		}

		now := e.now()
		i := &interest.Interest{
			InterestID:  id.NewID32(),
			ReferenceNo: id.NewReference("INT", now),
			InvestorID:  in.InvestorID,
			AssetID:     in.AssetID,
			Purpose:     in.Purpose,
			AmountRange: in.AmountRange,
			Timeline:    in.Timeline,
			Status:      interest.StatusNew,
			SubmittedAt: now,
			Version:     1,
		}
		return e.uow.WithinTx(ctx, func(r uow.Repos) error {
			if err := r.Interests.Create(ctx, i); err != nil {
				return err
			}
			if err := e.record(ctx, r, actor, entryFor{
				action:     audit.ActionInterestSubmitted,
				entityType: audit.EntityInterest,
				entityID:   i.InterestID,
				after:      audit.SnapshotOf(i),
			}); err != nil {
				return err
			}
			out = i
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StartReview explicitly moves a new interest to under_review.
func (e *Engine) StartReview(ctx context.Context, actor shared.Actor, interestID string, expectedVersion int) (*interest.Interest, error) {
	var out *interest.Interest
	err := e.run("start_review", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		return e.uow.WithinInterestTx(ctx, interestID, func(r uow.Repos, i *interest.Interest) error {
			if err := checkVersion("interest "+i.InterestID, i.Version, expectedVersion); err != nil {
				return err
			}
			before := *i
			if err := i.StartReview(actor); err != nil {
				return err
			}
			if err := r.Interests.Save(ctx, i, before.Version); err != nil {
				return err
			}
			if err := e.record(ctx, r, actor, entryFor{
				action:     audit.ActionReviewStarted,
				entityType: audit.EntityInterest,
				entityID:   i.InterestID,
				before:     audit.SnapshotOf(before),
				after:      audit.SnapshotOf(i),
			}); err != nil {
				return err
			}
			out = i
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReviewInterest approves or rejects. The state check runs before the reason check so
// terminal interests always answer InvalidTransition.
func (e *Engine) ReviewInterest(ctx context.Context, actor shared.Actor, in ReviewInput) (*interest.Interest, error) {
	var out *interest.Interest
	err := e.run("review_interest", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		if in.Decision != interest.DecisionApprove && in.Decision != interest.DecisionReject {
			return shared.Validationf("action must be approve or reject, got %q", in.Decision)
		}
		return e.uow.WithinInterestTx(ctx, in.InterestID, func(r uow.Repos, i *interest.Interest) error {
			before := *i
			if err := i.Review(actor, in.Decision, in.Notes, in.RejectionReason, e.now()); err != nil {
				return err
			}
			if err := checkVersion("interest "+i.InterestID, before.Version, in.ExpectedVersion); err != nil {
				return err
			}
			if err := r.Interests.Save(ctx, i, before.Version); err != nil {
				return err
			}
			action := audit.ActionInterestApproved
			if i.Status == interest.StatusRejected {
				action = audit.ActionInterestRejected
			}
			if err := e.record(ctx, r, actor, entryFor{
				action:     action,
				entityType: audit.EntityInterest,
				entityID:   i.InterestID,
				before:     audit.SnapshotOf(before),
				after:      audit.SnapshotOf(i),
			}); err != nil {
				return err
			}
			out = i
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConvertInterest is the only path that turns interest data into a contract. The contract,
// the interest link and a single audit entry covering both commit together.
func (e *Engine) ConvertInterest(ctx context.Context, actor shared.Actor, in ConvertInput) (*ConvertResult, error) {
	var out *ConvertResult
	err := e.run("convert_interest", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		if err := validateTerms(in.Terms); err != nil {
			return err
		}
		return e.uow.WithinInterestTx(ctx, in.InterestID, func(r uow.Repos, i *interest.Interest) error {
			// retries of a successful convert must see AlreadyConverted, not a version error
			if err := i.CheckConvertible(); err != nil {
				return err
			}
			if err := checkVersion("interest "+i.InterestID, i.Version, in.ExpectedVersion); err != nil {
				return err
			}
			switch existing, err := r.Contracts.GetByOriginInterestID(ctx, i.InterestID); {
			case err == nil:
				return shared.Newf(shared.KindAlreadyConverted, "interest %s already has contract %s", i.ReferenceNo, existing.ContractID)
			case shared.KindOf(err) != shared.KindNotFound:
				return err
			}

			now := e.now()
			before := *i
			origin := i.InterestID
			t := in.Terms
			if t.AssetID == "" {
				t.AssetID = i.AssetID
			}
			t.InvestorID = i.InvestorID

			c, err := e.newContract(t, &origin, now)
			if err != nil {
				return err
			}
			if err := ensureCodeFree(ctx, r, c.ContractCode); err != nil {
				return err
			}
			if err := r.Contracts.Create(ctx, c); err != nil {
				return err
			}
			if err := i.MarkConverted(c.ContractID, now); err != nil {
				return err
			}
			if err := r.Interests.Save(ctx, i, before.Version); err != nil {
				return err
			}

			ib, ia := audit.Diff(audit.SnapshotOf(before), audit.SnapshotOf(i))
			if err := e.record(ctx, r, actor, entryFor{
				action:      audit.ActionInterestConverted,
				entityType:  audit.EntityInterest,
				entityID:    i.InterestID,
				relatedType: audit.EntityContract,
				relatedID:   c.ContractID,
				before:      audit.Snapshot{"interest": map[string]any(ib)},
				after: audit.Snapshot{
					"interest": map[string]any(ia),
					"contract": map[string]any(audit.SnapshotOf(c)),
				},
			}); err != nil {
				return err
			}
			out = &ConvertResult{Interest: i, Contract: c}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) GetInterest(ctx context.Context, interestID string) (*interest.Interest, error) {
	return e.interests.GetByInterestID(ctx, interestID)
}

func (e *Engine) ListInterests(ctx context.Context, f interest.Filter) ([]interest.Interest, error) {
	return e.interests.List(ctx, f)
}

func validateTerms(t TermsInput) error {
	return contract.Terms{TotalAmount: t.TotalAmount, Duration: t.Duration}.Check()
}

// newContract builds a contract from terms, generating its schedule when the terms are complete.
func (e *Engine) newContract(t TermsInput, origin *string, now time.Time) (*contract.Contract, error) {
	code := strings.TrimSpace(t.ContractCode)
	if code == "" {
		code = id.NewReference("CTR", now)
	}
	if len(code) > contract.MaxCodeLength {
		return nil, shared.Validationf("contract_code must be at most %d characters", contract.MaxCodeLength)
	}
	c := &contract.Contract{
		ContractID:       id.NewID32(),
		ContractCode:     code,
		OriginInterestID: origin,
		Version:          1,
	}
	c.ApplyTerms(contract.Terms{
		AssetID:     strings.TrimSpace(t.AssetID),
		InvestorID:  strings.TrimSpace(t.InvestorID),
		TotalAmount: t.TotalAmount,
		Duration:    t.Duration,
		StartDate:   t.StartDate,
	})
	if c.Terms().Complete() {
		items, err := contract.Generate(c.Terms())
		if err != nil {
			return nil, err
		}
		c.Installments = items
	}
	contract.Refresh(c, now, e.policy)
	return c, nil
}
