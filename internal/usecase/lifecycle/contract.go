package lifecycle

import (
	"context"
	"strings"

	"realestate-lifecycle/internal/domain/audit"
	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/shared"
	"realestate-lifecycle/internal/domain/uow"

	"go.uber.org/zap"
)

// CreateContractDirect creates a staff-authored contract with no originating interest.
// Partial terms are allowed and leave the contract in draft.
func (e *Engine) CreateContractDirect(ctx context.Context, actor shared.Actor, in TermsInput) (*contract.Contract, error) {
	var out *contract.Contract
	err := e.run("create_contract", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		if err := validateTerms(in); err != nil {
			return err
		}
		c, err := e.newContract(in, nil, e.now())
		if err != nil {
			return err
		}
		return e.uow.WithinTx(ctx, func(r uow.Repos) error {
			if err := ensureCodeFree(ctx, r, c.ContractCode); err != nil {
				return err
			}
			if err := r.Contracts.Create(ctx, c); err != nil {
				return err
			}
			if err := e.record(ctx, r, actor, entryFor{
				action:     audit.ActionContractCreated,
				entityType: audit.EntityContract,
				entityID:   c.ContractID,
				after:      audit.SnapshotOf(c),
			}); err != nil {
				return err
			}
			out = c
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mutateContract is the shared skeleton of every contract command: load inside the unit of
// work, check the caller's version, apply fn, re-derive statuses, save with the storage
// version check, and audit.
func (e *Engine) mutateContract(
	ctx context.Context,
	actor shared.Actor,
	ref ContractRef,
	action audit.Action,
	fn func(c *contract.Contract) error,
) (*contract.Contract, error) {
	var out *contract.Contract
	err := e.uow.WithinContractTx(ctx, ref.ContractID, func(r uow.Repos, c *contract.Contract) error {
		if err := checkVersion("contract "+c.ContractID, c.Version, ref.ExpectedVersion); err != nil {
			return err
		}
		before := copyContract(c)
		if err := fn(c); err != nil {
			return err
		}
		contract.Refresh(c, e.now(), e.policy)
		if err := r.Contracts.Save(ctx, c, before.Version); err != nil {
			return err
		}
		if err := e.record(ctx, r, actor, entryFor{
			action:     action,
			entityType: audit.EntityContract,
			entityID:   c.ContractID,
			before:     audit.SnapshotOf(before),
			after:      audit.SnapshotOf(c),
		}); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// ensureCodeFree rejects a contract code another contract already holds.
func ensureCodeFree(ctx context.Context, r uow.Repos, code string) error {
	switch _, err := r.Contracts.GetByContractCode(ctx, code); {
	case err == nil:
		return shared.Validationf("contract_code %q is already in use", code)
	case shared.KindOf(err) != shared.KindNotFound:
		return err
	}
	return nil
}

func guardEditable(c *contract.Contract) error {
	if c.Terminal() {
		return shared.InvalidTransitionf("contract %s is %s", c.ContractCode, *c.AdminStatus)
	}
	if c.Activated() {
		return shared.InvalidTransitionf("contract %s is activated; use an amendment", c.ContractCode)
	}
	return nil
}

// UpdateContractTerms edits terms before activation. The end date follows start and
// duration, and the schedule is regenerated whenever the terms are complete.
func (e *Engine) UpdateContractTerms(ctx context.Context, actor shared.Actor, in UpdateTermsInput) (*contract.Contract, error) {
	var out *contract.Contract
	err := e.run("update_terms", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		if in.TotalAmount != nil && *in.TotalAmount < 0 {
			return shared.Validationf("total_amount must not be negative")
		}
		if in.Duration != nil && *in.Duration < 0 {
			return shared.Validationf("duration must not be negative")
		}
		c, err := e.mutateContract(ctx, actor, ContractRef{ContractID: in.ContractID, ExpectedVersion: in.ExpectedVersion},
			audit.ActionTermsUpdated,
			func(c *contract.Contract) error {
				if err := guardEditable(c); err != nil {
					return err
				}
				t := c.Terms()
				if in.AssetID != nil {
					t.AssetID = strings.TrimSpace(*in.AssetID)
				}
				if in.InvestorID != nil {
					if c.OriginInterestID != nil && strings.TrimSpace(*in.InvestorID) != c.InvestorID {
						return shared.Validationf("investor of a converted contract follows its interest")
					}
					t.InvestorID = strings.TrimSpace(*in.InvestorID)
				}
				if in.TotalAmount != nil {
					t.TotalAmount = *in.TotalAmount
				}
				if in.Duration != nil {
					t.Duration = *in.Duration
				}
				if in.StartDate != nil {
					t.StartDate = in.StartDate
				}
				c.ApplyTerms(t)
				c.Installments = nil
				if t.Complete() {
					items, err := contract.Generate(c.Terms())
					if err != nil {
						return err
					}
					c.Installments = items
				}
				return nil
			})
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateSchedule (re)builds the schedule from the current terms. Only legal before
// activation, so recorded payments are never silently discarded.
func (e *Engine) GenerateSchedule(ctx context.Context, actor shared.Actor, ref ContractRef) (*contract.Contract, error) {
	var out *contract.Contract
	err := e.run("generate_schedule", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		c, err := e.mutateContract(ctx, actor, ref, audit.ActionScheduleGenerated, func(c *contract.Contract) error {
			if err := guardEditable(c); err != nil {
				return err
			}
			items, err := contract.Generate(c.Terms())
			if err != nil {
				return err
			}
			c.Installments = items
			return nil
		})
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ActivateContract confirms the generated schedule; the contract leaves incomplete.
func (e *Engine) ActivateContract(ctx context.Context, actor shared.Actor, ref ContractRef) (*contract.Contract, error) {
	var out *contract.Contract
	err := e.run("activate_contract", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		c, err := e.mutateContract(ctx, actor, ref, audit.ActionContractActivated, func(c *contract.Contract) error {
			if err := guardEditable(c); err != nil {
				return err
			}
			if !c.Terms().Complete() {
				return shared.InvalidTransitionf("contract %s is a draft; complete its terms first", c.ContractCode)
			}
			if len(c.Installments) == 0 {
				return shared.InvalidTransitionf("contract %s has no schedule; generate it first", c.ContractCode)
			}
			now := e.now()
			c.ActivatedAt = &now
			return nil
		})
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AmendContract changes terms of an activated contract. Paid installments are preserved and
// only the unpaid remainder is regenerated.
func (e *Engine) AmendContract(ctx context.Context, actor shared.Actor, in AmendInput) (*contract.Contract, error) {
	var out *contract.Contract
	err := e.run("amend_contract", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		if in.TotalAmount <= 0 || in.Duration <= 0 {
			return shared.Validationf("amendment needs a positive total_amount and duration")
		}
		c, err := e.mutateContract(ctx, actor, ContractRef{ContractID: in.ContractID, ExpectedVersion: in.ExpectedVersion},
			audit.ActionContractAmended,
			func(c *contract.Contract) error {
				if c.Terminal() {
					return shared.InvalidTransitionf("contract %s is %s", c.ContractCode, *c.AdminStatus)
				}
				if !c.Activated() {
					return shared.InvalidTransitionf("contract %s is not activated; edit its terms instead", c.ContractCode)
				}
				t := c.Terms()
				t.TotalAmount = in.TotalAmount
				t.Duration = in.Duration
				if in.StartDate != nil {
					t.StartDate = in.StartDate
				}
				items, err := contract.Amend(c.Installments, t)
				if err != nil {
					return err
				}
				c.ApplyTerms(t)
				c.Installments = items
				return nil
			})
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordPayment marks one installment paid, late or not, and re-derives the contract status.
func (e *Engine) RecordPayment(ctx context.Context, actor shared.Actor, in PaymentInput) (*contract.Contract, error) {
	var out *contract.Contract
	err := e.run("record_payment", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		if in.Seq <= 0 {
			return shared.Validationf("installment_seq must be positive")
		}
		paidAt := in.PaidAt
		if paidAt.IsZero() {
			paidAt = e.now()
		}
		c, err := e.mutateContract(ctx, actor, ContractRef{ContractID: in.ContractID, ExpectedVersion: in.ExpectedVersion},
			audit.ActionPaymentRecorded,
			func(c *contract.Contract) error {
				if c.Terminal() {
					return shared.InvalidTransitionf("contract %s is %s", c.ContractCode, *c.AdminStatus)
				}
				if !c.Activated() {
					return shared.InvalidTransitionf("contract %s is not activated", c.ContractCode)
				}
				items, err := contract.MarkPaid(c.Installments, in.Seq, paidAt)
				if err != nil {
					return err
				}
				c.Installments = items
				return nil
			})
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetAdministrativeStatus archives (from active or expired) or cancels (from any
// non-terminal status). Both are terminal.
func (e *Engine) SetAdministrativeStatus(ctx context.Context, actor shared.Actor, in AdminStatusInput) (*contract.Contract, error) {
	var out *contract.Contract
	err := e.run("set_admin_status", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		if !in.Status.Administrative() {
			return shared.Validationf("administrative status must be archived or cancelled, got %q", in.Status)
		}
		action := audit.ActionContractArchived
		if in.Status == contract.StatusCancelled {
			action = audit.ActionContractCancelled
		}
		c, err := e.mutateContract(ctx, actor, ContractRef{ContractID: in.ContractID, ExpectedVersion: in.ExpectedVersion},
			action,
			func(c *contract.Contract) error {
				if c.Terminal() {
					return shared.InvalidTransitionf("contract %s is already %s", c.ContractCode, *c.AdminStatus)
				}
				current := contract.Resolve(*c, c.Installments, e.now(), e.policy)
				if in.Status == contract.StatusArchived && current != contract.StatusActive && current != contract.StatusExpired {
					return shared.InvalidTransitionf("contract %s is %s; only active or expired contracts can be archived", c.ContractCode, current)
				}
				st := in.Status
				c.AdminStatus = &st
				return nil
			})
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecomputeContract sweeps overdue installments and re-derives the cached status. Nothing is
// written, or audited, when the stored state is already current.
func (e *Engine) RecomputeContract(ctx context.Context, actor shared.Actor, ref ContractRef) (*contract.Contract, bool, error) {
	var (
		out     *contract.Contract
		changed bool
	)
	err := e.run("recompute_contract", actor, func() error {
		if err := requireActor(actor); err != nil {
			return err
		}
		return e.uow.WithinContractTx(ctx, ref.ContractID, func(r uow.Repos, c *contract.Contract) error {
			if err := checkVersion("contract "+c.ContractID, c.Version, ref.ExpectedVersion); err != nil {
				return err
			}
			before := copyContract(c)
			if !contract.Refresh(c, e.now(), e.policy) {
				out = c
				return nil
			}
			if err := r.Contracts.Save(ctx, c, before.Version); err != nil {
				return err
			}
			if err := e.record(ctx, r, actor, entryFor{
				action:     audit.ActionContractRecomputed,
				entityType: audit.EntityContract,
				entityID:   c.ContractID,
				before:     audit.SnapshotOf(before),
				after:      audit.SnapshotOf(c),
			}); err != nil {
				return err
			}
			out, changed = c, true
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return out, changed, nil
}

// RecomputeAll runs RecomputeContract over every non-terminal contract. It is the hook for an
// external periodic trigger; a version conflict on one contract does not stop the sweep.
func (e *Engine) RecomputeAll(ctx context.Context, actor shared.Actor) (*RecomputeSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	all, err := e.contracts.List(ctx, contract.Filter{})
	if err != nil {
		return nil, err
	}
	sum := &RecomputeSummary{}
	for _, c := range all {
		if c.Terminal() {
			continue
		}
		sum.Scanned++
		_, changed, err := e.RecomputeContract(ctx, actor, ContractRef{ContractID: c.ContractID})
		switch {
		case err == nil:
			if changed {
				sum.Updated++
			}
		case shared.KindOf(err) == shared.KindConcurrentModification:
			sum.Conflicts++
			e.log.Warn("recompute skipped contract modified concurrently", zap.String("contract_id", c.ContractID))
		default:
			e.obs.ObserveRecompute(sum.Scanned, sum.Updated, sum.Conflicts)
			return sum, err
		}
	}
	e.obs.ObserveRecompute(sum.Scanned, sum.Updated, sum.Conflicts)
	e.log.Info("recompute finished",
		zap.Int("scanned", sum.Scanned),
		zap.Int("updated", sum.Updated),
		zap.Int("conflicts", sum.Conflicts))
	return sum, nil
}

// GetContract returns the stored contract with statuses derived for now. The view is not
// persisted; use RecomputeContract to refresh the cache.
func (e *Engine) GetContract(ctx context.Context, contractID string) (*contract.Contract, error) {
	c, err := e.contracts.GetByContractID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	contract.Refresh(c, e.now(), e.policy)
	return c, nil
}

// ListContracts filters on freshly derived statuses rather than the stored cache.
func (e *Engine) ListContracts(ctx context.Context, f contract.Filter) ([]contract.Contract, error) {
	all, err := e.contracts.List(ctx, contract.Filter{InvestorID: f.InvestorID})
	if err != nil {
		return nil, err
	}
	now := e.now()
	out := make([]contract.Contract, 0, len(all))
	for i := range all {
		c := all[i]
		contract.Refresh(&c, now, e.policy)
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, c)
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []contract.Contract{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}
