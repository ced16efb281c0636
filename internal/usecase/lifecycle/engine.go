package lifecycle

import (
	"context"
	"time"

	"realestate-lifecycle/internal/domain/audit"
	"realestate-lifecycle/internal/domain/clock"
	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"
	"realestate-lifecycle/internal/domain/shared"
	"realestate-lifecycle/internal/domain/uow"

	"go.uber.org/zap"
)

// Observer receives one call per command and one per recompute sweep; the metrics
// package implements it.
type Observer interface {
	ObserveCommand(command string, started time.Time, err error)
	ObserveRecompute(scanned, updated, conflicts int)
}

type nopObserver struct{}

func (nopObserver) ObserveCommand(string, time.Time, error) {}

func (nopObserver) ObserveRecompute(int, int, int) {}

// Engine orchestrates every lifecycle command: validate, load, check version,
// mutate, re-derive statuses and audit, all inside one unit of work.
type Engine struct {
	interests interest.Repository
	contracts contract.Repository
	uow       uow.UnitOfWork
	clock     clock.Clock
	policy    contract.Policy
	log       *zap.Logger
	obs       Observer
}

type Option func(*Engine)

func WithClock(c clock.Clock) Option { return func(e *Engine) { e.clock = c } }

func WithPolicy(p contract.Policy) Option { return func(e *Engine) { e.policy = p } }

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l.Named("lifecycle") } }

func WithObserver(o Observer) Option { return func(e *Engine) { e.obs = o } }

// NewEngine: reads go through the repos, writes through the unit of work.
func NewEngine(interests interest.Repository, contracts contract.Repository, tx uow.UnitOfWork, opts ...Option) *Engine {
	e := &Engine{
		interests: interests,
		contracts: contracts,
		uow:       tx,
		clock:     clock.System{},
		policy:    contract.DefaultPolicy(),
		log:       zap.NewNop(),
		obs:       nopObserver{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Policy() contract.Policy { return e.policy }

func (e *Engine) now() time.Time { return e.clock.Now().UTC() }

// run wraps a command with logging and metrics.
func (e *Engine) run(name string, actor shared.Actor, fn func() error) error {
	started := time.Now()
	err := fn()
	e.obs.ObserveCommand(name, started, err)
	if err != nil {
		e.log.Info("command failed",
			zap.String("command", name),
			zap.String("actor_id", actor.ID),
			zap.String("kind", string(shared.KindOf(err))),
			zap.Error(err))
		return err
	}
	e.log.Debug("command applied",
		zap.String("command", name),
		zap.String("actor_id", actor.ID),
		zap.Duration("elapsed", time.Since(started)))
	return nil
}

func requireActor(a shared.Actor) error {
	if !a.Valid() {
		return shared.Validationf("actor identity is required")
	}
	return nil
}

func checkVersion(what string, loaded, expected int) error {
	if expected != 0 && expected != loaded {
		return shared.Newf(shared.KindConcurrentModification,
			"%s is at version %d, request expected %d; reload and retry", what, loaded, expected)
	}
	return nil
}

// entryFor describes one audit record; Before/After are raw entities, diffed on write.
type entryFor struct {
	action      audit.Action
	entityType  string
	entityID    string
	relatedType string
	relatedID   string
	before      audit.Snapshot
	after       audit.Snapshot
}

// record writes the audit entry inside the caller's transaction. Any failure aborts the command.
func (e *Engine) record(ctx context.Context, r uow.Repos, actor shared.Actor, ef entryFor) error {
	b, a := audit.Diff(ef.before, ef.after)
	_, err := r.Audit.Record(ctx, &audit.Entry{
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Action:      ef.action,
		EntityType:  ef.entityType,
		EntityID:    ef.entityID,
		RelatedType: ef.relatedType,
		RelatedID:   ef.relatedID,
		Before:      b.Encode(),
		After:       a.Encode(),
		CreatedAt:   e.now(),
	})
	if err != nil {
		return shared.Wrap(shared.KindAuditWriteFailure, "audit write failed; command rolled back", err)
	}
	return nil
}

// copyContract deep-copies c so a before-image survives mutation.
func copyContract(c *contract.Contract) contract.Contract {
	cp := *c
	cp.Installments = contract.Clone(c.Installments)
	return cp
}
