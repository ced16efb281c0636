package lifecycle_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"realestate-lifecycle/internal/domain/audit"
	"realestate-lifecycle/internal/domain/clock"
	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"
	"realestate-lifecycle/internal/domain/shared"
	"realestate-lifecycle/internal/domain/uow"
	"realestate-lifecycle/internal/testutil/auditmock"
	"realestate-lifecycle/internal/testutil/contractmock"
	"realestate-lifecycle/internal/testutil/interestmock"
	"realestate-lifecycle/internal/testutil/uowmock"
	"realestate-lifecycle/internal/usecase/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mocked struct {
	interests *interestmock.Repo
	contracts *contractmock.Repo
	audit     *auditmock.Recorder
	obs       *recordingObserver
	engine    *lifecycle.Engine
}

func newMocked(now time.Time) *mocked {
	m := &mocked{
		interests: &interestmock.Repo{},
		contracts: &contractmock.Repo{},
		audit:     &auditmock.Recorder{},
		obs:       &recordingObserver{},
	}
	tx := uowmock.Passthrough(uow.Repos{Interests: m.interests, Contracts: m.contracts, Audit: m.audit})
	m.engine = lifecycle.NewEngine(m.interests, m.contracts, tx,
		lifecycle.WithClock(&clock.Fixed{T: now}),
		lifecycle.WithObserver(m.obs))
	return m
}

// stale is an activated contract whose first installment fell due before now.
func stale(id string) contract.Contract {
	start := date(2024, 1, 1)
	c := contract.Contract{ContractID: id, ContractCode: "CTR-" + id, Version: 3}
	c.ApplyTerms(contract.Terms{AssetID: "a", InvestorID: "inv-1", TotalAmount: 300, Duration: 3, StartDate: &start})
	c.Installments, _ = contract.Generate(c.Terms())
	c.ActivatedAt = &start
	c.Status = contract.StatusActive
	return c
}

func TestRecomputeAll_CountsConflictsAndContinues(t *testing.T) {
	m := newMocked(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	stored := map[string]contract.Contract{"c1": stale("c1"), "c2": stale("c2")}

	m.contracts.ListFn = func(context.Context, contract.Filter) ([]contract.Contract, error) {
		return []contract.Contract{stored["c1"], stored["c2"]}, nil
	}
	m.contracts.GetByContractIDFn = func(_ context.Context, id string) (*contract.Contract, error) {
		c := stored[id]
		c.Installments = contract.Clone(c.Installments)
		return &c, nil
	}
	m.contracts.SaveFn = func(_ context.Context, c *contract.Contract, expected int) error {
		if c.ContractID == "c1" {
			return shared.Newf(shared.KindConcurrentModification, "moved on")
		}
		c.Version = expected + 1
		return nil
	}

	sum, err := m.engine.RecomputeAll(context.Background(), staff)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RecomputeSummary{Scanned: 2, Updated: 1, Conflicts: 1}, *sum)
	assert.Equal(t, []audit.Action{audit.ActionContractRecomputed}, m.audit.Actions())
	assert.Equal(t, "c2", m.audit.Entries[0].EntityID)
	assert.Equal(t, [][3]int{{2, 1, 1}}, m.obs.recompute)
}

func TestRecomputeAll_StopsOnStorageFailure(t *testing.T) {
	m := newMocked(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	boom := errors.New("connection reset")
	m.contracts.ListFn = func(context.Context, contract.Filter) ([]contract.Contract, error) {
		return []contract.Contract{stale("c1"), stale("c2")}, nil
	}
	m.contracts.GetByContractIDFn = func(_ context.Context, id string) (*contract.Contract, error) {
		c := stale(id)
		return &c, nil
	}
	m.contracts.SaveFn = func(context.Context, *contract.Contract, int) error { return boom }

	sum, err := m.engine.RecomputeAll(context.Background(), staff)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, sum.Scanned)
	assert.Empty(t, m.audit.Entries)
	assert.Equal(t, [][3]int{{1, 0, 0}}, m.obs.recompute)
}

func TestConvertInterest_ExistingContractForOrigin(t *testing.T) {
	m := newMocked(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))
	m.interests.GetByInterestIDFn = func(_ context.Context, id string) (*interest.Interest, error) {
		return &interest.Interest{InterestID: id, ReferenceNo: "INT-1", Status: interest.StatusApproved, Version: 2}, nil
	}
	m.contracts.GetByOriginInterestIDFn = func(context.Context, string) (*contract.Contract, error) {
		return &contract.Contract{ContractID: "c-existing"}, nil
	}
	created := false
	m.contracts.CreateFn = func(context.Context, *contract.Contract) error {
		created = true
		return nil
	}

	_, err := m.engine.ConvertInterest(context.Background(), staff, lifecycle.ConvertInput{InterestID: "i1"})
	assert.True(t, errors.Is(err, shared.ErrAlreadyConverted))
	assert.False(t, created)
	assert.Empty(t, m.audit.Entries)
	assert.Equal(t, []shared.Kind{shared.KindAlreadyConverted}, m.obs.commands["convert_interest"])
}

func TestConvertInterest_AuditEntryCoversBothEntities(t *testing.T) {
	m := newMocked(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))
	m.interests.GetByInterestIDFn = func(_ context.Context, id string) (*interest.Interest, error) {
		return &interest.Interest{
			InterestID: id, ReferenceNo: "INT-1", InvestorID: "inv-1", AssetID: "villa-7",
			Status: interest.StatusApproved, Version: 2,
		}, nil
	}
	m.contracts.GetByOriginInterestIDFn = func(context.Context, string) (*contract.Contract, error) {
		return nil, shared.NotFoundf("no contract")
	}
	m.contracts.GetByContractCodeFn = func(context.Context, string) (*contract.Contract, error) {
		return nil, shared.NotFoundf("no contract")
	}

	actor := shared.Actor{ID: "staff-9", Role: "ops"}
	res, err := m.engine.ConvertInterest(context.Background(), actor, lifecycle.ConvertInput{
		InterestID:      "i1",
		Terms:           lifecycle.TermsInput{TotalAmount: 1_200, Duration: 12, StartDate: ptr(date(2024, 1, 6))},
		ExpectedVersion: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Interest.Version)

	require.Len(t, m.audit.Entries, 1)
	e := m.audit.Entries[0]
	assert.Equal(t, "staff-9", e.ActorID)
	assert.Equal(t, "ops", e.ActorRole)
	assert.Equal(t, audit.ActionInterestConverted, e.Action)
	assert.Equal(t, "i1", e.EntityID)
	assert.Equal(t, res.Contract.ContractID, e.RelatedID)

	var before, after map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.Before), &before))
	require.NoError(t, json.Unmarshal([]byte(e.After), &after))
	assert.Equal(t, "approved", before["interest"]["status"])
	assert.Equal(t, "converted", after["interest"]["status"])
	assert.NotContains(t, after["interest"], "investor_id", "unchanged fields are not recorded")
	assert.Equal(t, res.Contract.ContractID, after["contract"]["contract_id"])
}

func TestSubmitInterest_StorageErrorPassesThrough(t *testing.T) {
	m := newMocked(time.Now())
	boom := errors.New("disk full")
	m.interests.CreateFn = func(context.Context, *interest.Interest) error { return boom }

	_, err := m.engine.SubmitInterest(context.Background(), staff, lifecycle.SubmitInterestInput{InvestorID: "inv-1", AssetID: "a"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, shared.Kind(""), shared.KindOf(err))
	assert.Empty(t, m.audit.Entries)
}
