package lifecycle_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"realestate-lifecycle/internal/adapter/repository/mysql"
	"realestate-lifecycle/internal/domain/audit"
	"realestate-lifecycle/internal/domain/clock"
	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"
	"realestate-lifecycle/internal/domain/shared"
	"realestate-lifecycle/internal/testutil/auditmock"
	"realestate-lifecycle/internal/testutil/sqlitedb"
	"realestate-lifecycle/internal/usecase/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var staff = shared.Actor{ID: "staff-1", Role: "admin"}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func ptr[T any](v T) *T { return &v }

type recordingObserver struct {
	mu        sync.Mutex
	commands  map[string][]shared.Kind
	recompute [][3]int
}

func (o *recordingObserver) ObserveCommand(command string, _ time.Time, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.commands == nil {
		o.commands = map[string][]shared.Kind{}
	}
	o.commands[command] = append(o.commands[command], shared.KindOf(err))
}

func (o *recordingObserver) ObserveRecompute(scanned, updated, conflicts int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recompute = append(o.recompute, [3]int{scanned, updated, conflicts})
}

type harness struct {
	db     *gorm.DB
	clock  *clock.Fixed
	obs    *recordingObserver
	audit  *mysql.AuditRecorder
	engine *lifecycle.Engine
}

func newHarness(t *testing.T, now time.Time, opts ...mysql.UoWOption) *harness {
	t.Helper()
	db := sqlitedb.Open(t)
	require.NoError(t, mysql.AutoMigrate(db))
	h := &harness{
		db:    db,
		clock: &clock.Fixed{T: now},
		obs:   &recordingObserver{},
		audit: mysql.NewAuditRecorder(db),
	}
	h.engine = lifecycle.NewEngine(
		mysql.NewInterestRepository(db),
		mysql.NewContractRepository(db),
		mysql.NewGormUoW(db, opts...),
		lifecycle.WithClock(h.clock),
		lifecycle.WithLogger(zaptest.NewLogger(t)),
		lifecycle.WithObserver(h.obs),
	)
	return h
}

func (h *harness) auditActions(t *testing.T, entityType, entityID string) []audit.Action {
	t.Helper()
	entries, err := h.audit.ListByEntity(context.Background(), entityType, entityID)
	require.NoError(t, err)
	out := make([]audit.Action, len(entries))
	for i, e := range entries {
		out[i] = e.Action
	}
	return out
}

// approvedInterest submits and approves an interest.
func (h *harness) approvedInterest(t *testing.T) *interest.Interest {
	t.Helper()
	ctx := context.Background()
	i, err := h.engine.SubmitInterest(ctx, staff, lifecycle.SubmitInterestInput{InvestorID: "inv-1", AssetID: "villa-7", Purpose: "rental"})
	require.NoError(t, err)
	i, err = h.engine.ReviewInterest(ctx, staff, lifecycle.ReviewInput{InterestID: i.InterestID, Decision: interest.DecisionApprove})
	require.NoError(t, err)
	return i
}

// activeContract creates and activates a complete staff-authored contract.
func (h *harness) activeContract(t *testing.T, total int64, n int, start time.Time) *contract.Contract {
	t.Helper()
	ctx := context.Background()
	c, err := h.engine.CreateContractDirect(ctx, staff, lifecycle.TermsInput{
		AssetID: "villa-7", InvestorID: "inv-1", TotalAmount: total, Duration: n, StartDate: &start,
	})
	require.NoError(t, err)
	c, err = h.engine.ActivateContract(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID})
	require.NoError(t, err)
	return c
}

func TestInterestToActiveContract(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	i := h.approvedInterest(t)
	assert.Equal(t, interest.StatusApproved, i.Status)

	res, err := h.engine.ConvertInterest(ctx, staff, lifecycle.ConvertInput{
		InterestID: i.InterestID,
		Terms:      lifecycle.TermsInput{TotalAmount: 120_000, Duration: 12, StartDate: ptr(date(2024, 1, 6))},
	})
	require.NoError(t, err)

	c := res.Contract
	assert.Equal(t, interest.StatusConverted, res.Interest.Status)
	assert.Equal(t, c.ContractID, *res.Interest.ContractID)
	assert.Equal(t, i.InterestID, *c.OriginInterestID)
	assert.Equal(t, "villa-7", c.AssetID, "asset defaults to the interest's")
	assert.Equal(t, "inv-1", c.InvestorID)
	assert.Equal(t, contract.StatusIncomplete, c.Status)
	require.Len(t, c.Installments, 12)
	for _, in := range c.Installments {
		assert.Equal(t, int64(10_000), in.Amount)
		assert.Equal(t, contract.InstallmentPending, in.Status)
	}
	assert.True(t, date(2025, 1, 6).Equal(*c.EndDate))

	c, err = h.engine.ActivateContract(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID, ExpectedVersion: c.Version})
	require.NoError(t, err)
	assert.Equal(t, contract.StatusActive, c.Status)

	stored, err := h.engine.GetContract(ctx, c.ContractID)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusActive, stored.Status)
	assert.Equal(t, c.Version, stored.Version)

	assert.Equal(t, []audit.Action{
		audit.ActionInterestSubmitted, audit.ActionInterestApproved, audit.ActionInterestConverted,
	}, h.auditActions(t, audit.EntityInterest, i.InterestID))
	assert.Equal(t, []audit.Action{
		audit.ActionInterestConverted, audit.ActionContractActivated,
	}, h.auditActions(t, audit.EntityContract, c.ContractID))
}

func TestConvertInterest_Guards(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	i := h.approvedInterest(t)
	in := lifecycle.ConvertInput{InterestID: i.InterestID, Terms: lifecycle.TermsInput{TotalAmount: 1_000, Duration: 2}}
	res, err := h.engine.ConvertInterest(ctx, staff, in)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusDraft, res.Contract.Status, "no start date yet")

	_, err = h.engine.ConvertInterest(ctx, staff, in)
	assert.True(t, errors.Is(err, shared.ErrAlreadyConverted))

	in.ExpectedVersion = 1
	_, err = h.engine.ConvertInterest(ctx, staff, in)
	assert.True(t, errors.Is(err, shared.ErrAlreadyConverted), "already converted wins over a stale version")

	all, err := h.engine.ListContracts(ctx, contract.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "retries create nothing")

	fresh, err := h.engine.SubmitInterest(ctx, staff, lifecycle.SubmitInterestInput{InvestorID: "inv-2", AssetID: "a"})
	require.NoError(t, err)
	_, err = h.engine.ConvertInterest(ctx, staff, lifecycle.ConvertInput{InterestID: fresh.InterestID})
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err), "only approved interests convert")

	_, err = h.engine.ConvertInterest(ctx, staff, lifecycle.ConvertInput{InterestID: "missing"})
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = h.engine.ConvertInterest(ctx, staff, lifecycle.ConvertInput{InterestID: i.InterestID, Terms: lifecycle.TermsInput{TotalAmount: -5}})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestContractCodeConflicts(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := h.engine.CreateContractDirect(ctx, staff, lifecycle.TermsInput{ContractCode: "CTR-X", AssetID: "a"})
	require.NoError(t, err)

	_, err = h.engine.CreateContractDirect(ctx, staff, lifecycle.TermsInput{ContractCode: "CTR-X", AssetID: "b"})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err), "got %v", err)

	i := h.approvedInterest(t)
	_, err = h.engine.ConvertInterest(ctx, staff, lifecycle.ConvertInput{
		InterestID: i.InterestID,
		Terms:      lifecycle.TermsInput{ContractCode: "CTR-X", TotalAmount: 1_000, Duration: 2},
	})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err), "got %v", err)
	assert.False(t, errors.Is(err, shared.ErrAlreadyConverted), "a taken code is not a conversion")

	still, err := h.engine.GetInterest(ctx, i.InterestID)
	require.NoError(t, err)
	assert.Equal(t, interest.StatusApproved, still.Status)
	assert.Nil(t, still.ContractID)

	res, err := h.engine.ConvertInterest(ctx, staff, lifecycle.ConvertInput{
		InterestID: i.InterestID,
		Terms:      lifecycle.TermsInput{ContractCode: "CTR-Y", TotalAmount: 1_000, Duration: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "CTR-Y", res.Contract.ContractCode)

	_, err = h.engine.CreateContractDirect(ctx, staff, lifecycle.TermsInput{ContractCode: strings.Repeat("C", 33)})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err), "code longer than the column")

	all, err := h.engine.ListContracts(ctx, contract.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, []shared.Kind{"", shared.KindValidation, shared.KindValidation}, h.obs.commands["create_contract"])
}

func TestRecomputeContract_CancelledScheduleFrozen(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	c := h.activeContract(t, 120_000, 12, date(2024, 1, 6))
	c, err := h.engine.SetAdministrativeStatus(ctx, staff, lifecycle.AdminStatusInput{ContractID: c.ContractID, Status: contract.StatusCancelled})
	require.NoError(t, err)
	version := c.Version

	h.clock.T = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	got, changed, err := h.engine.RecomputeContract(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, version, got.Version)
	assert.Equal(t, contract.StatusCancelled, got.Status)
	for _, in := range got.Installments {
		assert.Equal(t, contract.InstallmentPending, in.Status, "seq %d", in.Seq)
	}

	view, err := h.engine.GetContract(ctx, c.ContractID)
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentPending, view.Installments[0].Status)

	assert.Equal(t,
		[]audit.Action{audit.ActionContractCreated, audit.ActionContractActivated, audit.ActionContractCancelled},
		h.auditActions(t, audit.EntityContract, c.ContractID))
}

func TestReviewInterest(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	i, err := h.engine.SubmitInterest(ctx, staff, lifecycle.SubmitInterestInput{InvestorID: "inv-1", AssetID: "a"})
	require.NoError(t, err)
	assert.Equal(t, interest.StatusNew, i.Status)
	assert.Equal(t, 1, i.Version)

	i, err = h.engine.StartReview(ctx, staff, i.InterestID, i.Version)
	require.NoError(t, err)
	assert.Equal(t, interest.StatusUnderReview, i.Status)

	_, err = h.engine.ReviewInterest(ctx, staff, lifecycle.ReviewInput{InterestID: i.InterestID, Decision: interest.DecisionReject})
	assert.True(t, errors.Is(err, shared.ErrMissingReason))

	_, err = h.engine.ReviewInterest(ctx, staff, lifecycle.ReviewInput{
		InterestID: i.InterestID, Decision: interest.DecisionReject, RejectionReason: "no", ExpectedVersion: 1,
	})
	assert.True(t, errors.Is(err, shared.ErrConcurrentModification))

	i, err = h.engine.ReviewInterest(ctx, staff, lifecycle.ReviewInput{
		InterestID: i.InterestID, Decision: interest.DecisionReject, RejectionReason: "budget", ExpectedVersion: i.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, interest.StatusRejected, i.Status)

	_, err = h.engine.ReviewInterest(ctx, staff, lifecycle.ReviewInput{InterestID: i.InterestID, Decision: interest.DecisionApprove})
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err), "rejected is terminal")

	_, err = h.engine.SubmitInterest(ctx, shared.Actor{}, lifecycle.SubmitInterestInput{InvestorID: "x", AssetID: "y"})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err), "actor required")

	_, err = h.engine.SubmitInterest(ctx, staff, lifecycle.SubmitInterestInput{InvestorID: " "})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	list, err := h.engine.ListInterests(ctx, interest.Filter{Status: interest.StatusRejected})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Equal(t, []shared.Kind{shared.KindMissingReason, shared.KindConcurrentModification, "", shared.KindInvalidTransition},
		h.obs.commands["review_interest"])
}

func TestAuditFailureRollsBack(t *testing.T) {
	failing := &auditmock.Recorder{Err: errors.New("audit store down")}
	h := newHarness(t, time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC),
		mysql.WithAuditRecorder(func(*gorm.DB) audit.Recorder { return failing }))
	ctx := context.Background()

	_, err := h.engine.SubmitInterest(ctx, staff, lifecycle.SubmitInterestInput{InvestorID: "inv-1", AssetID: "a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrAuditWriteFailure))

	list, err := h.engine.ListInterests(ctx, interest.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = h.engine.CreateContractDirect(ctx, staff, lifecycle.TermsInput{AssetID: "a", TotalAmount: 100, Duration: 1})
	assert.True(t, errors.Is(err, shared.ErrAuditWriteFailure))
	contracts, err := h.engine.ListContracts(ctx, contract.Filter{})
	require.NoError(t, err)
	assert.Empty(t, contracts)
}

func TestDraftContractLifecycle(t *testing.T) {
	h := newHarness(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	c, err := h.engine.CreateContractDirect(ctx, staff, lifecycle.TermsInput{AssetID: "a", InvestorID: "inv-1", TotalAmount: 600})
	require.NoError(t, err)
	assert.Equal(t, contract.StatusDraft, c.Status)
	assert.Nil(t, c.OriginInterestID)
	assert.Empty(t, c.Installments)

	_, err = h.engine.GenerateSchedule(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	_, err = h.engine.ActivateContract(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID})
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err))

	c, err = h.engine.UpdateContractTerms(ctx, staff, lifecycle.UpdateTermsInput{
		ContractID: c.ContractID, Duration: ptr(3), StartDate: ptr(date(2024, 3, 1)), ExpectedVersion: c.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, contract.StatusIncomplete, c.Status)
	assert.Len(t, c.Installments, 3)
	assert.True(t, date(2024, 6, 1).Equal(*c.EndDate))

	_, err = h.engine.UpdateContractTerms(ctx, staff, lifecycle.UpdateTermsInput{ContractID: c.ContractID, TotalAmount: ptr(int64(900)), ExpectedVersion: 1})
	assert.True(t, errors.Is(err, shared.ErrConcurrentModification))

	c, err = h.engine.UpdateContractTerms(ctx, staff, lifecycle.UpdateTermsInput{ContractID: c.ContractID, TotalAmount: ptr(int64(900))})
	require.NoError(t, err)
	assert.Equal(t, int64(900), contract.Total(c.Installments))

	c, err = h.engine.GenerateSchedule(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID})
	require.NoError(t, err)
	assert.Len(t, c.Installments, 3)

	c, err = h.engine.ActivateContract(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID})
	require.NoError(t, err)
	assert.NotNil(t, c.ActivatedAt)

	_, err = h.engine.UpdateContractTerms(ctx, staff, lifecycle.UpdateTermsInput{ContractID: c.ContractID, Duration: ptr(6)})
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err), "activated contracts need an amendment")
	_, err = h.engine.GenerateSchedule(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID})
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err))

	assert.Equal(t, []audit.Action{
		audit.ActionContractCreated, audit.ActionTermsUpdated, audit.ActionTermsUpdated,
		audit.ActionScheduleGenerated, audit.ActionContractActivated,
	}, h.auditActions(t, audit.EntityContract, c.ContractID))
}

func TestOverdueThenPaid(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	c := h.activeContract(t, 300, 3, date(2024, 1, 1))
	assert.True(t, date(2024, 2, 1).Equal(c.Installments[0].DueDate))

	h.clock.T = time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC)
	c, changed, err := h.engine.RecomputeContract(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, contract.InstallmentOverdue, c.Installments[0].Status)
	assert.Equal(t, contract.InstallmentPending, c.Installments[1].Status)
	assert.Equal(t, contract.StatusActive, c.Status)

	_, changed, err = h.engine.RecomputeContract(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID})
	require.NoError(t, err)
	assert.False(t, changed, "nothing left to sweep")

	c, err = h.engine.RecordPayment(ctx, staff, lifecycle.PaymentInput{ContractID: c.ContractID, Seq: 1, ExpectedVersion: c.Version})
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentPaid, c.Installments[0].Status)
	require.NotNil(t, c.Installments[0].PaidAt)
	assert.True(t, h.clock.Now().Equal(*c.Installments[0].PaidAt), "paid_at defaults to now")

	_, err = h.engine.RecordPayment(ctx, staff, lifecycle.PaymentInput{ContractID: c.ContractID, Seq: 1})
	assert.True(t, errors.Is(err, shared.ErrAlreadyPaid))
	_, err = h.engine.RecordPayment(ctx, staff, lifecycle.PaymentInput{ContractID: c.ContractID, Seq: 4})
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	_, err = h.engine.RecordPayment(ctx, staff, lifecycle.PaymentInput{ContractID: c.ContractID, Seq: 0})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	paidAt := time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC)
	c, err = h.engine.RecordPayment(ctx, staff, lifecycle.PaymentInput{ContractID: c.ContractID, Seq: 2, PaidAt: paidAt})
	require.NoError(t, err)
	assert.True(t, paidAt.Equal(*c.Installments[1].PaidAt))

	stored, err := h.engine.GetContract(ctx, c.ContractID)
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentPaid, stored.Installments[0].Status)
	assert.Equal(t, contract.InstallmentPaid, stored.Installments[1].Status)
}

func TestExpiringExpiredAndAdministrative(t *testing.T) {
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	ctx := context.Background()

	// ends 2024-06-25, ten days out
	c := h.activeContract(t, 1_200, 12, date(2023, 6, 25))
	assert.Equal(t, contract.StatusExpiring, c.Status)

	_, err := h.engine.SetAdministrativeStatus(ctx, staff, lifecycle.AdminStatusInput{ContractID: c.ContractID, Status: contract.StatusArchived})
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err), "expiring cannot be archived")

	h.clock.T = time.Date(2024, 6, 26, 9, 0, 0, 0, time.UTC)
	view, err := h.engine.GetContract(ctx, c.ContractID)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusExpired, view.Status)

	c, changed, err := h.engine.RecomputeContract(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, contract.StatusExpired, c.Status)

	c, err = h.engine.SetAdministrativeStatus(ctx, staff, lifecycle.AdminStatusInput{
		ContractID: c.ContractID, Status: contract.StatusArchived, ExpectedVersion: c.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, contract.StatusArchived, c.Status)

	_, err = h.engine.SetAdministrativeStatus(ctx, staff, lifecycle.AdminStatusInput{ContractID: c.ContractID, Status: contract.StatusCancelled})
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err), "archived is terminal")
	_, err = h.engine.RecordPayment(ctx, staff, lifecycle.PaymentInput{ContractID: c.ContractID, Seq: 12})
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err))
	_, err = h.engine.AmendContract(ctx, staff, lifecycle.AmendInput{ContractID: c.ContractID, TotalAmount: 10, Duration: 1})
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err))

	h.clock.T = h.clock.T.AddDate(3, 0, 0)
	_, changed, err = h.engine.RecomputeContract(ctx, staff, lifecycle.ContractRef{ContractID: c.ContractID})
	require.NoError(t, err)
	assert.False(t, changed, "administrative status is sticky")

	draft, err := h.engine.CreateContractDirect(ctx, staff, lifecycle.TermsInput{AssetID: "a"})
	require.NoError(t, err)
	draft, err = h.engine.SetAdministrativeStatus(ctx, staff, lifecycle.AdminStatusInput{ContractID: draft.ContractID, Status: contract.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, contract.StatusCancelled, draft.Status)

	_, err = h.engine.SetAdministrativeStatus(ctx, staff, lifecycle.AdminStatusInput{ContractID: draft.ContractID, Status: contract.StatusActive})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestAmendContract(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	c := h.activeContract(t, 120_000, 12, date(2024, 1, 6))

	c, err := h.engine.RecordPayment(ctx, staff, lifecycle.PaymentInput{ContractID: c.ContractID, Seq: 1})
	require.NoError(t, err)
	paid := c.Installments[0]

	c, err = h.engine.AmendContract(ctx, staff, lifecycle.AmendInput{ContractID: c.ContractID, TotalAmount: 150_001, Duration: 12, ExpectedVersion: c.Version})
	require.NoError(t, err)
	assert.Equal(t, int64(150_001), c.TotalAmount)
	assert.Equal(t, int64(150_001), contract.Total(c.Installments))
	assert.Equal(t, paid.InstallmentID, c.Installments[0].InstallmentID)
	assert.Equal(t, contract.InstallmentPaid, c.Installments[0].Status)
	assert.Equal(t, int64(10_000), c.Installments[0].Amount)
	assert.Equal(t, contract.StatusActive, c.Status)

	c, err = h.engine.AmendContract(ctx, staff, lifecycle.AmendInput{ContractID: c.ContractID, TotalAmount: 150_001, Duration: 24})
	require.NoError(t, err)
	assert.Len(t, c.Installments, 24)
	assert.True(t, date(2026, 1, 6).Equal(*c.EndDate))

	_, err = h.engine.AmendContract(ctx, staff, lifecycle.AmendInput{ContractID: c.ContractID, TotalAmount: 5_000, Duration: 24})
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err), "below paid")
	_, err = h.engine.AmendContract(ctx, staff, lifecycle.AmendInput{ContractID: c.ContractID, TotalAmount: 0, Duration: 24})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	draft, err := h.engine.CreateContractDirect(ctx, staff, lifecycle.TermsInput{AssetID: "a", TotalAmount: 10, Duration: 1})
	require.NoError(t, err)
	_, err = h.engine.AmendContract(ctx, staff, lifecycle.AmendInput{ContractID: draft.ContractID, TotalAmount: 10, Duration: 1})
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err), "not activated")
}

func TestRecomputeAllAndDerivedListing(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	early := h.activeContract(t, 300, 3, date(2024, 1, 1))
	late := h.activeContract(t, 300, 3, date(2024, 1, 20))
	cancelled, err := h.engine.CreateContractDirect(ctx, staff, lifecycle.TermsInput{AssetID: "a"})
	require.NoError(t, err)
	_, err = h.engine.SetAdministrativeStatus(ctx, staff, lifecycle.AdminStatusInput{ContractID: cancelled.ContractID, Status: contract.StatusCancelled})
	require.NoError(t, err)

	h.clock.T = time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)

	sum, err := h.engine.RecomputeAll(ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RecomputeSummary{Scanned: 2, Updated: 1, Conflicts: 0}, *sum)
	assert.Equal(t, [][3]int{{2, 1, 0}}, h.obs.recompute)

	got, err := h.engine.GetContract(ctx, early.ContractID)
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentOverdue, got.Installments[0].Status)
	got, err = h.engine.GetContract(ctx, late.ContractID)
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentPending, got.Installments[0].Status)

	// the cache says active; the derived view says expired
	h.clock.T = time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	expired, err := h.engine.ListContracts(ctx, contract.Filter{Status: contract.StatusExpired})
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, early.ContractID, expired[0].ContractID)

	page, err := h.engine.ListContracts(ctx, contract.Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
	page, err = h.engine.ListContracts(ctx, contract.Filter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page)

	_, err = h.engine.RecomputeAll(ctx, shared.Actor{})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestStats(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	h.approvedInterest(t)
	c := h.activeContract(t, 600, 6, date(2024, 1, 1))
	_, err := h.engine.CreateContractDirect(ctx, staff, lifecycle.TermsInput{AssetID: "a", InvestorID: "inv-2"})
	require.NoError(t, err)

	h.clock.T = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err = h.engine.RecordPayment(ctx, staff, lifecycle.PaymentInput{ContractID: c.ContractID, Seq: 1})
	require.NoError(t, err)

	s, err := h.engine.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.TotalContracts)
	assert.Equal(t, int64(1), s.Contracts[contract.StatusActive])
	assert.Equal(t, int64(1), s.Contracts[contract.StatusDraft])
	assert.Equal(t, int64(1), s.Interests[interest.StatusApproved])
	assert.Equal(t, lifecycle.Bucket{Count: 1, Amount: 100}, s.Installments.Paid)
	assert.Equal(t, lifecycle.Bucket{Count: 1, Amount: 100}, s.Installments.PaidThisMonth)
	assert.Equal(t, lifecycle.Bucket{Count: 1, Amount: 100}, s.Installments.DueToday)
	assert.Equal(t, lifecycle.Bucket{Count: 5, Amount: 500}, s.Installments.Pending)
	assert.Equal(t, lifecycle.Bucket{}, s.Installments.Overdue)
	assert.Equal(t, int64(600), s.ContractValue)

	scoped, err := h.engine.Stats(ctx, "inv-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), scoped.TotalContracts)
	assert.Equal(t, int64(0), scoped.Interests[interest.StatusApproved])
}
