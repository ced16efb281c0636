package mysql

import (
	"context"
	"errors"
	"testing"

	"realestate-lifecycle/internal/domain/audit"
	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"
	"realestate-lifecycle/internal/domain/shared"
	"realestate-lifecycle/internal/domain/uow"
	"realestate-lifecycle/internal/testutil/auditmock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormUoW_CommitsAllOrNothing(t *testing.T) {
	db := openTestDB(t)
	u := NewGormUoW(db)
	ctx := context.Background()

	i := newInterest("inv-1")
	boom := errors.New("boom")
	err := u.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Interests.Create(ctx, i); err != nil {
			return err
		}
		if _, err := r.Audit.Record(ctx, &audit.Entry{ActorID: "a", Action: audit.ActionInterestSubmitted, EntityType: audit.EntityInterest, EntityID: i.InterestID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = NewInterestRepository(db).GetByInterestID(ctx, i.InterestID)
	assert.True(t, errors.Is(err, shared.ErrNotFound), "interest rolled back")
	var n int64
	require.NoError(t, db.Model(&audit.Entry{}).Count(&n).Error)
	assert.Zero(t, n, "audit rolled back")

	require.NoError(t, u.WithinTx(ctx, func(r uow.Repos) error { return r.Interests.Create(ctx, i) }))
	_, err = NewInterestRepository(db).GetByInterestID(ctx, i.InterestID)
	assert.NoError(t, err)
}

func TestGormUoW_WithinAggregateTx(t *testing.T) {
	db := openTestDB(t)
	u := NewGormUoW(db)
	ctx := context.Background()

	i := newInterest("inv-1")
	require.NoError(t, NewInterestRepository(db).Create(ctx, i))
	c := newContract(t, "inv-1", nil)
	require.NoError(t, NewContractRepository(db).Create(ctx, c))

	err := u.WithinInterestTx(ctx, i.InterestID, func(r uow.Repos, got *interest.Interest) error {
		assert.Equal(t, i.InterestID, got.InterestID)
		return nil
	})
	require.NoError(t, err)

	err = u.WithinContractTx(ctx, c.ContractID, func(r uow.Repos, got *contract.Contract) error {
		assert.Len(t, got.Installments, 12)
		return nil
	})
	require.NoError(t, err)

	called := false
	err = u.WithinContractTx(ctx, "missing", func(uow.Repos, *contract.Contract) error {
		called = true
		return nil
	})
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.False(t, called)
}

func TestGormUoW_AuditRecorderOverride(t *testing.T) {
	db := openTestDB(t)
	failing := &auditmock.Recorder{Err: errors.New("audit store down")}
	u := NewGormUoW(db, WithAuditRecorder(func(*gorm.DB) audit.Recorder { return failing }))
	ctx := context.Background()

	i := newInterest("inv-1")
	err := u.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Interests.Create(ctx, i); err != nil {
			return err
		}
		_, err := r.Audit.Record(ctx, &audit.Entry{})
		return err
	})
	require.Error(t, err)

	_, err = NewInterestRepository(db).GetByInterestID(ctx, i.InterestID)
	assert.True(t, errors.Is(err, shared.ErrNotFound), "mutation must roll back with the audit write")
}
