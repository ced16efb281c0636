package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("handler: %w", Newf(KindMissingReason, "reason required"))

	assert.True(t, errors.Is(err, ErrMissingReason))
	assert.True(t, errors.Is(err, ErrValidation), "refined kind satisfies its parent")
	assert.False(t, errors.Is(ErrValidation, ErrMissingReason), "parent does not satisfy child")
	assert.False(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(Newf(KindAlreadyConverted, "x"), ErrInvalidTransition))
}

func TestError_Message(t *testing.T) {
	cause := errors.New("disk full")
	assert.Equal(t, "write failed: disk full", Wrap(KindAuditWriteFailure, "write failed", cause).Error())
	assert.Equal(t, "not here", NotFoundf("not %s", "here").Error())
	assert.Equal(t, "AUDIT_WRITE_FAILURE: disk full", (&Error{Kind: KindAuditWriteFailure, Err: cause}).Error())
	assert.Equal(t, "NOT_FOUND", ErrNotFound.Error())
	assert.ErrorIs(t, Wrap(KindAuditWriteFailure, "write failed", cause), cause)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrap: %w", NotFoundf("x"))))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	assert.False(t, ok)

	_, ok = ActorFrom(WithActor(context.Background(), Actor{}))
	assert.False(t, ok, "empty actor is not valid")

	a, ok := ActorFrom(WithActor(context.Background(), Actor{ID: "staff-1", Role: "admin"}))
	assert.True(t, ok)
	assert.Equal(t, "admin", a.Role)
}
