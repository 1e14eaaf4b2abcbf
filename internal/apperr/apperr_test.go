package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, Unknown},
		{"foreign", errors.New("boom"), Unknown},
		{"direct", New(NotFound, "bugs.get", "bug not found"), NotFound},
		{"wrapped by fmt", fmt.Errorf("load: %w", New(Network, "", "offline")), Network},
		{"wrap keeps kind", Wrap(Server, "outer", New(Validation, "inner", "bad")), Validation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorsIsSentinel(t *testing.T) {
	err := fmt.Errorf("ctx: %w", Newf(NotFound, "users.delete", "user %s not found", "u-1"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrServer))
	assert.True(t, IsNotFound(err))
}

func TestWrapUnwrapsCause(t *testing.T) {
	err := Wrap(Network, "client.do", context.DeadlineExceeded)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, IsNetwork(err))
	assert.Equal(t, "client.do: context deadline exceeded", err.Error())
	assert.Nil(t, Wrap(Network, "noop", nil))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Invalid email or password", Message(New(Unauthorized, "login", "Invalid email or password")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "validation", Message(&Error{Kind: Validation}))
}
