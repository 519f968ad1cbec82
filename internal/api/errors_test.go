package api

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"not authenticated", fmt.Errorf("list: %w", ErrNotAuthenticated), KindNotAuthenticated},
		{"unauthorized", ErrUnauthorized, KindUnauthorized},
		{"auth", &AuthError{Message: "bad"}, KindAuth},
		{"business", &BusinessError{Op: "x", Message: "dup"}, KindBusiness},
		{"timeout", &TransportError{Op: "x", Err: context.DeadlineExceeded}, KindTimeout},
		{"canceled", &TransportError{Op: "x", Err: context.Canceled}, KindCanceled},
		{"network", &TransportError{Op: "x", Err: errors.New("connection refused")}, KindTransport},
		{"status", &StatusError{Path: "/x", Code: 500}, KindTransport},
		{"other", errors.New("odd"), KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, MsgSessionExpired, Message(ErrUnauthorized))
	assert.Equal(t, MsgTimeout, Message(&TransportError{Op: "x", Err: context.DeadlineExceeded}))
	assert.Equal(t, MsgTransport, Message(&StatusError{Path: "/x", Code: 502}))
	assert.Equal(t, "Duplicate accession", Message(&BusinessError{Message: "Duplicate accession"}))
	assert.Equal(t, "delete book failed", Message(&BusinessError{Op: "delete book"}))
	assert.Equal(t, "invalid username or password", Message(&AuthError{}))
}

type fakeExpirer struct {
	current string
	calls   int
}

func (f *fakeExpirer) ExpireToken(token string) bool {
	f.calls++
	if f.current == "" || f.current != token {
		return false
	}
	f.current = ""
	return true
}

func TestGuardTripsOncePerToken(t *testing.T) {
	s := &fakeExpirer{current: "t1"}
	g := NewGuard(s, testLogger())
	var handled int
	g.OnExpired(func() { handled++ })

	assert.True(t, g.Trip("t1"))
	assert.False(t, g.Trip("t1"))
	assert.False(t, g.Trip("other"))
	assert.Equal(t, 1, handled)
	assert.Equal(t, 3, s.calls)

	var nilGuard *Guard
	assert.False(t, nilGuard.Trip("t1"))
}
