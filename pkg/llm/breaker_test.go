package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls int
	reply string
	err   error
	last  []Message
}

func (s *stubProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	s.calls++
	s.last = history
	return s.reply, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return s.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

func TestBreakerProvider_PassesThrough(t *testing.T) {
	stub := &stubProvider{reply: "replace the coil"}
	p := NewBreakerProvider(stub, BreakerConfig{})

	out, err := p.Generate(context.Background(), "misfire?")
	require.NoError(t, err)
	assert.Equal(t, "replace the coil", out)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "misfire?"}}, stub.last)
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestBreakerProvider_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubProvider{err: errors.New("upstream down")}
	p := NewBreakerProvider(stub, BreakerConfig{ConsecutiveFailures: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := p.Chat(context.Background(), nil)
		assert.EqualError(t, err, "upstream down")
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	_, err := p.Chat(context.Background(), nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, stub.calls, "open breaker must not reach the model")
}

func TestBreakerProvider_IgnoresCancellation(t *testing.T) {
	stub := &stubProvider{err: context.Canceled}
	p := NewBreakerProvider(stub, BreakerConfig{ConsecutiveFailures: 1})

	for i := 0; i < 3; i++ {
		_, err := p.Chat(context.Background(), nil)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestApplyOptions(t *testing.T) {
	got := ApplyOptions(Options{Model: "base", Temperature: 0.2}, WithModel("other"), WithMaxTokens(64))
	assert.Equal(t, Options{Model: "other", Temperature: 0.2, MaxTokens: 64}, got)
}
