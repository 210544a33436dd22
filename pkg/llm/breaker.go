package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

type BreakerConfig struct {
	Name                string
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
	OnStateChange       func(name string, from gobreaker.State, to gobreaker.State)
}

// BreakerProvider stops calling a failing model for Timeout after
// ConsecutiveFailures errors in a row. While open, calls fail fast with
// gobreaker.ErrOpenState.
type BreakerProvider struct {
	next    LLMProvider
	breaker *gobreaker.CircuitBreaker
}

var _ LLMProvider = (*BreakerProvider)(nil)

func NewBreakerProvider(next LLMProvider, config BreakerConfig) *BreakerProvider {
	if config.Name == "" {
		config.Name = "llm"
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = 1
	}
	if config.Interval == 0 {
		config.Interval = 60 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.ConsecutiveFailures == 0 {
		config.ConsecutiveFailures = 5
	}
	threshold := config.ConsecutiveFailures

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: config.OnStateChange,
		// A cancelled request says nothing about the health of the model.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerProvider{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Chat(ctx, history, options...)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (b *BreakerProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return b.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

func (b *BreakerProvider) State() gobreaker.State {
	return b.breaker.State()
}
