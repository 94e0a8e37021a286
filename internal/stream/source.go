// Package stream adapts push-style live value sequences into cancellable
// pull iterators.
package stream

import (
	"context"
	"errors"
)

// ErrClosed is returned by yield once the consuming iterator has been closed.
// Sources should stop producing and return when they see it.
var ErrClosed = errors.New("stream: closed")

// Source is a push-style sequence. Run calls yield once per value, in order,
// and returns when the sequence ends. A nil return is natural completion; any
// other error is a failure delivered to the consumer.
type Source interface {
	Run(ctx context.Context, yield func(value any) error) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, yield func(value any) error) error

func (f SourceFunc) Run(ctx context.Context, yield func(value any) error) error {
	return f(ctx, yield)
}

// FromSlice emits values in order and completes.
func FromSlice(values ...any) Source {
	return SourceFunc(func(ctx context.Context, yield func(any) error) error {
		for _, v := range values {
			if err := yield(v); err != nil {
				return err
			}
		}
		return nil
	})
}

// FromChannel emits every value received from ch and completes when ch is
// closed.
func FromChannel[T any](ch <-chan T) Source {
	return SourceFunc(func(ctx context.Context, yield func(any) error) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case v, ok := <-ch:
				if !ok {
					return nil
				}
				if err := yield(v); err != nil {
					return err
				}
			}
		}
	})
}
