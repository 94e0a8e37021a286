package stream

import (
	"context"
	"sync"

	"github.com/phf/go-queue/queue"
	"go.uber.org/atomic"
)

type itemKind int

const (
	itemValue itemKind = iota
	itemEnd
	itemFailure
)

type item struct {
	kind  itemKind
	value any
	err   error
}

// Iterator is the pull side of an adapted Source.
//
// The source is started on the first call to Next. A background goroutine
// drains it into an unbounded FIFO buffer, so a slow consumer never blocks the
// producer. Next and Close may be called from different goroutines; concurrent
// calls to Next are serialized.
type Iterator struct {
	parent context.Context
	src    Source

	pull sync.Mutex // one in-flight consumer

	mu      sync.Mutex // guards buf, started, cancel
	buf     *queue.Queue
	started bool
	cancel  context.CancelFunc

	ready  chan struct{}
	closed chan struct{}
	done   chan struct{}

	exhausted atomic.Bool
	isClosed  atomic.Bool
}

// Adapt wraps src in a pull iterator. The source runs with a context derived
// from ctx, so it inherits ctx's values and stops when ctx is cancelled.
func Adapt(ctx context.Context, src Source) *Iterator {
	return &Iterator{
		parent: ctx,
		src:    src,
		buf:    queue.New(),
		ready:  make(chan struct{}, 1),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Next blocks until the next item is available. It returns ok=false once the
// sequence has ended, failed or been closed; a failure is returned as err
// exactly once. Cancelling ctx abandons the wait without consuming anything.
func (it *Iterator) Next(ctx context.Context) (value any, ok bool, err error) {
	it.pull.Lock()
	defer it.pull.Unlock()

	if it.exhausted.Load() || it.isClosed.Load() {
		return nil, false, nil
	}
	it.start()

	for {
		if next, found := it.pop(); found {
			switch next.kind {
			case itemValue:
				return next.value, true, nil
			case itemEnd:
				it.finish()
				return nil, false, nil
			case itemFailure:
				it.finish()
				return nil, false, next.err
			}
		}
		select {
		case <-it.ready:
		case <-it.closed:
			return nil, false, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// Close stops the background drain and releases the buffer. It cancels the
// source's context and returns without waiting for the source; anything the
// source yields afterwards is dropped. Close is idempotent and does nothing
// once the iterator is exhausted.
func (it *Iterator) Close() error {
	if it.exhausted.Load() {
		return nil
	}
	if !it.isClosed.CompareAndSwap(false, true) {
		return nil
	}
	close(it.closed)

	it.mu.Lock()
	cancel := it.cancel
	it.buf = nil
	it.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// Done is closed once the source has returned. It is never closed if the
// source was not started.
func (it *Iterator) Done() <-chan struct{} { return it.done }

func (it *Iterator) start() {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.started || it.isClosed.Load() {
		return
	}
	it.started = true
	ctx, cancel := context.WithCancel(it.parent)
	it.cancel = cancel
	go it.drain(ctx)
}

func (it *Iterator) drain(ctx context.Context) {
	defer close(it.done)

	err := it.src.Run(ctx, func(v any) error {
		if it.isClosed.Load() || ctx.Err() != nil {
			return ErrClosed
		}
		it.push(item{kind: itemValue, value: v})
		return nil
	})
	if it.isClosed.Load() {
		return
	}
	if err != nil {
		it.push(item{kind: itemFailure, err: err})
		return
	}
	it.push(item{kind: itemEnd})
}

func (it *Iterator) push(i item) {
	it.mu.Lock()
	if it.buf == nil {
		it.mu.Unlock()
		return
	}
	it.buf.PushBack(i)
	it.mu.Unlock()

	select {
	case it.ready <- struct{}{}:
	default:
	}
}

func (it *Iterator) pop() (item, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.buf == nil || it.buf.Len() == 0 {
		return item{}, false
	}
	return it.buf.PopFront().(item), true
}

// finish marks natural exhaustion. The drain goroutine has already returned
// or is about to, since end and failure are always the last items pushed.
func (it *Iterator) finish() {
	it.exhausted.Store(true)
	it.mu.Lock()
	it.buf = nil
	cancel := it.cancel
	it.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
