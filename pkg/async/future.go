// Package async provides a single-value asynchronous result.
//
// A [Future] is returned by every non-blocking operation in pkgrun in place
// of a completion callback. The producer runs in its own goroutine and
// resolves the future exactly once; any number of consumers may wait on it.
//
//	f := async.Go(ctx, func(ctx context.Context) (exec.Result, error) {
//	    return runner.Run(ctx, ...)
//	})
//	res, err := f.Wait(ctx)
package async

import (
	"context"
	"sync"
)

// Future holds the eventual result of an asynchronous operation.
// The zero value is not usable; create futures with [Go] or [Resolved].
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// Go runs fn in a new goroutine and returns a future for its result.
// The context is passed to fn unchanged; Go itself never cancels it.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		v, err := fn(ctx)
		f.resolve(v, err)
	}()
	return f
}

// Resolved returns a future that has already completed with v and err.
func Resolved[T any](v T, err error) *Future[T] {
	f := newFuture[T]()
	f.resolve(v, err)
	return f
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}

// Done returns a channel that is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx is done.
// Abandoning the wait does not stop the underlying operation.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result blocks until the result is available.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

// Then returns a future resolved with fn applied to f's value once f
// succeeds. Errors from f are passed through without calling fn.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out := newFuture[U]()
	go func() {
		v, err := f.Result()
		if err != nil {
			var zero U
			out.resolve(zero, err)
			return
		}
		out.resolve(fn(v))
	}()
	return out
}
