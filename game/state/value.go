package state

import (
	"context"
	"reflect"
	"sync"
)

// Value is an observable value.
// Subscribers receive the current value and then each change.
// A subscriber that falls behind only receives the latest value.
// Setting a value equal to the current value does not notify subscribers.
type Value[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[chan T]struct{}
}

// NewValue creates a Value holding the initial value.
func NewValue[T any](initial T) *Value[T] {
	v := Value[T]{
		value: initial,
		subs:  make(map[chan T]struct{}),
	}
	return &v
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set changes the value, notifying subscribers if it is different.
func (v *Value[T]) Set(x T) {
	v.Update(func(T) T {
		return x
	})
}

// Update changes the value to the result of the function on the current value.
// The function must not call other methods on the Value.
func (v *Value[T]) Update(f func(current T) T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	x := f(v.value)
	if reflect.DeepEqual(v.value, x) {
		return
	}
	v.value = x
	for ch := range v.subs {
		offer(ch, x)
	}
}

// Subscribe returns a channel that receives the current value and then changes until the context is done.
// The channel is closed after the context is done.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)
	v.mu.Lock()
	ch <- v.value
	v.subs[ch] = struct{}{}
	v.mu.Unlock()
	go func() {
		<-ctx.Done() // BLOCKING
		v.mu.Lock()
		delete(v.subs, ch)
		close(ch)
		v.mu.Unlock()
	}()
	return ch
}

// offer sends the value on the channel, replacing any value the subscriber has not read yet.
// Only called while holding the lock, so the final send never blocks.
func offer[T any](ch chan T, x T) {
	select {
	case ch <- x:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- x
}
