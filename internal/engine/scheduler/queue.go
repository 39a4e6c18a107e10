package scheduler

import "sync"

// completion pairs a finished result with the callback that consumes it.
type completion[T any] struct {
	callback func(T)
	result   T
}

// completionQueue is appended to by workers and swapped out by Drain.
// The lock is only held for an append or a swap.
type completionQueue[T any] struct {
	mu    sync.Mutex
	items []completion[T]
}

func (q *completionQueue[T]) push(c completion[T]) {
	q.mu.Lock()
	q.items = append(q.items, c)
	q.mu.Unlock()
}

func (q *completionQueue[T]) swap() []completion[T] {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

func (q *completionQueue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// run invokes every callback in arrival order.
func run[T any](items []completion[T]) int {
	for _, c := range items {
		c.callback(c.result)
	}
	return len(items)
}
