package pending

// Result carries the outcome delivered to a waiter.
type Result[T any] struct {
	Value T
	Err   error
}

// Queue holds waiters for a single in-flight operation.
// It is not safe for concurrent use; callers guard it with their own lock.
type Queue[T any] struct {
	waiters []chan Result[T]
}

// Add appends a waiter and returns the channel it will be settled on.
func (q *Queue[T]) Add() <-chan Result[T] {
	ch := make(chan Result[T], 1)
	q.waiters = append(q.waiters, ch)
	return ch
}

// Len returns number of waiters
func (q *Queue[T]) Len() int {
	return len(q.waiters)
}

// Resolve settles every waiter with value, in the order they were added, and empties the queue.
func (q *Queue[T]) Resolve(value T) {
	q.settle(Result[T]{Value: value})
}

// Reject settles every waiter with err, in the order they were added, and empties the queue.
func (q *Queue[T]) Reject(err error) {
	q.settle(Result[T]{Err: err})
}

// Drain detaches current waiters into a new queue, leaving q empty.
func (q *Queue[T]) Drain() *Queue[T] {
	ret := &Queue[T]{waiters: q.waiters}
	q.waiters = nil
	return ret
}

func (q *Queue[T]) settle(result Result[T]) {
	waiters := q.waiters
	q.waiters = nil
	for _, ch := range waiters {
		ch <- result //buffered, never blocks
		close(ch)
	}
}

// NewQueue creates an empty queue
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}
