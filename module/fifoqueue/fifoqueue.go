package fifoqueue

import (
	"sync"

	"github.com/ef-ds/deque"
)

// FifoQueue implements a FIFO queue with max capacity and length observer.
// Elements that are pushed to a queue at max capacity are silently dropped,
// which bounds the memory a misbehaving peer can consume. FifoQueue is
// concurrency safe.
type FifoQueue struct {
	mu             sync.RWMutex
	queue          deque.Deque
	maxCapacity    int
	lengthObserver QueueLengthObserver
}

// QueueLengthObserver is called with the new length whenever it changes.
// Implementations must be non-blocking.
type QueueLengthObserver func(int)

// ConstructorOption can be used to configure the queue.
type ConstructorOption func(*FifoQueue)

// WithLengthObserver attaches an observer for the queue length.
func WithLengthObserver(observer QueueLengthObserver) ConstructorOption {
	return func(q *FifoQueue) {
		q.lengthObserver = observer
	}
}

// NewFifoQueue creates a queue with the given maximal capacity.
func NewFifoQueue(maxCapacity int, options ...ConstructorOption) *FifoQueue {
	queue := &FifoQueue{
		maxCapacity:    maxCapacity,
		lengthObserver: func(int) {},
	}
	for _, option := range options {
		option(queue)
	}
	return queue
}

// Push appends the element to the queue. Returns false if the queue is at
// max capacity and the element was dropped.
func (q *FifoQueue) Push(element interface{}) bool {
	q.mu.Lock()
	if q.queue.Len() >= q.maxCapacity {
		q.mu.Unlock()
		return false
	}
	q.queue.PushBack(element)
	length := q.queue.Len()
	q.mu.Unlock()

	q.lengthObserver(length)
	return true
}

// Pop removes and returns the queue's head element. Returns (nil, false) if
// the queue is empty.
func (q *FifoQueue) Pop() (interface{}, bool) {
	q.mu.Lock()
	element, ok := q.queue.PopFront()
	length := q.queue.Len()
	q.mu.Unlock()

	if !ok {
		return nil, false
	}
	q.lengthObserver(length)
	return element, true
}

// Len returns the current length of the queue.
func (q *FifoQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.queue.Len()
}
