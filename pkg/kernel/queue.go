package kernel

import "sync/atomic"

// ThreadQueue is a FIFO queue of blocked threads.
//
// ThreadQueue does no locking of its own; callers serialize mutations with
// the lock that protects the structure the queue belongs to. [ThreadQueue.Len]
// may be read without that lock.
type ThreadQueue struct {
	threads []*Thread
	n       atomic.Int64
}

// WaitForAccess appends t to the queue.
func (q *ThreadQueue) WaitForAccess(t *Thread) {
	q.threads = append(q.threads, t)
	q.n.Add(1)
}

// NextThread removes and returns the thread that has waited longest, or nil
// if the queue is empty.
func (q *ThreadQueue) NextThread() *Thread {
	if len(q.threads) == 0 {
		return nil
	}

	t := q.threads[0]
	q.threads[0] = nil
	q.threads = q.threads[1:]
	q.n.Add(-1)

	return t
}

// Peek returns the thread [ThreadQueue.NextThread] would return, without
// removing it.
func (q *ThreadQueue) Peek() *Thread {
	if len(q.threads) == 0 {
		return nil
	}

	return q.threads[0]
}

// Len returns the number of queued threads.
func (q *ThreadQueue) Len() int {
	return int(q.n.Load())
}
