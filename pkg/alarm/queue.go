package alarm

import "github.com/MacroPower/kthreads/pkg/kernel"

type sleepRequest struct {
	thread   *kernel.Thread
	deadline int64
	seq      uint64
}

// sleepQueue is a min-heap of sleep requests ordered by deadline, then by
// insertion order. It implements [container/heap.Interface].
type sleepQueue []*sleepRequest

func (q sleepQueue) Len() int {
	return len(q)
}

func (q sleepQueue) Less(i, j int) bool {
	if q[i].deadline != q[j].deadline {
		return q[i].deadline < q[j].deadline
	}

	return q[i].seq < q[j].seq
}

func (q sleepQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *sleepQueue) Push(x any) {
	req, ok := x.(*sleepRequest)
	if !ok {
		panic("alarm: push of non-request")
	}

	*q = append(*q, req)
}

func (q *sleepQueue) Pop() any {
	old := *q
	n := len(old)
	req := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]

	return req
}
