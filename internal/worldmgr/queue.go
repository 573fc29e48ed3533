package worldmgr

import "container/heap"

// task is one pending unit of work: mesh (or regenerate) the chunk at pos.
// Lower priority values are processed first; ties break by seq (FIFO,
// insertion order), per §4.6's determinism note.
type task struct {
	pos           chunkPos
	priority      int
	isRegenerate  bool
	seq           uint64
}

// taskQueue is a container/heap min-heap over (priority, seq), giving the
// dispatcher priority-with-FIFO-tiebreak ordering over pending chunk work.
type taskQueue struct {
	items []task
	nextSeq uint64
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	heap.Init(q)
	return q
}

func (q *taskQueue) Len() int { return len(q.items) }

func (q *taskQueue) Less(i, j int) bool {
	if q.items[i].priority != q.items[j].priority {
		return q.items[i].priority < q.items[j].priority
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *taskQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *taskQueue) Push(x any) { q.items = append(q.items, x.(task)) }

func (q *taskQueue) Pop() any {
	old := q.items
	n := len(old)
	t := old[n-1]
	q.items = old[:n-1]
	return t
}

// push enqueues a task, clamping priority to [0, 999] and stamping the next
// sequence number so equal-priority tasks stay FIFO.
func (q *taskQueue) push(pos chunkPos, priority int, isRegenerate bool) {
	if priority < 0 {
		priority = 0
	}
	if priority > 999 {
		priority = 999
	}
	heap.Push(q, task{pos: pos, priority: priority, isRegenerate: isRegenerate, seq: q.nextSeq})
	q.nextSeq++
}

// pop removes and returns the highest-priority (lowest value) task, or
// reports ok=false if the queue is empty.
func (q *taskQueue) pop() (task, bool) {
	if q.Len() == 0 {
		return task{}, false
	}
	return heap.Pop(q).(task), true
}
