package synth

import "container/heap"

// Task is a deferred callback registered with a Scheduler.
type Task struct {
	at    Time
	seq   uint64
	fn    func(now Time)
	index int
	sched *Scheduler
}

// At returns the clock position the task is due at.
func (t *Task) At() Time {
	return t.at
}

// Pending reports whether the task is still queued.
func (t *Task) Pending() bool {
	return t != nil && t.sched != nil
}

// Cancel removes the task from its scheduler. Cancelling a task that already
// ran or was cancelled is a no-op.
func (t *Task) Cancel() {
	if t == nil || t.sched == nil || t.index < 0 {
		return
	}
	heap.Remove(&t.sched.queue, t.index)
	t.sched = nil
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }
func (q taskQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}
func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *taskQueue) Push(x any) {
	t := x.(*Task)
	t.index = len(*q)
	*q = append(*q, t)
}
func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Scheduler runs callbacks at positions on the engine clock. Tasks due at the
// same time run in the order they were scheduled. It never blocks: the owner
// calls RunDue as the clock advances.
type Scheduler struct {
	queue taskQueue
	seq   uint64
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// At schedules fn to run once the clock reaches at.
func (s *Scheduler) At(at Time, fn func(now Time)) *Task {
	s.seq++
	t := &Task{at: at, seq: s.seq, fn: fn, sched: s}
	heap.Push(&s.queue, t)
	return t
}

// Next returns the time of the earliest pending task.
func (s *Scheduler) Next() (Time, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0].at, true
}

// RunDue runs every task due at or before now, including tasks scheduled by
// callbacks during the run. It returns the number of tasks run.
func (s *Scheduler) RunDue(now Time) int {
	n := 0
	for len(s.queue) > 0 && s.queue[0].at <= now {
		t := heap.Pop(&s.queue).(*Task)
		t.sched = nil
		if t.fn != nil {
			t.fn(t.at)
		}
		n++
	}
	return n
}

// Len returns the number of pending tasks.
func (s *Scheduler) Len() int {
	return len(s.queue)
}
