// scheduler/scheduler.go
package scheduler

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

// Task is a unit of delayed work. Tasks are ordered by due tick, then by
// scheduling order, so two tasks due on the same tick run in the order they
// were scheduled.
type Task struct {
	id        int64
	due       uint64
	seq       int64
	callback  func()
	cancelled atomic.Bool
	index     int
}

// Cancel marks the task so it will be skipped when its tick comes up. Safe on
// a nil task and from any goroutine.
func (t *Task) Cancel() {
	if t != nil {
		t.cancelled.Store(true)
	}
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*Task)
	task.index = n
	*q = append(*q, task)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// Scheduler runs delayed callbacks on a logical tick clock. The mutex only
// protects the queue itself; state touched by callbacks is guarded by the
// callbacks' owners, since packet handlers run on their own goroutines.
type Scheduler struct {
	queue   taskQueue
	mutex   sync.Mutex
	now     uint64
	nextID  int64
	nextSeq int64
}

func New() *Scheduler {
	s := &Scheduler{
		queue:  make(taskQueue, 0),
		nextID: 1,
	}
	heap.Init(&s.queue)
	return s
}

// Now returns the current tick.
func (s *Scheduler) Now() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.now
}

// Schedule queues callback to run delay ticks from now. A zero delay is
// clamped to one tick: a callback scheduled from within another callback never
// runs before the current callback returns.
func (s *Scheduler) Schedule(delay uint64, callback func()) *Task {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if delay == 0 {
		delay = 1
	}

	task := &Task{
		id:       s.nextID,
		due:      s.now + delay,
		seq:      s.nextSeq,
		callback: callback,
	}
	s.nextID++
	s.nextSeq++

	heap.Push(&s.queue, task)
	return task
}

// Advance moves the clock forward n ticks, running every due task in
// (due, scheduling) order. Tasks scheduled by a running callback land on a
// later tick and may still run within the same Advance call.
func (s *Scheduler) Advance(n uint64) {
	for i := uint64(0); i < n; i++ {
		s.mutex.Lock()
		s.now++
		s.mutex.Unlock()
		s.runDue()
	}
}

func (s *Scheduler) runDue() {
	for {
		s.mutex.Lock()
		if s.queue.Len() == 0 || s.queue[0].due > s.now {
			s.mutex.Unlock()
			return
		}
		task := heap.Pop(&s.queue).(*Task)
		s.mutex.Unlock()

		if !task.cancelled.Load() && task.callback != nil {
			task.callback()
		}
	}
}

// Run drives the tick clock from a real ticker until stop is closed.
func (s *Scheduler) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Advance(1)
		case <-stop:
			return
		}
	}
}
