package scheduler

import (
	"testing"
)

func TestScheduler_RunsInDelayOrder(t *testing.T) {
	s := New()

	var order []string
	s.Schedule(3, func() { order = append(order, "late") })
	s.Schedule(1, func() { order = append(order, "early") })

	s.Advance(3)

	if len(order) != 2 {
		t.Fatalf("Expected 2 callbacks, got %d", len(order))
	}
	if order[0] != "early" || order[1] != "late" {
		t.Errorf("Expected [early late], got %v", order)
	}
}

func TestScheduler_SameTickRunsInSchedulingOrder(t *testing.T) {
	s := New()

	var order []int
	for i := 0; i < 5; i++ {
		n := i
		s.Schedule(2, func() { order = append(order, n) })
	}

	s.Advance(2)

	for i, n := range order {
		if n != i {
			t.Fatalf("Expected scheduling order 0..4, got %v", order)
		}
	}
}

func TestScheduler_Cancel(t *testing.T) {
	s := New()

	ran := false
	task := s.Schedule(1, func() { ran = true })
	task.Cancel()

	s.Advance(5)

	if ran {
		t.Error("Cancelled task should not run")
	}
}

func TestScheduler_CancelNilIsSafe(t *testing.T) {
	var task *Task
	task.Cancel()
}

func TestScheduler_ZeroDelayRunsNextTick(t *testing.T) {
	s := New()

	ran := false
	s.Schedule(0, func() { ran = true })

	if ran {
		t.Fatal("Task must not run before the clock advances")
	}
	s.Advance(1)
	if !ran {
		t.Error("Zero-delay task should run on the next tick")
	}
}

func TestScheduler_CallbackScheduledTaskRunsAfterCaller(t *testing.T) {
	s := New()

	var order []string
	s.Schedule(1, func() {
		order = append(order, "outer")
		s.Schedule(0, func() { order = append(order, "inner") })
		order = append(order, "outer-done")
	})

	s.Advance(1)

	if len(order) != 2 {
		t.Fatalf("Inner task must not run in the same tick, got %v", order)
	}

	s.Advance(1)

	if len(order) != 3 || order[2] != "inner" {
		t.Errorf("Expected inner task on the following tick, got %v", order)
	}
}

func TestScheduler_AdvanceRunsChainedTasks(t *testing.T) {
	s := New()

	count := 0
	var chain func()
	chain = func() {
		count++
		if count < 3 {
			s.Schedule(1, chain)
		}
	}
	s.Schedule(1, chain)

	s.Advance(10)

	if count != 3 {
		t.Errorf("Expected the chain to run 3 times, got %d", count)
	}
}

func TestScheduler_NowAdvances(t *testing.T) {
	s := New()
	if s.Now() != 0 {
		t.Fatalf("Expected tick 0, got %d", s.Now())
	}
	s.Advance(7)
	if s.Now() != 7 {
		t.Errorf("Expected tick 7, got %d", s.Now())
	}
}
