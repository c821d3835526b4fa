package core

import (
	"context"
	"testing"
)

// TestTaskQueue_FIFO verifies tasks come out in push order
// Given: A queue with 5 tasks pushed in order
// When: Tasks are popped
// Then: They are returned in the same order and the queue ends empty
func TestTaskQueue_FIFO(t *testing.T) {
	// Arrange
	q := NewTaskQueue()
	var got []int
	for i := 0; i < 5; i++ {
		id := i
		q.Push(func(ctx context.Context) { got = append(got, id) })
	}

	// Act
	for {
		task, ok := q.Pop()
		if !ok {
			break
		}
		task(context.Background())
	}

	// Assert
	if len(got) != 5 {
		t.Fatalf("popped %d tasks, want 5", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("position %d: got task %d", i, v)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

// TestTaskQueue_PopEmpty verifies Pop on an empty queue
func TestTaskQueue_PopEmpty(t *testing.T) {
	q := NewTaskQueue()
	if task, ok := q.Pop(); ok || task != nil {
		t.Fatalf("Pop() on empty queue = (%v, %v), want (nil, false)", task, ok)
	}
}

// TestTaskQueue_Compaction verifies the backing slice shrinks while draining
// Given: A queue grown well beyond compactMinCap
// When: Every task is popped
// Then: Order is preserved and the spare capacity is released
func TestTaskQueue_Compaction(t *testing.T) {
	q := NewTaskQueue()
	const n = 1025
	var got []int
	for i := 0; i < n; i++ {
		id := i
		q.Push(func(ctx context.Context) { got = append(got, id) })
	}

	for i := 0; i < n; i++ {
		task, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d failed", i)
		}
		task(context.Background())
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("position %d: got task %d", i, v)
		}
	}
	if c := cap(q.tasks); c >= compactMinCap {
		t.Errorf("cap after drain = %d, want < %d", c, compactMinCap)
	}
}

// TestTaskQueue_Clear verifies Clear drops tasks and reports the count
func TestTaskQueue_Clear(t *testing.T) {
	q := NewTaskQueue()
	noop := func(ctx context.Context) {}
	q.Push(noop)
	q.Push(noop)
	q.Push(noop)

	if n := q.Clear(); n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if q.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", q.Len())
	}
}
