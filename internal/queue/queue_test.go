package queue

import (
	"errors"
	"sync"
	"testing"
)

func TestPlaybackQueue_BasicOperations(t *testing.T) {
	q := NewPlaybackQueue([]string{"a", "b"})

	if size := q.Len(); size != 2 {
		t.Fatalf("Expected size 2, got %d", size)
	}

	peeked, err := q.Peek()
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if peeked.Text != "a" || peeked.Index != 0 {
		t.Errorf("Peeked wrong item: %+v", peeked)
	}

	// Peek does not remove.
	if size := q.Len(); size != 2 {
		t.Errorf("Peek changed size to %d", size)
	}

	popped, err := q.Pop()
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if popped != peeked {
		t.Errorf("Popped %+v, expected %+v", popped, peeked)
	}

	popped, _ = q.Pop()
	if popped.Text != "b" || popped.Index != 1 {
		t.Errorf("Popped wrong item: %+v", popped)
	}

	if _, err := q.Peek(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Expected ErrQueueEmpty, got %v", err)
	}
	if _, err := q.Pop(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Expected ErrQueueEmpty, got %v", err)
	}
}

func TestPlaybackQueue_Duplicates(t *testing.T) {
	q := NewPlaybackQueue([]string{"a", "a", "b"})

	var got []Item
	for q.Len() > 0 {
		item, err := q.Pop()
		if err != nil {
			t.Fatalf("Pop failed: %v", err)
		}
		got = append(got, item)
	}

	want := []Item{{0, "a"}, {1, "a"}, {2, "b"}}
	if len(got) != len(want) {
		t.Fatalf("Expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Item %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestPlaybackQueue_Clear(t *testing.T) {
	q := NewPlaybackQueue([]string{"a", "b", "c"})
	if _, err := q.Pop(); err != nil {
		t.Fatal(err)
	}

	if dropped := q.Clear(); dropped != 2 {
		t.Errorf("Expected 2 dropped, got %d", dropped)
	}
	if q.Len() != 0 {
		t.Errorf("Queue not empty after Clear")
	}
	if pending := q.Pending(); len(pending) != 0 {
		t.Errorf("Expected no pending texts, got %v", pending)
	}

	// A Pop racing with Clear finds nothing.
	if _, err := q.Pop(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Expected ErrQueueEmpty, got %v", err)
	}

	stats := q.GetStats()
	if stats.TotalEnqueued != 3 || stats.TotalDequeued != 1 || stats.TotalDropped != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestPlaybackQueue_Pending(t *testing.T) {
	q := NewPlaybackQueue([]string{"x", "y", "z"})
	_, _ = q.Pop()

	pending := q.Pending()
	if len(pending) != 2 || pending[0] != "y" || pending[1] != "z" {
		t.Errorf("Unexpected pending texts: %v", pending)
	}

	// The returned slice is a copy.
	pending[0] = "mutated"
	if head, _ := q.Peek(); head.Text != "y" {
		t.Errorf("Pending leaked internal state: head is %q", head.Text)
	}
}

func TestPlaybackQueue_ConcurrentPopAndClear(t *testing.T) {
	texts := make([]string, 100)
	for i := range texts {
		texts[i] = "text"
	}
	q := NewPlaybackQueue(texts)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		popped = make(map[int]bool)
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item, err := q.Pop()
				if err != nil {
					return
				}
				mu.Lock()
				if popped[item.Index] {
					t.Errorf("Duplicate index %d", item.Index)
				}
				popped[item.Index] = true
				mu.Unlock()
				_ = q.Pending()
			}
		}()
	}
	dropped := q.Clear()
	wg.Wait()

	stats := q.GetStats()
	if int(stats.TotalDequeued)+dropped != len(texts) {
		t.Errorf("Dequeued %d plus dropped %d does not add up to %d", stats.TotalDequeued, dropped, len(texts))
	}
	if stats.CurrentSize != 0 {
		t.Errorf("Expected empty queue, got %d items", stats.CurrentSize)
	}
}
