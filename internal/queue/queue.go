package queue

import (
	"errors"
	"sync"
	"time"
)

// ErrQueueEmpty is returned when there is nothing left to play
var ErrQueueEmpty = errors.New("playback queue is empty")

// Item is one pending utterance and its position in the submitted list.
type Item struct {
	Index int
	Text  string
}

// Stats tracks queue activity
type Stats struct {
	TotalEnqueued int64
	TotalDequeued int64
	TotalDropped  int64
	CurrentSize   int
	LastDequeue   time.Time
}

// PlaybackQueue is a FIFO of utterances awaiting playback. It is safe for
// concurrent use; the consumer Peeks the head, plays it, then Pops it.
type PlaybackQueue struct {
	items []Item

	// Synchronization
	mu sync.Mutex

	// Metrics
	stats Stats
}

// NewPlaybackQueue creates a queue holding texts in order.
func NewPlaybackQueue(texts []string) *PlaybackQueue {
	q := &PlaybackQueue{
		items: make([]Item, 0, len(texts)),
	}
	for i, text := range texts {
		q.items = append(q.items, Item{Index: i, Text: text})
	}
	q.stats.TotalEnqueued = int64(len(texts))
	return q
}

// Peek returns the head without removing it.
func (q *PlaybackQueue) Peek() (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Item{}, ErrQueueEmpty
	}
	return q.items[0], nil
}

// Pop removes the head once its playback has completed. It fails with
// ErrQueueEmpty if the queue was cleared in the meantime.
func (q *PlaybackQueue) Pop() (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Item{}, ErrQueueEmpty
	}

	item := q.items[0]
	q.items = q.items[1:]
	q.stats.TotalDequeued++
	q.stats.LastDequeue = time.Now()
	return item, nil
}

// Clear empties the queue wholesale and returns how many items were dropped.
func (q *PlaybackQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := len(q.items)
	q.items = nil
	q.stats.TotalDropped += int64(dropped)
	return dropped
}

// Len returns the number of pending items.
func (q *PlaybackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Pending returns the texts still waiting, head first.
func (q *PlaybackQueue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	texts := make([]string, len(q.items))
	for i, item := range q.items {
		texts[i] = item.Text
	}
	return texts
}

// GetStats returns queue statistics.
func (q *PlaybackQueue) GetStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := q.stats
	stats.CurrentSize = len(q.items)
	return stats
}
