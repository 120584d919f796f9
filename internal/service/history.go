package service

import "github.com/creditchek/devbot/internal/model"

// historyBuffer is a fixed-capacity deque of the most recent conversation
// pairs. It is rebuilt from storage on every request and discarded after;
// it is a view over the chat log, never a store of its own.
type historyBuffer struct {
	capacity int
	pairs    []model.HistoryPair
}

func newHistoryBuffer(capacity int) *historyBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &historyBuffer{capacity: capacity}
}

// Push appends a pair, evicting the oldest one once capacity is exceeded.
func (b *historyBuffer) Push(pair model.HistoryPair) {
	b.pairs = append(b.pairs, pair)
	if len(b.pairs) > b.capacity {
		b.pairs = b.pairs[1:]
	}
}

// Pairs returns the buffered pairs oldest-first.
func (b *historyBuffer) Pairs() []model.HistoryPair {
	return b.pairs
}

func (b *historyBuffer) Len() int {
	return len(b.pairs)
}
