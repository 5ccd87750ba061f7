package services

import (
	"context"
	"log/slog"
	"sync"

	"greenstash/internal/core"
)

// Snapshot is what the presentation layer renders: the active goal list
// (ordered by the current filter) and the archived list.
type Snapshot struct {
	Active   []core.GoalWithTransactions
	Archived []core.GoalWithTransactions
}

// GoalFeed pushes a fresh Snapshot to every subscriber after each
// committed store mutation. Subscribers always see a full snapshot,
// never a delta, so a slow consumer that drops an update only misses an
// intermediate state.
type GoalFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Snapshot
}

func NewGoalFeed() *GoalFeed {
	return &GoalFeed{subs: make(map[int]chan Snapshot)}
}

// Subscribe registers an observer. The returned cancel function must be
// called when the observer goes away.
func (f *GoalFeed) Subscribe() (<-chan Snapshot, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	ch := make(chan Snapshot, 1)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if ch, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// publish delivers the snapshot without blocking. If a subscriber still
// holds an unread snapshot it is replaced by the newer one.
func (f *GoalFeed) publish(ctx context.Context, snap Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, ch := range f.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
				slog.WarnContext(ctx, "Dropped goal feed update", "subscriber", id)
			}
		}
	}
}

// SubscriberCount reports active observers, used by tests and shutdown logs.
func (f *GoalFeed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
