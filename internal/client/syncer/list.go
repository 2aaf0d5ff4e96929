// Package syncer keeps a client-side copy of a server list coherent under
// overlapping refreshes and provisional local appends.
//
// A refresh is tagged with a Ticket when it starts. Its result is applied
// only if no later-started refresh has already been applied, so a slow,
// older response can never overwrite a newer one. Server order is kept as
// received; the list is never re-sorted.
package syncer

import (
	"context"
	"sync"
)

// Keyed is a record with a stable identity.
type Keyed interface {
	Key() string
}

// Ticket identifies one refresh, in start order.
type Ticket uint64

type entry[T Keyed] struct {
	item        T
	provisional bool
}

// List is safe for concurrent use.
type List[T Keyed] struct {
	mu      sync.Mutex
	next    Ticket
	applied Ticket
	items   []entry[T]
	index   map[string]int
}

func NewList[T Keyed]() *List[T] {
	return &List[T]{index: make(map[string]int)}
}

// Begin issues the ticket for a refresh that is about to start.
func (l *List[T]) Begin() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	return l.next
}

// Apply replaces the list with records if t is newer than the last applied
// ticket. It reports whether the records were applied. Within records the
// first occurrence of a key wins.
func (l *List[T]) Apply(t Ticket, records []T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t <= l.applied {
		return false
	}
	l.applied = t

	l.items = l.items[:0:0]
	l.index = make(map[string]int, len(records))
	for _, r := range records {
		k := r.Key()
		if _, dup := l.index[k]; dup {
			continue
		}
		l.index[k] = len(l.items)
		l.items = append(l.items, entry[T]{item: r})
	}
	return true
}

// Refresh fetches and applies a new snapshot. On error the current list is
// left untouched. A result superseded by a later refresh is dropped
// silently.
func (l *List[T]) Refresh(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	t := l.Begin()
	records, err := fetch(ctx)
	if err != nil {
		return err
	}
	l.Apply(t, records)
	return nil
}

// AppendProvisional adds a locally created record at the end of the list.
// A server copy with the same key wins; an earlier provisional copy is
// replaced in place.
func (l *List[T]) AppendProvisional(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := item.Key()
	if i, ok := l.index[k]; ok {
		if l.items[i].provisional {
			l.items[i].item = item
		}
		return
	}
	l.index[k] = len(l.items)
	l.items = append(l.items, entry[T]{item: item, provisional: true})
}

// Replace swaps in a new version of an existing record, keeping its
// position. It reports false when the key is unknown.
func (l *List[T]) Replace(item T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[item.Key()]
	if !ok {
		return false
	}
	l.items[i].item = item
	return true
}

// Remove drops the record with key, keeping the order of the rest. It
// reports false when the key is unknown.
func (l *List[T]) Remove(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[key]
	if !ok {
		return false
	}
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	delete(l.index, key)
	for j := i; j < len(l.items); j++ {
		l.index[l.items[j].item.Key()] = j
	}
	return true
}

// Get looks a record up by key.
func (l *List[T]) Get(key string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return l.items[i].item, true
}

// Items returns a copy of the records in list order.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]T, len(l.items))
	for i, e := range l.items {
		out[i] = e.item
	}
	return out
}

func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
