package transition

import (
	"context"
	"sync"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine/event"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/item"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/ledger"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/google/uuid"
)

// fakeStore is an in-memory Storer with the same concurrency semantics
// as the postgres store: version compare-and-swap on the counter set and
// a unique (batchID, batchLine, op) key on the ledger.
type fakeStore struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*item.Item
	entries []*ledger.Entry

	// conflictsToInject fails the next N applyTransition calls with
	// ErrConcurrentModification, simulating a racing writer.
	conflictsToInject int
}

func newFakeStore(items ...*item.Item) *fakeStore {
	f := &fakeStore{
		items: make(map[uuid.UUID]*item.Item, len(items)),
	}
	for _, it := range items {
		cp := *it
		f.items[it.ItemID] = &cp
	}
	return f
}

func (f *fakeStore) findItem(_ context.Context, itemID uuid.UUID) (*item.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	it, ok := f.items[itemID]
	if !ok {
		return nil, servererrors.ErrItemNotFound
	}

	cp := *it
	return &cp, nil
}

func (f *fakeStore) applyTransition(
	_ context.Context,
	it *item.Item,
	next item.Counters,
	recordedTotal int,
	entries []*ledger.Entry,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conflictsToInject > 0 {
		f.conflictsToInject--
		return servererrors.ErrConcurrentModification
	}

	stored, ok := f.items[it.ItemID]
	if !ok {
		return servererrors.ErrItemNotFound
	}

	if stored.Version != it.Version {
		return servererrors.ErrConcurrentModification
	}

	for _, entry := range entries {
		if entry.BatchID == nil || entry.BatchLine == nil {
			continue
		}
		for _, existing := range f.entries {
			if existing.BatchID != nil &&
				*existing.BatchID == *entry.BatchID &&
				existing.BatchLine != nil &&
				*existing.BatchLine == *entry.BatchLine &&
				existing.Operation == entry.Operation {
				return servererrors.ErrConcurrentModification
			}
		}
	}

	stored.Counters = next
	stored.RecordedTotal = recordedTotal
	stored.Version++
	f.entries = append(f.entries, entries...)

	return nil
}

func (f *fakeStore) findByBatchKey(
	_ context.Context,
	batchID uuid.UUID,
	batchLine int,
	op ledger.OperationType,
) (*ledger.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, entry := range f.entries {
		if entry.BatchID != nil &&
			*entry.BatchID == batchID &&
			entry.BatchLine != nil &&
			*entry.BatchLine == batchLine &&
			entry.Operation == op {
			return entry, nil
		}
	}

	return nil, nil
}

func (f *fakeStore) itemState(itemID uuid.UUID) item.Item {
	f.mu.Lock()
	defer f.mu.Unlock()

	return *f.items[itemID]
}

func (f *fakeStore) entryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.entries)
}

// fakeEngine records published events so tests can assert on the
// fire-and-forget side effects without a running event engine.
type fakeEngine struct {
	mu        sync.Mutex
	published []*event.Event
}

func (f *fakeEngine) Publish(newEvent *event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.published = append(f.published, newEvent)
	return nil
}

func (f *fakeEngine) RegisterEvents(_ ...event.EventName) {}

func (f *fakeEngine) events() []*event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*event.Event(nil), f.published...)
}
