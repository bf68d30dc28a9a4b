package docstore

import (
	"context"
	"log/slog"
	"sync"
)

// Loader reads the current content of a collection for a snapshot.
type Loader func(ctx context.Context, collection string) ([]Document, error)

// Notifier fans committed changes out to collection subscribers. Each
// subscriber runs on its own goroutine, so a slow listener never blocks a
// writer; changes arriving while a listener is busy are coalesced into the
// next snapshot.
type Notifier struct {
	load Loader

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	wg     sync.WaitGroup
}

type subscriber struct {
	collection string
	fn         Listener

	mu      sync.Mutex
	pending []Change
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewNotifier(load Loader) *Notifier {
	return &Notifier{load: load, subs: map[int]*subscriber{}}
}

// Subscribe loads the initial snapshot synchronously, so an unreadable
// collection is reported to the caller, then delivers it asynchronously.
// The subscriber is registered before the load; a change committed while
// the snapshot is read is queued and triggers a fresh snapshot.
func (n *Notifier) Subscribe(ctx context.Context, collection string, fn Listener) (func(), error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}

	s := &subscriber{
		collection: collection,
		fn:         fn,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = s
	n.mu.Unlock()

	unsubscribe := func() {
		s.stop()
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}

	docs, err := n.load(ctx, collection)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	n.wg.Add(1)
	go n.run(ctx, s, docs)
	return unsubscribe, nil
}

func (n *Notifier) run(ctx context.Context, s *subscriber, initial []Document) {
	defer n.wg.Done()
	s.fn(Snapshot{Collection: s.collection, Documents: initial})
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.wake:
		}
		changes := s.drain()
		if len(changes) == 0 {
			continue
		}
		docs, err := n.load(ctx, s.collection)
		if err != nil {
			slog.Warn("Snapshot reload failed", "collection", s.collection, "error", err)
			continue
		}
		select {
		case <-s.done:
			return
		default:
		}
		s.fn(Snapshot{Collection: s.collection, Documents: docs, Changes: changes})
	}
}

// Publish queues changes for every subscriber of the affected collections.
// It never blocks on listeners.
func (n *Notifier) Publish(changes []Change) {
	if len(changes) == 0 {
		return
	}
	byCollection := map[string][]Change{}
	for _, c := range changes {
		coll, _, err := SplitPath(c.Path)
		if err != nil {
			continue
		}
		byCollection[coll] = append(byCollection[coll], c)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.subs {
		if cs, ok := byCollection[s.collection]; ok {
			s.enqueue(cs)
		}
	}
}

// Close stops all subscribers and waits for their goroutines to exit.
func (n *Notifier) Close() {
	n.mu.Lock()
	for id, s := range n.subs {
		s.stop()
		delete(n.subs, id)
	}
	n.mu.Unlock()
	n.wg.Wait()
}

func (s *subscriber) enqueue(cs []Change) {
	s.mu.Lock()
	s.pending = append(s.pending, cs...)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) drain() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}
