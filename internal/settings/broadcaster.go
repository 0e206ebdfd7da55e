package settings

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/metrics"
)

// DefaultNotifyDelay is how long the any-change hooks wait after a change.
const DefaultNotifyDelay = 50 * time.Millisecond

// Listener is notified synchronously after each applied change.
type Listener interface {
	OnSettingsChange(ctx context.Context, kind Kind, change Change, snap Snapshot) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, kind Kind, change Change, snap Snapshot) error

// OnSettingsChange implements Listener.
func (f ListenerFunc) OnSettingsChange(ctx context.Context, kind Kind, change Change, snap Snapshot) error {
	return f(ctx, kind, change, snap)
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithNotifyDelay sets the delay before the any-change hooks run.
func WithNotifyDelay(d time.Duration) BroadcasterOption {
	return func(b *Broadcaster) {
		b.notifyDelay = d
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r *metrics.Recorder) BroadcasterOption {
	return func(b *Broadcaster) {
		b.recorder = r
	}
}

type listenerEntry struct {
	listener Listener
	id       uint64
}

type hookEntry struct {
	fn func(Snapshot)
	id uint64
}

// Broadcaster serializes settings changes through a queue and fans applied
// changes out to listeners. At most one drain runs at a time.
type Broadcaster struct {
	store    *Store
	recorder *metrics.Recorder

	queue   []ChangeRequest
	queueMu sync.Mutex

	listeners   []listenerEntry
	hooks       []hookEntry
	nextID      uint64
	listenersMu sync.RWMutex

	pending sync.WaitGroup // outstanding any-change timers

	notifyDelay time.Duration
	draining    atomic.Bool
	passes      atomic.Int64
}

// NewBroadcaster creates a broadcaster applying changes to store.
func NewBroadcaster(store *Store, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		store:       store,
		notifyDelay: DefaultNotifyDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Store returns the store changes are applied to.
func (b *Broadcaster) Store() *Store {
	return b.store
}

// RequestChange enqueues req and attempts an immediate drain. When another
// drain is in progress the request is picked up by that drain.
func (b *Broadcaster) RequestChange(ctx context.Context, req ChangeRequest) error {
	if err := b.Enqueue(req); err != nil {
		return err
	}
	b.Drain(ctx)
	return nil
}

// Enqueue queues req without draining. The next Drain applies it.
func (b *Broadcaster) Enqueue(req ChangeRequest) error {
	if req.Change == nil {
		return fmt.Errorf("%w: change request without change", common.ErrInvalidConfig)
	}
	b.enqueue(req)
	return nil
}

func (b *Broadcaster) enqueue(req ChangeRequest) {
	b.queueMu.Lock()
	b.queue = append(b.queue, req)
	depth := len(b.queue)
	b.queueMu.Unlock()
	b.recorder.SetQueueDepth(depth)

	slog.Debug("Queued settings change",
		"id", req.ID.String(),
		"kind", req.Change.Kind().String(),
		"queue_depth", depth)
}

// Drain applies every queued request in order. It returns false without
// doing anything when another drain already holds the flag. The queue is
// checked again after the flag is released so a request enqueued during the
// release does not wait for the next tick.
//
// A pass applies requests from every caller, so cancellation of ctx is
// ignored and each queued change is persisted.
func (b *Broadcaster) Drain(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)

	ran := false
	for b.Pending() > 0 {
		if !b.draining.CompareAndSwap(false, true) {
			return ran
		}
		b.drainPass(ctx)
		ran = true
	}
	return ran
}

func (b *Broadcaster) drainPass(ctx context.Context) {
	defer b.draining.Store(false)

	b.passes.Add(1)
	b.recorder.ObserveDrainPass()

	for {
		req, ok := b.pop()
		if !ok {
			return
		}
		b.process(ctx, req)
	}
}

func (b *Broadcaster) pop() (ChangeRequest, bool) {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()

	if len(b.queue) == 0 {
		return ChangeRequest{}, false
	}
	req := b.queue[0]
	b.queue[0] = ChangeRequest{}
	b.queue = b.queue[1:]
	b.recorder.SetQueueDepth(len(b.queue))
	return req, true
}

func (b *Broadcaster) process(ctx context.Context, req ChangeRequest) {
	kind := req.Change.Kind()

	snap, err := b.store.Apply(ctx, req.Change)
	if err != nil {
		b.recorder.ObservePersistFailure()
		common.LogError(err, "Failed to persist settings change", common.Fields{
			"id":   req.ID.String(),
			"kind": kind.String(),
		})
	}
	b.recorder.ObserveChangeApplied(kind.String())

	if !req.NotifyDependents {
		return
	}

	b.listenersMu.RLock()
	listeners := make([]listenerEntry, len(b.listeners))
	copy(listeners, b.listeners)
	b.listenersMu.RUnlock()

	for _, entry := range listeners {
		if err := b.notify(ctx, entry.listener, kind, req.Change, snap.Clone()); err != nil {
			b.recorder.ObserveListenerFailure()
			common.LogError(err, "Settings listener failed", common.Fields{
				"id":       req.ID.String(),
				"kind":     kind.String(),
				"listener": fmt.Sprintf("%T", entry.listener),
			})
		}
	}

	b.scheduleHooks()
}

// notify calls one listener, converting a panic into an error.
func (b *Broadcaster) notify(ctx context.Context, l Listener, kind Kind, change Change, snap Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = common.Recovered(r)
		}
	}()
	return l.OnSettingsChange(ctx, kind, change, snap)
}

func (b *Broadcaster) scheduleHooks() {
	b.listenersMu.RLock()
	if len(b.hooks) == 0 {
		b.listenersMu.RUnlock()
		return
	}
	b.listenersMu.RUnlock()

	b.pending.Add(1)
	time.AfterFunc(b.notifyDelay, func() {
		defer b.pending.Done()

		b.listenersMu.RLock()
		hooks := make([]hookEntry, len(b.hooks))
		copy(hooks, b.hooks)
		b.listenersMu.RUnlock()

		snap := b.store.Get()
		for _, h := range hooks {
			runHook(h.fn, snap.Clone())
		}
	})
}

func runHook(fn func(Snapshot), snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			common.LogError(common.Recovered(r), "Settings change hook failed", nil)
		}
	}()
	fn(snap)
}

// AddChangeListener registers l and returns a function removing it.
// Registering an equal comparable listener twice keeps a single entry.
func (b *Broadcaster) AddChangeListener(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}

	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()

	if reflect.TypeOf(l).Comparable() {
		for _, entry := range b.listeners {
			if entry.listener == l {
				return b.removeListener(entry.id)
			}
		}
	}

	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listenerEntry{listener: l, id: id})
	return b.removeListener(id)
}

func (b *Broadcaster) removeListener(id uint64) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			b.listenersMu.Lock()
			defer b.listenersMu.Unlock()
			for i, entry := range b.listeners {
				if entry.id == id {
					b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// OnAnyChange registers fn to run shortly after each notified change with
// the settings current at that time.
func (b *Broadcaster) OnAnyChange(fn func(Snapshot)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	b.listenersMu.Lock()
	b.nextID++
	id := b.nextID
	b.hooks = append(b.hooks, hookEntry{fn: fn, id: id})
	b.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.listenersMu.Lock()
			defer b.listenersMu.Unlock()
			for i, h := range b.hooks {
				if h.id == id {
					b.hooks = append(b.hooks[:i:i], b.hooks[i+1:]...)
					return
				}
			}
		})
	}
}

// ListenerCount returns the number of registered listeners.
func (b *Broadcaster) ListenerCount() int {
	b.listenersMu.RLock()
	defer b.listenersMu.RUnlock()
	return len(b.listeners)
}

// Pending returns the number of queued requests.
func (b *Broadcaster) Pending() int {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()
	return len(b.queue)
}

// Passes returns how many drain passes have run.
func (b *Broadcaster) Passes() int64 {
	return b.passes.Load()
}

// Draining reports whether a drain pass is in progress.
func (b *Broadcaster) Draining() bool {
	return b.draining.Load()
}

// WaitNotifications blocks until every scheduled any-change hook has run.
func (b *Broadcaster) WaitNotifications() {
	b.pending.Wait()
}
