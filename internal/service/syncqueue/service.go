package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/remote"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
)

// Replayer re-applies one queued write to the remote store.
type Replayer func(ctx context.Context, payload json.RawMessage) error

type Config struct {
	// DrainDelay is the wait between an enqueue and the drain it schedules.
	DrainDelay time.Duration
	// RestoreDelay is the wait before draining entries restored at start.
	RestoreDelay time.Duration
}

// Queue holds remote writes that failed and replays them once the remote
// store answers a probe. Entries are replayed in enqueue order; a failed
// replay stays queued for the next drain.
type Queue struct {
	store     syncqueue.Store
	prober    remote.Prober
	replayers map[syncqueue.Operation]Replayer
	cfg       Config
	now       func() time.Time

	mu        sync.Mutex
	entries   []syncqueue.Entry
	lastStamp int64
	inFlight  bool
	timer     *time.Timer
	baseCtx   context.Context
}

// NewQueue restores persisted entries from store.
func NewQueue(ctx context.Context, store syncqueue.Store, prober remote.Prober, replayers map[syncqueue.Operation]Replayer, cfg Config) (*Queue, error) {
	entries, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore sync queue: %w", err)
	}

	q := &Queue{
		store:     store,
		prober:    prober,
		replayers: replayers,
		cfg:       cfg,
		now:       time.Now,
		entries:   entries,
		baseCtx:   context.Background(),
	}
	for _, e := range entries {
		if e.EnqueuedAt > q.lastStamp {
			q.lastStamp = e.EnqueuedAt
		}
	}
	if len(entries) > 0 {
		slog.Info("sync queue restored", "entries", len(entries))
	}
	return q, nil
}

// Start schedules a drain of restored entries. Timer-driven drains run
// with ctx until Stop.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.baseCtx = ctx
	if len(q.entries) > 0 {
		q.scheduleLocked(q.cfg.RestoreDelay)
	}
}

// Stop cancels a pending timer-driven drain.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// Enqueue implements syncqueue.Enqueuer.
func (q *Queue) Enqueue(ctx context.Context, op syncqueue.Operation, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", op, err)
	}

	var key string
	if k, ok := payload.(syncqueue.Keyed); ok {
		key = k.SyncKey()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	stamp := q.now().UnixNano()
	if stamp <= q.lastStamp {
		stamp = q.lastStamp + 1
	}
	q.lastStamp = stamp

	if replaced := q.dropLocked(op, key); replaced > 0 {
		slog.DebugContext(ctx, "queued write replaced by a newer one", "operation", op, "key", key)
	}
	q.entries = append(q.entries, syncqueue.Entry{Operation: op, Key: key, Payload: data, EnqueuedAt: stamp})
	if err := q.store.Save(ctx, q.entries); err != nil {
		slog.WarnContext(ctx, "persist sync queue failed", "error", err)
	}
	slog.InfoContext(ctx, "remote write queued for sync", "operation", op, "queued", len(q.entries))

	if !q.inFlight {
		q.scheduleLocked(q.cfg.DrainDelay)
	}
	return nil
}

// scheduleLocked arms the drain timer unless one is already pending. mu must be held.
func (q *Queue) scheduleLocked(delay time.Duration) {
	if q.timer != nil {
		return
	}
	q.timer = time.AfterFunc(delay, func() {
		q.mu.Lock()
		q.timer = nil
		ctx := q.baseCtx
		q.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if _, err := q.Drain(ctx); err != nil {
			slog.Warn("scheduled sync drain did not complete", "error", err)
		}
	})
}

// Drain replays a snapshot of the queue. It returns ErrDrainInProgress when
// another drain is running and ErrRemoteOffline when the probe fails.
func (q *Queue) Drain(ctx context.Context) (syncqueue.DrainResult, error) {
	q.mu.Lock()
	if q.inFlight {
		n := len(q.entries)
		q.mu.Unlock()
		return syncqueue.DrainResult{Remaining: n}, syncqueue.ErrDrainInProgress
	}
	if len(q.entries) == 0 {
		q.mu.Unlock()
		return syncqueue.DrainResult{}, nil
	}
	q.inFlight = true
	snapshot := make([]syncqueue.Entry, len(q.entries))
	copy(snapshot, q.entries)
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.inFlight = false
		q.mu.Unlock()
	}()

	if err := q.prober.Probe(ctx); err != nil {
		slog.InfoContext(ctx, "remote store still offline, keeping sync queue", "queued", len(snapshot), "error", err)
		return syncqueue.DrainResult{Remaining: len(snapshot)}, fmt.Errorf("%w: %v", syncqueue.ErrRemoteOffline, err)
	}

	var result syncqueue.DrainResult
	for _, entry := range snapshot {
		replay, ok := q.replayers[entry.Operation]
		if !ok {
			result.Skipped++
			slog.WarnContext(ctx, "sync entry kept", "operation", entry.Operation, "error", syncqueue.ErrNoReplayer)
			continue
		}

		if !q.queued(entry.EnqueuedAt) {
			// discarded or replaced after the snapshot was taken
			continue
		}

		result.Attempted++
		if err := replay(ctx, entry.Payload); err != nil {
			slog.WarnContext(ctx, "sync replay failed", "operation", entry.Operation, "enqueued_at", entry.EnqueuedAt, "error", err)
			continue
		}
		result.Replayed++
		q.remove(entry.EnqueuedAt)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.store.Save(ctx, q.entries); err != nil {
		slog.WarnContext(ctx, "persist sync queue failed", "error", err)
	}
	result.Remaining = len(q.entries)

	slog.InfoContext(ctx, "sync queue drained",
		"attempted", result.Attempted,
		"replayed", result.Replayed,
		"skipped", result.Skipped,
		"remaining", result.Remaining,
	)
	return result, nil
}

func (q *Queue) remove(stamp int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.EnqueuedAt == stamp {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

func (q *Queue) queued(stamp int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.EnqueuedAt == stamp {
			return true
		}
	}
	return false
}

// dropLocked removes entries for op and key and returns how many it removed.
// Entries without a key are never matched. mu must be held.
func (q *Queue) dropLocked(op syncqueue.Operation, key string) int {
	if key == "" {
		return 0
	}
	kept := q.entries[:0]
	dropped := 0
	for _, e := range q.entries {
		if e.Operation == op && e.Key == key {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return dropped
}

// Discard implements syncqueue.Enqueuer.
func (q *Queue) Discard(ctx context.Context, op syncqueue.Operation, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := q.dropLocked(op, key)
	if dropped == 0 {
		return nil
	}
	if err := q.store.Save(ctx, q.entries); err != nil {
		return fmt.Errorf("persist sync queue: %w", err)
	}
	slog.InfoContext(ctx, "queued write superseded by remote write", "operation", op, "key", key, "dropped", dropped)
	return nil
}

// Pending implements syncqueue.Enqueuer.
func (q *Queue) Pending(op syncqueue.Operation, key string) (json.RawMessage, bool) {
	if key == "" {
		return nil, false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.entries) - 1; i >= 0; i-- {
		if e := q.entries[i]; e.Operation == op && e.Key == key {
			return append(json.RawMessage(nil), e.Payload...), true
		}
	}
	return nil, false
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns a copy of the queued entries in enqueue order.
func (q *Queue) Entries() []syncqueue.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]syncqueue.Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Clear implements syncqueue.SyncQueue.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := len(q.entries)
	q.entries = nil
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if err := q.store.Save(ctx, q.entries); err != nil {
		return fmt.Errorf("persist sync queue: %w", err)
	}
	slog.InfoContext(ctx, "sync queue cleared", "dropped", dropped)
	return nil
}

var _ syncqueue.SyncQueue = (*Queue)(nil)
