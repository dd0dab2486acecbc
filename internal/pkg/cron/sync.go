package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/storage"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
)

// SyncJobs retries queued remote writes on a timer, on top of the drains
// the queue schedules after each enqueue.
type SyncJobs struct {
	queue   syncqueue.SyncQueue
	storage storage.StorageService
}

func NewSyncJobs(queue syncqueue.SyncQueue, storageService storage.StorageService) *SyncJobs {
	return &SyncJobs{queue: queue, storage: storageService}
}

func (j *SyncJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob(Job{Name: "drain_sync_queue", Interval: interval, Fn: j.DrainSyncQueue})
	scheduler.AddJob(Job{Name: "report_storage_status", Interval: time.Hour, Immediate: true, Fn: j.ReportStorageStatus})
}

// DrainSyncQueue replays queued writes. An offline remote store or a drain
// already running is not a failure.
func (j *SyncJobs) DrainSyncQueue(ctx context.Context) error {
	if j.queue.Len() == 0 {
		return nil
	}

	result, err := j.queue.Drain(ctx)
	switch {
	case errors.Is(err, syncqueue.ErrRemoteOffline), errors.Is(err, syncqueue.ErrDrainInProgress):
		slog.DebugContext(ctx, "Cron: sync drain deferred", "reason", err, "remaining", result.Remaining)
		return nil
	case err != nil:
		return err
	}

	slog.InfoContext(ctx, "Cron: sync queue drained", "replayed", result.Replayed, "remaining", result.Remaining)
	return nil
}

func (j *SyncJobs) ReportStorageStatus(ctx context.Context) error {
	status, err := j.storage.Status(ctx)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Cron: storage status",
		"remote_reachable", status.RemoteReachable,
		"cached_items", status.CachedItems,
		"queued_sync_entries", status.QueuedSyncEntries,
	)
	return nil
}
