package syncqueue

import "errors"

var (
	ErrDrainInProgress = errors.New("sync queue drain already in progress")
	ErrRemoteOffline   = errors.New("remote store offline, sync queue kept")
	ErrNoReplayer      = errors.New("no replayer registered for operation")
)
