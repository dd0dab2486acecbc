package syncqueue

import (
	"encoding/json"
	"time"
)

// Operation names a replayable remote write.
type Operation string

const (
	OpSaveAttendance       Operation = "saveAttendance"
	OpUpdateContractorCode Operation = "updateContractorCode"
	OpAssignWorker         Operation = "assignWorker"
	OpSetPassword          Operation = "setPassword"
)

// Entry is a remote write waiting for the remote store to come back.
// EnqueuedAt is strictly increasing and identifies the entry. Key names the
// record the write targets; at most one entry per operation and key is queued.
type Entry struct {
	Operation  Operation       `json:"operation"`
	Key        string          `json:"key,omitempty"`
	Payload    json.RawMessage `json:"data"`
	EnqueuedAt int64           `json:"timestamp"`
}

// Keyed is implemented by payloads that target a single record.
type Keyed interface {
	SyncKey() string
}

func AttendanceKey(userID, date string) string {
	return userID + "_" + date
}

type DrainResult struct {
	Attempted int `json:"attempted" yaml:"attempted"`
	Replayed  int `json:"replayed" yaml:"replayed"`
	Remaining int `json:"remaining" yaml:"remaining"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// SaveAttendancePayload carries the local UpdatedAt so a replay never
// overwrites a newer remote record.
type SaveAttendancePayload struct {
	UserID        string    `json:"userId"`
	Date          string    `json:"date"`
	Type          string    `json:"type"`
	PaymentAmount int64     `json:"paymentAmount"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

func (p SaveAttendancePayload) SyncKey() string { return AttendanceKey(p.UserID, p.Date) }

type UpdateContractorCodePayload struct {
	UserID         string `json:"userId"`
	ContractorCode string `json:"contractorCode"`
}

func (p UpdateContractorCodePayload) SyncKey() string { return p.UserID }

type AssignWorkerPayload struct {
	WorkerID       string    `json:"workerId"`
	ContractorCode string    `json:"contractorCode"`
	LinkedAt       time.Time `json:"linkedAt,omitzero"`
}

// SyncKey is the worker id: a worker has one active contractor.
func (p AssignWorkerPayload) SyncKey() string { return p.WorkerID }

type SetPasswordPayload struct {
	UserID       string `json:"userId"`
	PasswordHash string `json:"passwordHash"`
}

func (p SetPasswordPayload) SyncKey() string { return p.UserID }
