package relation

import (
	"time"
)

// Relation links a worker to a contractor. Relations are kept after the
// worker links elsewhere; the worker's LinkedContractorCode marks the active one.
type Relation struct {
	ID             string    `json:"id"`
	ContractorID   string    `json:"contractor_id"`
	WorkerID       string    `json:"worker_id"`
	ContractorCode string    `json:"contractor_code"`
	CreatedAt      time.Time `json:"created_at"`
}
