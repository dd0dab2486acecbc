package relation

import (
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/validator"
)

type LinkContractorRequest struct {
	ContractorCode string `json:"contractor_code"`
}

func (r *LinkContractorRequest) Validate() error {
	r.ContractorCode = user.NormalizeContractorCode(r.ContractorCode)
	if !validator.IsValidContractorCode(r.ContractorCode) {
		return validator.ValidationErrors{{
			Field:   "contractor_code",
			Message: ErrInvalidContractorCode.Error(),
		}}
	}
	return nil
}

type LinkContractorResponse struct {
	Linked         bool   `json:"linked"`
	ContractorCode string `json:"contractor_code"`
}

// WorkerSummary is one row of the contractor dashboard
type WorkerSummary struct {
	Worker user.UserResponse       `json:"worker"`
	Stats  attendance.MonthlyStats `json:"stats"`
}

type WorkersResponse struct {
	Month   string          `json:"month"`
	Workers []WorkerSummary `json:"workers"`
}
