package relation

import "errors"

var (
	ErrInvalidContractorCode = errors.New("contractor code must be 6 letters or digits")
	ErrWorkerNotLinked       = errors.New("worker is not linked to this contractor")
)
