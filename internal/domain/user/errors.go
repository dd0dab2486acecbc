package user

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrMobileExists        = errors.New("mobile number already registered")
	ErrInvalidCredentials  = errors.New("invalid mobile number or PIN")
	ErrRemoteRequired      = errors.New("remote store connection required in remote-first mode")
	ErrContractorRequired  = errors.New("contractor role required")
	ErrWorkerRequired      = errors.New("worker role required")
	ErrCodeGenerationLimit = errors.New("could not generate a unique contractor code")
)
