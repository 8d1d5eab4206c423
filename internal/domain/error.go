package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrProviderUnavailable = errors.New("llm provider unavailable")
	ErrSessionBusy         = errors.New("session is processing another request")
)
