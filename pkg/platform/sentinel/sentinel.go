package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores, pools and upstream
// clients. Services translate them into domain errors. Input validation uses
// pkg/domain-errors directly.
var (
	// ErrNotFound: the applicant or result does not exist in the store.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: the value cannot be stored as given, e.g. a result without an ID number.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable: a pool or upstream dependency cannot serve requests right now.
	ErrUnavailable = errors.New("unavailable")
)
