package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies adapter failures; the retry policy keys off it.
type ErrorKind string

const (
	ErrRateLimited ErrorKind = "rate_limited"
	ErrNotFound    ErrorKind = "not_found"
	ErrTransient   ErrorKind = "transient"
	ErrMalformed   ErrorKind = "malformed"
)

// AdapterError is the failure contract at the adapter boundary. Zero
// results is never an error; malformed payloads are absorbed inside the
// adapter and only surface here when nothing usable was parsed at all.
type AdapterError struct {
	Platform Platform
	Kind     ErrorKind
	Err      error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Platform, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Platform, e.Kind)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError wraps err with a platform and failure class.
func NewAdapterError(platform Platform, kind ErrorKind, err error) *AdapterError {
	return &AdapterError{Platform: platform, Kind: kind, Err: err}
}

// ErrorKindOf extracts the failure class; unclassified errors count as
// transient so the retry policy gives them the bounded backoff treatment.
func ErrorKindOf(err error) ErrorKind {
	var aerr *AdapterError
	if errors.As(err, &aerr) {
		return aerr.Kind
	}
	return ErrTransient
}

// ErrSweepRunning is returned when a trigger arrives while a sweep of any
// kind is already in flight. The trigger is dropped, never queued.
var ErrSweepRunning = errors.New("a sweep is already running, try again later")

// ErrCreatorNotFound is returned for manual triggers naming an unknown creator.
var ErrCreatorNotFound = errors.New("creator not found")

// ErrCreatorInactive is returned for manual triggers naming a deactivated creator.
var ErrCreatorInactive = errors.New("creator is inactive")
