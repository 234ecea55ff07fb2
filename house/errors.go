package house

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound signals the requested house does not exist.
	ErrNotFound = errors.New("house: not found")
	// ErrValidation signals a create request is missing or has malformed fields.
	ErrValidation = errors.New("house: invalid request")
	// ErrInvalidSort signals a page request referenced an unknown sort property.
	ErrInvalidSort = errors.New("house: invalid sort property")
	// ErrStorage signals the underlying store failed.
	ErrStorage = errors.New("house: storage failure")
	// ErrSyncFailed signals the remote system of record did not accept a new house.
	ErrSyncFailed = errors.New("fail update info to 3rd client")
)

// FieldError describes a single rejected field.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError lists every field that made a request invalid.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return "house: invalid request: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SyncError is returned by CreateHouse after the remote publish failed and
// compensation ran. Err holds the publish failure, nil when the remote side
// simply rejected the record. RollbackErr is set when the compensating delete
// also failed and the local row was left behind.
type SyncError struct {
	HouseID     int64
	Err         error
	RollbackErr error
}

func (e *SyncError) Error() string {
	return ErrSyncFailed.Error()
}

func (e *SyncError) Is(target error) bool {
	return target == ErrSyncFailed
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
