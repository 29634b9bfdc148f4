package service

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the coordinator. Handlers match them with
// errors.Is; the transport mapping lives in utils.Fail and nowhere else.
var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrMalformedKey     = errors.New("malformed storage key")
	ErrNotFound         = errors.New("not found")
	ErrFailedToSave     = errors.New("failed to save metadata")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// OpError is the typed failure of one coordinator operation. StateChanged
// tells the caller whether remote state was already mutated when the
// operation failed, so "nothing happened" and "incomplete, reconcile"
// stay distinguishable.
type OpError struct {
	Kind         error
	Detail       string
	StateChanged bool
	Cause        error
}

func (e *OpError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.StateChanged {
		msg += " (remote state changed, operation incomplete)"
	}
	return msg
}

func (e *OpError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// StateChanged reports whether err carries the incomplete-operation flag.
func StateChanged(err error) bool {
	var op *OpError
	if errors.As(err, &op) {
		return op.StateChanged
	}
	return false
}

func missingParam(name string) error {
	return &OpError{Kind: ErrMissingParameter, Detail: name + " is required"}
}

func malformedKey(key string) error {
	return &OpError{Kind: ErrMalformedKey, Detail: key}
}

func notFound(what string, stateChanged bool) error {
	return &OpError{Kind: ErrNotFound, Detail: what, StateChanged: stateChanged}
}

func failedToSave(cause error, stateChanged bool) error {
	return &OpError{Kind: ErrFailedToSave, Cause: cause, StateChanged: stateChanged}
}

func storeErr(detail string, cause error, stateChanged bool) error {
	return &OpError{Kind: ErrStoreUnavailable, Detail: detail, Cause: cause, StateChanged: stateChanged}
}
