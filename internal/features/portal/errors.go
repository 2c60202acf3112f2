package portal

import "fmt"

// ValidationError covers malformed input: empty property lists, inactive
// integrations, unresolved property ids.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError is returned for both missing records and records outside the
// caller's tenant, so cross-tenant probing cannot distinguish the two.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InvalidStateError is returned when an operation is rejected by the package
// state machine, e.g. retrying a package that is not FAILED.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

// TransportError wraps portal connectivity failures: timeouts, non-2xx
// responses, auth rejections. It never crosses the submitter boundary; the
// submitter converts it into a FAILED package with ErrorMessage set.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("xe.gr %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
