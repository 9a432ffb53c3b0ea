package identity

import (
	"errors"
	"fmt"
)

// Kind classifies what went wrong when delegating an operation to the
// identity provider.
type Kind string

const (
	// KindConfiguration means the configured authority is malformed.
	// Detected before any network call is made.
	KindConfiguration Kind = "configuration"

	// KindTransport means the request never produced an HTTP response
	// (DNS failure, connection refused, timeout).
	KindTransport Kind = "transport"

	// KindProtocol means the provider answered with a success status but
	// the response was structurally unusable (non-JSON body, missing
	// token, missing Location header).
	KindProtocol Kind = "protocol_violation"

	// KindProvider is a well-formed HTTP error response from the
	// provider, passed through with its status and body verbatim.
	KindProvider Kind = "provider_error"

	// KindDuplicateUser is a 409 during user creation. A distinguished
	// subtype of KindProvider so callers can treat it as a user-facing
	// conflict rather than a server fault.
	KindDuplicateUser Kind = "duplicate_user"

	// KindPartialFailure means a multi-step operation failed after an
	// irreversible side effect. The error carries the created user id
	// for reconciliation.
	KindPartialFailure Kind = "partial_failure"
)

// Step names identify where in a delegated sequence a failure occurred.
// Callers must be able to distinguish "no user created" from "user
// created but unusable" because the remediation differs.
const (
	StepConfig          = "config"
	StepToken           = "token"
	StepTokenParse      = "token-parse"
	StepTokenEmpty      = "token-empty"
	StepCreateUser      = "create-user"
	StepLocationMissing = "location-missing"
	StepSetPassword     = "set-password"
	StepLogout          = "logout"
)

// Error is a step-attributed delegation failure.
type Error struct {
	Kind   Kind
	Step   string
	Status int    // provider HTTP status, 0 when no response was obtained
	Body   []byte // raw provider response body, verbatim
	UserID string // set when a user was created before the failure
	Err    error  // underlying cause, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("identity: %s at step %s", e.Kind, e.Step)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.UserID != "" {
		msg += fmt.Sprintf(" (user %s)", e.UserID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// ErrMissingRefreshToken is returned when an operation requires a
// refresh token and got a blank one. Raised before any provider call.
var ErrMissingRefreshToken = errors.New("identity: refresh token is required")

// AsError unwraps err into an *Error if it is one.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
