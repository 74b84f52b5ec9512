package client

import (
	"errors"
	"fmt"

	netguardian "github.com/zero-day-ai/netguardian"
)

// Sentinel errors matched by the concrete error types with errors.Is.
var (
	ErrRemoteRejected    = errors.New("remote rejected request")
	ErrMalformedResponse = errors.New("malformed response")
	ErrTransport         = errors.New("transport failure")
)

// RemoteRejectedError is returned when the scoring service answers with a
// non-2xx status. Body is the raw response text and must not be read as a score.
type RemoteRejectedError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Is reports whether target is ErrRemoteRejected.
func (e *RemoteRejectedError) Is(target error) bool { return target == ErrRemoteRejected }

// Kind implements the kind lookup used by netguardian.KindOf.
func (e *RemoteRejectedError) Kind() string { return netguardian.KindRemote }

// MalformedResponseError is returned when a 2xx body is not valid JSON or
// lacks the fields a ScoreResult requires.
type MalformedResponseError struct {
	Op   string
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedResponse.
func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// Kind implements the kind lookup used by netguardian.KindOf.
func (e *MalformedResponseError) Kind() string { return netguardian.KindMalformed }

// TransportError is returned when no HTTP response was obtained: DNS, TLS,
// connection and timeout failures.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Kind implements the kind lookup used by netguardian.KindOf.
func (e *TransportError) Kind() string { return netguardian.KindNetwork }

// IsRetryable reports whether err is worth retrying. Only transport failures
// are: the service either rejected the scan or answered in a way retrying
// will not change.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport)
}
