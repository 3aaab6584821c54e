package automation

import "fmt"

// Kind classifies a terminal gateway failure.
type Kind int

const (
	// KindAuth marks a 403 from the automation endpoint.
	KindAuth Kind = iota + 1
	// KindNotFound marks a 404 from the automation endpoint.
	KindNotFound
	// KindServer marks a 5xx that survived all retries.
	KindServer
	// KindTransport marks a timeout or connection failure.
	KindTransport
	// KindUnexpectedStatus marks any other non-2xx status.
	KindUnexpectedStatus
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	case KindUnexpectedStatus:
		return "unexpected_status"
	default:
		return "unknown"
	}
}

// CallError is the terminal failure of one logical gateway call. Every
// kind ends the call immediately; server errors are retried internally
// before becoming terminal.
type CallError struct {
	Kind     Kind   // Failure classification.
	Endpoint string // Logical endpoint key.
	Status   int    // Last HTTP status (0 for transport failures).
	Attempts int    // Total attempts performed.
	Err      error  // Underlying transport error, when any.
}

// Error implements the error interface.
func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("automation %s: %s (attempts=%d): %v", e.Endpoint, e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("automation %s: %s status=%d (attempts=%d)", e.Endpoint, e.Kind, e.Status, e.Attempts)
}

// Unwrap exposes the underlying transport error.
func (e *CallError) Unwrap() error { return e.Err }
