package core

import (
	"errors"
	"fmt"
	"strings"
)

// Issuance error classes. Every component failure wraps exactly one of these.
var (
	// ErrInvalidKeyFormat is returned before any network call if the key does not look like a PEM private key.
	ErrInvalidKeyFormat = errors.New("invalid private key format")

	// ErrSigningFailure is returned if the key cannot be parsed or used to sign the assertion.
	ErrSigningFailure = errors.New("signing failure")

	// ErrInstallationNotFound is returned if the App is not installed on the repository.
	ErrInstallationNotFound = errors.New("installation not found")

	// ErrUpstream is returned for any other failed installation lookup.
	ErrUpstream = errors.New("upstream error")

	// ErrExchangeFailure is returned if GitHub refuses to issue the installation token.
	ErrExchangeFailure = errors.New("exchange failure")

	// ErrMalformedResponse is returned if a successful response cannot be used.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrPolicyDenied is returned if the local policy does not allow the request.
	ErrPolicyDenied = errors.New("policy denied")
)

var kinds = []error{
	ErrInvalidKeyFormat,
	ErrSigningFailure,
	ErrInstallationNotFound,
	ErrUpstream,
	ErrExchangeFailure,
	ErrMalformedResponse,
	ErrPolicyDenied,
}

// IssuanceError is a classified failure of one issuance step.
type IssuanceError struct {
	// Kind is one of the Err* sentinels of this package.
	Kind error

	// Message is a human-readable description for operators.
	Message string

	// StatusCode and Body are set for failed upstream responses.
	StatusCode int
	Body       string

	// Err is the underlying cause, if any.
	Err error
}

func (e *IssuanceError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": HTTP %d", e.StatusCode)
		if body := strings.TrimSpace(e.Body); body != "" {
			fmt.Fprintf(&sb, " - %s", body)
		}
	} else if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *IssuanceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError creates a classified error with a formatted message.
func NewError(kind, cause error, format string, args ...any) *IssuanceError {
	return &IssuanceError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// NewUpstreamError creates a classified error for a failed upstream response.
func NewUpstreamError(kind, cause error, status int, body string, format string, args ...any) *IssuanceError {
	return &IssuanceError{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: status,
		Body:       body,
		Err:        cause,
	}
}

// ErrorKind returns the class of err as a short string (e.g. "installation not found"),
// or an empty string if err is not classified.
func ErrorKind(err error) string {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ""
}
