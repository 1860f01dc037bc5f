package protocol

import (
	"errors"
	"fmt"
	"net/http"
)

// Error exposes methods useful for categorizing errors.
type Error interface {
	error

	// MayHaveSucceeded returns true if the Error was triggered by a command that might have been
	// executed. For example, if the connection drops while the vendor is processing a remote start,
	// then the client cannot tell if the engine was started.
	MayHaveSucceeded() bool

	// Temporary returns true if the Error might be the result of a transient condition, such as
	// the vendor's gateway returning 503 while the telematics unit wakes up.
	Temporary() bool
}

var (
	// ErrPinLocked indicates the vendor locked the account PIN after too many failed attempts. The
	// owner must unlock it through the vendor's website before sending more commands.
	ErrPinLocked = NewError("PIN is locked, please correct the issue before trying again", false, false)
	// ErrMalformedResponse indicates a structured payload was required but the vendor returned
	// something else (typically HTML or plain text).
	ErrMalformedResponse = errors.New("response is not structured JSON")
	// ErrNotReady indicates the vehicle bootstrap did not complete before the caller gave up
	// waiting.
	ErrNotReady = NewError("vehicle is still initializing", false, true)
	// ErrNoSession indicates the account holds no access token. Log in first.
	ErrNoSession = errors.New("no active session; log in first")
)

type CommandError struct {
	Err               error
	PossibleSuccess   bool
	PossibleTemporary bool
}

func NewError(message string, mayHaveSucceeded bool, temporary bool) error {
	return &CommandError{Err: errors.New(message), PossibleSuccess: mayHaveSucceeded, PossibleTemporary: temporary}
}

func (e *CommandError) Error() string {
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func (e *CommandError) MayHaveSucceeded() bool {
	return e.PossibleSuccess
}

func (e *CommandError) Temporary() bool {
	return e.PossibleTemporary
}

// UnsupportedFeatureError indicates the vehicle's enrollment does not include a feature required by
// the requested operation. No request was sent.
type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("vehicle does not have the %s feature", e.Feature)
}

func (e *UnsupportedFeatureError) MayHaveSucceeded() bool {
	return false
}

func (e *UnsupportedFeatureError) Temporary() bool {
	return false
}

// UnsupportedGenerationError indicates an operation is not available on the vehicle's telematics
// generation. No request was sent.
type UnsupportedGenerationError struct {
	Generation int
	Operation  string
}

func (e *UnsupportedGenerationError) Error() string {
	return fmt.Sprintf("%s is not supported on gen %d vehicles", e.Operation, e.Generation)
}

func (e *UnsupportedGenerationError) MayHaveSucceeded() bool {
	return false
}

func (e *UnsupportedGenerationError) Temporary() bool {
	return false
}

// VehicleNotFoundError indicates the owner's account does not list a vehicle with the requested
// VIN.
type VehicleNotFoundError struct {
	VIN string
}

func (e *VehicleNotFoundError) Error() string {
	return fmt.Sprintf("vehicle %s not found in owner info", e.VIN)
}

func (e *VehicleNotFoundError) MayHaveSucceeded() bool {
	return false
}

func (e *VehicleNotFoundError) Temporary() bool {
	return false
}

// TransportError wraps a failed HTTP exchange with the vendor. Code is zero when no response was
// received.
type TransportError struct {
	Code    int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %s", e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("transport error: %s", http.StatusText(e.Code))
	}
	return fmt.Sprintf("transport error: %d %s", e.Code, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) MayHaveSucceeded() bool {
	if e.Code == 0 {
		return e.Err != nil && !errors.Is(e.Err, errRequestNotSent)
	}
	if e.Code >= 400 && e.Code < 500 {
		return false
	}
	return e.Code != http.StatusServiceUnavailable
}

func (e *TransportError) Temporary() bool {
	return e.Code == 0 ||
		e.Code == http.StatusServiceUnavailable ||
		e.Code == http.StatusGatewayTimeout ||
		e.Code == http.StatusRequestTimeout ||
		e.Code == http.StatusBadGateway
}

var errRequestNotSent = errors.New("request not sent")

// NewRequestError returns a TransportError for a request that could not be constructed or sent.
func NewRequestError(err error) error {
	return &TransportError{Err: fmt.Errorf("%w: %w", errRequestNotSent, err)}
}

// MayHaveSucceeded returns true if err is an Error that indicates the command may have been
// executed but the client did not receive a confirmation from the vendor.
func MayHaveSucceeded(err error) bool {
	var commErr Error
	if errors.As(err, &commErr) && commErr.MayHaveSucceeded() {
		return true
	}
	return false
}

// Temporary returns true if err is an Error that indicates the command failed due to possibly
// transient conditions that do not require user action to resolve.
func Temporary(err error) bool {
	var commErr Error
	if errors.As(err, &commErr) && commErr.Temporary() {
		return true
	}
	return false
}

// ShouldRetry returns true if the client may safely reissue the command that triggered err. The
// library itself never retries.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var e Error
	if errors.As(err, &e) {
		if e.MayHaveSucceeded() {
			return false
		}
		if e.Temporary() {
			return true
		}
	}
	return false
}
