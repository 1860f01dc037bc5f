package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	pinLockedMarker = "PIN Locked"

	fieldStatus       = "E_IFRESULT"
	fieldErrorMessage = "E_IFFAILMSG"

	// StatusFailure is the E_IFRESULT value the vendor uses for failed requests.
	StatusFailure = "E:Failure"
	// StatusSuccess is the E_IFRESULT value the vendor uses for successful requests.
	StatusSuccess = "Z:Success"
)

// Response is a vendor reply. It is either a structured JSON document or, when the vendor returns
// something that does not parse (maintenance pages, plain-text errors), the raw body text.
type Response struct {
	root  json.RawMessage
	text  string
	isRaw bool
}

// Normalize parses a vendor reply.
//
// Bodies containing the PIN lockout marker fail with ErrPinLocked regardless of whether the rest
// of the body is valid JSON. Bodies that are not JSON are returned as raw text rather than as an
// error.
func Normalize(body []byte) (*Response, error) {
	if bytes.Contains(body, []byte(pinLockedMarker)) {
		return nil, ErrPinLocked
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return &Response{root: json.RawMessage(trimmed)}, nil
	}
	return &Response{text: string(body), isRaw: true}, nil
}

// IsRaw returns true if the vendor reply was not JSON.
func (r *Response) IsRaw() bool {
	return r.isRaw
}

// Text returns the body of a raw reply, or the JSON text of a structured one.
func (r *Response) Text() string {
	if r.isRaw {
		return r.text
	}
	return string(r.root)
}

// Extract walks path through nested JSON objects and returns the value found there. It returns
// nil if the reply is raw text, or if any element of the path is absent or not an object.
func (r *Response) Extract(path ...string) json.RawMessage {
	if r.isRaw {
		return nil
	}
	current := r.root
	for _, key := range path {
		var object map[string]json.RawMessage
		if err := json.Unmarshal(current, &object); err != nil {
			return nil
		}
		next, ok := object[key]
		if !ok {
			return nil
		}
		current = next
	}
	if bytes.Equal(bytes.TrimSpace(current), []byte("null")) {
		return nil
	}
	return current
}

// String returns the value at path as a string. JSON strings are unquoted; other JSON values are
// returned as their literal text. Absent values yield "".
func (r *Response) String(path ...string) string {
	value := r.Extract(path...)
	if value == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	return string(value)
}

// Result builds the uniform result of an operation whose payload lives at path.
func (r *Response) Result(path ...string) *Result {
	if r.isRaw {
		return &Result{Raw: r.text, raw: true}
	}
	return &Result{
		Result:       r.Extract(path...),
		Status:       r.String(fieldStatus),
		ErrorMessage: r.String(fieldErrorMessage),
	}
}

// Result is the uniform shape returned by every vehicle operation.
type Result struct {
	// Result holds the operation-specific payload. It is nil when the vendor omitted it.
	Result json.RawMessage `json:"result,omitempty"`
	// Status is the vendor status code, such as "Z:Success" or "E:Failure".
	Status string `json:"status"`
	// ErrorMessage is the vendor-supplied failure description, if any.
	ErrorMessage string `json:"errorMessage"`
	// Raw holds the reply body when the vendor did not return JSON.
	Raw string `json:"raw,omitempty"`

	raw bool
}

// IsRaw returns true if the vendor reply was not JSON, in which case only r.Raw is populated.
func (r *Result) IsRaw() bool {
	return r.raw
}

// Failed returns true if the vendor reported a failure status.
func (r *Result) Failed() bool {
	return r.Status == StatusFailure
}

// Decode unmarshals the payload into v.
func (r *Result) Decode(v interface{}) error {
	if r.raw {
		return fmt.Errorf("%w: %.64q", ErrMalformedResponse, r.Raw)
	}
	if r.Result == nil {
		return fmt.Errorf("%w: result field absent", ErrMalformedResponse)
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}
	return nil
}

// Payload returns the decoded payload as generic JSON values (maps, slices, strings, numbers),
// or the raw text for non-JSON replies. Used when re-encoding results in other formats.
func (r *Result) Payload() interface{} {
	if r.raw {
		return r.Raw
	}
	if r.Result == nil {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(r.Result, &v); err != nil {
		return string(r.Result)
	}
	return v
}
