package error

import (
	"encoding/json"
	"io"
	"net/http"
)

// wireError is the canonical Twirp error JSON shape:
// {"code": "<snake>", "msg": "<msg>"[, "meta": {...}]}.
type wireError struct {
	Code Code              `json:"code"`
	Msg  string            `json:"msg"`
	Meta map[string]string `json:"meta,omitempty"`
}

// MarshalJSON serializes e to the canonical Twirp error JSON. The cause is
// never serialized.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireError{Code: e.code, Msg: e.msg, Meta: e.meta})
}

// UnmarshalJSON parses the canonical Twirp error JSON into e.
func (e *Error) UnmarshalJSON(data []byte) error {
	var w wireError
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.code = w.Code
	e.msg = w.Msg
	e.meta = w.Meta
	e.cause = nil
	return nil
}

// httpStatus maps each error code to its outbound HTTP status, per Twirp
// spec v7 §"HTTP Errors".
var httpStatus = map[Code]int{
	Canceled:           http.StatusRequestTimeout,
	DeadlineExceeded:   http.StatusRequestTimeout,
	Unknown:            http.StatusInternalServerError,
	Internal:           http.StatusInternalServerError,
	InvalidArgument:    http.StatusBadRequest,
	Malformed:          http.StatusBadRequest,
	OutOfRange:         http.StatusBadRequest,
	NotFound:           http.StatusNotFound,
	BadRoute:           http.StatusNotFound,
	AlreadyExists:      http.StatusConflict,
	Aborted:            http.StatusConflict,
	PermissionDenied:   http.StatusForbidden,
	Unauthenticated:    http.StatusUnauthorized,
	ResourceExhausted:  http.StatusTooManyRequests,
	FailedPrecondition: http.StatusPreconditionFailed,
	Unimplemented:      http.StatusNotImplemented,
	Unavailable:        http.StatusServiceUnavailable,
	Dataloss:           http.StatusServiceUnavailable,
}

// HTTPStatus returns the HTTP status code this error maps to on the wire.
func (e *Error) HTTPStatus() int {
	if status, ok := httpStatus[e.code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteHTTPResponse serializes e as the canonical Twirp error JSON and
// writes it to w with the appropriate status code and Content-Type.
func (e *Error) WriteHTTPResponse(w http.ResponseWriter) error {
	body, err := e.MarshalJSON()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	_, err = w.Write(body)
	return err
}

// FromHTTPResponse maps an HTTP response to a Error. If the body parses as
// the canonical Twirp error JSON, it is used directly; otherwise a code is
// synthesized from the HTTP status and the message is the body as UTF-8
// (lossy).
func FromHTTPResponse(status int, body []byte) *Error {
	var parsed Error
	if json.Unmarshal(body, &parsed) == nil && parsed.code != "" {
		return &parsed
	}
	return New(codeFromStatus(status), string(body))
}

// FromHTTPResponseReader is a convenience wrapper around FromHTTPResponse
// that reads the body from r first.
func FromHTTPResponseReader(status int, r io.Reader) *Error {
	body, _ := io.ReadAll(r)
	return FromHTTPResponse(status, body)
}

// codeFromStatus synthesizes an error code from a non-canonical HTTP
// status. 429 maps to resource_exhausted (the first, canonical match per
// the spec's open question about 429 appearing in two buckets).
func codeFromStatus(status int) Code {
	switch status {
	case http.StatusRequestTimeout:
		return DeadlineExceeded
	case http.StatusForbidden:
		return PermissionDenied
	case http.StatusUnauthorized:
		return Unauthenticated
	case http.StatusTooManyRequests:
		return ResourceExhausted
	case http.StatusPreconditionFailed:
		return FailedPrecondition
	case http.StatusNotImplemented:
		return Unimplemented
	case http.StatusNotFound:
		return NotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return Unavailable
	}
	switch {
	case status >= 500:
		return Internal
	case status >= 400:
		return Malformed
	default:
		return Unknown
	}
}
