// Package error implements the Twirp error model: a fixed taxonomy of error
// codes, a human message, and a set of string metadata, serializable as the
// canonical Twirp error JSON and mappable to HTTP and gRPC status codes.
package error

import (
	"fmt"
	"iter"
)

// Code is a Twirp error code, drawn from the fixed, closed enumeration
// defined by the Twirp v7 spec (https://twitchtv.github.io/twirp/docs/spec_v7.html#error-codes).
type Code string

const (
	// Canceled means the operation was cancelled.
	Canceled Code = "canceled"
	// Unknown is used for errors raised by APIs that do not return any error
	// information of their own.
	Unknown Code = "unknown"
	// InvalidArgument means the client specified an invalid argument,
	// regardless of the state of the system.
	InvalidArgument Code = "invalid_argument"
	// Malformed means the client sent a message which could not be decoded.
	Malformed Code = "malformed"
	// DeadlineExceeded means the operation expired before completion.
	DeadlineExceeded Code = "deadline_exceeded"
	// NotFound means some requested entity was not found.
	NotFound Code = "not_found"
	// BadRoute means the requested URL path wasn't routable to a Twirp
	// service and method. Produced only by the server's routing layer
	// (server.Fallback), never by application code.
	BadRoute Code = "bad_route"
	// AlreadyExists means an attempt to create an entity failed because one
	// already exists.
	AlreadyExists Code = "already_exists"
	// PermissionDenied means the caller does not have permission to execute
	// the specified operation.
	PermissionDenied Code = "permission_denied"
	// Unauthenticated means the request does not have valid authentication
	// credentials for the operation.
	Unauthenticated Code = "unauthenticated"
	// ResourceExhausted means some resource has been exhausted or
	// rate-limited.
	ResourceExhausted Code = "resource_exhausted"
	// FailedPrecondition means the operation was rejected because the
	// system is not in a state required for the operation's execution.
	FailedPrecondition Code = "failed_precondition"
	// Aborted means the operation was aborted, typically due to a
	// concurrency issue.
	Aborted Code = "aborted"
	// OutOfRange means the operation was attempted past the valid range.
	OutOfRange Code = "out_of_range"
	// Unimplemented means the operation is not implemented or not
	// supported/enabled in this service.
	Unimplemented Code = "unimplemented"
	// Internal means some invariant expected by the underlying system has
	// been broken.
	Internal Code = "internal"
	// Unavailable means the service is currently unavailable, most likely
	// transiently.
	Unavailable Code = "unavailable"
	// Dataloss means the operation resulted in unrecoverable data loss or
	// corruption.
	Dataloss Code = "dataloss"
)

// Error is a Twirp error: a code, a human message, and a set of string
// metadata. It carries an optional cause for local introspection; the cause
// is never serialized.
type Error struct {
	code  Code
	msg   string
	meta  map[string]string
	cause error
}

// New constructs a Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Wrap constructs a Error with the given code and message, attaching cause
// as the (non-serialized) underlying error.
func Wrap(code Code, msg string, cause error) *Error {
	return &Error{code: code, msg: msg, cause: cause}
}

// WithMeta returns a copy of e with the given metadata key set. Identical
// keys overwrite.
func (e *Error) WithMeta(key, value string) *Error {
	meta := make(map[string]string, len(e.meta)+1)
	for k, v := range e.meta {
		meta[k] = v
	}
	meta[key] = value
	return &Error{code: e.code, msg: e.msg, meta: meta, cause: e.cause}
}

// Code returns the error code.
func (e *Error) Code() Code {
	return e.code
}

// Message returns the human-readable error message.
func (e *Error) Message() string {
	return e.msg
}

// Meta returns the metadata value for key, and whether it was present.
func (e *Error) Meta(key string) (string, bool) {
	v, ok := e.meta[key]
	return v, ok
}

// MetaMap returns a copy of all metadata associated with the error.
func (e *Error) MetaMap() map[string]string {
	out := make(map[string]string, len(e.meta))
	for k, v := range e.meta {
		out[k] = v
	}
	return out
}

// MetaIter returns an iterator over all metadata key/value pairs, ported
// from the Rust original's TwirpError::meta_iter. Unlike MetaMap it doesn't
// allocate a copy, so it's preferred when a caller only needs to range over
// the pairs once.
func (e *Error) MetaIter() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for k, v := range e.meta {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("twirp %s error: %s", e.code, e.msg)
}

// Unwrap returns the underlying cause, if any, so that errors.Is/As compose
// through a Error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Equal reports whether two errors have the same code, message and
// metadata. The underlying cause is ignored.
func (e *Error) Equal(other *Error) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.code != other.code || e.msg != other.msg {
		return false
	}
	if len(e.meta) != len(other.meta) {
		return false
	}
	for k, v := range e.meta {
		if ov, ok := other.meta[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Convenience constructors, one per error code. Named with an "Error" suffix
// (AbortedError, NotFoundError, ...) since the code constants above already
// claim the bare names.

func AbortedError(msg string) *Error            { return New(Aborted, msg) }
func AlreadyExistsError(msg string) *Error      { return New(AlreadyExists, msg) }
func CanceledError(msg string) *Error           { return New(Canceled, msg) }
func DatalossError(msg string) *Error           { return New(Dataloss, msg) }
func InternalError(msg string) *Error           { return New(Internal, msg) }
func DeadlineExceededError(msg string) *Error   { return New(DeadlineExceeded, msg) }
func FailedPreconditionError(msg string) *Error { return New(FailedPrecondition, msg) }
func MalformedError(msg string) *Error          { return New(Malformed, msg) }
func NotFoundError(msg string) *Error           { return New(NotFound, msg) }
func OutOfRangeError(msg string) *Error         { return New(OutOfRange, msg) }
func PermissionDeniedError(msg string) *Error   { return New(PermissionDenied, msg) }
func ResourceExhaustedError(msg string) *Error  { return New(ResourceExhausted, msg) }
func UnauthenticatedError(msg string) *Error    { return New(Unauthenticated, msg) }
func UnavailableError(msg string) *Error        { return New(Unavailable, msg) }
func UnimplementedError(msg string) *Error      { return New(Unimplemented, msg) }
func UnknownError(msg string) *Error            { return New(Unknown, msg) }

// InternalErrorWith wraps a lower-level Go error as an internal Error,
// using err.Error() as the message.
func InternalErrorWith(err error) *Error {
	return Wrap(Internal, err.Error(), err)
}

// InvalidArgumentError reports an invalid value for the named argument.
func InvalidArgumentError(argument, msg string) *Error {
	return New(InvalidArgument, msg).WithMeta("argument", argument)
}

// RequiredArgumentError reports that the named argument is required but
// missing.
func RequiredArgumentError(argument string) *Error {
	return InvalidArgumentError(argument, fmt.Sprintf("%s is required", argument))
}
