package error

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// grpcCode maps a Twirp error code to its gRPC equivalent. Identity where
// names match; malformed -> InvalidArgument; bad_route -> NotFound;
// dataloss -> DataLoss (per spec.md §4.1's "gRPC code mapping").
var grpcCode = map[Code]codes.Code{
	Canceled:           codes.Canceled,
	Unknown:            codes.Unknown,
	InvalidArgument:    codes.InvalidArgument,
	Malformed:          codes.InvalidArgument,
	DeadlineExceeded:   codes.DeadlineExceeded,
	NotFound:           codes.NotFound,
	BadRoute:           codes.NotFound,
	AlreadyExists:      codes.AlreadyExists,
	PermissionDenied:   codes.PermissionDenied,
	Unauthenticated:    codes.Unauthenticated,
	ResourceExhausted:  codes.ResourceExhausted,
	FailedPrecondition: codes.FailedPrecondition,
	Aborted:            codes.Aborted,
	OutOfRange:         codes.OutOfRange,
	Unimplemented:      codes.Unimplemented,
	Internal:           codes.Internal,
	Unavailable:        codes.Unavailable,
	Dataloss:           codes.DataLoss,
}

// GRPCCode returns the gRPC status code this error maps to.
func (e *Error) GRPCCode() codes.Code {
	if c, ok := grpcCode[e.code]; ok {
		return c
	}
	return codes.Unknown
}

// GRPCStatus implements the interface consulted by google.golang.org/grpc's
// status.FromError, so a *Error returned directly from a gRPC handler is
// translated automatically. If e was constructed by WrapGRPCStatus from a
// *status.Status whose (code, message) still match e's own, that original
// status is returned verbatim (preserving any details it carried).
func (e *Error) GRPCStatus() *status.Status {
	if s, ok := e.cause.(*statusCause); ok {
		if s.status.Code() == e.GRPCCode() && s.status.Message() == e.msg {
			return s.status
		}
	}
	return status.New(e.GRPCCode(), e.msg)
}

// statusCause wraps a *status.Status so it can be carried as a Error's
// cause without colliding with ordinary error causes.
type statusCause struct {
	status *status.Status
}

func (s *statusCause) Error() string { return s.status.Message() }

// WrapGRPCStatus constructs a Error from a gRPC status, preserving it for
// verbatim round-trip via GRPCStatus if (code, message) are not later
// changed.
func WrapGRPCStatus(s *status.Status) *Error {
	code, ok := codeFromGRPC[s.Code()]
	if !ok {
		code = Unknown
	}
	return &Error{code: code, msg: s.Message(), cause: &statusCause{status: s}}
}

// codeFromGRPC is the inverse of grpcCode, used by WrapGRPCStatus. Where
// multiple Twirp codes map to the same gRPC code (malformed/invalid_argument,
// bad_route/not_found) the more general Twirp code is chosen.
var codeFromGRPC = map[codes.Code]Code{
	codes.Canceled:           Canceled,
	codes.Unknown:             Unknown,
	codes.InvalidArgument:    InvalidArgument,
	codes.DeadlineExceeded:   DeadlineExceeded,
	codes.NotFound:           NotFound,
	codes.AlreadyExists:      AlreadyExists,
	codes.PermissionDenied:   PermissionDenied,
	codes.Unauthenticated:    Unauthenticated,
	codes.ResourceExhausted:  ResourceExhausted,
	codes.FailedPrecondition: FailedPrecondition,
	codes.Aborted:            Aborted,
	codes.OutOfRange:         OutOfRange,
	codes.Unimplemented:      Unimplemented,
	codes.Internal:           Internal,
	codes.Unavailable:        Unavailable,
	codes.DataLoss:           Dataloss,
}
