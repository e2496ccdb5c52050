package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	twerr "github.com/helsing-ai/twurst/error"
)

// GrpcRouter builds a *grpc.Server that dispatches the same typed handlers
// a TwirpRouter would, via grpc.UnknownServiceHandler so methods can be
// registered without a compiled .proto-derived ServiceDesc (§4.7, C7).
type GrpcRouter struct {
	server  *grpc.Server
	methods map[string]grpc.StreamHandler
}

// NewGrpcRouter returns an empty GrpcRouter. serverOpts are passed through
// to grpc.NewServer (e.g. TLS credentials, interceptors).
func NewGrpcRouter(serverOpts ...grpc.ServerOption) *GrpcRouter {
	gr := &GrpcRouter{methods: map[string]grpc.StreamHandler{}}
	opts := append([]grpc.ServerOption{grpc.UnknownServiceHandler(gr.dispatch)}, serverOpts...)
	gr.server = grpc.NewServer(opts...)
	return gr
}

// GrpcRoute registers a unary method at path (e.g.
// "/example.ExampleService/Test"): handle receives the decoded input and
// synthesized request parts, and returns a typed output or TwirpError.
func GrpcRoute[In, Out proto.Message](
	gr *GrpcRouter,
	path string,
	newIn func() In,
	handle func(ctx context.Context, in In, parts *RequestParts) (Out, *twerr.Error),
) *GrpcRouter {
	gr.methods[path] = func(srv any, stream grpc.ServerStream) error {
		in := newIn()
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		parts := partsFromGRPCContext(stream.Context(), path)
		out, handleErr := handle(stream.Context(), in, parts)
		if handleErr != nil {
			return grpcStatusFromTwirpError(handleErr).Err()
		}
		return stream.SendMsg(out)
	}
	return gr
}

// GrpcRouteServerStreaming registers a server-streaming method: produce
// yields a sequence of StreamItem values written to the gRPC stream in
// order, the last error (if any) terminating the RPC with the mapped
// status.
func GrpcRouteServerStreaming[In, Out proto.Message](
	gr *GrpcRouter,
	path string,
	newIn func() In,
	produce func(ctx context.Context, in In, parts *RequestParts) (<-chan StreamItem[Out], *twerr.Error),
) *GrpcRouter {
	gr.methods[path] = func(srv any, stream grpc.ServerStream) error {
		in := newIn()
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		parts := partsFromGRPCContext(stream.Context(), path)
		items, produceErr := produce(stream.Context(), in, parts)
		if produceErr != nil {
			return grpcStatusFromTwirpError(produceErr).Err()
		}
		for item := range items {
			if item.Err != nil {
				return grpcStatusFromTwirpError(item.Err).Err()
			}
			if err := stream.SendMsg(item.Message); err != nil {
				return err
			}
		}
		return nil
	}
	return gr
}

// ClientStream reads a sequence of In messages off an incoming
// client-streaming (or bidirectional) gRPC call. Recv returns io.EOF once
// the caller has closed its send side.
type ClientStream[In proto.Message] struct {
	stream grpc.ServerStream
	newIn  func() In
}

// Recv reads and returns the next message, or an error (io.EOF when the
// client is done sending).
func (cs *ClientStream[In]) Recv() (In, error) {
	in := cs.newIn()
	if err := cs.stream.RecvMsg(in); err != nil {
		var zero In
		return zero, err
	}
	return in, nil
}

// GrpcRouteClientStreaming registers a client-streaming method: handle
// consumes stream until it returns a non-nil error (io.EOF signals a clean
// end of input) and produces a single typed output or TwirpError.
func GrpcRouteClientStreaming[In, Out proto.Message](
	gr *GrpcRouter,
	path string,
	newIn func() In,
	handle func(ctx context.Context, stream *ClientStream[In], parts *RequestParts) (Out, *twerr.Error),
) *GrpcRouter {
	gr.methods[path] = func(srv any, stream grpc.ServerStream) error {
		parts := partsFromGRPCContext(stream.Context(), path)
		cs := &ClientStream[In]{stream: stream, newIn: newIn}
		out, handleErr := handle(stream.Context(), cs, parts)
		if handleErr != nil {
			return grpcStatusFromTwirpError(handleErr).Err()
		}
		return stream.SendMsg(out)
	}
	return gr
}

// GrpcRouteBidiStreaming registers a bidirectional-streaming method: produce
// is handed a reader over the inbound messages and yields a sequence of
// StreamItem values written to the gRPC stream in order, exactly like
// GrpcRouteServerStreaming's output side.
func GrpcRouteBidiStreaming[In, Out proto.Message](
	gr *GrpcRouter,
	path string,
	newIn func() In,
	produce func(ctx context.Context, stream *ClientStream[In], parts *RequestParts) (<-chan StreamItem[Out], *twerr.Error),
) *GrpcRouter {
	gr.methods[path] = func(srv any, stream grpc.ServerStream) error {
		parts := partsFromGRPCContext(stream.Context(), path)
		cs := &ClientStream[In]{stream: stream, newIn: newIn}
		items, produceErr := produce(stream.Context(), cs, parts)
		if produceErr != nil {
			return grpcStatusFromTwirpError(produceErr).Err()
		}
		for item := range items {
			if item.Err != nil {
				return grpcStatusFromTwirpError(item.Err).Err()
			}
			if err := stream.SendMsg(item.Message); err != nil {
				return err
			}
		}
		return nil
	}
	return gr
}

// Build returns the assembled *grpc.Server. The server looks each method up
// in gr at call time, so methods registered with GrpcRoute* after Build are
// also served by it; unlike TwirpRouter.Build, no snapshot of the route
// table is taken.
func (gr *GrpcRouter) Build() *grpc.Server {
	return gr.server
}

func (gr *GrpcRouter) dispatch(srv any, stream grpc.ServerStream) error {
	method, ok := grpc.MethodFromServerStream(stream)
	if !ok {
		return GrpcFallbackStatus("").Err()
	}
	handler, ok := gr.methods[method]
	if !ok {
		return GrpcFallbackStatus(method).Err()
	}
	return handler(srv, stream)
}

// GrpcFallbackStatus builds the gRPC NotFound status returned for
// unmatched paths, mirroring TwirpRouter's Fallback.
func GrpcFallbackStatus(path string) *status.Status {
	return status.New(codes.NotFound, fmt.Sprintf("%s is not a supported gRPC method", path))
}

// grpcStatusFromTwirpError converts a TwirpError to a gRPC status, using
// the error's own GRPCStatus (which preserves an originally-wrapped Status
// verbatim when unchanged, per §4.7 and §9).
func grpcStatusFromTwirpError(err *twerr.Error) *status.Status {
	return err.GRPCStatus()
}

// partsFromGRPCContext synthesizes HTTP-like RequestParts from gRPC
// metadata so the same request extractors used by the Twirp router can run
// against a gRPC call, per §4.7's "protocol variant convergence".
func partsFromGRPCContext(ctx context.Context, path string) *RequestParts {
	header := http.Header{}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for k, values := range md {
			for _, v := range values {
				header.Add(k, v)
			}
		}
	}
	return &RequestParts{
		Method: http.MethodPost,
		URL:    &url.URL{Path: path},
		Header: header,
	}
}
