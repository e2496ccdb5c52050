// Package exampleservice is a small hand-built Twirp service used to
// exercise the runtime end to end: unary calls, server streaming, and
// (gRPC-only) client- and bidirectional-streaming, without requiring a
// protoc invocation. It plays the same role example/client and
// example/server play in the Rust workspace this module is ported from.
package exampleservice

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/helsing-ai/twurst/pkg/clock"
	twerr "github.com/helsing-ai/twurst/error"
	"github.com/helsing-ai/twurst/server"
)

// ExampleService is the interface a generated (or hand-written, as here)
// Twirp service implementation satisfies. It mirrors the shape
// protoc-gen-twurst's codegen.Generate emits for a service covering all
// four RPC shapes: unary, a no-op unary, server-streaming,
// client-streaming, and bidirectional-streaming.
type ExampleService interface {
	// Test returns the current time reported by the service's clock, or
	// unauthenticated("Invalid password") when the value is "unauthed".
	Test(ctx context.Context, in *wrapperspb.StringValue) (*timestamppb.Timestamp, *twerr.Error)

	// Empty takes and returns a message with no required fields,
	// demonstrating an empty-body round trip.
	Empty(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, *twerr.Error)

	// Stream yields a value derived from in, followed by a not_found
	// error, demonstrating the two-frame streaming scenario.
	Stream(ctx context.Context, in *wrapperspb.StringValue) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error)

	// Upload consumes the client's message sequence and returns their
	// values joined by commas, demonstrating client-streaming. gRPC-only:
	// Twirp's HTTP wire format has no framing for an inbound message
	// sequence.
	Upload(ctx context.Context, in *server.ClientStream[*wrapperspb.StringValue]) (*wrapperspb.StringValue, *twerr.Error)

	// Chat echoes each received value back as it arrives, demonstrating
	// bidirectional streaming. gRPC-only, for the same reason as Upload.
	Chat(ctx context.Context, in *server.ClientStream[*wrapperspb.StringValue]) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error)
}

// Config configures a new service instance.
type Config struct {
	// Clock sources the timestamp Test returns. Defaults to clock.New() (a
	// real wall clock) when nil.
	Clock clock.Clock
}

type exampleService struct {
	clock clock.Clock
}

// New returns an ExampleService backed by config.
func New(config *Config) ExampleService {
	c := config.Clock
	if c == nil {
		c = clock.New()
	}
	return &exampleService{clock: c}
}

func (s *exampleService) Test(ctx context.Context, in *wrapperspb.StringValue) (*timestamppb.Timestamp, *twerr.Error) {
	if in.GetValue() == "unauthed" {
		return nil, twerr.UnauthenticatedError("Invalid password")
	}
	return timestamppb.New(s.clock.Now()), nil
}

func (s *exampleService) Empty(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, *twerr.Error) {
	return &wrapperspb.StringValue{}, nil
}

func (s *exampleService) Stream(ctx context.Context, in *wrapperspb.StringValue) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error) {
	if in.GetValue() == "" {
		return nil, twerr.InvalidArgumentError("value", "must not be empty")
	}
	ch := make(chan server.StreamItem[*wrapperspb.StringValue], 2)
	ch <- server.StreamItem[*wrapperspb.StringValue]{Message: wrapperspb.String(fmt.Sprintf("echo:%s", in.GetValue()))}
	ch <- server.StreamItem[*wrapperspb.StringValue]{Err: twerr.NotFoundError("foo")}
	close(ch)
	return ch, nil
}

func (s *exampleService) Upload(ctx context.Context, in *server.ClientStream[*wrapperspb.StringValue]) (*wrapperspb.StringValue, *twerr.Error) {
	var values []string
	for {
		msg, err := in.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, twerr.InternalErrorWith(err)
		}
		values = append(values, msg.GetValue())
	}
	return wrapperspb.String(strings.Join(values, ",")), nil
}

func (s *exampleService) Chat(ctx context.Context, in *server.ClientStream[*wrapperspb.StringValue]) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error) {
	ch := make(chan server.StreamItem[*wrapperspb.StringValue])
	go func() {
		defer close(ch)
		for {
			msg, err := in.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				ch <- server.StreamItem[*wrapperspb.StringValue]{Err: twerr.InternalErrorWith(err)}
				return
			}
			ch <- server.StreamItem[*wrapperspb.StringValue]{Message: wrapperspb.String(fmt.Sprintf("echo:%s", msg.GetValue()))}
		}
	}()
	return ch, nil
}

// URL paths for the RPCs, matching the wire path convention
// "/<package>.<Service>/<Method>". UploadPath and ChatPath are used by
// RegisterGrpc only: Register mounts no HTTP route for them.
const (
	TestPath   = "/example.ExampleService/Test"
	EmptyPath  = "/example.ExampleService/Empty"
	StreamPath = "/example.ExampleService/Stream"
	UploadPath = "/example.ExampleService/Upload"
	ChatPath   = "/example.ExampleService/Chat"
)

// Register wires impl onto tr's three routes. This is what
// codegen.Generate's "Register<Service>" output would contain for this
// exact service shape (no request extractors configured).
func Register(tr *server.TwirpRouter, impl ExampleService) *server.TwirpRouter {
	server.Route(tr, TestPath,
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *wrapperspb.StringValue, parts *server.RequestParts, state any) (*timestamppb.Timestamp, *twerr.Error) {
			return impl.Test(ctx, in)
		})
	server.Route(tr, EmptyPath,
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *wrapperspb.StringValue, parts *server.RequestParts, state any) (*wrapperspb.StringValue, *twerr.Error) {
			return impl.Empty(ctx, in)
		})
	server.RouteStreaming(tr, StreamPath,
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *wrapperspb.StringValue, parts *server.RequestParts, state any) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error) {
			return impl.Stream(ctx, in)
		})
	return tr
}

// RegisterGrpc wires impl onto gr's five methods, the gRPC-adapter
// counterpart of Register plus the gRPC-only Upload and Chat.
func RegisterGrpc(gr *server.GrpcRouter, impl ExampleService) *server.GrpcRouter {
	server.GrpcRoute(gr, TestPath,
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *wrapperspb.StringValue, parts *server.RequestParts) (*timestamppb.Timestamp, *twerr.Error) {
			return impl.Test(ctx, in)
		})
	server.GrpcRoute(gr, EmptyPath,
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *wrapperspb.StringValue, parts *server.RequestParts) (*wrapperspb.StringValue, *twerr.Error) {
			return impl.Empty(ctx, in)
		})
	server.GrpcRouteServerStreaming(gr, StreamPath,
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *wrapperspb.StringValue, parts *server.RequestParts) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error) {
			return impl.Stream(ctx, in)
		})
	server.GrpcRouteClientStreaming(gr, UploadPath,
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *server.ClientStream[*wrapperspb.StringValue], parts *server.RequestParts) (*wrapperspb.StringValue, *twerr.Error) {
			return impl.Upload(ctx, in)
		})
	server.GrpcRouteBidiStreaming(gr, ChatPath,
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *server.ClientStream[*wrapperspb.StringValue], parts *server.RequestParts) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error) {
			return impl.Chat(ctx, in)
		})
	return gr
}
