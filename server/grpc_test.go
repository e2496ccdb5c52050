package server_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/types/known/wrapperspb"

	twerr "github.com/helsing-ai/twurst/error"
	"github.com/helsing-ai/twurst/server"
)

// Registering a handler that returns not_found("foo") yields a built
// server. The mapping of that error to gRPC Status(NotFound, "foo") (S6) is
// checked in the error package's TestGRPCStatusScenario.
func TestGrpcRouteRegistersErroringHandler(t *testing.T) {
	gr := server.NewGrpcRouter()
	server.GrpcRoute(gr, "/example.ExampleService/Test",
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *wrapperspb.StringValue, parts *server.RequestParts) (*wrapperspb.StringValue, *twerr.Error) {
			return nil, twerr.NotFoundError("foo")
		})
	srv := gr.Build()
	assert.NotNil(t, srv)
}

func TestGrpcFallbackStatus(t *testing.T) {
	st := server.GrpcFallbackStatus("/unknown.Service/Method")
	assert.Equal(t, "/unknown.Service/Method is not a supported gRPC method", st.Message())
}
