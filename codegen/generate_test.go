package codegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helsing-ai/twurst/codegen"
	"github.com/helsing-ai/twurst/pathmap"
)

func exampleService() codegen.ServiceDescriptor {
	return codegen.ServiceDescriptor{
		Package:   "example",
		ProtoName: "ExampleService",
		Methods: []codegen.MethodDescriptor{
			{
				Name:       "Test",
				ProtoName:  "Test",
				InputType:  "*wrapperspb.StringValue",
				OutputType: "*timestamppb.Timestamp",
			},
			{
				Name:            "Stream",
				ProtoName:       "Stream",
				InputType:       "*wrapperspb.StringValue",
				OutputType:      "*wrapperspb.StringValue",
				ServerStreaming: true,
			},
		},
	}
}

func TestGenerateClientAndServer(t *testing.T) {
	out, err := codegen.Generate(exampleService(), codegen.GenerateOptions{
		PackageName: "examplepb",
		EmitClient:  true,
		EmitServer:  true,
	})
	assert.NoError(t, err)
	assert.Contains(t, out, "type ExampleServiceClient struct")
	assert.Contains(t, out, "func NewExampleServiceClient(c *client.TwirpHttpClient) *ExampleServiceClient")
}

func TestGenerateClientMethodUsesWirePath(t *testing.T) {
	out, err := codegen.Generate(exampleService(), codegen.GenerateOptions{
		PackageName: "examplepb",
		EmitClient:  true,
	})
	assert.NoError(t, err)
	assert.Contains(t, out, `"/example.ExampleService/Test"`)
	assert.Contains(t, out, "func (c *ExampleServiceClient) Test(ctx context.Context, in *wrapperspb.StringValue) (*timestamppb.Timestamp, *twerr.Error)")
}

func TestGenerateServerInterfaceIncludesStreamingWithoutGRPC(t *testing.T) {
	out, err := codegen.Generate(exampleService(), codegen.GenerateOptions{
		PackageName: "examplepb",
		EmitServer:  true,
	})
	assert.NoError(t, err)
	assert.Contains(t, out, "type ExampleServiceServer interface")
	assert.Contains(t, out, "Test(ctx context.Context, in *wrapperspb.StringValue) (*timestamppb.Timestamp, *twerr.Error)")
	assert.Contains(t, out, "Stream(ctx context.Context, in *wrapperspb.StringValue) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error)")
	assert.NotContains(t, out, "func RegisterExampleServiceGrpc")
}

func TestGenerateServerInterfaceIncludesStreamingWithGRPC(t *testing.T) {
	out, err := codegen.Generate(exampleService(), codegen.GenerateOptions{
		PackageName: "examplepb",
		EmitServer:  true,
		EmitGRPC:    true,
	})
	assert.NoError(t, err)
	assert.Contains(t, out, "Stream(ctx context.Context, in *wrapperspb.StringValue) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error)")
	assert.Contains(t, out, "func RegisterExampleServiceGrpc(gr *server.GrpcRouter, impl ExampleServiceServer) *server.GrpcRouter {")
}

func TestGenerateRouterBuilderSplicesExtractors(t *testing.T) {
	matched := pathmap.New[[]codegen.ExtractorSpec]()
	matched.Insert(".example.ExampleService", []codegen.ExtractorSpec{
		{Arg: "auth", TypeName: "*AuthInfo"},
	})

	out, err := codegen.Generate(exampleService(), codegen.GenerateOptions{
		PackageName:       "examplepb",
		EmitServer:        true,
		MatchedExtractors: matched,
	})
	assert.NoError(t, err)
	assert.Contains(t, out, "auth *AuthInfo")
	assert.Contains(t, out, "auth, extractErr := ExtractAuthInfo(parts, state)")
	assert.Contains(t, out, "return nil, twerr.FromHTTPResponse(extractErr.Status, extractErr.Body)")
	assert.NotContains(t, out, `"fmt"`)
	assert.NotContains(t, out, "extractor failed")
	assert.True(t, strings.Contains(out, "func RegisterExampleService(tr *server.TwirpRouter, impl ExampleServiceServer) *server.TwirpRouter {"))
}

func serviceWithStreamingVariants() codegen.ServiceDescriptor {
	return codegen.ServiceDescriptor{
		Package:   "example",
		ProtoName: "ExampleService",
		Methods: []codegen.MethodDescriptor{
			{
				Name:       "Test",
				ProtoName:  "Test",
				InputType:  "*wrapperspb.StringValue",
				OutputType: "*timestamppb.Timestamp",
			},
			{
				Name:            "Upload",
				ProtoName:       "Upload",
				InputType:       "*wrapperspb.StringValue",
				OutputType:      "*timestamppb.Timestamp",
				ClientStreaming: true,
			},
			{
				Name:            "Chat",
				ProtoName:       "Chat",
				InputType:       "*wrapperspb.StringValue",
				OutputType:      "*wrapperspb.StringValue",
				ClientStreaming: true,
				ServerStreaming: true,
			},
		},
	}
}

func TestGenerateSkipsClientAndBidiStreamingOverHTTP(t *testing.T) {
	out, err := codegen.Generate(serviceWithStreamingVariants(), codegen.GenerateOptions{
		PackageName: "examplepb",
		EmitServer:  true,
		EmitGRPC:    true,
	})
	assert.NoError(t, err)
	assert.NotContains(t, out, "server.Route(tr, \"/example.ExampleService/Upload\"")
	assert.NotContains(t, out, "server.RouteStreaming(tr, \"/example.ExampleService/Chat\"")
}

func TestGenerateServerInterfaceOmitsClientStreamingWithoutGRPC(t *testing.T) {
	out, err := codegen.Generate(serviceWithStreamingVariants(), codegen.GenerateOptions{
		PackageName: "examplepb",
		EmitServer:  true,
	})
	assert.NoError(t, err)
	assert.NotContains(t, out, "Upload(")
	assert.NotContains(t, out, "Chat(")
}

func TestGenerateGrpcRouterHandlesClientAndBidiStreaming(t *testing.T) {
	out, err := codegen.Generate(serviceWithStreamingVariants(), codegen.GenerateOptions{
		PackageName: "examplepb",
		EmitServer:  true,
		EmitGRPC:    true,
	})
	assert.NoError(t, err)
	assert.Contains(t, out, "Upload(ctx context.Context, in *server.ClientStream[*wrapperspb.StringValue]) (*timestamppb.Timestamp, *twerr.Error)")
	assert.Contains(t, out, "Chat(ctx context.Context, in *server.ClientStream[*wrapperspb.StringValue]) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error)")
	assert.Contains(t, out, `server.GrpcRouteClientStreaming(gr, "/example.ExampleService/Upload",`)
	assert.Contains(t, out, "func(ctx context.Context, in *server.ClientStream[*wrapperspb.StringValue], parts *server.RequestParts) (*timestamppb.Timestamp, *twerr.Error) {")
	assert.Contains(t, out, `server.GrpcRouteBidiStreaming(gr, "/example.ExampleService/Chat",`)
	assert.Contains(t, out, "func(ctx context.Context, in *server.ClientStream[*wrapperspb.StringValue], parts *server.RequestParts) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error) {")
}

func TestGenerateRequiresPackageName(t *testing.T) {
	_, err := codegen.Generate(exampleService(), codegen.GenerateOptions{EmitClient: true})
	assert.Error(t, err)
}
