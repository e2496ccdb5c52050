package codegen_test

import (
	"testing"

	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helsing-ai/twurst/codegen"
)

// serviceDescriptorFromProto parses protoSource in memory (no filesystem
// access) and converts the first service it declares into a
// codegen.ServiceDescriptor, exercising the same descriptor-walking a
// protoc-plugin entrypoint does, without requiring an actual protoc
// invocation in tests.
func serviceDescriptorFromProto(t *testing.T, filename, protoSource string) codegen.ServiceDescriptor {
	t.Helper()

	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{filename: protoSource}),
	}
	fds, err := parser.ParseFiles(filename)
	require.NoError(t, err)
	require.Len(t, fds, 1)

	services := fds[0].GetServices()
	require.Len(t, services, 1)
	svc := services[0]

	descriptor := codegen.ServiceDescriptor{
		Package:   fds[0].GetPackage(),
		ProtoName: svc.GetName(),
	}
	for _, m := range svc.GetMethods() {
		descriptor.Methods = append(descriptor.Methods, codegen.MethodDescriptor{
			Name:            m.GetName(),
			ProtoName:       m.GetName(),
			InputType:       "*" + m.GetInputType().GetName(),
			OutputType:      "*" + m.GetOutputType().GetName(),
			ClientStreaming: m.IsClientStreaming(),
			ServerStreaming: m.IsServerStreaming(),
		})
	}
	return descriptor
}

func TestGenerateFromParsedProtoDescriptor(t *testing.T) {
	const protoSource = `
syntax = "proto3";
package widgets;

message GetWidgetRequest {
  string id = 1;
}

message Widget {
  string id = 1;
  string name = 2;
}

service WidgetService {
  rpc GetWidget(GetWidgetRequest) returns (Widget);
  rpc WatchWidgets(GetWidgetRequest) returns (stream Widget);
}
`

	svc := serviceDescriptorFromProto(t, "widgets.proto", protoSource)
	assert.Equal(t, "widgets", svc.Package)
	assert.Equal(t, "WidgetService", svc.ProtoName)
	assert.Equal(t, ".widgets.WidgetService", svc.FullyQualifiedPath())
	assert.Len(t, svc.Methods, 2)

	out, err := codegen.Generate(svc, codegen.GenerateOptions{
		PackageName: "widgetspb",
		EmitClient:  true,
		EmitServer:  true,
		EmitGRPC:    true,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "func NewWidgetServiceClient(c *client.TwirpHttpClient) *WidgetServiceClient")
	assert.Contains(t, out, "WatchWidgets(ctx context.Context, in *GetWidgetRequest) (<-chan server.StreamItem[*Widget], *twerr.Error)")
	assert.Contains(t, out, `"/widgets.WidgetService/GetWidget"`)
}
