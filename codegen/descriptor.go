// Package codegen renders Go source for a Twirp client, server interface,
// and router-building function from a service descriptor, the same job
// protoc-gen-twirp's own prost_build service generator does for Rust (see
// cmd/protoc-gen-twurst for the protoc plugin entrypoint that drives this
// package from a CodeGeneratorRequest).
package codegen

// MethodDescriptor describes a single RPC method on a service, independent
// of any particular protobuf descriptor representation so it can be built
// by hand in tests.
type MethodDescriptor struct {
	// Name is the Go-facing method name (typically the proto method name
	// unchanged).
	Name string
	// ProtoName is the name as it appears in the .proto file, used to build
	// the wire path.
	ProtoName string
	// InputType and OutputType are fully qualified Go type expressions for
	// the method's request and response messages, e.g. "*examplepb.TestRequest".
	InputType  string
	OutputType string

	ClientStreaming bool
	ServerStreaming bool

	Deprecated bool
	Comments   []string
}

// ServiceDescriptor describes a single RPC service.
type ServiceDescriptor struct {
	// Package is the protobuf package the service belongs to, e.g. "example".
	Package string
	// ProtoName is the service's name as declared in the .proto file.
	ProtoName string
	// LocalName is the Go type name to use for generated client/server
	// types, e.g. "ExampleService". Defaults to ProtoName when empty.
	LocalName string

	Methods []MethodDescriptor

	Deprecated bool
	Comments   []string
}

// FullyQualifiedPath returns the dotted path used to match this service
// against a pathmap.Map, e.g. ".example.ExampleService".
func (s ServiceDescriptor) FullyQualifiedPath() string {
	return "." + s.Package + "." + s.ProtoName
}

// goName returns LocalName, falling back to ProtoName.
func (s ServiceDescriptor) goName() string {
	if s.LocalName != "" {
		return s.LocalName
	}
	return s.ProtoName
}

// urlPath returns the wire path for method m of service s, e.g.
// "/example.ExampleService/Test".
func (s ServiceDescriptor) urlPath(m MethodDescriptor) string {
	return "/" + s.Package + "." + s.ProtoName + "/" + m.ProtoName
}

// unary reports whether m has neither client nor server streaming.
func (m MethodDescriptor) unary() bool {
	return !m.ClientStreaming && !m.ServerStreaming
}
