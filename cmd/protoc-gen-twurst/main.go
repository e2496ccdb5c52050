// Command protoc-gen-twurst is a protoc plugin that emits a Twirp client,
// server interface, and router-building function per service, by driving
// the codegen package from a CodeGeneratorRequest.
//
// Usage (via protoc or buf):
//
//	protoc --twurst_out=. --twurst_opt=client,server,grpc foo.proto
//
// Recognized --twurst_opt parameters: "client", "server", "grpc" (enable the
// corresponding emission), and "extractor=<arg>:<type>" (adds a default
// request extractor; may be repeated).
package main

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/compiler/protogen"

	"github.com/helsing-ai/twurst/codegen"
)

func main() {
	protogen.Options{}.Run(func(gen *protogen.Plugin) error {
		opts, err := parseParameter(gen.Request.GetParameter())
		if err != nil {
			return err
		}

		for _, file := range gen.Files {
			if !file.Generate || len(file.Services) == 0 {
				continue
			}
			if err := generateFile(gen, file, opts); err != nil {
				return err
			}
		}
		return nil
	})
}

// pluginOptions holds the parsed --twurst_opt parameter string.
type pluginOptions struct {
	emitClient bool
	emitServer bool
	emitGRPC   bool
	extractors []codegen.ExtractorSpec
}

func parseParameter(param string) (pluginOptions, error) {
	opts := pluginOptions{}
	if param == "" {
		opts.emitClient = true
		opts.emitServer = true
		return opts, nil
	}
	for _, part := range strings.Split(param, ",") {
		switch {
		case part == "client":
			opts.emitClient = true
		case part == "server":
			opts.emitServer = true
		case part == "grpc":
			opts.emitGRPC = true
		case strings.HasPrefix(part, "extractor="):
			spec := strings.TrimPrefix(part, "extractor=")
			argAndType := strings.SplitN(spec, ":", 2)
			if len(argAndType) != 2 {
				return opts, fmt.Errorf("protoc-gen-twurst: malformed extractor option %q, want arg:type", spec)
			}
			opts.extractors = append(opts.extractors, codegen.ExtractorSpec{Arg: argAndType[0], TypeName: argAndType[1]})
		case part == "":
			// allow trailing commas
		default:
			return opts, fmt.Errorf("protoc-gen-twurst: unrecognized option %q", part)
		}
	}
	return opts, nil
}

func generateFile(gen *protogen.Plugin, file *protogen.File, opts pluginOptions) error {
	for _, service := range file.Services {
		svc := codegen.ServiceDescriptor{
			Package:   string(file.Desc.Package()),
			ProtoName: string(service.Desc.Name()),
			LocalName: service.GoName,
			Comments:  commentLines(service.Comments.Leading),
		}
		for _, method := range service.Methods {
			svc.Methods = append(svc.Methods, codegen.MethodDescriptor{
				Name:            method.GoName,
				ProtoName:       string(method.Desc.Name()),
				InputType:       "*" + goIdentString(gen, file, method.Input.GoIdent),
				OutputType:      "*" + goIdentString(gen, file, method.Output.GoIdent),
				ClientStreaming: method.Desc.IsStreamingClient(),
				ServerStreaming: method.Desc.IsStreamingServer(),
				Comments:        commentLines(method.Comments.Leading),
			})
		}

		genOpts := codegen.GenerateOptions{
			PackageName:       string(file.GoPackageName),
			EmitClient:        opts.emitClient,
			EmitServer:        opts.emitServer,
			EmitGRPC:          opts.emitGRPC,
			DefaultExtractors: opts.extractors,
		}

		src, err := codegen.Generate(svc, genOpts)
		if err != nil {
			return fmt.Errorf("protoc-gen-twurst: generating %s: %w", svc.ProtoName, err)
		}

		outFile := gen.NewGeneratedFile(
			strings.TrimSuffix(file.GeneratedFilenamePrefix, "") + ".twurst.go",
			file.GoImportPath,
		)
		outFile.P(src)
	}
	return nil
}

// goIdentString renders a GoIdent relative to the file being generated,
// without tracking cross-file import qualification (every message referenced
// here is expected to live in the same generated Go package as its service,
// the common case for a single-file .proto).
func goIdentString(_ *protogen.Plugin, _ *protogen.File, ident protogen.GoIdent) string {
	return ident.GoName
}

func commentLines(c protogen.Comments) []string {
	text := strings.TrimSpace(string(c))
	if text == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimPrefix(line, " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
