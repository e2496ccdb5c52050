package codegen

import "github.com/helsing-ai/twurst/pathmap"

// ExtractorSpec names a single request extractor argument: arg is the
// parameter name the generated handler binds it to, typeName is the fully
// qualified Go type implementing FromRequestParts that produces it.
type ExtractorSpec struct {
	Arg      string
	TypeName string
}

// DefaultTypeNameDomain is the conventional Any type-URL domain. Nothing in
// this package reads it; Generate does not fill TypeNameDomain from it.
const DefaultTypeNameDomain = "type.googleapis.com"

// GenerateOptions controls which artifacts Generate emits and how request
// extractors are spliced into generated handlers.
type GenerateOptions struct {
	// PackageName is the Go package name written into the generated file's
	// package clause.
	PackageName string

	EmitClient bool
	EmitServer bool
	EmitGRPC   bool

	// DefaultExtractors apply to every service unless overridden below.
	DefaultExtractors []ExtractorSpec

	// MatchedExtractors overrides DefaultExtractors for services whose
	// fully qualified path matches an entry, per pathmap's suffix/prefix/
	// global matching rules. The first matching entry (in insertion order)
	// wins, matching the Rust generator's "service_matches" behavior where
	// matching any entry at all suppresses the defaults entirely.
	MatchedExtractors *pathmap.Map[[]ExtractorSpec]

	// TypeNameDomain names an Any type-URL domain. Go's protobuf runtime
	// does not need this for encode/decode (unlike the Rust prost runtime,
	// whose dynamic Any resolution is domain-aware), so it is carried here
	// only for parity with the original generator's surface: Generate does
	// not read it and writes nothing based on it.
	TypeNameDomain string
}

// extractorsFor resolves the extractor list a service should use: a
// service-specific match if one exists, else the defaults.
func (o GenerateOptions) extractorsFor(svc ServiceDescriptor) []ExtractorSpec {
	if o.MatchedExtractors != nil {
		matches := o.MatchedExtractors.ServiceMatches(pathmap.Service{
			Package:   svc.Package,
			ProtoName: svc.ProtoName,
		})
		if len(matches) > 0 {
			return matches[0]
		}
	}
	return o.DefaultExtractors
}
