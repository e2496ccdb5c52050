// Package pathmap implements ProtoPathMap, an ordered association from
// protobuf path matchers to values, used to attach server-side request
// extractors to a subset of services by protobuf package/service path.
package pathmap

import "strings"

// entry is a single (matcher, value) pair, kept in insertion order.
type entry[V any] struct {
	matcher string
	value   V
}

// Map is an ordered sequence of (matcher, value) pairs. The zero value is
// an empty map ready to use.
type Map[V any] struct {
	entries []entry[V]
}

// New returns an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{}
}

// Insert appends a (matcher, value) pair. Matchers are not deduplicated:
// inserting the same matcher twice keeps both entries, in insertion order.
func (m *Map[V]) Insert(matcher string, value V) {
	m.entries = append(m.entries, entry[V]{matcher: matcher, value: value})
}

// Service describes the minimal shape needed to compute a fully-qualified
// proto path for matching: a protobuf package and a service (proto) name.
type Service struct {
	Package   string
	ProtoName string
}

// FullyQualifiedPath returns ".<package>.<proto_name>".
func (s Service) FullyQualifiedPath() string {
	return "." + s.Package + "." + s.ProtoName
}

// ServiceMatches returns, in insertion order, the values whose matcher
// appears in SubPathIter(service's fully-qualified path).
func (m *Map[V]) ServiceMatches(service Service) []V {
	return m.PathMatches(service.FullyQualifiedPath())
}

// PathMatches returns, in insertion order, the values whose matcher appears
// in SubPathIter(path).
func (m *Map[V]) PathMatches(path string) []V {
	candidates := SubPathIter(path)
	set := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		set[c] = struct{}{}
	}
	var out []V
	for _, e := range m.entries {
		if _, ok := set[e.matcher]; ok {
			out = append(out, e.value)
		}
	}
	return out
}

// SubPathIter yields, in order: p itself; every non-empty suffix of p
// obtained by repeatedly dropping the leading segment; every non-empty
// prefix of p obtained by repeatedly dropping the trailing segment
// (excluding p itself); and finally ".".
//
// For the root "." it yields only ["."]: there are no suffixes or prefixes
// of the root to compute.
func SubPathIter(p string) []string {
	if p == "." {
		return []string{"."}
	}

	out := []string{p}

	// Suffixes: drop the leading segment repeatedly. The path has a leading
	// "." which is not itself a segment separator here; segments are
	// separated by ".".
	trimmed := strings.TrimPrefix(p, ".")
	segments := strings.Split(trimmed, ".")
	for i := 0; i < len(segments); i++ {
		out = append(out, strings.Join(segments[i:], "."))
	}

	// Prefixes: drop the trailing segment repeatedly, keeping the leading
	// ".", excluding p itself.
	for i := len(segments) - 1; i > 0; i-- {
		out = append(out, "."+strings.Join(segments[:i], "."))
	}

	out = append(out, ".")
	return out
}
