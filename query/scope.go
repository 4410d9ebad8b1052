// Package query implements the Temporal Query Layer (component C): scoped
// facts, finality and isolation levels, and the Datalog-lite/Biscuit-style
// surface queries are expressed against.
package query

import "strings"

// SegmentKind distinguishes a ScopeId segment's two shapes (§4.3).
type SegmentKind uint8

const (
	SegmentNamed SegmentKind = iota + 1
	SegmentTyped
)

// Segment is one component of a ScopeId: either a bare name or a
// (kind, id) pair, rendered "kind:id".
type Segment struct {
	Kind SegmentKind
	Name string // populated for SegmentNamed
	TypeKind string // populated for SegmentTyped
	TypeID   string // populated for SegmentTyped
}

func Named(name string) Segment { return Segment{Kind: SegmentNamed, Name: name} }
func Typed(kind, id string) Segment { return Segment{Kind: SegmentTyped, TypeKind: kind, TypeID: id} }

func (s Segment) String() string {
	if s.Kind == SegmentTyped {
		return s.TypeKind + ":" + s.TypeID
	}
	return s.Name
}

// ScopeId is an ordered sequence of segments forming a hierarchy; scopes are
// rendered "authority:abc/chat/channel:xyz" (§4.3).
type ScopeId struct {
	Segments []Segment
}

func NewScopeId(segments ...Segment) ScopeId {
	return ScopeId{Segments: segments}
}

func (s ScopeId) String() string {
	parts := make([]string, len(s.Segments))
	for i, seg := range s.Segments {
		parts[i] = seg.String()
	}
	return strings.Join(parts, "/")
}

// StartsWith reports whether prefix is a prefix of s under segment-wise
// equality, implementing scope hierarchy containment.
func (s ScopeId) StartsWith(prefix ScopeId) bool {
	if len(prefix.Segments) > len(s.Segments) {
		return false
	}
	for i, seg := range prefix.Segments {
		if seg != s.Segments[i] {
			return false
		}
	}
	return true
}

// Child appends a segment, returning the child scope.
func (s ScopeId) Child(seg Segment) ScopeId {
	out := make([]Segment, len(s.Segments)+1)
	copy(out, s.Segments)
	out[len(s.Segments)] = seg
	return ScopeId{Segments: out}
}

// Parent returns the immediate parent scope and whether one exists (the
// root scope has none).
func (s ScopeId) Parent() (ScopeId, bool) {
	if len(s.Segments) == 0 {
		return ScopeId{}, false
	}
	return ScopeId{Segments: s.Segments[:len(s.Segments)-1]}, true
}
