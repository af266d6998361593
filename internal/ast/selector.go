package ast

import (
	"strconv"
	"strings"
)

// SelectorKind identifies the variant stored in a [Selector].
type SelectorKind uint8

const (
	KindName     SelectorKind = iota // member name selector
	KindIndex                        // array index selector
	KindSlice                        // array slice selector
	KindWildcard                     // wildcard selector
	KindFilter                       // filter selector
)

// Selector is a tagged union over the five RFC 9535 selector types. A
// concrete struct (rather than an interface) keeps selector slices
// contiguous in memory and dispatch a plain switch.
type Selector struct {
	Kind   SelectorKind
	Name   string      // KindName: the member name
	Index  int64       // KindIndex: the array index (may be negative)
	Slice  SliceArgs   // KindSlice
	Filter *FilterExpr // KindFilter
}

// SliceArgs holds the optional start, end, and step of a slice selector.
// The Has* flags distinguish an absent component from an explicit zero.
type SliceArgs struct {
	Start    int64
	End      int64
	Step     int64
	HasStart bool
	HasEnd   bool
	HasStep  bool
}

// NameSelector returns a Selector for a member name.
func NameSelector(name string) Selector {
	return Selector{Kind: KindName, Name: name}
}

// IndexSelector returns a Selector for an array index.
func IndexSelector(idx int64) Selector {
	return Selector{Kind: KindIndex, Index: idx}
}

// SliceSelector returns a Selector for an array slice.
func SliceSelector(args SliceArgs) Selector {
	return Selector{Kind: KindSlice, Slice: args}
}

// WildcardSelector returns a wildcard Selector.
func WildcardSelector() Selector {
	return Selector{Kind: KindWildcard}
}

// FilterSelector returns a filter Selector.
func FilterSelector(expr *FilterExpr) Selector {
	return Selector{Kind: KindFilter, Filter: expr}
}

// IsSingular reports whether the selector selects at most one node. Only
// name and index selectors are singular.
func (s *Selector) IsSingular() bool {
	return s.Kind == KindName || s.Kind == KindIndex
}

// writeTo writes the canonical bracketed-form representation of s to buf.
func (s *Selector) writeTo(buf *strings.Builder) {
	switch s.Kind {
	case KindName:
		buf.WriteString(strconv.Quote(s.Name))
	case KindIndex:
		buf.WriteString(strconv.FormatInt(s.Index, 10))
	case KindSlice:
		s.Slice.writeTo(buf)
	case KindWildcard:
		buf.WriteByte('*')
	case KindFilter:
		buf.WriteByte('?')
		s.Filter.writeTo(buf)
	}
}

// String returns the canonical string representation of s.
func (s *Selector) String() string {
	var buf strings.Builder
	s.writeTo(&buf)
	return buf.String()
}

// writeTo writes the canonical slice notation (e.g. "1:5:2") to buf.
func (a *SliceArgs) writeTo(buf *strings.Builder) {
	if a.HasStart {
		buf.WriteString(strconv.FormatInt(a.Start, 10))
	}
	buf.WriteByte(':')
	if a.HasEnd {
		buf.WriteString(strconv.FormatInt(a.End, 10))
	}
	if a.HasStep {
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(a.Step, 10))
	}
}
