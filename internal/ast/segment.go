package ast

import "strings"

// Segment is a child or descendant segment per RFC 9535 §1.4.2. A segment
// holds one or more selectors; applying it to a node yields the
// concatenation of each selector's results in order.
type Segment struct {
	selectors  []Selector
	descendant bool
}

// ChildSegment creates a segment that applies its selectors to the children
// of each input node.
func ChildSegment(selectors ...Selector) Segment {
	return Segment{selectors: selectors}
}

// DescendantSegment creates a segment that applies its selectors to each
// input node and all of its descendants in depth-first pre-order.
func DescendantSegment(selectors ...Selector) Segment {
	return Segment{selectors: selectors, descendant: true}
}

// Selectors returns the segment's selectors.
func (s *Segment) Selectors() []Selector { return s.selectors }

// IsDescendant reports whether the segment is a descendant segment.
func (s *Segment) IsDescendant() bool { return s.descendant }

// IsSingular reports whether the segment selects at most one node: a child
// segment holding exactly one name or index selector.
func (s *Segment) IsSingular() bool {
	if s.descendant || len(s.selectors) != 1 {
		return false
	}
	return s.selectors[0].IsSingular()
}

// writeTo writes the canonical string representation of the segment to buf.
// Child segments format as [<selectors>]; descendant segments as
// ..[<selectors>].
func (s *Segment) writeTo(buf *strings.Builder) {
	if s.descendant {
		buf.WriteString("..")
	}
	buf.WriteByte('[')
	for i := range s.selectors {
		if i > 0 {
			buf.WriteByte(',')
		}
		s.selectors[i].writeTo(buf)
	}
	buf.WriteByte(']')
}

// String returns the canonical string representation of the segment.
func (s *Segment) String() string {
	var buf strings.Builder
	s.writeTo(&buf)
	return buf.String()
}
