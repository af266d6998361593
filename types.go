package jsonpath

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
)

// Sentinel errors.
var (
	// ErrPathParse is returned when a JSONPath expression cannot be parsed.
	ErrPathParse = errors.New("jsonpath: parse error")
	// ErrFunction is the sentinel for function extension failures. No
	// function in this module returns it: evaluation reports no errors, and
	// [functions.Function.Call] has no error result.
	ErrFunction = errors.New("jsonpath: function error")
	// ErrUnmarshal is returned when JSON unmarshaling fails in the
	// QueryJSON convenience functions.
	ErrUnmarshal = errors.New("jsonpath: unmarshal error")
)

// SyntaxError describes a parse failure at a byte position within the
// query source. It matches [ErrPathParse] under [errors.Is].
type SyntaxError struct {
	// Position is the byte offset from the start of the query.
	Position int
	// Message is the human-readable reason.
	Message string
}

// Error returns the message with its position.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("jsonpath: parse error: %s at position %d", e.Message, e.Position)
}

// Is reports whether target is [ErrPathParse], so callers can match
// syntax errors without knowing the concrete type.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrPathParse
}

// PathElement is a single step in a [NormalizedPath]: a member name or an
// array index. Implemented by [NameElement] and [IndexElement].
type PathElement interface {
	pathElement()
	// writeNormalizedTo writes the element in normalized-path form to buf.
	writeNormalizedTo(buf *strings.Builder)
	// writePointerTo writes the element as an RFC 6901 JSON Pointer
	// reference token to buf.
	writePointerTo(buf *strings.Builder)
}

// NameElement is a member-name step in a normalized path.
type NameElement string

func (NameElement) pathElement() {}

// writeNormalizedTo writes n as ['name'] with the RFC 9535 §2.7 escapes:
// the short escapes for backspace, form feed, newline, carriage return,
// tab, apostrophe, and backslash, and \u00xx (lowercase hex) for any other
// control character.
func (n NameElement) writeNormalizedTo(buf *strings.Builder) {
	buf.WriteString("['")
	for _, r := range string(n) {
		switch r {
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\'':
			buf.WriteString(`\'`)
		case '\\':
			buf.WriteString(`\\`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteString("']")
}

// writePointerTo writes n as an RFC 6901 reference token, escaping ~ as ~0
// and / as ~1.
func (n NameElement) writePointerTo(buf *strings.Builder) {
	s := strings.ReplaceAll(string(n), "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	buf.WriteString(s)
}

// IndexElement is an array-index step in a normalized path.
type IndexElement int

func (IndexElement) pathElement() {}

// writeNormalizedTo writes i as [N].
func (i IndexElement) writeNormalizedTo(buf *strings.Builder) {
	buf.WriteByte('[')
	buf.WriteString(strconv.Itoa(int(i)))
	buf.WriteByte(']')
}

// writePointerTo writes i as its decimal string.
func (i IndexElement) writePointerTo(buf *strings.Builder) {
	buf.WriteString(strconv.Itoa(int(i)))
}

// NormalizedPath is the canonical location of a node within a JSON value,
// per RFC 9535 §2.7: a sequence of name and index steps.
type NormalizedPath []PathElement

// String returns the normalized path string, e.g. $['a'][0].
func (p NormalizedPath) String() string {
	var buf strings.Builder
	buf.WriteByte('$')
	for _, e := range p {
		e.writeNormalizedTo(&buf)
	}
	return buf.String()
}

// Pointer returns the equivalent RFC 6901 JSON Pointer, e.g. /a/0.
func (p NormalizedPath) Pointer() string {
	var buf strings.Builder
	for _, e := range p {
		buf.WriteByte('/')
		e.writePointerTo(&buf)
	}
	return buf.String()
}

// Compare compares p to q element-wise and returns -1, 0, or 1. Index
// steps sort before name steps; shorter paths sort before their
// extensions.
func (p NormalizedPath) Compare(q NormalizedPath) int {
	for i := range min(len(p), len(q)) {
		pName, pIsName := p[i].(NameElement)
		qName, qIsName := q[i].(NameElement)

		switch {
		case pIsName && qIsName:
			if x := cmp.Compare(string(pName), string(qName)); x != 0 {
				return x
			}
		case pIsName:
			return 1
		case qIsName:
			return -1
		default:
			pIdx := p[i].(IndexElement)
			qIdx := q[i].(IndexElement)
			if x := cmp.Compare(int(pIdx), int(qIdx)); x != 0 {
				return x
			}
		}
	}
	return cmp.Compare(len(p), len(q))
}

// MarshalText returns the normalized path string. Implements
// [encoding.TextMarshaler].
func (p NormalizedPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// LocatedNode pairs a selected value with the [NormalizedPath] of its
// location within the query argument. The value is shared with the input
// document; the path is owned by the node.
type LocatedNode struct {
	Value any
	Path  NormalizedPath
}

// NodeList is the ordered list of values selected by a query.
type NodeList []any

// All returns an iterator over the values in list.
func (l NodeList) All() iter.Seq[any] {
	return slices.Values(l)
}

// LocatedNodeList is the ordered list of located nodes selected by a
// query.
type LocatedNodeList []*LocatedNode

// All returns an iterator over the located nodes in list.
func (l LocatedNodeList) All() iter.Seq[*LocatedNode] {
	return slices.Values(l)
}

// Values returns an iterator over the node values in list.
func (l LocatedNodeList) Values() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, n := range l {
			if !yield(n.Value) {
				return
			}
		}
	}
}

// Paths returns an iterator over the [NormalizedPath] values in list.
func (l LocatedNodeList) Paths() iter.Seq[NormalizedPath] {
	return func(yield func(NormalizedPath) bool) {
		for _, n := range l {
			if !yield(n.Path) {
				return
			}
		}
	}
}

// Deduplicate removes nodes whose normalized path has already appeared,
// keeping the first occurrence of each. It modifies list in place,
// zeroing the abandoned tail, and returns the shortened list.
func (l LocatedNodeList) Deduplicate() LocatedNodeList {
	if len(l) <= 1 {
		return l
	}

	seen := make(map[string]struct{}, len(l))
	uniq := l[:0]
	for _, n := range l {
		p := n.Path.String()
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			uniq = append(uniq, n)
		}
	}
	clear(l[len(uniq):])
	return slices.Clip(uniq)
}

// Sort sorts list by normalized path.
func (l LocatedNodeList) Sort() {
	slices.SortFunc(l, func(a, b *LocatedNode) int {
		return a.Path.Compare(b.Path)
	})
}
