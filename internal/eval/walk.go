// Package eval evaluates compiled JSONPath queries against JSON value
// trees. It holds the value-only query walker used for filter
// sub-expressions and the filter engine: comparison algebra, logical
// connectives, existence tests, and function-call dispatch.
//
// Input trees combine map[string]any / []any (as produced by any JSON
// unmarshaler) and *ordered.Object (as produced by ordered.Unmarshal).
// Ordered objects are visited in insertion order; map members are visited
// in sorted-key order so results are deterministic either way.
package eval

import (
	"iter"
	"maps"
	"slices"

	"github.com/evenlode/jsonpath/internal/ast"
	"github.com/evenlode/jsonpath/ordered"
)

// Select evaluates q and returns the selected values in document order.
// Rooted queries ($) start at root; relative queries (@) start at current.
func Select(q *ast.Query, current, root any) []any {
	start := root
	if !q.IsRooted() {
		start = current
	}

	nodes := []any{start}
	segments := q.Segments()
	for i := range segments {
		if len(nodes) == 0 {
			return nodes
		}
		nodes = applySegment(&segments[i], nodes, root)
	}
	return nodes
}

// applySegment applies one segment to every node in the current nodelist.
func applySegment(seg *ast.Segment, nodes []any, root any) []any {
	out := make([]any, 0, len(nodes))
	if seg.IsDescendant() {
		for _, n := range nodes {
			out = appendDescendant(out, seg.Selectors(), n, root)
		}
		return out
	}
	for _, n := range nodes {
		out = appendSelectors(out, seg.Selectors(), n, root)
	}
	return out
}

// appendDescendant applies selectors to node and all of its descendants in
// depth-first pre-order, document order.
func appendDescendant(out []any, selectors []ast.Selector, node, root any) []any {
	out = appendSelectors(out, selectors, node, root)
	for _, child := range Children(node) {
		out = appendDescendant(out, selectors, child, root)
	}
	return out
}

// appendSelectors applies each selector to node in order.
func appendSelectors(out []any, selectors []ast.Selector, node, root any) []any {
	for i := range selectors {
		out = appendSelector(out, &selectors[i], node, root)
	}
	return out
}

// appendSelector applies a single selector to node.
func appendSelector(out []any, sel *ast.Selector, node, root any) []any {
	switch sel.Kind {
	case ast.KindName:
		if v, ok := Member(node, sel.Name); ok {
			out = append(out, v)
		}
	case ast.KindIndex:
		if arr, ok := node.([]any); ok {
			if i, ok := NormalizeIndex(sel.Index, len(arr)); ok {
				out = append(out, arr[i])
			}
		}
	case ast.KindSlice:
		if arr, ok := node.([]any); ok {
			for _, i := range SliceIndices(sel.Slice, len(arr)) {
				out = append(out, arr[i])
			}
		}
	case ast.KindWildcard:
		for _, v := range Children(node) {
			out = append(out, v)
		}
	case ast.KindFilter:
		for _, v := range Children(node) {
			if Filter(sel.Filter, v, root) {
				out = append(out, v)
			}
		}
	}
	return out
}

// Member returns the member of node named name, for either object
// representation. Non-objects have no members.
func Member(node any, name string) (any, bool) {
	switch obj := node.(type) {
	case map[string]any:
		v, ok := obj[name]
		return v, ok
	case *ordered.Object:
		return obj.Get(name)
	default:
		return nil, false
	}
}

// Members returns an iterator over the (name, value) members of an object
// node: insertion order for *ordered.Object, sorted-key order for maps.
// Non-objects yield nothing.
func Members(node any) iter.Seq2[string, any] {
	switch obj := node.(type) {
	case *ordered.Object:
		return obj.Members()
	case map[string]any:
		return func(yield func(string, any) bool) {
			for _, name := range slices.Sorted(maps.Keys(obj)) {
				if !yield(name, obj[name]) {
					return
				}
			}
		}
	default:
		return func(func(string, any) bool) {}
	}
}

// Children returns an iterator over the child values of node in document
// order: member values for objects, elements for arrays, nothing for
// scalars.
func Children(node any) iter.Seq2[int, any] {
	switch v := node.(type) {
	case []any:
		return slices.All(v)
	case map[string]any, *ordered.Object:
		return func(yield func(int, any) bool) {
			i := 0
			for _, val := range Members(node) {
				if !yield(i, val) {
					return
				}
				i++
			}
		}
	default:
		return func(func(int, any) bool) {}
	}
}

// ObjectLen returns the member count of an object node and whether node is
// an object at all.
func ObjectLen(node any) (int, bool) {
	switch obj := node.(type) {
	case map[string]any:
		return len(obj), true
	case *ordered.Object:
		return obj.Len(), true
	default:
		return 0, false
	}
}

// NormalizeIndex converts a possibly negative array index to a
// non-negative one, reporting whether it lands inside an array of the
// given length.
func NormalizeIndex(idx int64, length int) (int, bool) {
	if idx < 0 {
		idx += int64(length)
	}
	if idx < 0 || idx >= int64(length) {
		return 0, false
	}
	return int(idx), true
}

// SliceIndices returns the array indices a slice selector visits, in visit
// order, for an array of the given length. The arithmetic follows the
// RFC 9535 §2.3.4.2.2 pseudocode exactly, including the asymmetric clamp
// bounds for negative steps.
func SliceIndices(args ast.SliceArgs, length int) []int {
	if length == 0 {
		return nil
	}

	step := int64(1)
	if args.HasStep {
		step = args.Step
	}
	if step == 0 {
		return nil
	}

	n := int64(length)

	var start, end int64
	if step > 0 {
		start, end = 0, n
	} else {
		start, end = n-1, -n-1
	}
	if args.HasStart {
		start = args.Start
	}
	if args.HasEnd {
		end = args.End
	}

	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}

	var indices []int
	if step > 0 {
		lower := min(max(start, 0), n)
		upper := min(max(end, 0), n)
		for i := lower; i < upper; i += step {
			indices = append(indices, int(i))
		}
	} else {
		upper := min(max(start, -1), n-1)
		lower := min(max(end, -1), n-1)
		for i := upper; i > lower; i += step {
			indices = append(indices, int(i))
		}
	}
	return indices
}
