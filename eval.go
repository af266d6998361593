package jsonpath

import (
	"slices"

	"github.com/evenlode/jsonpath/internal/ast"
	"github.com/evenlode/jsonpath/internal/eval"
)

// Select returns the values of all nodes matched by p in input, in
// document order. The values are shared with input, not copied.
func (p *Path) Select(input any) NodeList {
	if p.query == nil {
		return nil
	}
	return NodeList(eval.Select(p.query, input, input))
}

// SelectLocated returns all nodes matched by p in input paired with their
// normalized paths. Short-circuits to an empty list as soon as an
// intermediate nodelist is empty.
func (p *Path) SelectLocated(input any) LocatedNodeList {
	if p.query == nil {
		return nil
	}
	nodes := LocatedNodeList{{Value: input}}
	segments := p.query.Segments()
	for i := range segments {
		if len(nodes) == 0 {
			return nodes
		}
		nodes = applySegmentLocated(&segments[i], nodes, input)
	}
	return nodes
}

// extendPath returns a new path with elem appended, leaving path intact.
func extendPath(path NormalizedPath, elem PathElement) NormalizedPath {
	return append(slices.Clone(path), elem)
}

// applySegmentLocated applies one segment to every node in the current
// located nodelist.
func applySegmentLocated(seg *ast.Segment, nodes LocatedNodeList, root any) LocatedNodeList {
	out := make(LocatedNodeList, 0, len(nodes))
	if seg.IsDescendant() {
		for _, n := range nodes {
			out = appendDescendantLocated(out, seg.Selectors(), n.Value, n.Path, root)
		}
		return out
	}
	for _, n := range nodes {
		out = appendSelectorsLocated(out, seg.Selectors(), n.Value, n.Path, root)
	}
	return out
}

// appendDescendantLocated applies selectors to node and all descendants in
// depth-first pre-order, extending paths as it goes.
func appendDescendantLocated(out LocatedNodeList, selectors []ast.Selector, node any, path NormalizedPath, root any) LocatedNodeList {
	out = appendSelectorsLocated(out, selectors, node, path, root)

	switch v := node.(type) {
	case []any:
		for i, child := range v {
			out = appendDescendantLocated(out, selectors, child, extendPath(path, IndexElement(i)), root)
		}
	default:
		for name, child := range eval.Members(node) {
			out = appendDescendantLocated(out, selectors, child, extendPath(path, NameElement(name)), root)
		}
	}
	return out
}

// appendSelectorsLocated applies each selector to node in order.
func appendSelectorsLocated(out LocatedNodeList, selectors []ast.Selector, node any, path NormalizedPath, root any) LocatedNodeList {
	for i := range selectors {
		out = appendSelectorLocated(out, &selectors[i], node, path, root)
	}
	return out
}

// appendSelectorLocated applies a single selector to node, appending each
// match with its extended path.
func appendSelectorLocated(out LocatedNodeList, sel *ast.Selector, node any, path NormalizedPath, root any) LocatedNodeList {
	switch sel.Kind {
	case ast.KindName:
		if v, ok := eval.Member(node, sel.Name); ok {
			out = append(out, &LocatedNode{Value: v, Path: extendPath(path, NameElement(sel.Name))})
		}
	case ast.KindIndex:
		if arr, ok := node.([]any); ok {
			if i, ok := eval.NormalizeIndex(sel.Index, len(arr)); ok {
				out = append(out, &LocatedNode{Value: arr[i], Path: extendPath(path, IndexElement(i))})
			}
		}
	case ast.KindSlice:
		if arr, ok := node.([]any); ok {
			for _, i := range eval.SliceIndices(sel.Slice, len(arr)) {
				out = append(out, &LocatedNode{Value: arr[i], Path: extendPath(path, IndexElement(i))})
			}
		}
	case ast.KindWildcard:
		out = appendChildrenLocated(out, node, path, nil, root)
	case ast.KindFilter:
		out = appendChildrenLocated(out, node, path, sel.Filter, root)
	}
	return out
}

// appendChildrenLocated appends every child of node, or only the children
// accepted by filter when filter is non-nil.
func appendChildrenLocated(out LocatedNodeList, node any, path NormalizedPath, filter *ast.FilterExpr, root any) LocatedNodeList {
	switch v := node.(type) {
	case []any:
		for i, child := range v {
			if filter == nil || eval.Filter(filter, child, root) {
				out = append(out, &LocatedNode{Value: child, Path: extendPath(path, IndexElement(i))})
			}
		}
	default:
		for name, child := range eval.Members(node) {
			if filter == nil || eval.Filter(filter, child, root) {
				out = append(out, &LocatedNode{Value: child, Path: extendPath(path, NameElement(name))})
			}
		}
	}
	return out
}
