// Package jsonpath implements RFC 9535 JSONPath query expressions for
// JSON.
//
// A query string compiles with [Parse] into a [Path], which selects nodes
// from a JSON value tree: map[string]any / []any as produced by any JSON
// unmarshaler, or the insertion-ordered trees produced by
// [github.com/evenlode/jsonpath/ordered.Unmarshal]. [Path.Select] returns
// the selected values; [Path.SelectLocated] also reports each node's
// RFC 9535 normalized path.
package jsonpath

import (
	"errors"

	"github.com/go-json-experiment/json"

	"github.com/evenlode/jsonpath/internal/ast"
)

// Path is a compiled RFC 9535 JSONPath query. A Path is immutable and
// safe for concurrent use.
type Path struct {
	query *ast.Query
}

// Parse compiles a JSONPath expression with the built-in functions.
// Failures are *[SyntaxError] values matching [ErrPathParse].
func Parse(expr string) (*Path, error) {
	return NewParser().Parse(expr)
}

// MustParse compiles a JSONPath expression. It panics on failure.
func MustParse(expr string) *Path {
	path, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return path
}

// Valid reports whether expr is a syntactically valid JSONPath
// expression.
func Valid(expr string) bool {
	_, err := Parse(expr)
	return err == nil
}

// String returns the canonical string representation of p.
func (p *Path) String() string {
	if p.query == nil {
		return ""
	}
	return p.query.String()
}

// MarshalText implements [encoding.TextMarshaler].
func (p *Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (p *Path) UnmarshalText(text []byte) error {
	path, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = *path
	return nil
}

// Query compiles expr and evaluates it against input in one step.
func Query(expr string, input any) (NodeList, error) {
	path, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return path.Select(input), nil
}

// QueryLocated is the located variant of [Query].
func QueryLocated(expr string, input any) (LocatedNodeList, error) {
	path, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return path.SelectLocated(input), nil
}

// QueryJSON unmarshals src and evaluates path against it, using
// github.com/go-json-experiment/json for unmarshaling. Member order is
// not preserved; use [github.com/evenlode/jsonpath/ordered.Unmarshal] and
// [Path.Select] when document order matters.
func QueryJSON(src []byte, path *Path) (NodeList, error) {
	var v any
	if err := json.Unmarshal(src, &v, json.DefaultOptionsV2()); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	return path.Select(v), nil
}

// QueryJSONLocated is the located variant of [QueryJSON].
func QueryJSONLocated(src []byte, path *Path) (LocatedNodeList, error) {
	var v any
	if err := json.Unmarshal(src, &v, json.DefaultOptionsV2()); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	return path.SelectLocated(v), nil
}
