package eval

import (
	"github.com/evenlode/jsonpath/functions"
	"github.com/evenlode/jsonpath/internal/ast"
	"github.com/evenlode/jsonpath/ordered"
)

// Filter evaluates a filter expression with current bound to @ and root
// bound to $, returning the logical result.
func Filter(f *ast.FilterExpr, current, root any) bool {
	return evalOr(f.Cond, current, root)
}

// evalOr evaluates ||-joined conjunctions, short-circuiting on true.
func evalOr(or ast.LogicalOr, current, root any) bool {
	for i := range or {
		if evalAnd(or[i], current, root) {
			return true
		}
	}
	return false
}

// evalAnd evaluates &&-joined basic expressions, short-circuiting on false.
func evalAnd(and ast.LogicalAnd, current, root any) bool {
	for i := range and {
		if !evalBasic(and[i], current, root) {
			return false
		}
	}
	return true
}

// evalBasic evaluates one basic expression.
func evalBasic(expr ast.BasicExpr, current, root any) bool {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		r := evalOr(e.Cond, current, root)
		return r != e.Negated
	case *ast.ExistsExpr:
		r := exists(e.Query, current, root)
		return r != e.Negated
	case *ast.FuncTestExpr:
		r := truthy(callFunc(e.Fn, current, root))
		return r != e.Negated
	case *ast.CompExpr:
		return compare(e, current, root)
	default:
		return false
	}
}

// exists reports whether query selects at least one node. A bare @ or $
// names the current or root node itself, which always exists.
func exists(q *ast.Query, current, root any) bool {
	if len(q.Segments()) == 0 {
		return true
	}
	return len(Select(q, current, root)) > 0
}

// truthy converts a function result to LogicalType: bools are themselves,
// node lists convert by non-emptiness.
func truthy(result any) bool {
	switch r := result.(type) {
	case bool:
		return r
	case []any:
		return len(r) > 0
	default:
		return false
	}
}

// compare evaluates both comparables and applies the operator per
// RFC 9535 §2.3.5.2.2 (Table 11). All operators derive from == and <.
func compare(e *ast.CompExpr, current, root any) bool {
	lv, lok := evalComparable(e.Left, current, root)
	rv, rok := evalComparable(e.Right, current, root)

	switch e.Op {
	case ast.OpEqual:
		return equalValues(lv, lok, rv, rok)
	case ast.OpNotEqual:
		return !equalValues(lv, lok, rv, rok)
	case ast.OpLess:
		return lessValues(lv, lok, rv, rok)
	case ast.OpLessEqual:
		return lessValues(lv, lok, rv, rok) || equalValues(lv, lok, rv, rok)
	case ast.OpGreater:
		return lessValues(rv, rok, lv, lok)
	case ast.OpGreaterEqual:
		return lessValues(rv, rok, lv, lok) || equalValues(lv, lok, rv, rok)
	default:
		return false
	}
}

// evalComparable reduces a comparison operand to ValueType: the value and
// true, or Nothing as (nil, false).
func evalComparable(c ast.Comparable, current, root any) (any, bool) {
	switch v := c.(type) {
	case *ast.LiteralComp:
		return v.Val, true
	case *ast.QueryComp:
		nodes := Select(v.Query, current, root)
		if len(nodes) != 1 {
			return nil, false
		}
		return nodes[0], true
	case *ast.FuncComp:
		r := callFunc(v.Fn, current, root)
		if functions.IsNothing(r) {
			return nil, false
		}
		return r, true
	default:
		return nil, false
	}
}

// equalValues implements Table 11 ==. Nothing equals only Nothing; values
// of different JSON kinds are never equal; otherwise deep equality.
func equalValues(lv any, lok bool, rv any, rok bool) bool {
	if !lok || !rok {
		return !lok && !rok
	}
	return deepEqual(lv, rv)
}

// lessValues implements Table 11 <. Nothing is not ordered against
// anything. Numbers order numerically, strings by code point, booleans as
// false < true. Nulls, arrays, and objects are unordered.
func lessValues(lv any, lok bool, rv any, rok bool) bool {
	if !lok || !rok {
		return false
	}

	if ln, ok := toFloat(lv); ok {
		rn, ok := toFloat(rv)
		return ok && ln < rn
	}
	if ls, ok := lv.(string); ok {
		rs, ok := rv.(string)
		return ok && ls < rs
	}
	if lb, ok := lv.(bool); ok {
		rb, ok := rv.(bool)
		return ok && !lb && rb
	}
	return false
}

// deepEqual implements recursive JSON equality across both object
// representations. Numbers compare numerically regardless of Go type.
func deepEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if an, ok := toFloat(a); ok {
		bn, ok := toFloat(b)
		return ok && an == bn
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any, *ordered.Object:
		return objectsEqual(a, b)
	default:
		return false
	}
}

// objectsEqual compares two object nodes for deep equality: same member
// set, pointwise equal values. Representations may differ.
func objectsEqual(a, b any) bool {
	alen, aIsObj := ObjectLen(a)
	blen, bIsObj := ObjectLen(b)
	if !aIsObj || !bIsObj || alen != blen {
		return false
	}
	for name, av := range Members(a) {
		bv, ok := Member(b, name)
		if !ok || !deepEqual(av, bv) {
			return false
		}
	}
	return true
}

// toFloat converts any JSON-bearing numeric Go type to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// callFunc evaluates a function call: each argument is evaluated and
// converted to its parameter's universe, then the function is invoked.
func callFunc(fe *ast.FuncExpr, current, root any) any {
	argExprs := fe.Args()
	params := fe.Params()
	args := make([]any, len(argExprs))

	for i, arg := range argExprs {
		switch a := arg.(type) {
		case *ast.LiteralArg:
			args[i] = a.Val
		case *ast.QueryArg:
			nodes := Select(a.Query, current, root)
			switch params[i] {
			case functions.Logical:
				args[i] = len(nodes) > 0
			case functions.Value:
				if len(nodes) == 1 {
					args[i] = nodes[0]
				} else {
					args[i] = functions.Nothing
				}
			default:
				args[i] = nodes
			}
		case *ast.NestedArg:
			r := callFunc(a.Fn, current, root)
			if params[i] == functions.Logical && a.Fn.ResultType() == functions.Nodes {
				args[i] = truthy(r)
			} else {
				args[i] = r
			}
		}
	}
	return fe.Fn().Call(args)
}
