package ast

import (
	"strings"

	"github.com/evenlode/jsonpath/functions"
)

// FuncExpr is a function call in a filter expression per RFC 9535 §2.4.
// It binds the resolved [functions.Function], the argument expressions, and
// the parameter types settled at parse time, which tell the evaluator how
// to convert each argument at the call boundary.
type FuncExpr struct {
	fn     functions.Function
	args   []FuncArg
	params []functions.FuncType
}

// NewFuncExpr creates a [FuncExpr] for fn with the given parameter types
// and arguments. params[i] is the universe the evaluator converts args[i]
// into before calling fn.
func NewFuncExpr(fn functions.Function, params []functions.FuncType, args ...FuncArg) *FuncExpr {
	return &FuncExpr{fn: fn, args: args, params: params}
}

// Fn returns the resolved function.
func (fe *FuncExpr) Fn() functions.Function { return fe.fn }

// Args returns the argument expressions.
func (fe *FuncExpr) Args() []FuncArg { return fe.args }

// Params returns the parameter types settled at parse time.
func (fe *FuncExpr) Params() []functions.FuncType { return fe.params }

// ResultType returns the result universe of the underlying function.
func (fe *FuncExpr) ResultType() functions.FuncType { return fe.fn.ResultType() }

// writeTo writes the canonical call syntax name(arg, ...) to buf.
func (fe *FuncExpr) writeTo(buf *strings.Builder) {
	buf.WriteString(fe.fn.Name())
	buf.WriteByte('(')
	for i := range fe.args {
		if i > 0 {
			buf.WriteString(", ")
		}
		fe.args[i].writeTo(buf)
	}
	buf.WriteByte(')')
}

// String returns the canonical string representation of the call.
func (fe *FuncExpr) String() string {
	var buf strings.Builder
	fe.writeTo(&buf)
	return buf.String()
}

// FuncArg is a function-call argument: a literal, a query, or a nested
// function call. Implemented by [LiteralArg], [QueryArg], and [NestedArg].
type FuncArg interface {
	funcArg()
	writeTo(buf *strings.Builder)
}

// LiteralArg is a literal JSON value argument. Val is a string, int64,
// float64, bool, or nil (JSON null).
type LiteralArg struct {
	Val any
}

func (*LiteralArg) funcArg() {}

func (a *LiteralArg) writeTo(buf *strings.Builder) {
	writeLiteral(buf, a.Val)
}

// QueryArg is a query argument (relative or rooted).
type QueryArg struct {
	Query *Query
}

func (*QueryArg) funcArg() {}

func (a *QueryArg) writeTo(buf *strings.Builder) {
	a.Query.writeTo(buf)
}

// NestedArg is a nested function-call argument.
type NestedArg struct {
	Fn *FuncExpr
}

func (*NestedArg) funcArg() {}

func (a *NestedArg) writeTo(buf *strings.Builder) {
	a.Fn.writeTo(buf)
}
