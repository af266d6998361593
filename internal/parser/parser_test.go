package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evenlode/jsonpath/functions"
)

// parse is a test helper using the built-in registry.
func parse(t *testing.T, src string) (q interface{ String() string }, err error) {
	t.Helper()
	return Parse(src, functions.NewRegistry())
}

func TestParseValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string // canonical String()
	}{
		{"root only", `$`, `$`},
		{"dot child", `$.store`, `$["store"]`},
		{"dot chain", `$.store.book`, `$["store"]["book"]`},
		{"dot wildcard", `$.*`, `$[*]`},
		{"keyword as name", `$.true.null`, `$["true"]["null"]`},
		{"unicode shorthand", `$.日本語`, `$["日本語"]`},
		{"bracket name double", `$["a b"]`, `$["a b"]`},
		{"bracket name single", `$['a b']`, `$["a b"]`},
		{"bracket escape", `$['a\nb']`, "$[\"a\\nb\"]"},
		{"index", `$[0]`, `$[0]`},
		{"negative index", `$[-1]`, `$[-1]`},
		{"multi selector", `$[0,1,"a"]`, `$[0,1,"a"]`},
		{"slice full", `$[1:5:2]`, `$[1:5:2]`},
		{"slice no step", `$[1:5]`, `$[1:5]`},
		{"slice open end", `$[2:]`, `$[2:]`},
		{"slice open start", `$[:3]`, `$[:3]`},
		{"slice bare colon", `$[:]`, `$[:]`},
		{"slice negative step", `$[::-1]`, `$[::-1]`},
		{"slice whitespace", `$[1 : 5 : 2]`, `$[1:5:2]`},
		{"descendant name", `$..author`, `$..["author"]`},
		{"descendant wildcard", `$..*`, `$..[*]`},
		{"descendant bracket", `$..[0]`, `$..[0]`},
		{"descendant multi", `$..["a","b"]`, `$..["a","b"]`},
		{"filter exists", `$[?@.a]`, `$[?@["a"]]`},
		{"filter not exists", `$[?!@.a]`, `$[?!@["a"]]`},
		{"filter root query", `$[?$.a]`, `$[?$["a"]]`},
		{"filter compare eq", `$[?@.a == 1]`, `$[?@["a"] == 1]`},
		{"filter compare ops", `$[?@.a != 1.5]`, `$[?@["a"] != 1.5]`},
		{"filter compare string", `$[?@.a < "x"]`, `$[?@["a"] < "x"]`},
		{"filter literal left", `$[?1 <= @.a]`, `$[?1 <= @["a"]]`},
		{"filter null literal", `$[?@.a == null]`, `$[?@["a"] == null]`},
		{"filter bool literal", `$[?@.a == true]`, `$[?@["a"] == true]`},
		{"filter and or", `$[?@.a && @.b || @.c]`, `$[?@["a"] && @["b"] || @["c"]]`},
		{"filter paren", `$[?(@.a)]`, `$[?(@["a"])]`},
		{"filter not paren", `$[?!(@.a < 3)]`, `$[?!(@["a"] < 3)]`},
		{"filter bare current", `$[?@ == 2]`, `$[?@ == 2]`},
		{"function length", `$[?length(@.s) == 1]`, `$[?length(@["s"]) == 1]`},
		{"function count", `$[?count(@..a) > 2]`, `$[?count(@..["a"]) > 2]`},
		{"function match", `$[?match(@.a, "b.*")]`, `$[?match(@["a"], "b.*")]`},
		{"function search negated", `$[?!search(@.a, "b")]`, `$[?!search(@["a"], "b")]`},
		{"function value", `$[?value(@..a) == 7]`, `$[?value(@..["a"]) == 7]`},
		{"nested function", `$[?length(value(@..a)) == 2]`, `$[?length(value(@..["a"])) == 2]`},
		{"segment whitespace", `$ [0]`, `$[0]`},
		{"filter whitespace", `$[? @.a == 1 ]`, `$[?@["a"] == 1]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			q, err := parse(t, tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, q.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		msg  string
		pos  int
	}{
		{"empty", ``, "query must start with '$'", 0},
		{"no root", `a.b`, "query must start with '$'", 0},
		{"at root", `@.a`, "query must start with '$'", 0},
		{"leading space", ` $`, "leading whitespace not allowed", 0},
		{"trailing space", `$.a `, "trailing whitespace not allowed", 3},
		{"trailing junk", `$.a]`, "unexpected token after query", 3},
		{"dot eof", `$.`, "expected '*' or member name after '.'", 2},
		{"dot space", `$. a`, "whitespace not allowed after '.'", 3},
		{"dotdot space", `$.. a`, "whitespace not allowed after '..'", 4},
		{"dotdot eof", `$..`, "expected '[', '*', or member name after '..'", 3},
		{"unclosed bracket", `$[0`, "expected ',' or ']'", 3},
		{"empty brackets", `$[]`, "expected selector", 2},
		{"number index", `$[1.5]`, "expected selector", 2},
		{"minus zero index", `$[-0]`, "'-0' is not allowed", 2},
		{"minus zero step", `$[::-0]`, "'-0' is not allowed", 4},
		{"index too large", `$[9007199254740992]`, "index out of range", 2},
		{"index too small", `$[-9007199254740992]`, "index out of range", 2},
		{"empty filter", `$[?]`, "expected filter expression", 3},
		{"dangling compare", `$[?@.a ==]`, "expected literal value", 9},
		{"literal only", `$[?1]`, "expected comparison operator after literal", 4},
		{"non-singular left", `$[?@..b == 1]`, "singular query required on comparison side", 3},
		{"non-singular right", `$[?1 == @.a.*]`, "singular query required on comparison side", 8},
		{"wildcard in comparison", `$[?@.* == 1]`, "singular query required on comparison side", 3},
		{"unknown function", `$[?foo(@.a)]`, `unknown function "foo"`, 3},
		{"uppercase function", `$[?Match(@.a, "b")]`, `invalid function name "Match"`, 3},
		{"value function as test", `$[?length(@.a)]`, "ValueType function must be used in a comparison", 14},
		{"logical function compared", `$[?match(@.a, "b") == true]`, "comparison operand function must return ValueType", 19},
		{"function arg count", `$[?match(@.a)]`, "wrong number of arguments", 3},
		{"function arg type", `$[?length(@..a) == 1]`, "incompatible argument type", 3},
		{"function whitespace", `$[?match (@.a, "b")]`, "whitespace not allowed between function name and '('", 9},
		{"bad regex literal", `$[?match(@.a, "(")]`, "invalid regular expression", 14},
		{"unclosed paren", `$[?(@.a]`, "expected ')'", 7},
		{"bare not", `$[?!]`, "expected '(', function, or query after '!'", 4},
		{"lex error", `$[?@.a = 1]`, "unexpected '='", 7},
		{"unterminated string", `$["a]`, "unterminated string", 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := parse(t, tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)

			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.pos, perr.Pos, "error position")
		})
	}
}

func TestParseSingularQueries(t *testing.T) {
	t.Parallel()

	// Singular queries are fine on comparison sides; anything with a
	// wildcard, slice, filter, or descendant segment is not.
	valid := []string{
		`$[?@.a.b.c == 1]`,
		`$[?@[0][1] == 1]`,
		`$[?@["a"][0] == $["b"]]`,
		`$[?@ == @.b]`,
	}
	for _, src := range valid {
		t.Run(src, func(t *testing.T) {
			t.Parallel()
			_, err := parse(t, src)
			assert.NoError(t, err)
		})
	}

	invalid := []string{
		`$[?@[0:1] == 1]`,
		`$[?@[?@.x] == 1]`,
		`$[?@["a","b"] == 1]`,
		`$[?1 == $..a]`,
	}
	for _, src := range invalid {
		t.Run(src, func(t *testing.T) {
			t.Parallel()
			_, err := parse(t, src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "singular query")
		})
	}
}

// nodesFunc is a test extension returning NodesType.
type nodesFunc struct{}

func (nodesFunc) Name() string                   { return "nodes" }
func (nodesFunc) ResultType() functions.FuncType { return functions.Nodes }
func (nodesFunc) Validate(a []functions.ArgType) error {
	if len(a) != 1 {
		return functions.ErrArgCount
	}
	if !a[0].ConvertsTo(functions.Nodes) {
		return functions.ErrArgType
	}
	return nil
}
func (nodesFunc) Call(args []any) any { return args[0] }

func TestParseNodesFunctionPlacement(t *testing.T) {
	t.Parallel()

	reg := functions.NewRegistry()
	reg.Register(nodesFunc{})

	// NodesType functions work as existence tests, negated or not.
	_, err := Parse(`$[?nodes(@..a)]`, reg)
	assert.NoError(t, err)
	_, err = Parse(`$[?!nodes(@..a)]`, reg)
	assert.NoError(t, err)

	// But never as comparison operands.
	_, err = Parse(`$[?nodes(@..a) == 1]`, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must return ValueType")
}

func TestParseFunctionParamResolution(t *testing.T) {
	t.Parallel()

	// A singular query is accepted both where the parameter is NodesType
	// (value(), count()) and where it is ValueType (length()): each call
	// parses and serializes to a non-empty canonical string.
	tests := []string{
		`$[?value(@.a) == 1]`,
		`$[?count(@.a) == 1]`,
		`$[?length(@.a) == 1]`,
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			t.Parallel()
			q, err := parse(t, src)
			require.NoError(t, err)
			assert.NotEmpty(t, q.String())
		})
	}
}

func TestErrorFormat(t *testing.T) {
	t.Parallel()

	err := &Error{Pos: 7, Msg: "expected ')'"}
	assert.Equal(t, "expected ')' at position 7", err.Error())
}
