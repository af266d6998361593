package functions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evenlode/jsonpath/ordered"
)

func lookup(t *testing.T, name string) Function {
	t.Helper()
	fn, ok := NewRegistry().Lookup(name)
	require.True(t, ok, "builtin %q not registered", name)
	return fn
}

func TestRegistryBuiltins(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.Equal(t, 5, r.Len())
	for _, name := range []string{"length", "count", "match", "search", "value"} {
		fn, ok := r.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, name, fn.Name())
	}
	_, ok := r.Lookup("nope")
	assert.False(t, ok)
}

// constFunc is a trivial extension used to test registration override.
type constFunc struct{}

func (constFunc) Name() string             { return "length" }
func (constFunc) ResultType() FuncType     { return Value }
func (constFunc) Validate([]ArgType) error { return nil }
func (constFunc) Call([]any) any           { return 7 }

func TestRegistryOverride(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(constFunc{})
	assert.Equal(t, 5, r.Len())
	fn, ok := r.Lookup("length")
	require.True(t, ok)
	assert.Equal(t, 7, fn.Call(nil))
}

func TestFuncTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "LogicalType", Logical.String())
	assert.Equal(t, "ValueType", Value.String())
	assert.Equal(t, "NodesType", Nodes.String())
	assert.Equal(t, "FuncType(9)", FuncType(9).String())
}

func TestArgTypeConvertsTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg    ArgType
		target FuncType
		want   bool
	}{
		{ArgLiteral, Value, true},
		{ArgLiteral, Nodes, false},
		{ArgLiteral, Logical, false},
		{ArgSingularQuery, Value, true},
		{ArgSingularQuery, Nodes, true},
		{ArgSingularQuery, Logical, true},
		{ArgQuery, Value, false},
		{ArgQuery, Nodes, true},
		{ArgQuery, Logical, true},
		{ArgValue, Value, true},
		{ArgValue, Nodes, false},
		{ArgNodes, Nodes, true},
		{ArgNodes, Logical, true},
		{ArgNodes, Value, false},
		{ArgLogical, Logical, true},
		{ArgLogical, Value, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.arg.ConvertsTo(tc.target),
			"%v -> %v", tc.arg, tc.target)
	}
}

func TestNothing(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNothing(Nothing))
	assert.True(t, IsNothing(NothingType{}))
	assert.False(t, IsNothing(nil))
	assert.False(t, IsNothing(0))
	assert.False(t, IsNothing(""))
}

func TestLength(t *testing.T) {
	t.Parallel()

	fn := lookup(t, "length")
	require.Equal(t, Value, fn.ResultType())

	obj := ordered.NewObject()
	obj.Set("a", 1)
	obj.Set("b", 2)

	tests := []struct {
		name string
		arg  any
		want any
	}{
		{"ascii string", "hello", 5},
		{"empty string", "", 0},
		{"unicode scalars not bytes", "héllo", 5},
		{"emoji is one scalar", "😀", 1},
		{"array", []any{1, 2, 3}, 3},
		{"map object", map[string]any{"a": 1}, 1},
		{"ordered object", obj, 2},
		{"number", 42.0, Nothing},
		{"bool", true, Nothing},
		{"null", nil, Nothing},
		{"nothing", Nothing, Nothing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, fn.Call([]any{tc.arg}))
		})
	}
}

func TestLengthValidate(t *testing.T) {
	t.Parallel()

	fn := lookup(t, "length")
	assert.NoError(t, fn.Validate([]ArgType{ArgLiteral}))
	assert.NoError(t, fn.Validate([]ArgType{ArgSingularQuery}))
	assert.ErrorIs(t, fn.Validate([]ArgType{ArgQuery}), ErrArgType)
	assert.ErrorIs(t, fn.Validate([]ArgType{}), ErrArgCount)
	assert.ErrorIs(t, fn.Validate([]ArgType{ArgLiteral, ArgLiteral}), ErrArgCount)
}

func TestCount(t *testing.T) {
	t.Parallel()

	fn := lookup(t, "count")
	assert.Equal(t, 0, fn.Call([]any{[]any{}}))
	assert.Equal(t, 3, fn.Call([]any{[]any{1, 2, 3}}))
	assert.Equal(t, 0, fn.Call([]any{Nothing}))

	assert.NoError(t, fn.Validate([]ArgType{ArgQuery}))
	assert.NoError(t, fn.Validate([]ArgType{ArgSingularQuery}))
	assert.ErrorIs(t, fn.Validate([]ArgType{ArgLiteral}), ErrArgType)
	assert.ErrorIs(t, fn.Validate([]ArgType{ArgQuery, ArgQuery}), ErrArgCount)
}

func TestMatch(t *testing.T) {
	t.Parallel()

	fn := lookup(t, "match")
	require.Equal(t, Logical, fn.ResultType())

	tests := []struct {
		name    string
		str     any
		pattern any
		want    bool
	}{
		{"full match", "1974-05-11", `1974-05-..`, true},
		{"implicit anchors", "hello", `ell`, false},
		{"alternation is grouped", "ab", `ab|cd`, true},
		{"alternation right arm", "cd", `ab|cd`, true},
		{"dot excludes newline", "a\nb", `a.b`, false},
		{"dot matches other", "axb", `a.b`, true},
		{"non-string subject", 42, `.*`, false},
		{"non-string pattern", "a", 42, false},
		{"nothing subject", Nothing, `.*`, false},
		{"invalid pattern", "a", `(`, false},
		{"empty pattern", "", ``, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, fn.Call([]any{tc.str, tc.pattern}))
		})
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	fn := lookup(t, "search")

	tests := []struct {
		name    string
		str     any
		pattern any
		want    bool
	}{
		{"substring", "say hello", `ell`, true},
		{"no match", "say hello", `xyz`, false},
		{"dot excludes newline", "a\nb", `a.b`, false},
		{"non-string subject", nil, `a`, false},
		{"invalid pattern", "a", `[`, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, fn.Call([]any{tc.str, tc.pattern}))
		})
	}
}

func TestMatchValidate(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"match", "search"} {
		fn := lookup(t, name)
		assert.NoError(t, fn.Validate([]ArgType{ArgSingularQuery, ArgLiteral}))
		assert.ErrorIs(t, fn.Validate([]ArgType{ArgQuery, ArgLiteral}), ErrArgType)
		assert.ErrorIs(t, fn.Validate([]ArgType{ArgLiteral, ArgQuery}), ErrArgType)
		assert.ErrorIs(t, fn.Validate([]ArgType{ArgLiteral}), ErrArgCount)
	}
}

func TestValue(t *testing.T) {
	t.Parallel()

	fn := lookup(t, "value")
	assert.Equal(t, "x", fn.Call([]any{[]any{"x"}}))
	assert.Equal(t, Nothing, fn.Call([]any{[]any{}}))
	assert.Equal(t, Nothing, fn.Call([]any{[]any{"x", "y"}}))
	assert.Equal(t, Nothing, fn.Call([]any{Nothing}))

	assert.NoError(t, fn.Validate([]ArgType{ArgQuery}))
	assert.ErrorIs(t, fn.Validate([]ArgType{ArgLiteral}), ErrArgType)
}

func TestCheckIRegexp(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckIRegexp(`a.*b`))
	assert.NoError(t, CheckIRegexp(``))
	assert.Error(t, CheckIRegexp(`(`))
	assert.Error(t, CheckIRegexp(`a{2,1}`))
}

func TestRegexCaching(t *testing.T) {
	t.Parallel()

	fn := lookup(t, "search")
	// Same pattern twice: the second call hits the cache, including the
	// negative cache for invalid patterns.
	assert.Equal(t, true, fn.Call([]any{"aa", `a`}))
	assert.Equal(t, true, fn.Call([]any{"ba", `a`}))
	assert.Equal(t, false, fn.Call([]any{"a", `(`}))
	assert.Equal(t, false, fn.Call([]any{"a", `(`}))
}
