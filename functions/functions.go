package functions

import (
	"errors"
	"regexp"
	"regexp/syntax"
	"sync"
	"unicode/utf8"

	"github.com/evenlode/jsonpath/ordered"
)

// Builtins returns fresh instances of the five RFC 9535 §2.4 built-in
// functions.
func Builtins() []Function {
	return []Function{
		lengthFunc{},
		countFunc{},
		matchFunc{},
		searchFunc{},
		valueFunc{},
	}
}

// lengthFunc implements the RFC 9535 §2.4.4 length() function.
//
// Parameters: ValueType. Result: ValueType.
type lengthFunc struct{}

func (lengthFunc) Name() string         { return "length" }
func (lengthFunc) ResultType() FuncType { return Value }

func (lengthFunc) Validate(args []ArgType) error {
	if err := checkCount(args, 1); err != nil {
		return err
	}
	return checkConverts(args, 0, Value)
}

// Call returns the length of the argument: Unicode scalar count for
// strings, element count for arrays, member count for objects, and Nothing
// for anything else (including Nothing itself).
func (lengthFunc) Call(args []any) any {
	switch v := args[0].(type) {
	case string:
		return utf8.RuneCountInString(v)
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	case *ordered.Object:
		return v.Len()
	default:
		return Nothing
	}
}

// countFunc implements the RFC 9535 §2.4.6 count() function.
//
// Parameters: NodesType. Result: ValueType.
type countFunc struct{}

func (countFunc) Name() string         { return "count" }
func (countFunc) ResultType() FuncType { return Value }

func (countFunc) Validate(args []ArgType) error {
	if err := checkCount(args, 1); err != nil {
		return err
	}
	return checkConverts(args, 0, Nodes)
}

// Call returns the number of nodes in the node list argument.
func (countFunc) Call(args []any) any {
	nodes, ok := args[0].([]any)
	if !ok {
		return 0
	}
	return len(nodes)
}

// matchFunc implements the RFC 9535 §2.4.7 match() function: an anchored
// full-string I-Regexp match.
//
// Parameters: ValueType, ValueType. Result: LogicalType.
type matchFunc struct{}

func (matchFunc) Name() string         { return "match" }
func (matchFunc) ResultType() FuncType { return Logical }

func (matchFunc) Validate(args []ArgType) error {
	if err := checkCount(args, 2); err != nil {
		return err
	}
	if err := checkConverts(args, 0, Value); err != nil {
		return err
	}
	return checkConverts(args, 1, Value)
}

// Call returns true if the first argument fully matches the pattern in the
// second. Either argument not a string, or an invalid pattern, yields false.
func (matchFunc) Call(args []any) any {
	str, pattern, ok := twoStrings(args)
	if !ok {
		return false
	}
	re := compileIRegexp(`\A(?:` + pattern + `)\z`)
	if re == nil {
		return false
	}
	return re.MatchString(str)
}

// searchFunc implements the RFC 9535 §2.4.7 search() function: an
// unanchored I-Regexp substring match.
//
// Parameters: ValueType, ValueType. Result: LogicalType.
type searchFunc struct{}

func (searchFunc) Name() string         { return "search" }
func (searchFunc) ResultType() FuncType { return Logical }

func (searchFunc) Validate(args []ArgType) error {
	return matchFunc{}.Validate(args)
}

// Call returns true if the first argument contains a match for the pattern
// in the second. Either argument not a string, or an invalid pattern,
// yields false.
func (searchFunc) Call(args []any) any {
	str, pattern, ok := twoStrings(args)
	if !ok {
		return false
	}
	re := compileIRegexp(pattern)
	if re == nil {
		return false
	}
	return re.MatchString(str)
}

// valueFunc implements the RFC 9535 §2.4.8 value() function.
//
// Parameters: NodesType. Result: ValueType.
type valueFunc struct{}

func (valueFunc) Name() string         { return "value" }
func (valueFunc) ResultType() FuncType { return Value }

func (valueFunc) Validate(args []ArgType) error {
	if err := checkCount(args, 1); err != nil {
		return err
	}
	return checkConverts(args, 0, Nodes)
}

// Call returns the value of the single node in the node list, or Nothing if
// the list is empty or has more than one node.
func (valueFunc) Call(args []any) any {
	nodes, ok := args[0].([]any)
	if !ok || len(nodes) != 1 {
		return Nothing
	}
	return nodes[0]
}

// twoStrings extracts the (subject, pattern) string pair for match/search.
func twoStrings(args []any) (str, pattern string, ok bool) {
	str, ok1 := args[0].(string)
	pattern, ok2 := args[1].(string)
	return str, pattern, ok1 && ok2
}

// reCache caches compiled regular expressions keyed by pattern string.
// Invalid patterns cache a nil entry so they are not re-parsed per node.
var reCache sync.Map

// CheckIRegexp reports whether pattern is an I-Regexp pattern that the host
// regexp engine can compile. The parser uses it to reject invalid literal
// patterns at parse time.
func CheckIRegexp(pattern string) error {
	_, err := compileIRegexpUncached(pattern)
	return err
}

// compileIRegexp compiles an I-Regexp pattern (RFC 9485) into a Go
// *regexp.Regexp, caching results. Returns nil if the pattern is invalid.
//
// Go's regexp engine (RE2) guarantees linear-time matching, which satisfies
// the bounded-evaluation requirement without a timeout.
func compileIRegexp(pattern string) *regexp.Regexp {
	if v, ok := reCache.Load(pattern); ok {
		re, _ := v.(*regexp.Regexp)
		return re
	}
	re, err := compileIRegexpUncached(pattern)
	if err != nil {
		reCache.Store(pattern, (*regexp.Regexp)(nil))
		return nil
	}
	reCache.Store(pattern, re)
	return re
}

// compileIRegexpUncached compiles an I-Regexp pattern without caching.
// Per RFC 9485 §5.3, "." matches any character except CR and LF, so every
// OpAnyChar node is rewritten to [^\n\r] before compilation.
func compileIRegexpUncached(pattern string) (*regexp.Regexp, error) {
	parsed, err := syntax.Parse(pattern, syntax.Perl|syntax.DotNL)
	if err != nil {
		return nil, err
	}
	replaceAnyChar(parsed)
	return regexp.Compile(parsed.String())
}

// noCRLF is the pre-compiled replacement for "." in I-Regexp patterns.
var noCRLF = mustParseSyntax(`[^\n\r]`)

// mustParseSyntax parses a constant regex pattern or panics.
func mustParseSyntax(pattern string) *syntax.Regexp {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		panic(errors.New("functions: bad constant pattern: " + err.Error()))
	}
	return re
}

// replaceAnyChar recursively replaces OpAnyChar nodes with [^\n\r].
func replaceAnyChar(re *syntax.Regexp) {
	if re.Op == syntax.OpAnyChar {
		*re = *noCRLF
		return
	}
	for _, sub := range re.Sub {
		replaceAnyChar(sub)
	}
}
