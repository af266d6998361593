package jsonpath

import (
	"errors"

	"github.com/evenlode/jsonpath/functions"
	"github.com/evenlode/jsonpath/internal/parser"
)

// Parser compiles JSONPath expressions into [Path] values. Each Parser
// owns its function registry, so registering extension functions on one
// Parser never affects another. The zero-argument [NewParser] registers
// only the RFC 9535 built-ins.
type Parser struct {
	reg *functions.Registry
}

// Option configures a [Parser].
type Option func(*Parser)

// WithFunctions registers extension functions beyond the RFC 9535
// built-ins. A function with the name of an earlier registration (or of a
// built-in) replaces it.
func WithFunctions(fns ...functions.Function) Option {
	return func(p *Parser) {
		for _, fn := range fns {
			p.reg.Register(fn)
		}
	}
}

// NewParser creates a [Parser] configured by opts.
func NewParser(opts ...Option) *Parser {
	p := &Parser{reg: functions.NewRegistry()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse compiles a JSONPath expression. Failures are *[SyntaxError]
// values matching [ErrPathParse].
func (p *Parser) Parse(expr string) (*Path, error) {
	query, err := parser.Parse(expr, p.reg)
	if err != nil {
		var perr *parser.Error
		if errors.As(err, &perr) {
			return nil, &SyntaxError{Position: perr.Pos, Message: perr.Msg}
		}
		return nil, errors.Join(ErrPathParse, err)
	}
	return &Path{query: query}, nil
}

// MustParse compiles a JSONPath expression. It panics on failure.
func (p *Parser) MustParse(expr string) *Path {
	path, err := p.Parse(expr)
	if err != nil {
		panic(err)
	}
	return path
}
