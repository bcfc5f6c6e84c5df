// Package parser compiles user supplied analytic expressions of named
// variables into functions that can be evaluated at every grid point.
//
// Expressions use govaluate syntax with two conveniences: '^' is the power
// operator, and numeric literals may use exponent notation (1.e-3). The
// physical constants in utils.PhysConstMap, pi, and any user constants are
// available by name.
package parser

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/notargets/hybridpic/utils"
)

var (
	ErrUnknownSymbol = errors.New("parser: unknown symbol")
	ErrNotNumeric    = errors.New("parser: expression does not evaluate to a number")
)

type Parser struct {
	Source    string
	vars      []string
	argIndex  map[string]int
	constants map[string]float64
	symbols   map[string]bool
	expr      *govaluate.EvaluableExpression
}

// MakeParser compiles src as a function of vars. An empty source is the
// constant 0
func MakeParser(src string, constants map[string]float64, vars ...string) (p *Parser, err error) {
	p = &Parser{
		Source:    src,
		vars:      vars,
		argIndex:  make(map[string]int, len(vars)),
		constants: make(map[string]float64),
		symbols:   make(map[string]bool),
	}
	for i, v := range vars {
		p.argIndex[v] = i
	}
	for k, v := range BuiltinConstants() {
		p.constants[k] = v
	}
	for k, v := range constants {
		p.constants[k] = v
	}
	if strings.TrimSpace(src) == "" {
		src = "0"
	}
	if p.expr, err = govaluate.NewEvaluableExpressionWithFunctions(Translate(src), mathFunctions); err != nil {
		err = fmt.Errorf("parser: unable to compile %q: %w", p.Source, err)
		return nil, err
	}
	for _, name := range p.expr.Vars() {
		if _, isArg := p.argIndex[name]; isArg {
			p.symbols[name] = true
			continue
		}
		if _, isConst := p.constants[name]; !isConst {
			err = fmt.Errorf("%w %q in %q, allowed variables are %v", ErrUnknownSymbol,
				name, p.Source, vars)
			return nil, err
		}
	}
	// Trial evaluation catches non numeric results before any kernel runs
	if _, err = p.Eval(utils.ConstArray(len(vars), 1)...); err != nil {
		return nil, err
	}
	return
}

// Symbols lists the variables the expression actually uses
func (p *Parser) Symbols() (s []string) {
	for name := range p.symbols {
		s = append(s, name)
	}
	sort.Strings(s)
	return
}

func (p *Parser) HasSymbol(name string) bool { return p.symbols[name] }

// Eval evaluates the expression with args bound to the variables in order
func (p *Parser) Eval(args ...float64) (val float64, err error) {
	var (
		res interface{}
		ok  bool
	)
	if len(args) != len(p.vars) {
		err = fmt.Errorf("parser: %q takes %d arguments, got %d", p.Source, len(p.vars), len(args))
		return
	}
	if res, err = p.expr.Eval(parameters{p: p, args: args}); err != nil {
		err = fmt.Errorf("parser: evaluating %q: %w", p.Source, err)
		return
	}
	if val, ok = res.(float64); !ok {
		err = fmt.Errorf("%w: %q gives %T", ErrNotNumeric, p.Source, res)
	}
	return
}

// Compile returns a function for use inside kernels. Evaluation errors after
// a successful MakeParser are programming errors and panic
func (p *Parser) Compile() func(args ...float64) float64 {
	return func(args ...float64) float64 {
		val, err := p.Eval(args...)
		if err != nil {
			panic(err)
		}
		return val
	}
}

type parameters struct {
	p    *Parser
	args []float64
}

func (pp parameters) Get(name string) (interface{}, error) {
	if i, ok := pp.p.argIndex[name]; ok {
		return pp.args[i], nil
	}
	if v, ok := pp.p.constants[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownSymbol, name)
}

var expLiteral = regexp.MustCompile(`(^|[^A-Za-z_0-9.])((?:\d+\.?\d*|\.\d+)[eE][+-]?\d+)`)

// Translate rewrites an expression into govaluate syntax
func Translate(src string) string {
	src = expLiteral.ReplaceAllStringFunc(src, func(m string) string {
		sub := expLiteral.FindStringSubmatch(m)
		v, err := strconv.ParseFloat(sub[2], 64)
		if err != nil {
			return m
		}
		return sub[1] + strconv.FormatFloat(v, 'f', -1, 64)
	})
	return strings.ReplaceAll(src, "^", "**")
}

func BuiltinConstants() (c map[string]float64) {
	c = map[string]float64{
		"pi": math.Pi,
	}
	for k, v := range utils.PhysConstMap {
		c[k] = v
	}
	return
}

// EvalConstant evaluates an expression that has no variables
func EvalConstant(src string, constants map[string]float64) (val float64, err error) {
	var p *Parser
	if p, err = MakeParser(src, constants); err != nil {
		return
	}
	return p.Eval()
}

// ResolveConstants evaluates user constant definitions, which may refer to
// each other in any order
func ResolveConstants(defs map[string]string) (c map[string]float64, err error) {
	c = make(map[string]float64, len(defs))
	pending := make(map[string]string, len(defs))
	for k, v := range defs {
		pending[k] = v
	}
	for len(pending) > 0 {
		progress := false
		for name, src := range pending {
			val, e := EvalConstant(src, c)
			if e != nil {
				if errors.Is(e, ErrUnknownSymbol) {
					continue
				}
				err = fmt.Errorf("parser: constant %s: %w", name, e)
				return
			}
			c[name] = val
			delete(pending, name)
			progress = true
		}
		if !progress {
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			err = fmt.Errorf("%w: unresolved constants %v", ErrUnknownSymbol, names)
			return
		}
	}
	return
}
