package parser

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

var mathFunctions = map[string]govaluate.ExpressionFunction{
	"sin":       unary("sin", math.Sin),
	"cos":       unary("cos", math.Cos),
	"tan":       unary("tan", math.Tan),
	"asin":      unary("asin", math.Asin),
	"acos":      unary("acos", math.Acos),
	"atan":      unary("atan", math.Atan),
	"sinh":      unary("sinh", math.Sinh),
	"cosh":      unary("cosh", math.Cosh),
	"tanh":      unary("tanh", math.Tanh),
	"exp":       unary("exp", math.Exp),
	"log":       unary("log", math.Log),
	"log10":     unary("log10", math.Log10),
	"sqrt":      unary("sqrt", math.Sqrt),
	"abs":       unary("abs", math.Abs),
	"floor":     unary("floor", math.Floor),
	"ceil":      unary("ceil", math.Ceil),
	"heaviside": unary("heaviside", heaviside),
	"atan2":     binary("atan2", math.Atan2),
	"pow":       binary("pow", math.Pow),
	"min":       binary("min", math.Min),
	"max":       binary("max", math.Max),
	"mod":       binary("mod", math.Mod),
}

func heaviside(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return 0
	default:
		return 0.5
	}
}

func toFloats(name string, n int, args []interface{}) (f []float64, err error) {
	if len(args) != n {
		err = fmt.Errorf("parser: got %d arguments for function '%s', but needs %d", len(args), name, n)
		return
	}
	f = make([]float64, n)
	for i, a := range args {
		var ok bool
		if f[i], ok = a.(float64); !ok {
			err = fmt.Errorf("parser: argument %d of '%s' is %T, not a number", i, name, a)
			return
		}
	}
	return
}

func unary(name string, fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		f, err := toFloats(name, 1, args)
		if err != nil {
			return nil, err
		}
		return fn(f[0]), nil
	}
}

func binary(name string, fn func(a, b float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		f, err := toFloats(name, 2, args)
		if err != nil {
			return nil, err
		}
		return fn(f[0], f[1]), nil
	}
}
