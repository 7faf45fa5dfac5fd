package graphcalc

import (
	"log/slog"
	"math/big"
	"strconv"
	"strings"
)

// UndefinedFunctionError is an error from calling a function that is neither
// defined in the session nor built in under any arity.
type UndefinedFunctionError struct {
	Col int
	// Name is the function that was called.
	Name string
	// Arity is the number of arguments in the call.
	Arity int
	// Suggest lists known function names similar to Name, best first.
	Suggest []string
}

func (err *UndefinedFunctionError) Error() string {
	msg := "undefined function: " + strconv.Quote(err.Name) + " with " + plural(err.Arity, "argument")
	if len(err.Suggest) > 0 {
		msg += " (did you mean " + strings.Join(err.Suggest, ", ") + "?)"
	}
	return errpos(err.Col, msg)
}

// UndefinedVariableError is an error from a name that is neither a bound
// variable nor a function of no arguments.
type UndefinedVariableError struct {
	Col int
	// Name is the name that was missing.
	Name string
}

func (err *UndefinedVariableError) Error() string {
	return errpos(err.Col, "undefined variable: "+strconv.Quote(err.Name))
}

// ArityError is an error from calling a function with a number of arguments
// it is not defined for.
type ArityError struct {
	Col int
	// Func is the function name that was called.
	Func string
	// Got is the number of arguments in the call.
	Got int
	// Want lists the arities the function is defined with.
	Want []int
}

func (err *ArityError) Error() string {
	want := make([]string, len(err.Want))
	for i, n := range err.Want {
		want[i] = strconv.Itoa(n)
	}
	return errpos(err.Col, "cannot call "+err.Func+" with "+plural(err.Got, "argument")+
		" (expected "+strings.Join(want, " or ")+")")
}

// TypeMismatchError is an error from a value whose kind differs from the
// declared or required type.
type TypeMismatchError struct {
	Col int
	// Func is the function or operator that required the type.
	Func string
	// Param names the parameter, or describes the operand, e.g. "condition".
	Param string
	// Want is the required type.
	Want Type
	// Got is the type of the value supplied.
	Got Type
}

func (err *TypeMismatchError) Error() string {
	msg := "expected " + err.Want.String() + " but got " + err.Got.String() + " for " + err.Param
	if err.Func != "" {
		msg += " of " + err.Func
	}
	return errpos(err.Col, msg)
}

// ShapeError is an error from combining lists of different lengths
// elementwise.
type ShapeError struct {
	Col int
	// Op is the operator or mapped function.
	Op string
	// Lens are the lengths of the list operands.
	Lens []int
}

func (err *ShapeError) Error() string {
	lens := make([]string, len(err.Lens))
	for i, n := range err.Lens {
		lens[i] = strconv.Itoa(n)
	}
	return errpos(err.Col, "mismatched list lengths "+strings.Join(lens, ", ")+" for "+err.Op)
}

// DomainError is an error returned when a function or operator is applied to
// arguments outside its domain.
type DomainError struct {
	Col int
	// X is the out-of-domain argument.
	X *big.Float
	// Arg is the 1-based index of the argument, or 0 for an operand.
	Arg int
	// Func is a name identifying the function.
	Func string
}

func (err *DomainError) Error() string {
	r := "NaN"
	if err.X != nil {
		r = numText(err.X)
	}
	r += " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return errpos(err.Col, r)
}

// ArithmeticError is an error from division or modulo by zero.
type ArithmeticError struct {
	Col int
	// Op is the operator or function.
	Op string
}

func (err *ArithmeticError) Error() string {
	verb := "division"
	if err.Op == "%" || err.Op == "mod" {
		verb = "modulo"
	}
	return errpos(err.Col, verb+" by zero in "+err.Op)
}

// RecursionLimitError is an error from exceeding the session's maximum call
// depth.
type RecursionLimitError struct {
	Col int
	// Func is the function whose call exceeded the limit.
	Func string
	// Depth is the limit.
	Depth int
}

func (err *RecursionLimitError) Error() string {
	return errpos(err.Col, "call depth limit "+strconv.Itoa(err.Depth)+" exceeded calling "+err.Func)
}

func (err *UndefinedFunctionError) Pos() int { return err.Col }
func (err *UndefinedVariableError) Pos() int { return err.Col }
func (err *ArityError) Pos() int             { return err.Col }
func (err *TypeMismatchError) Pos() int      { return err.Col }
func (err *ShapeError) Pos() int             { return err.Col }
func (err *DomainError) Pos() int            { return err.Col }
func (err *ArithmeticError) Pos() int        { return err.Col }
func (err *RecursionLimitError) Pos() int    { return err.Col }

func (err *UndefinedFunctionError) Kind() ErrorKind { return KindUndefinedFunction }
func (err *UndefinedVariableError) Kind() ErrorKind { return KindUndefinedVariable }
func (err *ArityError) Kind() ErrorKind             { return KindArity }
func (err *TypeMismatchError) Kind() ErrorKind      { return KindTypeMismatch }
func (err *ShapeError) Kind() ErrorKind             { return KindShape }
func (err *DomainError) Kind() ErrorKind            { return KindDomain }
func (err *ArithmeticError) Kind() ErrorKind        { return KindArithmetic }
func (err *RecursionLimitError) Kind() ErrorKind    { return KindRecursionLimit }

func (err *UndefinedFunctionError) LogValue() slog.Value {
	return logValue(err, slog.String("name", err.Name), slog.Int("arity", err.Arity))
}

func (err *UndefinedVariableError) LogValue() slog.Value {
	return logValue(err, slog.String("name", err.Name))
}

func (err *ArityError) LogValue() slog.Value {
	return logValue(err, slog.String("func", err.Func), slog.Int("got", err.Got))
}

func (err *TypeMismatchError) LogValue() slog.Value {
	return logValue(err,
		slog.String("param", err.Param),
		slog.String("want", err.Want.String()),
		slog.String("got", err.Got.String()),
	)
}

func (err *ShapeError) LogValue() slog.Value      { return logValue(err, slog.Any("lens", err.Lens)) }
func (err *DomainError) LogValue() slog.Value     { return logValue(err, slog.String("func", err.Func)) }
func (err *ArithmeticError) LogValue() slog.Value { return logValue(err, slog.String("op", err.Op)) }
func (err *RecursionLimitError) LogValue() slog.Value {
	return logValue(err, slog.String("func", err.Func), slog.Int("depth", err.Depth))
}

// positioned is implemented by evaluation errors so that the evaluator can
// attribute them to a column in the statement being evaluated.
type positioned interface {
	setpos(int)
}

func (err *UndefinedFunctionError) setpos(col int) { err.Col = col }
func (err *UndefinedVariableError) setpos(col int) { err.Col = col }
func (err *ArityError) setpos(col int)             { err.Col = col }
func (err *TypeMismatchError) setpos(col int)      { err.Col = col }
func (err *ShapeError) setpos(col int)             { err.Col = col }
func (err *DomainError) setpos(col int)            { err.Col = col }
func (err *ArithmeticError) setpos(col int)        { err.Col = col }
func (err *RecursionLimitError) setpos(col int)    { err.Col = col }

// at attributes err to col if it has no position yet.
func at(err error, col int) error {
	if p, ok := err.(positioned); ok {
		if e, ok := err.(InputError); ok && e.Pos() == 0 {
			p.setpos(col)
		}
	}
	return err
}

// reposition attributes err to col unconditionally. Errors escaping a user
// function body are reported at the call in the current statement.
func reposition(err error, col int) error {
	if p, ok := err.(positioned); ok {
		p.setpos(col)
	}
	return err
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

var (
	_ InputError = (*UndefinedFunctionError)(nil)
	_ InputError = (*UndefinedVariableError)(nil)
	_ InputError = (*ArityError)(nil)
	_ InputError = (*TypeMismatchError)(nil)
	_ InputError = (*ShapeError)(nil)
	_ InputError = (*DomainError)(nil)
	_ InputError = (*ArithmeticError)(nil)
	_ InputError = (*RecursionLimitError)(nil)
)
