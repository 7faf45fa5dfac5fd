package graphcalc

import (
	"log/slog"
	"strconv"
	"strings"
)

// ErrorKind classifies an InputError.
type ErrorKind int8

const (
	KindLex ErrorKind = iota + 1
	KindSyntax
	KindUndefinedFunction
	KindUndefinedVariable
	KindArity
	KindTypeMismatch
	KindShape
	KindDomain
	KindArithmetic
	KindRecursionLimit
)

var errorKindNames = [...]string{
	KindLex:               "LexError",
	KindSyntax:            "SyntaxError",
	KindUndefinedFunction: "UndefinedFunctionError",
	KindUndefinedVariable: "UndefinedVariableError",
	KindArity:             "ArityError",
	KindTypeMismatch:      "TypeMismatchError",
	KindShape:             "ShapeError",
	KindDomain:            "DomainError",
	KindArithmetic:        "ArithmeticError",
	KindRecursionLimit:    "RecursionLimitError",
}

func (k ErrorKind) String() string {
	if k <= 0 || int(k) >= len(errorKindNames) {
		return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
	return errorKindNames[k]
}

// InputError is an error with position information. Every error resulting from
// invalid input or a failed evaluation implements InputError.
type InputError interface {
	error
	// Pos returns the position of the error as the 1-based rune column of the
	// token that caused the error, or 0 if the position is unknown.
	Pos() int
	// Kind classifies the error.
	Kind() ErrorKind
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	if pos <= 0 {
		return msg
	}
	return strconv.Itoa(pos) + ": " + msg
}

// logValue is the common slog representation of input errors.
func logValue(err InputError, attrs ...slog.Attr) slog.Value {
	a := make([]slog.Attr, 0, len(attrs)+3)
	a = append(a,
		slog.String("kind", err.Kind().String()),
		slog.Int("col", err.Pos()),
		slog.String("error", err.Error()),
	)
	return slog.GroupValue(append(a, attrs...)...)
}

func (err *LexError) Pos() int        { return err.Col }
func (err *LexError) Kind() ErrorKind { return KindLex }
func (err *LexError) LogValue() slog.Value {
	return logValue(err, slog.String("text", err.Text))
}

// SyntaxError is an error indicating a token that does not fit the grammar.
// It implements InputError.
type SyntaxError struct {
	// Col is the position of the unexpected token.
	Col int
	// Got is the text of the unexpected token, or empty at end of input.
	Got string
	// Expected describes what the parser would have accepted.
	Expected []string
}

func (err *SyntaxError) Error() string {
	got := "end of input"
	if err.Got != "" {
		got = strconv.Quote(err.Got)
	}
	msg := "unexpected " + got
	if len(err.Expected) > 0 {
		msg += ", expected " + strings.Join(err.Expected, " or ")
	}
	return errpos(err.Col, msg)
}

func (err *SyntaxError) Pos() int        { return err.Col }
func (err *SyntaxError) Kind() ErrorKind { return KindSyntax }
func (err *SyntaxError) LogValue() slog.Value {
	return logValue(err, slog.Any("expected", err.Expected))
}

// BracketError is an error indicating mismatched brackets in the input. It
// implements InputError and is a kind of syntax error.
type BracketError struct {
	// Col is the position of the offending bracket or end of input.
	Col int
	// Left is the opening bracket.
	Left string
	// Right is the mismatched closing bracket.
	Right string
}

func (err *BracketError) Error() string {
	if err.Left == "" {
		return errpos(err.Col, "close bracket "+err.Right+" with no open bracket")
	}
	if err.Right == "" {
		return errpos(err.Col, "open bracket "+err.Left+" with no close bracket")
	}
	return errpos(err.Col, "mismatched bracket: "+err.Left+"expr"+err.Right)
}

func (err *BracketError) Pos() int        { return err.Col }
func (err *BracketError) Kind() ErrorKind { return KindSyntax }
func (err *BracketError) LogValue() slog.Value {
	return logValue(err)
}

// EmptyExpressionError is an error indicating an empty statement or
// subexpression. It implements InputError and is a kind of syntax error.
type EmptyExpressionError struct {
	// Col is the position of the token that ended the subexpression.
	Col int
	// End is the token that ended the subexpression.
	End string
}

func (err *EmptyExpressionError) Error() string {
	if err.End == "" || err.End == ";" {
		if err.Col <= 1 {
			return errpos(err.Col, "no expression")
		}
		return errpos(err.Col, "no expression at end")
	}
	return errpos(err.Col, "no expression up to "+strconv.Quote(err.End))
}

func (err *EmptyExpressionError) Pos() int        { return err.Col }
func (err *EmptyExpressionError) Kind() ErrorKind { return KindSyntax }
func (err *EmptyExpressionError) LogValue() slog.Value {
	return logValue(err)
}

var (
	_ InputError = (*LexError)(nil)
	_ InputError = (*SyntaxError)(nil)
	_ InputError = (*BracketError)(nil)
	_ InputError = (*EmptyExpressionError)(nil)
)
