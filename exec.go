package graphcalc

import (
	"io"
	"log/slog"
	"strings"
)

// Result is the outcome of a successful statement.
type Result struct {
	// Def is the signature of the function a definition statement registered,
	// or nil for an expression statement.
	Def *FuncDef
	// Value is the value of an expression statement. It is the zero Value for
	// a definition.
	Value Value
}

// String formats the registered signature or the value.
func (r Result) String() string {
	if r.Def != nil {
		return r.Def.String()
	}
	return r.Value.String()
}

// Run executes a parsed statement. A definition is registered in env; an
// expression is type checked and evaluated with vars bound. A statement that
// fails leaves env unchanged.
func (env *Env) Run(s *Stmt, vars map[string]Value) (Result, error) {
	if s.Def != nil {
		if err := env.Register(s.Def, s.Expr); err != nil {
			env.log.Debug("definition failed", slog.String("stmt", s.String()), slog.Any("err", err))
			return Result{}, err
		}
		return Result{Def: s.Def}, nil
	}
	if err := env.checkExpr(s.Expr, vars); err != nil {
		env.log.Debug("expression rejected", slog.String("stmt", s.String()), slog.Any("err", err))
		return Result{}, err
	}
	v, err := env.Eval(s.Expr, vars)
	if err != nil {
		env.log.Debug("evaluation failed", slog.String("stmt", s.String()), slog.Any("err", err))
		return Result{}, err
	}
	return Result{Value: v}, nil
}

// Exec parses and runs one statement from src. Reading stops after the first
// ';', so successive calls execute successive statements.
func (env *Env) Exec(src io.RuneScanner, vars map[string]Value) (Result, error) {
	s, err := Parse(src)
	if err != nil {
		return Result{}, err
	}
	return env.Run(s, vars)
}

// ExecString is a shortcut to execute a statement from a string.
func (env *Env) ExecString(src string, vars map[string]Value) (Result, error) {
	return env.Exec(strings.NewReader(src), vars)
}
