package graphcalc

import (
	"log/slog"
)

// EnvOption is an option used when creating or cloning an Env.
type EnvOption interface {
	apply(*Env)
}

type (
	precopt  uint
	depthopt int
	logopt   struct{ log *slog.Logger }
	funcopt  struct {
		name string
		fn   Func
		// arity is used only to remove a function.
		arity int
	}
	funcsopt   map[string]Func
	nofuncsopt struct{}
)

// Prec sets the precision of calculations in bits.
func Prec(prec uint) EnvOption {
	return precopt(prec)
}

func (o precopt) apply(env *Env) {
	env.prec = uint(o)
}

// MaxDepth sets the maximum depth of user function calls. Calls beyond it
// fail with a *RecursionLimitError.
func MaxDepth(depth int) EnvOption {
	return depthopt(depth)
}

func (o depthopt) apply(env *Env) {
	env.maxDepth = int(o)
}

// Logger sets the logger that receives debug messages about definitions.
// A nil logger discards them.
func Logger(log *slog.Logger) EnvOption {
	return logopt{log}
}

func (o logopt) apply(env *Env) {
	env.log = o.log
}

// Builtin adds a built-in function, keyed by name and the length of its
// Params. It replaces any built-in with the same name and arity.
func Builtin(name string, fn Func) EnvOption {
	return funcopt{name: name, fn: fn}
}

// WithoutBuiltin removes the built-in function with the given name and
// arity.
func WithoutBuiltin(name string, arity int) EnvOption {
	return funcopt{name: name, arity: arity}
}

func (o funcopt) apply(env *Env) {
	env.ownFuncs()
	if o.fn == nil {
		delete(env.funcs, funcKey{o.name, o.arity})
		return
	}
	env.funcs[keyOf(o.name, o.fn)] = o.fn
}

// Builtins adds a group of built-in functions.
func Builtins(fns map[string]Func) EnvOption {
	return funcsopt(fns)
}

func (o funcsopt) apply(env *Env) {
	env.ownFuncs()
	for name, fn := range o {
		if fn != nil {
			env.funcs[keyOf(name, fn)] = fn
		}
	}
}

// WithoutBuiltins removes all built-in functions, including any added by
// earlier options.
func WithoutBuiltins() EnvOption {
	return nofuncsopt{}
}

func (nofuncsopt) apply(env *Env) {
	env.funcs = make(map[funcKey]Func)
	env.ownfuncs = true
}

// ownFuncs ensures env.funcs can be modified without affecting other Envs.
func (env *Env) ownFuncs() {
	if env.ownfuncs {
		return
	}
	m := make(map[funcKey]Func, len(env.funcs))
	for k, v := range env.funcs {
		m[k] = v
	}
	env.funcs = m
	env.ownfuncs = true
}
