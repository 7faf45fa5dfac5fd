package graphcalc

import (
	"log/slog"
	"math/big"
	"sort"

	"github.com/sahilm/fuzzy"
)

// Env is a session: the user functions defined so far plus the built-in
// functions, with the settings used to evaluate expressions. It is not safe
// to use an Env concurrently. Independent sessions use independent Envs.
type Env struct {
	defs  map[funcKey]*Definition
	funcs map[funcKey]Func
	nums  map[string]*big.Float
	log   *slog.Logger
	// ownfuncs indicates that funcs is not shared with another Env.
	ownfuncs bool

	prec     uint
	maxDepth int
	// depth is the number of user function calls in progress.
	depth int
}

// NewEnv creates a new session. If no precision is given, the default is 64
// bits. The default maximum call depth is 512.
func NewEnv(opts ...EnvOption) *Env {
	env := Env{
		funcs:    globalfuncs,
		prec:     64,
		maxDepth: 512,
	}
	return env.Clone(opts...)
}

// Definition is a registered user function. Definitions are immutable once
// registered; redefining a function replaces its Definition.
type Definition struct {
	// Def is the signature.
	Def *FuncDef
	// Body is the expression computing the result.
	Body *Expr
}

// Params returns the declared parameter types.
func (d *Definition) Params() []Type {
	p := make([]Type, len(d.Def.Params))
	for i, v := range d.Def.Params {
		p[i] = v.Type
	}
	return p
}

// Returns returns the declared return type.
func (d *Definition) Returns() Type {
	return d.Def.Returns
}

// Call evaluates the body with the arguments bound to the parameters in a new
// frame.
func (d *Definition) Call(env *Env, args []Value) (Value, error) {
	if env.depth >= env.maxDepth {
		return Value{}, &RecursionLimitError{Func: d.Def.Name, Depth: env.maxDepth}
	}
	env.depth++
	defer func() { env.depth-- }()
	locals := make(map[string]Value, len(args))
	for i, p := range d.Def.Params {
		locals[p.Name] = args[i]
	}
	return d.Body.n.eval(env, locals)
}

// String formats the definition as a statement which defines it again.
func (d *Definition) String() string {
	return d.Def.String() + " = " + d.Body.String()
}

var _ Func = (*Definition)(nil)

// Register type checks and adds a user function to the session, replacing
// any function with the same name and arity. If the function is not well
// typed, the session is unchanged. Registering a definition identical to the
// current one has no effect.
func (env *Env) Register(def *FuncDef, body *Expr) error {
	if err := env.checkDef(def, body); err != nil {
		return err
	}
	k := funcKey{def.Name, def.Arity()}
	d := &Definition{Def: def, Body: body}
	src := d.String()
	if old := env.defs[k]; old != nil {
		if old.String() == src {
			env.log.Debug("unchanged", slog.String("func", k.String()))
			return nil
		}
		env.log.Debug("redefined", slog.String("func", k.String()), slog.String("was", old.String()), slog.String("now", src))
	} else {
		env.log.Debug("defined", slog.String("func", k.String()), slog.String("def", src))
	}
	env.defs[k] = d
	return nil
}

// Lookup finds the function with the given name and arity. User definitions
// shadow built-ins. If there is no such function, the error is an
// *ArityError if the name exists with other arities and otherwise an
// *UndefinedFunctionError.
func (env *Env) Lookup(name string, arity int) (Func, error) {
	k := funcKey{name, arity}
	if d := env.defs[k]; d != nil {
		return d, nil
	}
	if f := env.funcs[k]; f != nil {
		return f, nil
	}
	if want := env.arities(name); len(want) > 0 {
		return nil, &ArityError{Func: name, Got: arity, Want: want}
	}
	return nil, &UndefinedFunctionError{Name: name, Arity: arity, Suggest: env.suggest(name)}
}

// arities returns the sorted arities with which name is defined.
func (env *Env) arities(name string) []int {
	seen := make(map[int]bool)
	for k := range env.defs {
		if k.name == name {
			seen[k.arity] = true
		}
	}
	for k, f := range env.funcs {
		if k.name == name && f != nil {
			seen[k.arity] = true
		}
	}
	r := make([]int, 0, len(seen))
	for n := range seen {
		r = append(r, n)
	}
	sort.Ints(r)
	return r
}

// suggest returns up to three known function names resembling name.
func (env *Env) suggest(name string) []string {
	matches := fuzzy.Find(name, env.Names())
	var r []string
	for i := 0; i < len(matches) && i < 3; i++ {
		r = append(r, matches[i].Str)
	}
	return r
}

// Names returns the sorted names of all functions in the session, user and
// built-in, without duplicates.
func (env *Env) Names() []string {
	seen := make(map[string]bool, len(env.defs)+len(env.funcs))
	var r []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			r = append(r, name)
		}
	}
	for k := range env.defs {
		add(k.name)
	}
	for k, f := range env.funcs {
		if f != nil {
			add(k.name)
		}
	}
	sort.Strings(r)
	return r
}

// Definitions returns the user definitions in the session sorted by name,
// then arity. Executing the String of each definition in order against a new
// Env recreates the session's functions.
func (env *Env) Definitions() []*Definition {
	r := make([]*Definition, 0, len(env.defs))
	for _, d := range env.defs {
		r = append(r, d)
	}
	sort.Slice(r, func(i, j int) bool {
		a, b := r[i].Def, r[j].Def
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Arity() < b.Arity()
	})
	return r
}

// Prec returns the precision in bits to which values are computed.
func (env *Env) Prec() uint {
	return env.prec
}

// MaxDepth returns the maximum depth of user function calls.
func (env *Env) MaxDepth() int {
	return env.maxDepth
}

// Clone creates a copy of a session and applies options to it. Definitions
// are shared between the two, but defining functions in one does not affect
// the other.
func (env *Env) Clone(opts ...EnvOption) *Env {
	n := Env{
		defs:     make(map[funcKey]*Definition, len(env.defs)),
		funcs:    env.funcs,
		log:      env.log,
		prec:     env.prec,
		maxDepth: env.maxDepth,
	}
	for k, d := range env.defs {
		n.defs[k] = d
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(&n)
	}
	if n.log == nil {
		n.log = slog.New(slog.DiscardHandler)
	}
	n.nums = make(map[string]*big.Float, len(env.nums))
	// Copy cached literals only if they have the right precision.
	if n.prec == env.prec {
		for k, v := range env.nums {
			n.nums[k] = v
		}
	}
	return &n
}

// num gets a possibly cached number from its text. The result must not be
// modified.
func (env *Env) num(s string) *big.Float {
	if r := env.nums[s]; r != nil {
		return r
	}
	r, _, err := new(big.Float).SetPrec(env.prec).Parse(s, 10)
	if err != nil {
		panic("graphcalc: invalid number: " + s + " (" + err.Error() + ")")
	}
	env.nums[s] = r
	return r
}
