package graphcalc

import (
	"errors"
	"math"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// Func is a callable known to an Env: either a built-in or a user Definition.
type Func interface {
	// Params returns the declared parameter types. The length of the result
	// is the function's arity. TypeAny accepts either kind of value.
	Params() []Type
	// Returns returns the declared result type, or TypeAny.
	Returns() Type
	// Call evaluates the function. args has the length of Params and each
	// argument has already been checked against its declared type. Call must
	// not modify the arguments and should compute to env.Prec().
	Call(env *Env, args []Value) (Value, error)
}

// funcKey identifies a function by name and arity.
type funcKey struct {
	name  string
	arity int
}

func (k funcKey) String() string {
	return k.name + "/" + strconv.Itoa(k.arity)
}

func keyOf(name string, fn Func) funcKey {
	return funcKey{name, len(fn.Params())}
}

var (
	number  = []Type{TypeNumber}
	number2 = []Type{TypeNumber, TypeNumber}
	list    = []Type{TypeList}
)

var globalfuncs = map[funcKey]Func{
	{"exp", 1}:   Monadic(bigfloat.Exp),
	{"sqrt", 1}:  Monadic((*big.Float).Sqrt),
	{"abs", 1}:   Monadic((*big.Float).Abs),
	{"floor", 1}: Monadic(floor),
	{"ceil", 1}:  Monadic(ceil),
	{"round", 1}: Monadic(round),
	{"pow", 2}:   Dyadic(pow),

	{"ln", 1}: Monadic(func(out, in *big.Float) *big.Float {
		if in.Sign() <= 0 {
			panic(&DomainError{X: in, Arg: 1})
		}
		return bigfloat.Log(out, in)
	}),

	{"log", 1}: Monadic(func(out, in *big.Float) *big.Float {
		return logb(out, in, big.NewFloat(10))
	}),

	{"log", 2}: Dyadic(func(out, b, x *big.Float) *big.Float {
		if b.Sign() <= 0 || b.Cmp(one) == 0 {
			panic(&DomainError{X: b, Arg: 1})
		}
		if x.Sign() <= 0 {
			panic(&DomainError{X: x, Arg: 2})
		}
		return logb(out, x, b)
	}),

	{"sign", 1}: Monadic(func(out, in *big.Float) *big.Float {
		return out.SetInt64(int64(in.Sign()))
	}),

	{"mod", 2}: &builtin{
		params:  number2,
		returns: TypeNumber,
		call: func(env *Env, args []Value) (Value, error) {
			z := new(big.Float).SetPrec(env.Prec())
			if err := floormod(z, args[0].Float(), args[1].Float()); err != nil {
				err.(*ArithmeticError).Op = "mod"
				return Value{}, err
			}
			return Num(z), nil
		},
	},

	// trig at float64 precision
	{"sin", 1}: Float64(math.Sin),
	{"cos", 1}: Float64(math.Cos),
	{"tan", 1}: Float64(math.Tan),

	// constants
	{"pi", 0}: Niladic(bigfloat.Pi),

	{"e", 0}: Niladic(func(out *big.Float) *big.Float {
		return bigfloat.Exp(out, one)
	}),

	// list reductions
	{"total", 1}: Aggregate(total),

	{"length", 1}: Aggregate(func(out *big.Float, xs []*big.Float) *big.Float {
		return out.SetInt64(int64(len(xs)))
	}),

	{"mean", 1}: Aggregate(func(out *big.Float, xs []*big.Float) *big.Float {
		if len(xs) == 0 {
			panic(big.ErrNaN{})
		}
		total(out, xs)
		return out.Quo(out, new(big.Float).SetInt64(int64(len(xs))))
	}),

	{"min", 1}: Aggregate(func(out *big.Float, xs []*big.Float) *big.Float {
		return extreme(out, xs, -1)
	}),

	{"max", 1}: Aggregate(func(out *big.Float, xs []*big.Float) *big.Float {
		return extreme(out, xs, 1)
	}),
}

var one = big.NewFloat(1)

// builtin is a Func assembled from its parts.
type builtin struct {
	params  []Type
	returns Type
	call    func(env *Env, args []Value) (Value, error)
}

func (b *builtin) Params() []Type { return b.params }
func (b *builtin) Returns() Type  { return b.returns }

func (b *builtin) Call(env *Env, args []Value) (Value, error) {
	return b.call(env, args)
}

type monadic struct {
	f func(out, in *big.Float) *big.Float
}

func (m monadic) Params() []Type { return number }
func (m monadic) Returns() Type  { return TypeNumber }

func (m monadic) Call(env *Env, args []Value) (r Value, err error) {
	x := args[0].Float()
	defer recoverDomain(&err, x)
	out := new(big.Float).SetPrec(env.Prec())
	// f may use its input as scratch space.
	in := new(big.Float).Copy(x)
	m.f(out, in)
	return Num(out), nil
}

// Monadic wraps a function of one Number into a Func. f must set out to its
// result, to the precision of out; its return value is always ignored. f may
// modify in. If f is called on an argument outside its domain, it should
// panic with an error of type big.ErrNaN or *DomainError.
func Monadic(f func(out, in *big.Float) *big.Float) Func {
	return monadic{f}
}

type dyadic struct {
	f func(out, x, y *big.Float) *big.Float
}

func (d dyadic) Params() []Type { return number2 }
func (d dyadic) Returns() Type  { return TypeNumber }

func (d dyadic) Call(env *Env, args []Value) (r Value, err error) {
	x, y := args[0].Float(), args[1].Float()
	defer recoverDomain(&err, x)
	out := new(big.Float).SetPrec(env.Prec())
	d.f(out, new(big.Float).Copy(x), new(big.Float).Copy(y))
	return Num(out), nil
}

// Dyadic wraps a function of two Numbers into a Func, with the same contract
// as Monadic.
func Dyadic(f func(out, x, y *big.Float) *big.Float) Func {
	return dyadic{f}
}

type niladic struct {
	f func(out *big.Float) *big.Float
}

func (n niladic) Params() []Type { return nil }
func (n niladic) Returns() Type  { return TypeNumber }

func (n niladic) Call(env *Env, args []Value) (Value, error) {
	out := new(big.Float).SetPrec(env.Prec())
	n.f(out)
	return Num(out), nil
}

// Niladic wraps a function of zero variables, generally a function which
// computes a constant, into a Func. f must set out to its result; its return
// value is always ignored. Unlike Monadic, the wrapped function is expected
// never to panic. A niladic function can be used as a variable.
func Niladic(f func(out *big.Float) *big.Float) Func {
	return niladic{f}
}

type aggregate struct {
	f func(out *big.Float, xs []*big.Float) *big.Float
}

func (a aggregate) Params() []Type { return list }
func (a aggregate) Returns() Type  { return TypeNumber }

func (a aggregate) Call(env *Env, args []Value) (r Value, err error) {
	defer recoverDomain(&err, nil)
	out := new(big.Float).SetPrec(env.Prec())
	a.f(out, args[0].Elems())
	return Num(out), nil
}

// Aggregate wraps a reduction of a List to a Number into a Func. f must not
// modify the elements. It may panic like a Monadic function, e.g. on an
// empty list.
func Aggregate(f func(out *big.Float, xs []*big.Float) *big.Float) Func {
	return aggregate{f}
}

type float64func struct {
	f func(float64) float64
}

func (g float64func) Params() []Type { return number }
func (g float64func) Returns() Type  { return TypeNumber }

func (g float64func) Call(env *Env, args []Value) (r Value, err error) {
	x := args[0].Float()
	defer recoverDomain(&err, x)
	in, _ := x.Float64()
	// SetFloat64 panics with ErrNaN when f(in) is NaN.
	out := new(big.Float).SetPrec(env.Prec()).SetFloat64(g.f(in))
	return Num(out), nil
}

// Float64 wraps a function computed at float64 precision into a Func. The
// argument is rounded to the nearest float64.
func Float64(f func(float64) float64) Func {
	return float64func{f}
}

// recoverDomain converts a domain panic from a built-in into an error. Other
// panics propagate.
func recoverDomain(err *error, x *big.Float) {
	r := recover()
	if r == nil {
		return
	}
	e, ok := r.(error)
	if !ok {
		panic(r)
	}
	var de *DomainError
	if errors.As(e, &de) {
		*err = de
		return
	}
	if errors.As(e, &big.ErrNaN{}) {
		arg := 1
		if x == nil {
			arg = 0
		}
		*err = &DomainError{X: x, Arg: arg}
		return
	}
	panic(r)
}

// logb sets out to the base b logarithm of x.
func logb(out, x, b *big.Float) *big.Float {
	if x.Sign() <= 0 {
		panic(&DomainError{X: x, Arg: 1})
	}
	bigfloat.Log(out, x)
	d := new(big.Float).SetPrec(out.Prec())
	bigfloat.Log(d, b)
	return out.Quo(out, d)
}

// pow sets out to x**y. Negative bases are allowed only with integer
// exponents.
func pow(out, x, y *big.Float) *big.Float {
	switch {
	case x.Sign() == 0:
		switch y.Sign() {
		case 1:
			return out.SetInt64(0)
		case 0:
			return out.SetInt64(1)
		default:
			panic(&DomainError{X: x, Arg: 1})
		}
	case x.Sign() < 0:
		if !y.IsInt() {
			panic(&DomainError{X: x, Arg: 1})
		}
		bigfloat.Pow(out, new(big.Float).Neg(x), y)
		if odd(y) {
			out.Neg(out)
		}
		return out
	default:
		return bigfloat.Pow(out, x, y)
	}
}

// odd reports whether the integer y is odd.
func odd(y *big.Float) bool {
	i, _ := y.Int(nil)
	return i != nil && i.Bit(0) == 1
}

// floor sets out to the greatest integer not above x. out may alias x.
func floor(out, x *big.Float) *big.Float {
	if x.IsInf() || x.IsInt() {
		return out.Set(x)
	}
	neg := x.Sign() < 0
	i, _ := x.Int(nil)
	out.SetInt(i)
	if neg {
		out.Sub(out, one)
	}
	return out
}

// ceil sets out to the least integer not below x. out may alias x.
func ceil(out, x *big.Float) *big.Float {
	if x.IsInf() || x.IsInt() {
		return out.Set(x)
	}
	pos := x.Sign() > 0
	i, _ := x.Int(nil)
	out.SetInt(i)
	if pos {
		out.Add(out, one)
	}
	return out
}

// round sets out to the integer nearest x, with halves away from zero.
func round(out, x *big.Float) *big.Float {
	if x.IsInf() || x.IsInt() {
		return out.Set(x)
	}
	neg := x.Sign() < 0
	h := new(big.Float).SetPrec(x.Prec() + 1).Abs(x)
	h.Add(h, big.NewFloat(0.5))
	i, _ := h.Int(nil)
	out.SetInt(i)
	if neg {
		out.Neg(out)
	}
	return out
}

// floormod sets z to x mod y with the sign of y.
func floormod(z, x, y *big.Float) error {
	if y.Sign() == 0 {
		return &ArithmeticError{Op: "%"}
	}
	q := new(big.Float).SetPrec(z.Prec()).Quo(x, y)
	floor(q, q)
	q.Mul(q, y)
	z.Sub(x, q)
	return nil
}

func total(out *big.Float, xs []*big.Float) *big.Float {
	out.SetInt64(0)
	for _, x := range xs {
		out.Add(out, x)
	}
	return out
}

// extreme sets out to the minimum of xs if dir is -1 or the maximum if 1.
func extreme(out *big.Float, xs []*big.Float, dir int) *big.Float {
	if len(xs) == 0 {
		panic(big.ErrNaN{})
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x.Cmp(m) == dir {
			m = x
		}
	}
	return out.Set(m)
}
