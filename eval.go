package graphcalc

import (
	"errors"
	"math/big"
	"strconv"
)

// maxFactorial is the largest operand for which ! computes a result.
const maxFactorial = 10000

// Eval evaluates an expression. vars binds names to values as the outermost
// frame; names not bound there resolve to functions of no arguments. Eval
// does not modify vars or the values in it.
func (env *Env) Eval(e *Expr, vars map[string]Value) (Value, error) {
	for name, v := range vars {
		if !v.IsValid() {
			panic("graphcalc: invalid value for variable " + strconv.Quote(name))
		}
	}
	v, err := e.n.eval(env, vars)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

// eval computes the node's value. The result never aliases a cached literal,
// so callers may keep it.
func (n *node) eval(env *Env, locals map[string]Value) (Value, error) {
	switch n.kind {
	case nodeNum:
		return Num(new(big.Float).Set(env.num(n.name))), nil
	case nodeName:
		if v, ok := locals[n.name]; ok {
			return v, nil
		}
		fn, err := env.Lookup(n.name, 0)
		if err != nil {
			return Value{}, &UndefinedVariableError{Col: n.pos, Name: n.name}
		}
		return env.invoke(fn, n.name, nil, n.pos)
	case nodeList:
		xs := make([]*big.Float, len(n.args))
		for i, a := range n.args {
			v, err := a.eval(env, locals)
			if err != nil {
				return Value{}, err
			}
			if v.Type() != TypeNumber {
				return Value{}, &TypeMismatchError{Col: a.pos, Param: "list element", Want: TypeNumber, Got: v.Type()}
			}
			xs[i] = v.Float()
		}
		return List(xs...), nil
	case nodeCall:
		fn, err := env.Lookup(n.name, len(n.args))
		if err != nil {
			return Value{}, at(err, n.pos)
		}
		args, err := evalArgs(env, locals, n.args)
		if err != nil {
			return Value{}, err
		}
		return env.invoke(fn, n.name, args, n.pos)
	case nodeMap:
		fn, err := env.Lookup(n.name, len(n.args))
		if err != nil {
			return Value{}, at(err, n.pos)
		}
		args, err := evalArgs(env, locals, n.args)
		if err != nil {
			return Value{}, err
		}
		return env.mapcall(fn, n, args)
	case nodeFact:
		v, err := n.left.eval(env, locals)
		if err != nil {
			return Value{}, err
		}
		if v.Type() != TypeNumber {
			return Value{}, &TypeMismatchError{Col: n.pos, Func: "!", Param: "operand", Want: TypeNumber, Got: v.Type()}
		}
		return env.factorial(v.Float(), n.pos)
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod:
		l, err := n.left.eval(env, locals)
		if err != nil {
			return Value{}, err
		}
		r, err := n.right.eval(env, locals)
		if err != nil {
			return Value{}, err
		}
		return env.arith(n, l, r)
	case nodePiecewise:
		for _, br := range n.args {
			ok, err := br.left.test(env, locals)
			if err != nil {
				return Value{}, err
			}
			if ok {
				return br.right.eval(env, locals)
			}
		}
		return n.right.eval(env, locals)
	case nodeBranch, nodeCond:
		panic("graphcalc: eval on " + n.kind.String())
	default:
		panic("graphcalc: invalid AST node " + n.kind.String())
	}
}

func evalArgs(env *Env, locals map[string]Value, nodes []*node) ([]Value, error) {
	args := make([]Value, len(nodes))
	for i, a := range nodes {
		v, err := a.eval(env, locals)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// test evaluates a condition node.
func (n *node) test(env *Env, locals map[string]Value) (bool, error) {
	l, err := n.left.eval(env, locals)
	if err != nil {
		return false, err
	}
	r, err := n.right.eval(env, locals)
	if err != nil {
		return false, err
	}
	if l.Type() != TypeNumber {
		return false, &TypeMismatchError{Col: n.left.pos, Func: n.name, Param: "condition", Want: TypeNumber, Got: l.Type()}
	}
	if r.Type() != TypeNumber {
		return false, &TypeMismatchError{Col: n.right.pos, Func: n.name, Param: "condition", Want: TypeNumber, Got: r.Type()}
	}
	c := l.Float().Cmp(r.Float())
	switch n.name {
	case "=":
		return c == 0, nil
	case "<":
		return c < 0, nil
	case ">":
		return c > 0, nil
	case "<=":
		return c <= 0, nil
	case ">=":
		return c >= 0, nil
	default:
		panic("graphcalc: invalid comparison " + strconv.Quote(n.name))
	}
}

// invoke calls fn with type checks on its arguments and result. Errors are
// attributed to the call at pos.
func (env *Env) invoke(fn Func, name string, args []Value, pos int) (Value, error) {
	params := fn.Params()
	for i, a := range args {
		if !params[i].accepts(a.Type()) {
			return Value{}, &TypeMismatchError{Col: pos, Func: name, Param: paramName(fn, i), Want: params[i], Got: a.Type()}
		}
	}
	v, err := fn.Call(env, args)
	if err != nil {
		var de *DomainError
		if errors.As(err, &de) && de.Func == "" {
			de.Func = name
		}
		if _, ok := fn.(*Definition); ok {
			// Columns within the body refer to the definition's source.
			return Value{}, reposition(err, pos)
		}
		return Value{}, at(err, pos)
	}
	if !v.IsValid() {
		panic("graphcalc: function " + name + " returned an invalid value")
	}
	if ret := fn.Returns(); !ret.accepts(v.Type()) {
		return Value{}, &TypeMismatchError{Col: pos, Func: name, Param: "return value", Want: ret, Got: v.Type()}
	}
	return v, nil
}

// paramName describes the i'th parameter of fn for error messages.
func paramName(fn Func, i int) string {
	if d, ok := fn.(*Definition); ok {
		return d.Def.Params[i].Name
	}
	return "argument " + strconv.Itoa(i+1)
}

// mapcall calls fn once per index of its List arguments, broadcasting Number
// arguments. With no List arguments, it is an ordinary call.
func (env *Env) mapcall(fn Func, n *node, args []Value) (Value, error) {
	length := -1
	var lens []int
	for _, a := range args {
		if a.Type() != TypeList {
			continue
		}
		lens = append(lens, a.Len())
		if length < 0 {
			length = a.Len()
		} else if a.Len() != length {
			length = -2
		}
	}
	switch length {
	case -1:
		return env.invoke(fn, n.name, args, n.pos)
	case -2:
		return Value{}, &ShapeError{Col: n.pos, Op: n.name + "@", Lens: lens}
	}
	r := make([]*big.Float, length)
	call := make([]Value, len(args))
	for i := range r {
		for j, a := range args {
			call[j] = Num(a.at(i))
		}
		v, err := env.invoke(fn, n.name, call, n.pos)
		if err != nil {
			return Value{}, err
		}
		if v.Type() != TypeNumber {
			return Value{}, &TypeMismatchError{Col: n.pos, Func: n.name, Param: "mapped result", Want: TypeNumber, Got: v.Type()}
		}
		r[i] = v.Float()
	}
	return List(r...), nil
}

// factorial computes x! exactly for non-negative integers up to maxFactorial.
func (env *Env) factorial(x *big.Float, pos int) (Value, error) {
	if x.Sign() < 0 || !x.IsInt() || x.Cmp(big.NewFloat(maxFactorial)) > 0 {
		return Value{}, &DomainError{Col: pos, X: x, Func: "!"}
	}
	k, _ := x.Int64()
	var f big.Int
	f.MulRange(1, k)
	prec := max(env.prec, uint(f.BitLen()))
	return Num(new(big.Float).SetPrec(prec).SetInt(&f)), nil
}

// arith applies a binary operator elementwise. A Number operand is broadcast
// against a List; two Lists must have the same length.
func (env *Env) arith(n *node, x, y Value) (Value, error) {
	if x.Type() == TypeNumber && y.Type() == TypeNumber {
		z := new(big.Float).SetPrec(env.prec)
		if err := scalar(n.kind, z, x.Float(), y.Float()); err != nil {
			return Value{}, at(err, n.pos)
		}
		return Num(z), nil
	}
	length := x.Len()
	if x.Type() != TypeList {
		length = y.Len()
	} else if y.Type() == TypeList && y.Len() != length {
		return Value{}, &ShapeError{Col: n.pos, Op: binsym(n.kind), Lens: []int{x.Len(), y.Len()}}
	}
	r := make([]*big.Float, length)
	for i := range r {
		r[i] = new(big.Float).SetPrec(env.prec)
		if err := scalar(n.kind, r[i], x.at(i), y.at(i)); err != nil {
			return Value{}, at(err, n.pos)
		}
	}
	return List(r...), nil
}

// scalar sets z to x op y.
func scalar(op nodeKind, z, x, y *big.Float) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(big.ErrNaN); !ok {
			panic(r)
		}
		// Only operations on infinities reach here.
		err = &DomainError{X: y, Func: binsym(op)}
	}()
	switch op {
	case nodeAdd:
		z.Add(x, y)
	case nodeSub:
		z.Sub(x, y)
	case nodeMul:
		z.Mul(x, y)
	case nodeDiv:
		if y.Sign() == 0 {
			return &ArithmeticError{Op: "/"}
		}
		z.Quo(x, y)
	case nodeMod:
		return floormod(z, x, y)
	default:
		panic("graphcalc: not an arithmetic node: " + op.String())
	}
	return nil
}
