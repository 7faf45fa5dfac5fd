package graphcalc

// checkAnnotation checks that a type annotation names a type.
func checkAnnotation(ty lexToken) error {
	if parseType(ty.text) == TypeAny {
		return &SyntaxError{Col: ty.pos, Got: ty.text, Expected: []string{"Number", "List"}}
	}
	return nil
}

// checkDefSyntax checks the parts of a definition that the grammar does not.
func checkDefSyntax(def *FuncDef) error {
	seen := make(map[string]bool, len(def.Params))
	for _, p := range def.Params {
		if seen[p.Name] {
			return &SyntaxError{Col: def.pos, Got: p.Name, Expected: []string{"distinct parameter names"}}
		}
		seen[p.Name] = true
	}
	return nil
}

// checker infers the types of expressions without evaluating them. It only
// reports errors that would certainly occur if the expression were evaluated
// with the types it knows, so an unannotated parameter or a function that is
// not yet defined never causes an error.
type checker struct {
	env *Env
	// locals are the known types of names bound in the frame.
	locals map[string]Type
	// pending is the definition being checked, so that recursive calls find
	// its signature.
	pending *Definition
}

// checkDef checks a definition before it is registered.
func (env *Env) checkDef(def *FuncDef, body *Expr) error {
	c := checker{
		env:     env,
		locals:  make(map[string]Type, len(def.Params)),
		pending: &Definition{Def: def, Body: body},
	}
	for _, p := range def.Params {
		c.locals[p.Name] = p.Type
	}
	t, err := c.infer(body.n)
	if err != nil {
		return err
	}
	if !def.Returns.accepts(t) {
		return &TypeMismatchError{Col: body.n.pos, Func: def.Name, Param: "return value", Want: def.Returns, Got: t}
	}
	return nil
}

// checkExpr checks an expression statement with the types of its variables.
func (env *Env) checkExpr(e *Expr, vars map[string]Value) error {
	c := checker{env: env, locals: make(map[string]Type, len(vars))}
	for name, v := range vars {
		c.locals[name] = v.Type()
	}
	_, err := c.infer(e.n)
	return err
}

// lookup finds the function a call would use, or nil if it is not known.
func (c *checker) lookup(name string, arity int) Func {
	if d := c.pending; d != nil && d.Def.Name == name && d.Def.Arity() == arity {
		return d
	}
	fn, err := c.env.Lookup(name, arity)
	if err != nil {
		return nil
	}
	return fn
}

// infer returns the type of n's value, or TypeAny if it cannot be known.
func (c *checker) infer(n *node) (Type, error) {
	switch n.kind {
	case nodeNum:
		return TypeNumber, nil
	case nodeName:
		if t, ok := c.locals[n.name]; ok {
			return t, nil
		}
		if fn := c.lookup(n.name, 0); fn != nil {
			return fn.Returns(), nil
		}
		return TypeAny, nil
	case nodeList:
		for _, a := range n.args {
			t, err := c.infer(a)
			if err != nil {
				return TypeAny, err
			}
			if t == TypeList {
				return TypeAny, &TypeMismatchError{Col: a.pos, Param: "list element", Want: TypeNumber, Got: t}
			}
		}
		return TypeList, nil
	case nodeCall:
		args, err := c.inferAll(n.args)
		if err != nil {
			return TypeAny, err
		}
		fn := c.lookup(n.name, len(n.args))
		if fn == nil {
			return TypeAny, nil
		}
		params := fn.Params()
		for i, t := range args {
			if !params[i].accepts(t) {
				return TypeAny, &TypeMismatchError{Col: n.pos, Func: n.name, Param: paramName(fn, i), Want: params[i], Got: t}
			}
		}
		return fn.Returns(), nil
	case nodeMap:
		args, err := c.inferAll(n.args)
		if err != nil {
			return TypeAny, err
		}
		fn := c.lookup(n.name, len(n.args))
		mapped := false
		for _, t := range args {
			mapped = mapped || t == TypeList
		}
		if fn == nil {
			if mapped {
				return TypeList, nil
			}
			return TypeAny, nil
		}
		params := fn.Params()
		for i, t := range args {
			if t == TypeList {
				// Each call gets one element.
				t = TypeNumber
			}
			if !params[i].accepts(t) {
				return TypeAny, &TypeMismatchError{Col: n.pos, Func: n.name, Param: paramName(fn, i), Want: params[i], Got: t}
			}
		}
		if !mapped {
			return fn.Returns(), nil
		}
		if fn.Returns() == TypeList {
			return TypeAny, &TypeMismatchError{Col: n.pos, Func: n.name, Param: "mapped result", Want: TypeNumber, Got: TypeList}
		}
		return TypeList, nil
	case nodeFact:
		t, err := c.infer(n.left)
		if err != nil {
			return TypeAny, err
		}
		if t == TypeList {
			return TypeAny, &TypeMismatchError{Col: n.pos, Func: "!", Param: "operand", Want: TypeNumber, Got: t}
		}
		return TypeNumber, nil
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod:
		l, err := c.infer(n.left)
		if err != nil {
			return TypeAny, err
		}
		r, err := c.infer(n.right)
		if err != nil {
			return TypeAny, err
		}
		switch {
		case l == TypeList || r == TypeList:
			return TypeList, nil
		case l == TypeNumber && r == TypeNumber:
			return TypeNumber, nil
		default:
			return TypeAny, nil
		}
	case nodePiecewise:
		var result Type
		for i, br := range n.args {
			if err := c.cond(br.left); err != nil {
				return TypeAny, err
			}
			t, err := c.infer(br.right)
			if err != nil {
				return TypeAny, err
			}
			if i == 0 {
				result = t
			} else if t != result {
				result = TypeAny
			}
		}
		t, err := c.infer(n.right)
		if err != nil {
			return TypeAny, err
		}
		if t != result {
			result = TypeAny
		}
		return result, nil
	default:
		panic("graphcalc: invalid AST node " + n.kind.String())
	}
}

func (c *checker) inferAll(nodes []*node) ([]Type, error) {
	r := make([]Type, len(nodes))
	for i, a := range nodes {
		t, err := c.infer(a)
		if err != nil {
			return nil, err
		}
		r[i] = t
	}
	return r, nil
}

// cond checks that both sides of a comparison can be Numbers.
func (c *checker) cond(n *node) error {
	for _, side := range [...]*node{n.left, n.right} {
		t, err := c.infer(side)
		if err != nil {
			return err
		}
		if t == TypeList {
			return &TypeMismatchError{Col: side.pos, Func: n.name, Param: "condition", Want: TypeNumber, Got: t}
		}
	}
	return nil
}
