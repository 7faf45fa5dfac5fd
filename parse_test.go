package graphcalc

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"testing"
)

// diff finds the first in-order node of n that differs from m, or nil, nil if
// the two ASTs are equal. If any node is nodeNone, it is returned.
func (n *node) diff(m *node) (*node, *node) {
	if n == nil {
		if m != nil {
			return n, m
		}
		return nil, nil
	}
	if m == nil {
		return n, m
	}
	if n.kind == nodeNone || m.kind == nodeNone {
		return n, m
	}
	if n.kind != m.kind {
		return n, m
	}
	switch n.kind {
	case nodeNum, nodeName, nodeCall, nodeMap, nodeCond:
		if n.name != m.name {
			return n, m
		}
	case nodeList, nodeFact, nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodePiecewise, nodeBranch:
		// no name
	default:
		panic(fmt.Errorf("invalid node kind: n=%+v m=%+v", n, m))
	}
	if d, e := n.left.diff(m.left); d != nil || e != nil {
		return d, e
	}
	if len(n.args) != len(m.args) {
		return n, m
	}
	for i, a := range n.args {
		if d, e := a.diff(m.args[i]); d != nil || e != nil {
			return d, e
		}
	}
	return n.right.diff(m.right)
}

// haskind checks whether a parse tree contains a node of the given type.
func (n *node) haskind(k nodeKind) bool {
	found := false
	n.walk(func(c *node) { found = found || c.kind == k })
	return found
}

func TestOpPrecsExist(t *testing.T) {
	for _, op := range "+-*/%" {
		if binop(string(op)).op == nodeNone {
			t.Errorf("no binop for %c", op)
		}
	}
}

func TestParseTrees(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"paren", "(x)", "x"},
		{"multi", "((((x))))", "x"},
		{"plus", "+1", "1"},

		{"add", "a+b*c", "a+(b*c)"},
		{"mul", "a*b+c", "(a*b)+c"},
		{"mod", "a+b%c", "a+(b%c)"},
		{"sub3", "a-b-c", "(a-b)-c"},
		{"div3", "a/b/c", "(a/b)/c"},
		{"mix", "a/b*c%d", "((a/b)*c)%d"},
		{"fact", "a+b!", "a+(b!)"},
		{"factmul", "a*b!!", "a*((b!)!)"},
		{"factparen", "(a+b)!", "(a+b)!"},
		{"negmul", "x*-1", "x*(-1)"},
		{"negsub", "x--1", "x-(-1)"},
		{"negadd", "x+-1.5", "x+(-1.5)"},
		{"spacedsub", "x - 1", "x-1"},

		{"call", "f(a+b, c)", "f((a+b), c)"},
		{"callmul", "2*f(x)", "2*(f(x))"},
		{"map", "f@(x, [1, 2])*2", "(f@(x, [1, 2]))*2"},
		{"list", "[a+b, c*d]", "[(a+b), (c*d)]"},
		{"piecewise", "{x < 0: 1+1, otherwise: x}", "{(x) < (0): (1+1), otherwise: (x)}"},
		{"piecewiseadd", "1+{x >= 0: x, otherwise: 0-x}", "1+({x >= 0: x, otherwise: (0-x)})"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseExpr(strings.NewReader(c.a))
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.a, err)
			}
			b, err := ParseExpr(strings.NewReader(c.b))
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.b, err)
			}
			d, e := a.n.diff(b.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\t%q parses %v has %v", c.a, a.n, d, c.b, b.n, e)
			}
		})
	}
}

func TestParseExact(t *testing.T) {
	cases := []struct {
		name string
		src  string
		n    *node
	}{
		{"num", "1.5", &node{kind: nodeNum, name: "1.5"}},
		{"negnum", "-2", &node{kind: nodeNum, name: "-2"}},
		{"negfact", "-1!", &node{kind: nodeFact, left: &node{kind: nodeNum, name: "-1"}}},
		{"name", "x", &node{kind: nodeName, name: "x"}},
		{"call0", "pi()", &node{kind: nodeCall, name: "pi"}},
		{
			"call2", "pow(x, 2)",
			&node{kind: nodeCall, name: "pow", args: []*node{
				{kind: nodeName, name: "x"},
				{kind: nodeNum, name: "2"},
			}},
		},
		{
			"map", "f@(x)",
			&node{kind: nodeMap, name: "f", args: []*node{{kind: nodeName, name: "x"}}},
		},
		{
			"list", "[1, x]",
			&node{kind: nodeList, args: []*node{
				{kind: nodeNum, name: "1"},
				{kind: nodeName, name: "x"},
			}},
		},
		{
			"sub", "a-b",
			&node{kind: nodeSub, left: &node{kind: nodeName, name: "a"}, right: &node{kind: nodeName, name: "b"}},
		},
		{
			"piecewise", "{x <= 1: 2, otherwise: 3}",
			&node{
				kind: nodePiecewise,
				args: []*node{{
					kind: nodeBranch,
					left: &node{
						kind:  nodeCond,
						name:  "<=",
						left:  &node{kind: nodeName, name: "x"},
						right: &node{kind: nodeNum, name: "1"},
					},
					right: &node{kind: nodeNum, name: "2"},
				}},
				right: &node{kind: nodeNum, name: "3"},
			},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseExpr(strings.NewReader(c.src))
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.src, err)
			}
			d, e := a.n.diff(c.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\twant %v has %v", c.src, a.n, d, c.n, e)
			}
		})
	}
}

func TestParseStmt(t *testing.T) {
	s, err := ParseString("f(x) = x")
	if err != nil {
		t.Fatal(err)
	}
	if s.Def == nil || s.Def.Name != "f" || s.Def.Arity() != 1 {
		t.Errorf("f(x) = x parsed as %+v", s.Def)
	}

	s, err = ParseString("f(x)")
	if err != nil {
		t.Fatal(err)
	}
	if s.Def != nil {
		t.Errorf("f(x) parsed as definition %v", s.Def)
	}
	if !s.Expr.n.haskind(nodeCall) {
		t.Errorf("f(x) parsed as %v", s.Expr.n)
	}

	s, err = ParseString("g() = 1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Def == nil || s.Def.Arity() != 0 {
		t.Errorf("g() = 1 parsed as %+v", s.Def)
	}

	s, err = ParseString("f(x: Number, y): List = [x, y]")
	if err != nil {
		t.Fatal(err)
	}
	want := []Param{{"x", TypeNumber}, {"y", TypeAny}}
	if !reflect.DeepEqual(s.Def.Params, want) {
		t.Errorf("params are %+v, want %+v", s.Def.Params, want)
	}
	if s.Def.Returns != TypeList {
		t.Errorf("returns %v, want List", s.Def.Returns)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		err  InputError
		col  int
		res  []string
	}{
		{"empty", "", new(EmptyExpressionError), 1, []string{`(?i)\bno\b.*\bexpression\b`}},
		{"emptyoperand", "1+", new(EmptyExpressionError), 3, []string{`(?i)\bno\b.*\bexpression\b`, `\bend\b`}},
		{"emptyparen", "()", new(EmptyExpressionError), 2, []string{`\)`}},
		{"emptylist", "[]", new(EmptyExpressionError), 2, []string{`]`}},
		{"emptyarg", "f(1,)", new(EmptyExpressionError), 5, []string{`\)`}},
		{"terminated", "1+;", new(EmptyExpressionError), 3, nil},
		{"left", "(1", new(BracketError), 3, []string{`(?i)\bbracket\b`, `\(`}},
		{"right", "1)", new(BracketError), 2, []string{`(?i)\bbracket\b`, `\)`}},
		{"mismatch", "(1]", new(BracketError), 3, []string{`(?i)\bbracket\b`, `\(`, `]`}},
		{"unclosedlist", "[1, 2", new(BracketError), 6, []string{`\[`}},
		{"unclosedpiecewise", "{x < 1: 2", new(BracketError), 10, []string{`\{`}},
		{"nested", "[[1]]", new(SyntaxError), 2, []string{`"\["`}},
		{"nestedparen", "[(1+[2])]", new(SyntaxError), 5, nil},
		{"nestedpiecewise", "[{x < 0: [1], otherwise: 2}]", new(SyntaxError), 10, nil},
		{"noothewise", "{x<0: 1}", new(SyntaxError), 8, []string{`","`}},
		{"onlyotherwise", "{otherwise: 1}", new(SyntaxError), 2, []string{`condition`}},
		{"nocmp", "{x: 1, otherwise: 2}", new(SyntaxError), 3, []string{`comparison`}},
		{"chaincmp", "{x<1<2: 1, otherwise: 0}", new(SyntaxError), 5, []string{`":"`}},
		{"juxtaposed", "1 2", new(SyntaxError), 3, []string{`"2"`}},
		{"spacedsign", "- 1", new(SyntaxError), 1, []string{`"-"`}},
		{"negvar", "-x", new(SyntaxError), 1, nil},
		{"mapnoparen", "f@x", new(SyntaxError), 3, []string{`"\("`}},
		{"otherwise", "otherwise", new(SyntaxError), 1, nil},
		{"literalparam", "f(1) = 2", new(SyntaxError), 6, []string{`"="`}},
		{"badtype", "f(x: Foo) = x", new(SyntaxError), 6, []string{`Number`, `List`}},
		{"badreturn", "f(x): Int = x", new(SyntaxError), 7, nil},
		{"dupparam", "f(x, x) = x", new(SyntaxError), 1, []string{`"x"`}},
		{"emptybody", "f(x) =", new(EmptyExpressionError), 7, nil},
		{"lexer", "2*exp($)", new(LexError), 7, []string{`\$`}},
		{"newline", "x\n", new(LexError), 2, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.src)
			if a != nil {
				t.Errorf("%q parsed non-nil to %v", c.src, a)
			}
			if reflect.TypeOf(err) != reflect.TypeOf(c.err) {
				t.Fatalf("wrong error type from %q: want %T, got %T (%v)", c.src, c.err, err, err)
			}
			var ie InputError
			if !errors.As(err, &ie) {
				t.Fatalf("%v is not an InputError", err)
			}
			if ie.Pos() != c.col {
				t.Errorf("error %q is at %d, want %d", err, ie.Pos(), c.col)
			}
			if ie.Kind() != c.err.Kind() {
				t.Errorf("error %q has kind %v, want %v", err, ie.Kind(), c.err.Kind())
			}
			msg := err.Error()
			for _, re := range c.res {
				if !regexp.MustCompile(re).MatchString(msg) {
					t.Errorf("error message %q does not match %s", msg, re)
				}
			}
		})
	}
}

func TestListsInArgs(t *testing.T) {
	for _, src := range []string{"[f([1])]", "[f@([1, 2])]", "f([1], [2, 3])", "{x < 0: [1], otherwise: [2]}"} {
		if _, err := ParseExpr(strings.NewReader(src)); err != nil {
			t.Errorf("%q: %v", src, err)
		}
	}
}

func TestExprString(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"num", "-1.5"},
		{"prec", "a+b*c-d/e%f"},
		{"assoc", "a-(b-c)"},
		{"fact", "(x+1)!!"},
		{"call", "f(g(x), [1, 2], -3)"},
		{"map", "pow@([1, 2], 2)"},
		{"piecewise", "{x < 0: 0-x, x = 0: 0, otherwise: x*2}"},
		{"nested", "{f(x) >= [1, 2]: {y > 1: y, otherwise: 1}, otherwise: 0}"},
		{"def", "f(x: Number, ys: List): List = ys*x"},
		{"defnoargs", "two() = 2"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.src)
			if err != nil {
				t.Fatalf("couldn't parse %q: %v", c.src, err)
			}
			s := a.String()
			b, err := ParseString(s)
			if err != nil {
				t.Fatalf("couldn't parse %q from %q: %v", s, c.src, err)
			}
			if (a.Def == nil) != (b.Def == nil) {
				t.Fatalf("%q and %q disagree on being a definition", c.src, s)
			}
			if a.Def != nil && a.Def.String() != b.Def.String() {
				t.Errorf("signature %q became %q", a.Def, b.Def)
			}
			d, e := a.Expr.n.diff(b.Expr.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\t%q parses %v has %v", c.src, a.Expr.n, d, s, b.Expr.n, e)
			}
			if s2 := b.String(); s2 != s {
				t.Errorf("String is not stable: %q then %q", s, s2)
			}
		})
	}
}

func TestStatements(t *testing.T) {
	src := strings.NewReader("f(x) = x*2; f(3);4")
	want := []string{"f(x) = x*2", "f(3)", "4"}
	for _, w := range want {
		s, err := Parse(src)
		if err != nil {
			t.Fatalf("parsing for %q: %v", w, err)
		}
		if s.String() != w {
			t.Errorf("got %q, want %q", s.String(), w)
		}
	}
	if _, err := Parse(src); !errors.As(err, new(*EmptyExpressionError)) {
		t.Errorf("exhausted source gave %v", err)
	}
}

func TestVars(t *testing.T) {
	e, err := ParseExpr(strings.NewReader("f(x) + {y < pi: z, otherwise: x}*[a, 1]"))
	if err != nil {
		t.Fatal(err)
	}
	got := e.Vars()
	want := []string{"a", "pi", "x", "y", "z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func BenchmarkParse(b *testing.B) {
	cases := []struct {
		name string
		src  string
	}{
		{"desc", "a*b!+c-d"},
		{"asc", "a-b+c*d!"},
		{"call", "f(g(x), [1, 2, 3], 4)"},
		{"map", "pow@([1, 2, 3], 2)"},
		{"piecewise", "{x < 0: 0-x, x < 1: x*x, otherwise: 1}"},
		{"def", "f(x: Number, y): List = [x, y]*2"},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			var src strings.Reader
			for i := 0; i < b.N; i++ {
				src.Reset(c.src)
				Parse(&src)
			}
		})
	}
}
