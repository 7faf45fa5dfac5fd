package graphcalc

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Stmt     = FuncDef | Expr
// FuncDef  = name '(' [Param {',' Param}] ')' [':' Type] '=' Expr
// Param    = name [':' Type]
// Type     = 'Number' | 'List'
// Expr     = Unary {Op Unary}
// Op       = '+' | '-' | '*' | '/' | '%'
// Unary    = Term {'!'}
// Term     = num | name | Call | MapCall | '(' Expr ')' | List | Piecewise
// Call     = name '(' [Expr {',' Expr}] ')'
// MapCall  = name '@' '(' [Expr {',' Expr}] ')'
// List     = '[' Expr {',' Expr} ']'   (elements may not contain lists)
// Piecewise = '{' Cond ':' Expr {',' Cond ':' Expr} ',' 'otherwise' ':' Expr '}'
// Cond     = Expr ('=' | '<' | '>' | '<=' | '>=') Expr
// num      = ['+' | '-'] digits ['.' digits]

// otherwise is the keyword introducing the default branch of a piecewise.
const otherwise = "otherwise"

// Expr is a parsed expression that can be evaluated in an Env.
type Expr struct {
	// n is the root node of the expression.
	n *node
}

// Param is a declared function parameter.
type Param struct {
	// Name is the parameter name.
	Name string
	// Type is the declared type, or TypeAny if unannotated.
	Type Type
}

// FuncDef is the signature of a user function definition.
type FuncDef struct {
	// Name is the function name.
	Name string
	// Params are the declared parameters in order.
	Params []Param
	// Returns is the declared return type, or TypeAny if unannotated.
	Returns Type
	// pos is the column of the function name.
	pos int
}

// Arity returns the number of parameters.
func (d *FuncDef) Arity() int {
	return len(d.Params)
}

// String formats the signature in source form, e.g. "f(x: Number, y): List".
func (d *FuncDef) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteByte('(')
	for i, p := range d.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if p.Type != TypeAny {
			b.WriteString(": " + p.Type.String())
		}
	}
	b.WriteByte(')')
	if d.Returns != TypeAny {
		b.WriteString(": " + d.Returns.String())
	}
	return b.String()
}

// Stmt is one parsed statement: a function definition or an expression.
type Stmt struct {
	// Def is the function signature for a definition statement, or nil for an
	// expression statement.
	Def *FuncDef
	// Expr is the definition's body, or the expression of an expression
	// statement.
	Expr *Expr
}

// String formats the statement in source form.
func (s *Stmt) String() string {
	if s.Def == nil {
		return s.Expr.String()
	}
	return s.Def.String() + " = " + s.Expr.String()
}

// parser is a cursor over the tokens of one statement. Saving and restoring
// at is how the statement parser backtracks.
type parser struct {
	toks []lexToken
	at   int
}

func (p *parser) peek() lexToken {
	return p.toks[p.at]
}

// next consumes a token. The final EOF token is never consumed.
func (p *parser) next() lexToken {
	tok := p.toks[p.at]
	if tok.kind != tokenEOF {
		p.at++
	}
	return tok
}

// Parse parses one statement. Parsing stops at the end of the input or after
// the first ';', so successive calls parse successive statements.
func Parse(src io.RuneScanner) (*Stmt, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := parser{toks: toks}
	s, err := p.stmt()
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseString is a shortcut to parse a statement from a string.
func ParseString(src string) (*Stmt, error) {
	return Parse(strings.NewReader(src))
}

// ParseExpr parses one statement which must be an expression.
func ParseExpr(src io.RuneScanner) (*Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := parser{toks: toks}
	n, err := p.expr(exprprec, true)
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return &Expr{n: n}, nil
}

// end checks that the statement is complete.
func (p *parser) end() error {
	tok := p.next()
	if tok.kind != tokenEOF {
		return itShouldNotHaveEndedThisWay(tok, -1, "operator", "end of statement")
	}
	return nil
}

func (p *parser) stmt() (*Stmt, error) {
	def, err := p.funcdef()
	if err != nil {
		return nil, err
	}
	n, err := p.expr(exprprec, true)
	if err != nil {
		return nil, err
	}
	s := Stmt{Def: def, Expr: &Expr{n: n}}
	if def != nil {
		if err := checkDefSyntax(def); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// funcdef attempts to parse a function definition header up to and including
// its '='. If the tokens do not form a header, the cursor is restored and the
// result is nil with no error. Once the '=' is found, the parser is committed.
func (p *parser) funcdef() (*FuncDef, error) {
	start := p.at
	restore := func() (*FuncDef, error) {
		p.at = start
		return nil, nil
	}
	name := p.next()
	if name.kind != tokenIdent {
		return restore()
	}
	if tok := p.next(); tok.kind != tokenOpen || tok.text != "(" {
		return restore()
	}
	def := FuncDef{Name: name.text, pos: name.pos}
	// Annotation tokens are kept so that the type checker can report bad ones
	// once we know this is a definition.
	var annots []lexToken
	if p.peek().kind == tokenClose && p.peek().text == ")" {
		p.next()
	} else {
		for {
			pn := p.next()
			if pn.kind != tokenIdent {
				return restore()
			}
			param := Param{Name: pn.text}
			tok := p.next()
			if tok.kind == tokenColon {
				ty := p.next()
				if ty.kind != tokenIdent {
					return restore()
				}
				annots = append(annots, ty)
				param.Type = parseType(ty.text)
				tok = p.next()
			}
			def.Params = append(def.Params, param)
			if tok.kind == tokenClose && tok.text == ")" {
				break
			}
			if tok.kind != tokenSep {
				return restore()
			}
		}
	}
	tok := p.next()
	if tok.kind == tokenColon {
		ty := p.next()
		if ty.kind != tokenIdent {
			return restore()
		}
		annots = append(annots, ty)
		def.Returns = parseType(ty.text)
		tok = p.next()
	}
	if tok.kind != tokenCmp || tok.text != "=" {
		return restore()
	}
	// Committed.
	for _, ty := range annots {
		if err := checkAnnotation(ty); err != nil {
			return nil, err
		}
	}
	return &def, nil
}

// expr parses a binary chain, resolving precedence by climbing: operands
// bind to the right only while the next operator binds more tightly than
// until.
func (p *parser) expr(until operator, lists bool) (*node, error) {
	n, err := p.unary(lists)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenOp {
			return n, nil
		}
		prec := binop(tok.text)
		if prec.op == nodeNone {
			panic("graphcalc: lexed unknown operator " + tok.String())
		}
		if !prec.moreBinding(until) {
			return n, nil
		}
		p.next()
		rhs, err := p.expr(prec, lists)
		if err != nil {
			return nil, err
		}
		n = &node{kind: prec.op, pos: tok.pos, left: n, right: rhs}
	}
}

// unary parses a term with any postfix factorials.
func (p *parser) unary(lists bool) (*node, error) {
	n, err := p.term(lists)
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenBang {
		tok := p.next()
		n = &node{kind: nodeFact, pos: tok.pos, left: n}
	}
	return n, nil
}

// term parses a single operand. lists controls whether list literals are
// allowed.
func (p *parser) term(lists bool) (*node, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNum:
		return &node{kind: nodeNum, name: tok.text, pos: tok.pos}, nil
	case tokenOp:
		// A sign directly attached to a number is part of the literal.
		num := p.peek()
		if (tok.text == "-" || tok.text == "+") && num.kind == tokenNum && num.pos == tok.pos+1 {
			p.next()
			text := num.text
			if tok.text == "-" {
				text = "-" + text
			}
			return &node{kind: nodeNum, name: text, pos: tok.pos}, nil
		}
		return nil, &SyntaxError{Col: tok.pos, Got: tok.text, Expected: termExpected(lists)}
	case tokenIdent:
		if tok.text == otherwise {
			return nil, &SyntaxError{Col: tok.pos, Got: tok.text, Expected: termExpected(lists)}
		}
		switch nx := p.peek(); {
		case nx.kind == tokenOpen && nx.text == "(":
			p.next()
			args, err := p.args(nx)
			if err != nil {
				return nil, err
			}
			return &node{kind: nodeCall, name: tok.text, pos: tok.pos, args: args}, nil
		case nx.kind == tokenAt:
			p.next()
			open := p.next()
			if open.kind != tokenOpen || open.text != "(" {
				return nil, &SyntaxError{Col: open.pos, Got: open.text, Expected: []string{`"("`}}
			}
			args, err := p.args(open)
			if err != nil {
				return nil, err
			}
			return &node{kind: nodeMap, name: tok.text, pos: tok.pos, args: args}, nil
		default:
			return &node{kind: nodeName, name: tok.text, pos: tok.pos}, nil
		}
	case tokenOpen:
		switch tok.text {
		case "(":
			n, err := p.expr(exprprec, lists)
			if err != nil {
				return nil, err
			}
			if err := p.close(tok); err != nil {
				return nil, err
			}
			return n, nil
		case "[":
			if !lists {
				return nil, &SyntaxError{Col: tok.pos, Got: tok.text, Expected: termExpected(lists)}
			}
			return p.list(tok)
		case "{":
			return p.piecewise(tok, lists)
		default:
			panic("graphcalc: invalid bracket " + strconv.Quote(tok.text))
		}
	case tokenClose, tokenEOF:
		return nil, &EmptyExpressionError{Col: tok.pos, End: tok.text}
	default:
		return nil, &SyntaxError{Col: tok.pos, Got: tok.text, Expected: termExpected(lists)}
	}
}

// args parses a parenthesized argument list after its open bracket. Each
// argument may be a list.
func (p *parser) args(open lexToken) ([]*node, error) {
	if tok := p.peek(); tok.kind == tokenClose && tok.text == ")" {
		p.next()
		return nil, nil
	}
	var args []*node
	for {
		n, err := p.expr(exprprec, true)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
		done, err := p.sepOrClose(open)
		if err != nil {
			return nil, err
		}
		if done {
			return args, nil
		}
	}
}

// list parses the elements of a list literal after its open bracket. Elements
// may not themselves contain list literals.
func (p *parser) list(open lexToken) (*node, error) {
	n := &node{kind: nodeList, pos: open.pos}
	for {
		e, err := p.expr(exprprec, false)
		if err != nil {
			return nil, err
		}
		n.args = append(n.args, e)
		done, err := p.sepOrClose(open)
		if err != nil {
			return nil, err
		}
		if done {
			return n, nil
		}
	}
}

// sepOrClose consumes a separator or the close bracket matching open.
func (p *parser) sepOrClose(open lexToken) (bool, error) {
	tok := p.next()
	if tok.kind == tokenSep {
		return false, nil
	}
	match := rightbracket(open.text)
	if tok.kind == tokenClose && tok.text == closebrackets[match] {
		return true, nil
	}
	return false, itShouldNotHaveEndedThisWay(tok, match, `","`, strconv.Quote(closebrackets[match]))
}

// close consumes the close bracket matching open.
func (p *parser) close(open lexToken) error {
	tok := p.next()
	match := rightbracket(open.text)
	if tok.kind == tokenClose && tok.text == closebrackets[match] {
		return nil
	}
	return itShouldNotHaveEndedThisWay(tok, match, "operator", strconv.Quote(closebrackets[match]))
}

// piecewise parses a piecewise expression after its open brace.
func (p *parser) piecewise(open lexToken, lists bool) (*node, error) {
	n := &node{kind: nodePiecewise, pos: open.pos}
	for {
		if tok := p.peek(); tok.kind == tokenIdent && tok.text == otherwise {
			p.next()
			if len(n.args) == 0 {
				return nil, &SyntaxError{Col: tok.pos, Got: tok.text, Expected: []string{"condition"}}
			}
			if err := p.colon(); err != nil {
				return nil, err
			}
			v, err := p.expr(exprprec, lists)
			if err != nil {
				return nil, err
			}
			if err := p.close(open); err != nil {
				return nil, err
			}
			n.right = v
			return n, nil
		}
		c, err := p.cond(lists)
		if err != nil {
			return nil, err
		}
		if err := p.colon(); err != nil {
			return nil, err
		}
		v, err := p.expr(exprprec, lists)
		if err != nil {
			return nil, err
		}
		n.args = append(n.args, &node{kind: nodeBranch, pos: c.pos, left: c, right: v})
		tok := p.next()
		if tok.kind != tokenSep {
			if tok.kind == tokenEOF {
				return nil, &BracketError{Col: tok.pos, Left: open.text}
			}
			return nil, &SyntaxError{Col: tok.pos, Got: tok.text, Expected: []string{`","`}}
		}
	}
}

// cond parses a comparison with exactly one operator.
func (p *parser) cond(lists bool) (*node, error) {
	l, err := p.expr(exprprec, lists)
	if err != nil {
		return nil, err
	}
	tok := p.next()
	if tok.kind != tokenCmp {
		return nil, &SyntaxError{Col: tok.pos, Got: tok.text, Expected: []string{"comparison"}}
	}
	r, err := p.expr(exprprec, lists)
	if err != nil {
		return nil, err
	}
	return &node{kind: nodeCond, name: tok.text, pos: l.pos, left: l, right: r}, nil
}

func (p *parser) colon() error {
	tok := p.next()
	if tok.kind != tokenColon {
		return &SyntaxError{Col: tok.pos, Got: tok.text, Expected: []string{`":"`}}
	}
	return nil
}

func termExpected(lists bool) []string {
	if lists {
		return []string{"number", "name", `"("`, `"["`, `"{"`}
	}
	return []string{"number", "name", `"("`, `"{"`}
}

// rightbracket gets the closing bracket index for an opening bracket.
func rightbracket(left string) int {
	r, sz := utf8.DecodeRuneInString(left)
	k := strings.IndexRune(OpenBrackets, r)
	if k < 0 || sz != len(left) {
		panic("graphcalc: invalid bracket " + strconv.Quote(left))
	}
	return k
}

// leftbracket gets the opening bracket matching right. If right is no bracket,
// then the result is the empty string.
func leftbracket(right int) string {
	if right == -1 {
		return ""
	}
	return openbrackets[right]
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression. match is the bracket index that the
// expression should have matched, or -1 if none. expected describes the
// tokens that would have been accepted.
func itShouldNotHaveEndedThisWay(tok lexToken, match int, expected ...string) error {
	switch tok.kind {
	case tokenEOF:
		if match < 0 {
			return &SyntaxError{Col: tok.pos, Got: tok.text, Expected: expected}
		}
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: ""}
	case tokenClose:
		// A bracket could be the wrong bracket for the opening brace or any
		// bracket at the end of an input.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: tok.text}
	default:
		return &SyntaxError{Col: tok.pos, Got: tok.text, Expected: expected}
	}
}

// Vars returns the sorted names used as variables in the expression,
// including names that resolve to niladic functions.
func (e *Expr) Vars() []string {
	seen := make(map[string]bool)
	var names []string
	e.n.walk(func(n *node) {
		if n.kind == nodeName && !seen[n.name] {
			seen[n.name] = true
			names = append(names, n.name)
		}
	})
	sort.Strings(names)
	return names
}

// String creates a canonical source representation of the parsed expression.
// Parsing the result produces the same tree.
func (e *Expr) String() string {
	return e.n.String()
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*":
		return operator{5, false, nodeMul}
	case "/":
		return operator{5, false, nodeDiv}
	case "%":
		return operator{5, false, nodeMod}
	default:
		return operator{}
	}
}

// exprprec is the precedence required to parse an entire subexpression.
var exprprec = operator{-128, true, nodeNone}
