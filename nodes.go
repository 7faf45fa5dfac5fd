package graphcalc

import (
	"strings"
)

// node is a node in the abstract syntax tree of an expression.
type node struct {
	kind nodeKind

	// name is the number text, variable or function name, or comparison.
	name string
	// pos is the column of the token that began the node.
	pos int

	left  *node
	right *node
	// args holds call arguments, list elements, or piecewise branches.
	args []*node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum  // decimal literal in name
	nodeName // variable or niladic call in name

	nodeList // args are the elements
	nodeCall // name is the function, args are the arguments
	nodeMap  // like nodeCall, but broadcast over list arguments

	nodeFact // factorial of left
	nodeAdd  // left + right
	nodeSub  // left - right
	nodeMul  // left * right
	nodeDiv  // left / right
	nodeMod  // left % right

	nodePiecewise // args are nodeBranch, right is the otherwise value
	nodeBranch    // left is nodeCond, right is the value
	nodeCond      // left name right, where name is a comparison
)

//go:generate go run golang.org/x/tools/cmd/stringer -type=nodeKind -trimprefix=node

// children calls f on each direct child of n in evaluation order.
func (n *node) children(f func(*node)) {
	if n.left != nil {
		f(n.left)
	}
	for _, a := range n.args {
		f(a)
	}
	if n.right != nil {
		f(n.right)
	}
}

// walk calls f on n and all its descendants in preorder.
func (n *node) walk(f func(*node)) {
	f(n)
	n.children(func(c *node) { c.walk(f) })
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, true)
	return b.String()
}

// fmt writes the canonical source form of n. Binary operations are fully
// parenthesized except at the top level, so the output always parses back to
// the same tree.
func (n *node) fmt(b *strings.Builder, top bool) {
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteString("$")
	case nodeNum, nodeName:
		b.WriteString(n.name)
	case nodeList:
		b.WriteByte('[')
		fmtlist(b, n.args)
		b.WriteByte(']')
	case nodeCall:
		b.WriteString(n.name)
		b.WriteByte('(')
		fmtlist(b, n.args)
		b.WriteByte(')')
	case nodeMap:
		b.WriteString(n.name)
		b.WriteString("@(")
		fmtlist(b, n.args)
		b.WriteByte(')')
	case nodeFact:
		n.left.fmt(b, false)
		b.WriteByte('!')
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod:
		if !top {
			b.WriteByte('(')
		}
		n.left.fmt(b, false)
		b.WriteString(binsym(n.kind))
		n.right.fmt(b, false)
		if !top {
			b.WriteByte(')')
		}
	case nodePiecewise:
		b.WriteByte('{')
		for _, br := range n.args {
			br.fmt(b, true)
			b.WriteString(", ")
		}
		b.WriteString(otherwise + ": ")
		n.right.fmt(b, true)
		b.WriteByte('}')
	case nodeBranch:
		n.left.fmt(b, true)
		b.WriteString(": ")
		n.right.fmt(b, true)
	case nodeCond:
		n.left.fmt(b, true)
		b.WriteString(" " + n.name + " ")
		n.right.fmt(b, true)
	default:
		panic("graphcalc: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

func fmtlist(b *strings.Builder, args []*node) {
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		a.fmt(b, true)
	}
}

// binsym returns the operator symbol for a binary node kind.
func binsym(k nodeKind) string {
	switch k {
	case nodeAdd:
		return "+"
	case nodeSub:
		return "-"
	case nodeMul:
		return "*"
	case nodeDiv:
		return "/"
	case nodeMod:
		return "%"
	default:
		panic("graphcalc: not a binary node kind: " + k.String())
	}
}
