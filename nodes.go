package plotexpr

import (
	"strconv"
	"strings"
)

// Node is a node in the abstract syntax tree of an expression. Each node
// exclusively owns its children.
type Node struct {
	Kind NodeKind

	// Num is the value of a NodeNum.
	Num float64
	// Name is the function name of a NodeCall, or the constant name of a
	// NodeNum folded from pi or e.
	Name string

	// Left is the operand of NodeNeg and the left operand of binary nodes.
	Left *Node
	// Right is the right operand of binary nodes.
	Right *Node
	// Args are the arguments of a NodeCall.
	Args []*Node
}

// NodeKind is the type of a node.
type NodeKind int8

const (
	NodeNone NodeKind = iota

	NodeNum  // constant Num
	NodeVar  // the variable x
	NodeCall // call Name with Args

	NodeNeg // evaluate Left, then negate
	NodeAdd // evaluate Left, add Right
	NodeSub // evaluate Left, sub Right
	NodeMul // evaluate Left, mul Right
	NodeDiv // evaluate Left, div by Right
	NodePow // evaluate Left, exp by Right
)

var nodeKindNames = [...]string{
	NodeNone: "None",
	NodeNum:  "Num",
	NodeVar:  "Var",
	NodeCall: "Call",
	NodeNeg:  "Neg",
	NodeAdd:  "Add",
	NodeSub:  "Sub",
	NodeMul:  "Mul",
	NodeDiv:  "Div",
	NodePow:  "Pow",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindNames) {
		return "NodeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return nodeKindNames[k]
}

// Constant returns a constant node.
func Constant(c float64) *Node {
	return &Node{Kind: NodeNum, Num: c}
}

// Variable returns a node referring to x.
func Variable() *Node {
	return &Node{Kind: NodeVar}
}

// Binary returns a binary operator node. kind must be one of NodeAdd, NodeSub,
// NodeMul, NodeDiv, or NodePow.
func Binary(kind NodeKind, left, right *Node) *Node {
	return &Node{Kind: kind, Left: left, Right: right}
}

// Neg returns a negation node.
func Neg(n *Node) *Node {
	return &Node{Kind: NodeNeg, Left: n}
}

// Call returns a function call node.
func Call(name string, args ...*Node) *Node {
	return &Node{Kind: NodeCall, Name: name, Args: args}
}

// Equal reports whether two trees are structurally identical.
func (n *Node) Equal(m *Node) bool {
	if n == nil || m == nil {
		return n == m
	}
	if n.Kind != m.Kind {
		return false
	}
	switch n.Kind {
	case NodeNum:
		// NaN constants compare equal to each other.
		same := n.Num == m.Num || n.Num != n.Num && m.Num != m.Num
		return same && n.Name == m.Name
	case NodeVar:
		return true
	case NodeCall:
		if n.Name != m.Name || len(n.Args) != len(m.Args) {
			return false
		}
		for i := range n.Args {
			if !n.Args[i].Equal(m.Args[i]) {
				return false
			}
		}
		return true
	default:
		return n.Left.Equal(m.Left) && n.Right.Equal(m.Right)
	}
}

func (n *Node) String() string {
	var b strings.Builder
	n.fmt(&b, false)
	return b.String()
}

// fmt writes n fully parenthesized, alternating round and square brackets
// at each level.
func (n *Node) fmt(b *strings.Builder, square bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	if n == nil {
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		return
	}
	switch n.Kind {
	case NodeNum:
		if n.Name != "" {
			b.WriteString(n.Name)
			return
		}
		b.WriteString(strconv.FormatFloat(n.Num, 'g', -1, 64))
	case NodeVar:
		b.WriteByte('x')
	case NodeCall:
		b.WriteString(n.Name)
		n.fmtargs(b, !square)
	case NodeNeg:
		b.WriteByte('-')
		n.Left.fmt(b, !square)
	case NodeAdd, NodeSub, NodeMul, NodeDiv, NodePow:
		n.Left.fmt(b, !square)
		b.WriteString(opText[n.Kind])
		n.Right.fmt(b, !square)
	default:
		b.WriteByte('$')
		b.WriteString(n.Kind.String())
		b.WriteByte('$')
	}
}

func (n *Node) fmtargs(b *strings.Builder, square bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	for i, arg := range n.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		arg.fmt(b, !square)
	}
	b.WriteByte(r)
}

var opText = map[NodeKind]string{
	NodeAdd: " + ",
	NodeSub: " - ",
	NodeMul: " * ",
	NodeDiv: " / ",
	NodePow: " ^ ",
}
