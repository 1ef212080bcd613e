package ast

import "iter"

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range children(node) {
		Walk(v, child)
	}
}

// Inspect traverses an AST in depth-first order, calling f for each node.
// If f returns false, the children of that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Preorder returns an iterator over all the nodes of the AST rooted at node
// in depth-first preorder.
func Preorder(root Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		var visit func(Node) bool
		visit = func(n Node) bool {
			if !yield(n) {
				return false
			}
			for _, child := range children(n) {
				if !visit(child) {
					return false
				}
			}
			return true
		}
		visit(root)
	}
}

func children(node Node) []Node {
	switch n := node.(type) {
	case *Program:
		nodes := make([]Node, 0, len(n.Blocks))
		for _, b := range n.Blocks {
			nodes = append(nodes, b)
		}
		return nodes
	case *Block:
		nodes := make([]Node, 0, len(n.Stmts))
		for _, s := range n.Stmts {
			nodes = append(nodes, s)
		}
		return nodes
	case *Let:
		return nonNil(n.Name, n.Value)
	case *Assign:
		return nonNil(n.Name, n.Value)
	case *Control:
		return nonNil(n.X)
	case *Prefix:
		return nonNil(n.X)
	case *Infix:
		return nonNil(n.X, n.Y)
	case *Ternary:
		return nonNil(n.Cond, n.IfTrue, n.IfFalse)
	case *Call:
		nodes := make([]Node, 0, len(n.Args)+1)
		nodes = append(nodes, n.Fun)
		for _, a := range n.Args {
			nodes = append(nodes, a)
		}
		return nodes
	}
	return nil
}

func nonNil(nodes ...Node) []Node {
	result := nodes[:0]
	for _, n := range nodes {
		if n == nil || isNilPointer(n) {
			continue
		}
		result = append(result, n)
	}
	return result
}

func isNilPointer(n Node) bool {
	switch v := n.(type) {
	case *Ident:
		return v == nil
	}
	return false
}
