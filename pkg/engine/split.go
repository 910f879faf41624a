package engine

import (
	"strings"

	"go.uber.org/zap"
)

// Node is one subcommand. A leaf carries the normalized token text; an
// internal node carries the operator rule that split it and the ordered
// children.
type Node struct {
	Text     string
	Rule     *Rule
	Children []*Node
}

// Leaf reports whether the node is a scalar token.
func (n *Node) Leaf() bool { return n.Rule == nil }

// split builds the operator-priority tree. For each operator rule in
// ascending order it tests whether the key occurs in the string; if so it
// splits on it and recurses with the next operator for each piece. Splitting
// is purely textual: nested groups are hidden behind placeholders by the
// normalizer.
func (e *Engine) split(s string, ops []*Rule, idx int) *Node {
	for i := idx; i < len(ops); i++ {
		r := ops[i]
		if !r.Applies(s) {
			continue
		}
		pieces := strings.Split(s, r.Key)
		children := make([]*Node, 0, len(pieces))
		for _, piece := range pieces {
			children = append(children, e.split(strings.TrimSpace(piece), ops, i+1))
		}
		return &Node{Rule: r, Children: children}
	}
	return &Node{Text: s}
}

// parseCommand normalizes src into binds and splits it into a subcommand
// tree.
func (e *Engine) parseCommand(src string, binds Scope) (*Node, error) {
	normalized, err := e.normalize(src, binds)
	if err != nil {
		return nil, err
	}
	tree := e.split(normalized, e.rules.rules(CategoryCommand), 0)
	e.log.Debug("split", zap.String("root", rootOperator(tree)))
	return tree, nil
}

func rootOperator(n *Node) string {
	if n.Leaf() {
		return "leaf"
	}
	return n.Rule.Key
}
