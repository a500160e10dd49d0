package transducer

import "github.com/hargabyte/cevents/internal/cst"

// Visitor is called for every node, once per phase.
type Visitor func(n *cst.Node, p Phase) error

// Walk visits root depth-first: Enter before the children, Exit after all of
// them. The first visitor error stops the walk and is returned unchanged.
func Walk(root *cst.Node, visit Visitor) error {
	if root == nil {
		return nil
	}
	return walkNode(root, visit)
}

func walkNode(n *cst.Node, visit Visitor) error {
	if err := visit(n, Enter); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walkNode(c, visit); err != nil {
			return err
		}
	}
	return visit(n, Exit)
}
