package transducer

import (
	"errors"
	"fmt"

	"github.com/hargabyte/cevents/internal/cst"
)

// ErrStructure matches every StructuralError via errors.Is.
var ErrStructure = errors.New("unexpected tree structure")

// StructuralError reports a node that lacks the substructure a classifier
// rule or the signature reconstructor depends on. It aborts the traversal.
type StructuralError struct {
	Kind   cst.Kind
	Pos    cst.Pos
	Reason string
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%d:%d: %s: %s", e.Pos.Line, e.Pos.Column, e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Is reports whether target is ErrStructure.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructure
}

func structural(n *cst.Node, format string, args ...any) *StructuralError {
	return &StructuralError{Kind: n.Kind, Pos: n.Pos, Reason: fmt.Sprintf(format, args...)}
}
