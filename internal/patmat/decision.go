// Package patmat compiles match arms into decision procedures, proves
// exhaustiveness over the scrutinees' constructor spaces and flags
// unreachable arms. Decision trees are created fresh per match expression,
// owned by that expression's node, and never mutated after construction.
package patmat

import (
	"keel/internal/source"
	"keel/internal/types"
)

// Path addresses a sub-value of one scrutinee: the scrutinee's index followed
// by field steps taken through constructors and tuples.
type Path struct {
	Scrutinee int
	Steps []int
}

func (p Path) child(step int) Path {
	steps := make([]int, len(p.Steps)+1)
	copy(steps, p.Steps)
	steps[len(p.Steps)] = step
	return Path{Scrutinee: p.Scrutinee, Steps: steps}
}

// Binding names a matched sub-value available in an arm's result.
type Binding struct {
	Name source.StringID
	Path Path
}

// DecisionKind tags decision tree nodes.
type DecisionKind uint8

const (
	// DecLeaf selects the first arm fully satisfied along this path.
	DecLeaf DecisionKind = iota
	// DecGuard evaluates a guarded arm; Else runs when the guard is false.
	DecGuard
	// DecSwitch tests which constructor the value at Path holds.
	DecSwitch
	// DecFail marks a constructor combination no arm covers. A reachable
	// DecFail in a match tree means the match is not exhaustive; in an
	// inline test it is the ordinary not-matched exit.
	DecFail
)

// Case is one constructor branch of a switch node.
type Case struct {
	Ctor Ctor
	Next *Decision
}

// Decision is one node of the compiled procedure.
type Decision struct {
	Kind DecisionKind

	// Leaf / Guard
	Arm      int
	Bindings []Binding
	Else     *Decision // guard false continuation

	// Switch
	Path    Path
	Type    types.TypeID
	Cases   []Case
	Default *Decision // taken when no case applies; nil for closed switches
}

// CountLeaves returns the number of arm-selecting leaves, mostly for tests
// and the CLI inspector.
func (d *Decision) CountLeaves() int {
	if d == nil {
		return 0
	}
	switch d.Kind {
	case DecLeaf:
		return 1
	case DecGuard:
		return 1 + d.Else.CountLeaves()
	case DecSwitch:
		n := d.Default.CountLeaves()
		for _, c := range d.Cases {
			n += c.Next.CountLeaves()
		}
		return n
	default:
		return 0
	}
}

// HasFail reports whether any path reaches a DecFail node.
func (d *Decision) HasFail() bool {
	if d == nil {
		return false
	}
	switch d.Kind {
	case DecFail:
		return true
	case DecGuard:
		return d.Else.HasFail()
	case DecSwitch:
		if d.Default.HasFail() {
			return true
		}
		for _, c := range d.Cases {
			if c.Next.HasFail() {
				return true
			}
		}
	}
	return false
}
