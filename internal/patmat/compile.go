package patmat

import (
	"fmt"
	"strings"

	"keel/internal/ast"
	"keel/internal/diag"
	"keel/internal/registry"
	"keel/internal/source"
	"keel/internal/types"
)

// maxWitnesses caps how many missing combinations a NonExhaustiveMatch
// names; the rest collapse into a count.
const maxWitnesses = 3

// Compiler builds decision procedures against a sealed registry. It holds
// no mutable shared state and is safe to use concurrently across match
// expressions.
type Compiler struct {
	Reg      *registry.Registry
	Reporter diag.Reporter
	// Module is the requesting module for opaque-restriction checks.
	Module source.StringID
}

// Compile builds the decision procedure for a match over scrutinees.
// It reports NonExhaustiveMatch (error) and UnreachableArm (warning) through
// the Reporter; ok is false when the match cannot be compiled soundly and
// the caller should poison the node.
func (c *Compiler) Compile(scrutinees []types.TypeID, arms []ast.Arm, at source.Span) (*Decision, bool) {
	if len(arms) == 0 {
		c.report(diag.NewError(diag.MatNonExhaustive, at, "match has no arms"))
		return nil, false
	}
	ok := true
	for i := range arms {
		if len(arms[i].Pats) != len(scrutinees) {
			c.report(diag.NewError(diag.MatArityMismatch, arms[i].At,
				fmt.Sprintf("arm has %d patterns for %d scrutinees",
					len(arms[i].Pats), len(scrutinees))))
			ok = false
			continue
		}
		for k := range arms[i].Pats {
			if !c.validate(arms[i].Pats[k], scrutinees[k]) {
				ok = false
			}
		}
	}
	if !ok {
		return nil, false
	}

	// Guarded arms never make a match exhaustive: the guard may evaluate
	// false at run time, so only guard-free rows count as coverage.
	var coverRows [][]ast.Pattern
	for i := range arms {
		if !arms[i].Guarded {
			coverRows = append(coverRows, arms[i].Pats)
		}
	}
	missing := findMissing(c.Reg, scrutinees, coverRows, maxWitnesses)
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = renderVector(c.Reg, m)
		}
		msg := "match is not exhaustive: missing " + strings.Join(names, ", ")
		if len(missing) == maxWitnesses {
			msg += " and possibly more"
		}
		c.report(diag.NewError(diag.MatNonExhaustive, at, msg))
		ok = false
	}

	// An arm is unreachable when the guard-free arms before it already
	// cover its whole pattern tuple.
	var earlier [][]ast.Pattern
	for i := range arms {
		if !useful(c.Reg, scrutinees, earlier, arms[i].Pats) {
			c.report(diag.NewWarning(diag.MatUnreachableArm, arms[i].At,
				fmt.Sprintf("arm %d is unreachable", i+1)))
		}
		if !arms[i].Guarded {
			earlier = append(earlier, arms[i].Pats)
		}
	}
	if !ok {
		return nil, false
	}

	cols := make([]column, len(scrutinees))
	for i, t := range scrutinees {
		cols[i] = column{path: Path{Scrutinee: i}, typ: t}
	}
	rows := make([]trow, len(arms))
	for i := range arms {
		rows[i] = trow{pats: arms[i].Pats, arm: i, guarded: arms[i].Guarded}
	}
	return c.build(cols, rows), true
}

// CompileTest compiles the single-pattern conditional binding form into a
// binary decision procedure: matched (arm 0, with bindings) or not matched
// (DecFail). Exhaustiveness is not required; the surrounding construct
// supplies the alternative branch.
func (c *Compiler) CompileTest(scrutinee types.TypeID, pat ast.Pattern) (*Decision, bool) {
	if !c.validate(pat, scrutinee) {
		return nil, false
	}
	cols := []column{{path: Path{Scrutinee: 0}, typ: scrutinee}}
	rows := []trow{{pats: []ast.Pattern{pat}, arm: 0}}
	return c.build(cols, rows), true
}

// validate checks a pattern against the shape information of its type.
func (c *Compiler) validate(p ast.Pattern, t types.TypeID) bool {
	tn := c.Reg.Types()
	switch p.Kind {
	case ast.PatWildcard, ast.PatBinding, ast.PatLiteral:
		return true
	case ast.PatTuple:
		info, ok := tn.TupleOf(t)
		if !ok || len(info.Elems) != len(p.Subs) {
			c.report(diag.NewError(diag.MatArityMismatch, p.At,
				fmt.Sprintf("tuple pattern does not fit %s", tn.Render(t))))
			return false
		}
		good := true
		for i := range p.Subs {
			if !c.validate(p.Subs[i], info.Elems[i]) {
				good = false
			}
		}
		return good
	case ast.PatConstructor:
		if !c.Reg.IsOpaqueVisible(t, c.Module) {
			c.report(diag.NewError(diag.MatOpaqueScrutiny, p.At,
				fmt.Sprintf("%s is opaque and cannot be matched outside its declaring module",
					tn.Render(t))))
			return false
		}
		if info, ok := tn.EnumOf(t); ok {
			if p.Variant < 0 || p.Variant >= len(info.Variants) {
				c.report(diag.NewError(diag.MatUnknownVariant, p.At,
					fmt.Sprintf("%s has no variant #%d", tn.Render(t), p.Variant)))
				return false
			}
			fields := info.Variants[p.Variant].Fields
			if len(fields) != len(p.Subs) {
				name, _ := c.Reg.Strings().Lookup(info.Variants[p.Variant].Name)
				c.report(diag.NewError(diag.MatArityMismatch, p.At,
					fmt.Sprintf("variant %s has %d fields, pattern has %d",
						name, len(fields), len(p.Subs))))
				return false
			}
			good := true
			for i := range p.Subs {
				if !c.validate(p.Subs[i], fields[i]) {
					good = false
				}
			}
			return good
		}
		if info, ok := tn.StructOf(t); ok {
			if len(info.Fields) != len(p.Subs) {
				c.report(diag.NewError(diag.MatArityMismatch, p.At,
					fmt.Sprintf("%s has %d fields, pattern has %d",
						tn.Render(t), len(info.Fields), len(p.Subs))))
				return false
			}
			good := true
			for i := range p.Subs {
				if !c.validate(p.Subs[i], info.Fields[i].Type) {
					good = false
				}
			}
			return good
		}
		c.report(diag.NewError(diag.MatUnknownVariant, p.At,
			fmt.Sprintf("%s has no constructors to match", tn.Render(t))))
		return false
	}
	return false
}

type column struct {
	path Path
	typ  types.TypeID
}

type trow struct {
	pats     []ast.Pattern
	arm      int
	guarded  bool
	bindings []Binding
}

// build compiles the matrix into a tree. Correctness does not depend on the
// column choice; the heuristic only keeps the tree small.
func (c *Compiler) build(cols []column, rows []trow) *Decision {
	if len(rows) == 0 {
		return &Decision{Kind: DecFail}
	}

	first := rows[0]
	if allIrrefutable(first.pats) {
		bindings := first.bindings
		for i, p := range first.pats {
			if p.Kind == ast.PatBinding {
				bindings = append(bindings, Binding{Name: p.Name, Path: cols[i].path})
			}
		}
		if first.guarded {
			return &Decision{
				Kind:     DecGuard,
				Arm:      first.arm,
				Bindings: bindings,
				Else:     c.build(cols, rows[1:]),
			}
		}
		return &Decision{Kind: DecLeaf, Arm: first.arm, Bindings: bindings}
	}

	ci := pickColumn(c.Reg, cols, rows)
	sig := signatureOf(c.Reg, cols[ci].typ)

	var caseCtors []Ctor
	if sig.open {
		caseCtors = headCtorsT(c.Reg, cols[ci].typ, rows, ci)
	} else {
		caseCtors = sig.ctors
	}

	node := &Decision{Kind: DecSwitch, Path: cols[ci].path, Type: cols[ci].typ}
	for _, ctor := range caseCtors {
		subCols := expandColumns(c.Reg, cols, ci, ctor)
		var subRows []trow
		for _, r := range rows {
			if sr, keep := c.specializeTRow(cols[ci], r, ci, ctor); keep {
				subRows = append(subRows, sr)
			}
		}
		node.Cases = append(node.Cases, Case{Ctor: ctor, Next: c.build(subCols, subRows)})
	}
	if sig.open {
		defCols := dropColumn(cols, ci)
		var defRows []trow
		for _, r := range rows {
			if dr, keep := c.defaultTRow(cols[ci], r, ci); keep {
				defRows = append(defRows, dr)
			}
		}
		node.Default = c.build(defCols, defRows)
	}
	return node
}

// specializeTRow is specializeRow over tracked rows: bindings taken over by
// an irrefutable head are recorded before it is expanded into wildcards.
func (c *Compiler) specializeTRow(col column, r trow, ci int, ctor Ctor) (trow, bool) {
	head := r.pats[ci]
	rest := dropPattern(r.pats, ci)
	if head.IsIrrefutable() {
		bindings := r.bindings
		if head.Kind == ast.PatBinding {
			bindings = append(bindings, Binding{Name: head.Name, Path: col.path})
		}
		pad := make([]ast.Pattern, ctor.Arity)
		for i := range pad {
			pad[i] = ast.Wildcard(head.At)
		}
		return trow{
			pats:     append(pad, rest...),
			arm:      r.arm,
			guarded:  r.guarded,
			bindings: bindings,
		}, true
	}
	hc, ok := ctorOf(c.Reg, col.typ, head)
	if !ok || !hc.same(ctor) {
		return trow{}, false
	}
	pats := make([]ast.Pattern, 0, len(head.Subs)+len(rest))
	pats = append(pats, head.Subs...)
	return trow{
		pats:     append(pats, rest...),
		arm:      r.arm,
		guarded:  r.guarded,
		bindings: r.bindings,
	}, true
}

func (c *Compiler) defaultTRow(col column, r trow, ci int) (trow, bool) {
	head := r.pats[ci]
	if !head.IsIrrefutable() {
		return trow{}, false
	}
	bindings := r.bindings
	if head.Kind == ast.PatBinding {
		bindings = append(bindings, Binding{Name: head.Name, Path: col.path})
	}
	return trow{
		pats:     dropPattern(r.pats, ci),
		arm:      r.arm,
		guarded:  r.guarded,
		bindings: bindings,
	}, true
}

// pickColumn chooses the column that most reduces remaining arm ambiguity:
// the one the largest number of rows test with a constructor.
func pickColumn(reg *registry.Registry, cols []column, rows []trow) int {
	best, bestScore := 0, -1
	for i := range cols {
		score := 0
		for _, r := range rows {
			if _, ok := ctorOf(reg, cols[i].typ, r.pats[i]); ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func headCtorsT(reg *registry.Registry, t types.TypeID, rows []trow, ci int) []Ctor {
	var out []Ctor
	for _, r := range rows {
		ctor, ok := ctorOf(reg, t, r.pats[ci])
		if !ok {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen.same(ctor) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, ctor)
		}
	}
	return out
}

// expandColumns replaces column ci with the constructor's field columns.
func expandColumns(reg *registry.Registry, cols []column, ci int, ctor Ctor) []column {
	fields := fieldTypes(reg, cols[ci].typ, ctor)
	out := make([]column, 0, len(cols)-1+len(fields))
	for k, ft := range fields {
		out = append(out, column{path: cols[ci].path.child(k), typ: ft})
	}
	for i := range cols {
		if i != ci {
			out = append(out, cols[i])
		}
	}
	return out
}

func dropColumn(cols []column, ci int) []column {
	out := make([]column, 0, len(cols)-1)
	for i := range cols {
		if i != ci {
			out = append(out, cols[i])
		}
	}
	return out
}

func dropPattern(pats []ast.Pattern, ci int) []ast.Pattern {
	out := make([]ast.Pattern, 0, len(pats)-1)
	for i := range pats {
		if i != ci {
			out = append(out, pats[i])
		}
	}
	return out
}

func allIrrefutable(pats []ast.Pattern) bool {
	for _, p := range pats {
		if !p.IsIrrefutable() {
			return false
		}
	}
	return true
}

func (c *Compiler) report(d diag.Diagnostic) {
	if c.Reporter != nil {
		c.Reporter.Report(d)
	}
}
