// Package ast defines the fully-typed AST fragments the upstream parsing and
// name-resolution collaborator hands to the resolution core: call expressions
// with statically typed arguments and match expressions with typed
// scrutinees. Every expression's static type is already known except for
// unresolved generic parameters and unresolved trait-method calls.
package ast

import (
	"keel/internal/source"
	"keel/internal/types"
)

// ExprID identifies an expression node inside its unit.
type ExprID uint32

const NoExprID ExprID = ^ExprID(0)

// Expr is a resolvable expression node.
type Expr interface {
	ExprID() ExprID
	Span() source.Span
}

// TypedExpr is an argument or scrutinee with its static type.
type TypedExpr struct {
	At   source.Span
	Type types.TypeID
}

// CallExpr is a trait-method or operator call awaiting dispatch resolution.
type CallExpr struct {
	ID  ExprID
	At  source.Span
	// Trait names the trait whose impl set is the candidate set; dispatch
	// never searches beyond it.
	Trait  types.TypeID
	Method source.StringID
	Args   []TypedExpr
	// Generics carries explicit generic arguments, empty for plain calls.
	Generics []types.TypeID
	// Expected is the context's expected result type, NoTypeID when free.
	Expected types.TypeID
}

func (e *CallExpr) ExprID() ExprID    { return e.ID }
func (e *CallExpr) Span() source.Span { return e.At }

// MatchExpr is a (possibly multi-scrutinee) match awaiting pattern
// compilation.
type MatchExpr struct {
	ID         ExprID
	At         source.Span
	Scrutinees []TypedExpr
	Arms       []Arm
}

func (e *MatchExpr) ExprID() ExprID    { return e.ID }
func (e *MatchExpr) Span() source.Span { return e.At }

// IfLetExpr is the single-pattern conditional binding form. It compiles to a
// two-leaf decision procedure and is exempt from exhaustiveness: the
// surrounding construct supplies the alternative branch.
type IfLetExpr struct {
	ID        ExprID
	At        source.Span
	Scrutinee TypedExpr
	Pattern   Pattern
}

func (e *IfLetExpr) ExprID() ExprID    { return e.ID }
func (e *IfLetExpr) Span() source.Span { return e.At }

// Func groups the expressions of one function body.
type Func struct {
	Name  source.StringID
	At    source.Span
	Exprs []Expr
}

// Unit is one compilation unit's worth of resolvable nodes, produced by the
// upstream type-checking pass.
type Unit struct {
	Module source.StringID
	Funcs  []Func
}
