// Copyright (C) 2024 relaq contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package trc translates a Tuple Relational Calculus expression into
// a relational-algebra operator tree. The recursive core, rec, threads
// a base relation (the operand every rewrite restricts or subtracts
// from) and a negated flag through the formula, rewriting ∀, →, and
// De Morgan forms before they reach a leaf so that negation only ever
// has to be handled at a RelationPredicate guard, an existential
// quantifier, or a comparison Predicate; it is never materialized as
// its own RA node.
package trc

import (
	"fmt"

	"github.com/relaq/relaq/catalog"
	"github.com/relaq/relaq/ra"
	"github.com/relaq/relaq/trcast"
	"github.com/relaq/relaq/value"
)

// translator holds the state threaded through one Translate call: the
// catalog, the reference environment built in the pre-pass, and the
// outer tuple variable t* the top-level projection is expressed over.
type translator struct {
	cat   catalog.Catalog
	env   env
	outer string
}

// Translate lowers root into a relational-algebra tree against cat,
// resolving every RelationPredicate atom's relation name through it.
func Translate(root *trcast.Expr, cat catalog.Catalog) (ra.Op, error) {
	if root == nil {
		return nil, fmt.Errorf("trc: nil expression")
	}
	e, err := buildEnv(root.Formula)
	if err != nil {
		return nil, err
	}
	tr := &translator{cat: cat, env: e, outer: root.Variable}
	op, err := tr.rec(root.Formula, nil, false)
	if err != nil {
		return nil, err
	}
	if len(root.Projections) == 0 {
		return op, nil
	}
	cols := make([]*value.ColumnValue, len(root.Projections))
	for i, p := range root.Projections {
		cols[i] = value.QualifiedColumn(root.Variable, p)
	}
	return ra.NewProjection(op, cols...), nil
}

// rec translates formula against base (the RA tree representing the
// tuples currently in scope) under negated (whether a pending ¬
// applies to formula as a whole).
func (tr *translator) rec(formula trcast.Node, base ra.Op, negated bool) (ra.Op, error) {
	switch node := formula.(type) {
	case *trcast.RelationPredicate:
		return tr.relationPredicate(node, negated)
	case *trcast.Negation:
		return tr.rec(node.Formula, base, !negated)
	case *trcast.LogicalExpression:
		return tr.logicalExpression(node, base, negated)
	case *trcast.QuantifiedExpression:
		return tr.quantified(node, base, negated)
	case *trcast.Predicate:
		return tr.predicate(node, base, negated)
	default:
		return nil, newUnsupportedNode(formula)
	}
}

// relationPredicate resolves R(v), binding v to a fresh leaf aliased
// to the variable name. It carries no negation of its own: a
// RelationPredicate reached with a pending negation indicates a
// malformed formula (it must appear only as the left operand of a
// logical expression, per the guard rule in logicalExpression).
func (tr *translator) relationPredicate(node *trcast.RelationPredicate, negated bool) (ra.Op, error) {
	if negated {
		return nil, newNegatedRelationPredicate(node)
	}
	return tr.bindLeaf(node.Variable, node)
}

func (tr *translator) bindLeaf(variable string, at trcast.Node) (*ra.Relation, error) {
	relName, ok := tr.env[variable]
	if !ok {
		return nil, newUnboundVariable(at, variable)
	}
	rel, err := tr.cat.Lookup(relName)
	if err != nil {
		return nil, newUnknownRelation(at, relName)
	}
	leaf := ra.NewRelation(rel.Copy())
	leaf.Alias = variable
	return leaf, nil
}

// logicalExpression implements the And/Or/Implies rule, including the
// standing guard: whenever the left operand is a bare RelationPredicate,
// it only ever establishes (or re-confirms) the base relation for the
// right operand; it contributes no RA construction of its own,
// because the quantifier or top-level call that reached this formula
// has already folded that relation into base via a CrossJoin or the
// initial bindLeaf. This applies regardless of the operator and
// regardless of negated.
//
// The guard must still validate the binding (the relation must exist
// in the catalog; conflicting rebindings are already rejected by
// buildEnv), but must not replace a non-nil base with a
// freshly built leaf: inside a quantifier's formula, base already is
// CrossJoin(E[v], outerBase), and rebuilding a bare leaf for v would
// silently drop the outer tuple variable's columns from scope,
// breaking every correlated predicate in the right operand. Only when
// base is nil (the very first conjunct of the outermost formula, where
// no universe has been established yet) does the relation predicate's
// own leaf become the new base.
func (tr *translator) logicalExpression(node *trcast.LogicalExpression, base ra.Op, negated bool) (ra.Op, error) {
	if rp, ok := node.Left.(*trcast.RelationPredicate); ok {
		leaf, err := tr.relationPredicate(rp, false)
		if err != nil {
			return nil, err
		}
		if base == nil {
			return tr.rec(node.Right, leaf, negated)
		}
		return tr.rec(node.Right, base, negated)
	}

	switch node.Operator {
	case trcast.And:
		if negated {
			rewritten := &trcast.LogicalExpression{
				Operator: trcast.Or,
				Left:     &trcast.Negation{Formula: node.Left},
				Right:    &trcast.Negation{Formula: node.Right},
			}
			return tr.rec(rewritten, base, false)
		}
		if base == nil {
			return nil, newNullBase(node)
		}
		l, err := tr.rec(node.Left, base, false)
		if err != nil {
			return nil, err
		}
		r, err := tr.rec(node.Right, base, false)
		if err != nil {
			return nil, err
		}
		return ra.NewIntersect(l, r), nil

	case trcast.Or:
		if negated {
			rewritten := &trcast.LogicalExpression{
				Operator: trcast.And,
				Left:     &trcast.Negation{Formula: node.Left},
				Right:    &trcast.Negation{Formula: node.Right},
			}
			return tr.rec(rewritten, base, false)
		}
		if base == nil {
			return nil, newNullBase(node)
		}
		l, err := tr.rec(node.Left, base, false)
		if err != nil {
			return nil, err
		}
		r, err := tr.rec(node.Right, base, false)
		if err != nil {
			return nil, err
		}
		return ra.NewUnion(l, r), nil

	case trcast.Implies:
		// p -> q === ¬p ∨ q; ¬(p -> q) === p ∧ ¬q.
		var rewritten *trcast.LogicalExpression
		if negated {
			rewritten = &trcast.LogicalExpression{Operator: trcast.And, Left: node.Left, Right: &trcast.Negation{Formula: node.Right}}
		} else {
			rewritten = &trcast.LogicalExpression{Operator: trcast.Or, Left: &trcast.Negation{Formula: node.Left}, Right: node.Right}
		}
		return tr.rec(rewritten, base, false)

	default:
		return nil, newUnsupportedNode(node)
	}
}

// quantified implements ∃ and ∀. ∀v Φ is rewritten to ¬∃v ¬Φ and
// re-entered with negated flipped; ∃ is translated by cross-joining
// the bound variable's relation onto base, translating the
// quantifier's formula against that wider base, and semi-joining the
// result back onto base. This single construction is correct whether
// or not Φ happens to reference the outer tuple variable: if it does
// not, the cross join's filter only constrains the bound variable's
// side, so a satisfying row pairs with *every* row of base, and the
// semi-join degenerates to "all of base" or "none of it", exactly
// the truth-preserving gate an uncorrelated existential needs,
// without the translator ever having to evaluate anything itself.
func (tr *translator) quantified(node *trcast.QuantifiedExpression, base ra.Op, negated bool) (ra.Op, error) {
	if node.Quantifier == trcast.ForAll {
		rewritten := &trcast.QuantifiedExpression{
			Quantifier: trcast.Exists,
			Variable:   node.Variable,
			Formula:    &trcast.Negation{Formula: node.Formula},
		}
		return tr.rec(rewritten, base, !negated)
	}
	if base == nil {
		return nil, newNullBase(node)
	}
	q, err := tr.bindLeaf(node.Variable, node)
	if err != nil {
		return nil, err
	}
	bPrime := ra.NewCrossJoin(q, base)
	result, err := tr.rec(node.Formula, bPrime, false)
	if err != nil {
		return nil, err
	}
	semi := ra.NewSemiJoin(base, result, ra.Natural(), true)
	if negated {
		return ra.NewDifference(base, semi), nil
	}
	return semi, nil
}

// predicate implements the comparison rule. != is normalised
// to ¬(lhs = rhs) and re-entered. A positive predicate is a plain
// Selection; a negated one that mentions t* restricts the negation to
// the rows of t* actually reachable through p via a double semi-join,
// so that ¬P(s) never "deletes" tuples of an unrelated tuple variable.
// A negated predicate that does not mention t* yields base minus the
// rows p selects.
func (tr *translator) predicate(node *trcast.Predicate, base ra.Op, negated bool) (ra.Op, error) {
	if node.Operator == trcast.Ne {
		rewritten := &trcast.Predicate{Left: node.Left, Operator: trcast.Eq, Right: node.Right}
		return tr.rec(&trcast.Negation{Formula: rewritten}, base, negated)
	}
	if base == nil {
		return nil, newNullBase(node)
	}
	expr, err := tr.convertPredicate(node)
	if err != nil {
		return nil, err
	}
	if !negated {
		return ra.NewSelection(base, expr), nil
	}

	sel := ra.NewSelection(base, expr)
	outerLeaf, err := tr.bindLeaf(tr.outer, node)
	if err != nil {
		return nil, err
	}
	t1 := ra.NewSemiJoin(outerLeaf, sel, ra.Natural(), true)
	j2 := ra.NewSemiJoin(base, t1, ra.Natural(), true)
	if mentionsVariable(node, tr.outer) {
		return ra.NewDifference(base, j2), nil
	}
	return ra.NewDifference(base, sel), nil
}

// convertPredicate lowers a TRC comparison into a value-expression
// tree: ColumnValue(attribute) qualified by the tuple variable (the
// alias bindLeaf gives every leaf) on the left, either another such
// ColumnValue or a Constant on the right. Both variables must be bound
// in E.
func (tr *translator) convertPredicate(p *trcast.Predicate) (value.Node, error) {
	if _, ok := tr.env[p.Left.Variable]; !ok {
		return nil, newUnboundVariable(p, p.Left.Variable)
	}
	left := value.QualifiedColumn(p.Left.Variable, p.Left.Attribute)

	var right value.Node
	switch r := p.Right.(type) {
	case trcast.AttrRef:
		if _, ok := tr.env[r.Variable]; !ok {
			return nil, newUnboundVariable(p, r.Variable)
		}
		right = value.QualifiedColumn(r.Variable, r.Attribute)
	case *trcast.Literal:
		t, err := literalType(r.Type)
		if err != nil {
			return nil, err
		}
		right = value.Const(t, r.Value)
	default:
		return nil, newUnsupportedNode(p)
	}
	return value.Cmp(string(p.Operator), left, right), nil
}

func literalType(t string) (value.Type, error) {
	switch t {
	case "string":
		return value.TypeString, nil
	case "number":
		return value.TypeNumber, nil
	case "boolean":
		return value.TypeBoolean, nil
	case "date":
		return value.TypeDate, nil
	default:
		return value.TypeNull, fmt.Errorf("trc: unknown literal type %q", t)
	}
}

// mentionsVariable reports whether formula refers to v via any
// AttrRef or RelationPredicate atom, stopping at a nested quantifier
// that rebinds v.
func mentionsVariable(n trcast.Node, v string) bool {
	switch node := n.(type) {
	case nil:
		return false
	case *trcast.RelationPredicate:
		return node.Variable == v
	case *trcast.Predicate:
		if node.Left.Variable == v {
			return true
		}
		if ref, ok := node.Right.(trcast.AttrRef); ok {
			return ref.Variable == v
		}
		return false
	case *trcast.Negation:
		return mentionsVariable(node.Formula, v)
	case *trcast.QuantifiedExpression:
		if node.Variable == v {
			return false
		}
		return mentionsVariable(node.Formula, v)
	case *trcast.LogicalExpression:
		return mentionsVariable(node.Left, v) || mentionsVariable(node.Right, v)
	default:
		return false
	}
}
