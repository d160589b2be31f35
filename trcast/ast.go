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

// Package trcast defines the Tuple Relational Calculus AST that a
// parser hands to the trc translator: { t.a, t.b | Φ(t) } where Φ
// combines R(t) atoms, comparison predicates, ∧ ∨ ¬ →, and the
// quantifiers ∃ ∀ over tuple variables.
package trcast

import "github.com/relaq/relaq/ra"

// Node is any TRC AST node. It is a closed union: Expr,
// RelationPredicate, Predicate, Negation, QuantifiedExpression, and
// LogicalExpression, plus the AttrRef and *Literal operands a
// Predicate's right side holds, are the only implementations.
type Node interface {
	// Region returns the node's code-region tag, nil if the parser
	// did not attach one.
	Region() *ra.CodeRegion
}

type region struct {
	R *ra.CodeRegion
}

func (r region) Region() *ra.CodeRegion { return r.R }

// Expr is the top-level set constructor { variable.projections | formula }.
type Expr struct {
	region
	Variable    string
	Projections []string // may be empty: "return the whole tuple"
	Formula     Node
}

// RelationPredicate is the atom R(v): binds tuple variable v to
// relation R.
type RelationPredicate struct {
	region
	Variable string
	Relation string
}

// CmpOp is one of the six comparison operators a Predicate may use.
type CmpOp string

const (
	Eq CmpOp = "="
	Ne CmpOp = "!="
	Lt CmpOp = "<"
	Gt CmpOp = ">"
	Le CmpOp = "<="
	Ge CmpOp = ">="
)

// AttrRef is variable.attribute, e.g. t.a.
type AttrRef struct {
	region
	Variable  string
	Attribute string
}

// Literal is a typed scalar constant appearing on the right side of
// a Predicate.
type Literal struct {
	region
	Type  string // "string" | "number" | "boolean" | "date"
	Value interface{}
}

// Predicate is a comparison lhs op rhs where lhs is always an
// attribute reference and rhs is either another attribute reference
// or a literal.
type Predicate struct {
	region
	Left     AttrRef
	Operator CmpOp
	Right    Node // AttrRef or *Literal
}

// Negation is ¬formula.
type Negation struct {
	region
	Formula Node
}

// Quantifier distinguishes ∃ from ∀.
type Quantifier string

const (
	Exists Quantifier = "exists"
	ForAll Quantifier = "forAll"
)

// QuantifiedExpression is quantifier-variable(formula).
type QuantifiedExpression struct {
	region
	Quantifier Quantifier
	Variable   string
	Formula    Node
}

// LogicalOp is one of the three binary logical connectives.
type LogicalOp string

const (
	And     LogicalOp = "and"
	Or      LogicalOp = "or"
	Implies LogicalOp = "implies"
)

// LogicalExpression is left op right.
type LogicalExpression struct {
	region
	Operator LogicalOp
	Left     Node
	Right    Node
}
