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

// Package ra implements the relational-algebra operator tree that
// every front end (TRC, SQL, and the RA AST) lowers into: a leaf
// Relation, six unary operators (plus RowNumber, used only by the SQL
// front end's LIMIT/OFFSET lowering), and eleven binary operators, each
// carrying an optional code-region tag and a round-tripping
// parenthesization flag.
package ra

import (
	"fmt"

	"github.com/relaq/relaq/value"
)

// CodeRegion is a byte span in the original source, copied from the
// AST node a given RA node was derived from, for error reporting and
// editor highlighting.
type CodeRegion struct {
	StartOffset, EndOffset int
	Text                   string
}

// Field is a single resolved schema entry: a column name qualified
// by the relation alias it currently belongs to within the tree
// being checked.
type Field struct {
	RelAlias string
	Name     string
	Type     value.Type
}

// Schema is the ordered, resolved output schema of an Op, populated
// by Check.
type Schema []Field

// Names returns the unqualified column names, in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

// Lookup resolves a (possibly qualified) column reference against
// the schema. An empty relAlias matches any field with that name, as
// long as the match is unique.
func (s Schema) Lookup(relAlias, name string) (Field, bool) {
	if relAlias != "" {
		for _, f := range s {
			if f.RelAlias == relAlias && f.Name == name {
				return f, true
			}
		}
		return Field{}, false
	}
	var found Field
	n := 0
	for _, f := range s {
		if f.Name == name {
			found = f
			n++
		}
	}
	return found, n == 1
}

// Compatible reports whether s and o have the same set of column
// names, order and relation alias ignored: the shape check
// Union/Intersect/Difference rely on.
func (s Schema) Compatible(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	counts := make(map[string]int, len(s))
	for _, f := range s {
		counts[f.Name]++
	}
	for _, f := range o {
		counts[f.Name]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

// Warning is a non-fatal diagnostic attached to an Op via AddWarning.
type Warning struct {
	Message string
	Region  *CodeRegion
}

// Op is a single node of the relational-algebra operator tree.
type Op interface {
	fmt.Stringer

	// Check validates and resolves the node's schema, recursively
	// checking its children first. It must be called, and must
	// succeed, before Schema returns a meaningful result.
	Check() error

	// Schema returns the node's resolved output schema. Only valid
	// after a successful Check.
	Schema() Schema

	// Children returns the node's direct operand subtrees, nil for
	// a leaf.
	Children() []Op

	Region() *CodeRegion
	SetRegion(*CodeRegion)

	Parens() bool
	SetParens(bool)

	AddWarning(message string, region *CodeRegion)
	Warnings() []Warning
}

// base is embedded in every concrete Op and supplies the bookkeeping
// fields the interface's non-structural methods read and write.
type base struct {
	region   *CodeRegion
	parens   bool
	warnings []Warning
	schema   Schema
}

func (b *base) Schema() Schema { return b.schema }

func (b *base) Region() *CodeRegion     { return b.region }
func (b *base) SetRegion(r *CodeRegion) { b.region = r }

func (b *base) Parens() bool      { return b.parens }
func (b *base) SetParens(p bool)  { b.parens = p }

func (b *base) AddWarning(msg string, r *CodeRegion) {
	b.warnings = append(b.warnings, Warning{Message: msg, Region: r})
}

func (b *base) Warnings() []Warning { return b.warnings }

// unary is embedded by every single-child Op.
type unary struct {
	base
	Child Op
}

func (u *unary) Children() []Op { return []Op{u.Child} }

// binary is embedded by every two-child Op.
type binary struct {
	base
	Left, Right Op
}

func (b *binary) Children() []Op { return []Op{b.Left, b.Right} }

// Visitor is called for every node encountered by Walk, the same
// shape as expr.Visitor.
type Visitor interface {
	Visit(Op) Visitor
}

// Walk traverses root in depth-first order.
func Walk(v Visitor, root Op) {
	if root == nil || v == nil {
		return
	}
	w := v.Visit(root)
	if w == nil {
		return
	}
	for _, c := range root.Children() {
		Walk(w, c)
	}
}

func errorf(region *CodeRegion, format string, args ...interface{}) error {
	return &CheckError{Region: region, Msg: fmt.Sprintf(format, args...)}
}

// CheckError is returned by Op.Check when a node's schema cannot be
// resolved (an unresolvable column reference, an incompatible pair
// of operands for a set operator, and so on).
type CheckError struct {
	Region *CodeRegion
	Msg    string
}

func (e *CheckError) Error() string { return e.Msg }
