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

// Package sqlast is the minimal SELECT-statement AST the sql package
// translates into relational algebra: FROM with inner/outer/cross
// joins, WHERE, GROUP BY/HAVING, ORDER BY, LIMIT/OFFSET, and the three
// set operators, modeled loosely on the shape of expr.Select and
// expr.Join (expr/sfw.go), trimmed to what a structural RA-lowering
// front end needs.
package sqlast

import (
	"github.com/relaq/relaq/ra"
	"github.com/relaq/relaq/value"
)

// Table is a bare FROM-clause relation reference, optionally aliased.
type Table struct {
	Name  string
	Alias string
}

// JoinKind names the join syntax a Join node was parsed from.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

// From is a FROM-clause operand: a bare table built by NewTable, or a
// *Join. A Join's On is the decoded join condition: nil for a natural
// join, []string to restrict a natural join to named columns, or a
// value.Node for a theta join. Cross joins ignore On.
type From interface{ isFrom() }

type fromTable struct{ Table }

func (fromTable) isFrom() {}

// NewTable wraps a bare table reference as a From.
func NewTable(name, alias string) From { return fromTable{Table{Name: name, Alias: alias}} }

// TableOf extracts the Table a fromTable From wraps, used by the
// translator; ok is false if f is a Join rather than a bare table.
func TableOf(f From) (Table, bool) {
	t, ok := f.(fromTable)
	return t.Table, ok
}

// Join is a binary join between two From operands.
type Join struct {
	Kind  JoinKind
	Left  From
	Right From
	On    interface{} // nil | []string | value.Node
}

func (*Join) isFrom() {}

// OrderColumn is one ORDER BY key.
type OrderColumn struct {
	Column *value.ColumnValue
	Asc    bool
}

// Aggregate is one aggregate expression in the select list or a
// GROUP BY's implicit output, e.g. count(*), sum(s.d).
type Aggregate struct {
	Func  string
	Arg   value.Node // nil for count(*)
	Alias string
	Type  value.Type
}

// Select is a single SELECT statement; Distinct tracks whether the
// query asked for set semantics. A non-DISTINCT query still
// translates, but raises a warning since bag semantics cannot be
// preserved by a tree built from the set operators in ra.
type Select struct {
	Distinct   bool
	Columns    []*value.ColumnValue
	Aggregates []Aggregate
	From       From
	Where      value.Node
	GroupBy    []*value.ColumnValue
	Having     value.Node
	OrderBy    []OrderColumn
	Limit      int // -1 means unbounded
	Offset     int
	Region     *ra.CodeRegion
}

// SetOp is one of the three set-combinators joining two Selects.
type SetOp int

const (
	Union SetOp = iota
	Intersect
	Except
)

// SetQuery is left <op> right, e.g. SELECT ... UNION SELECT ....
type SetQuery struct {
	Op    SetOp
	Left  *Select
	Right *Select
}
