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

// Package raast is the native, pre-catalog-resolution relational
// algebra AST a caller builds by hand (or a parser emits directly for
// an already-RA-shaped query language): the same node vocabulary as
// package ra, except its leaf names a relation that has not yet been
// looked up. identity.Translate is the trivial structural walk that
// resolves it into a ra.Op tree.
package raast

import (
	"github.com/relaq/relaq/ra"
	"github.com/relaq/relaq/value"
)

// Node is any raast node.
type Node interface{ isNode() }

// Relation is an unresolved leaf: a relation name, optionally aliased.
type Relation struct {
	Name  string
	Alias string
}

func (*Relation) isNode() {}

type Projection struct {
	Child   Node
	Columns []*value.ColumnValue
}

func (*Projection) isNode() {}

type Selection struct {
	Child     Node
	Predicate value.Node
}

func (*Selection) isNode() {}

type RenameRelation struct {
	Child    Node
	NewAlias string
}

func (*RenameRelation) isNode() {}

type RenameColumns struct {
	Child   Node
	Mapping map[string]string
}

func (*RenameColumns) isNode() {}

type OrderBy struct {
	Child   Node
	Columns []*value.ColumnValue
	Asc     []bool
}

func (*OrderBy) isNode() {}

type GroupBy struct {
	Child     Node
	GroupCols []*value.ColumnValue
	Aggs      []ra.AggCall
}

func (*GroupBy) isNode() {}

// BinOp distinguishes which of the eleven binary operators a Binary
// node represents.
type BinOp int

const (
	CrossJoin BinOp = iota
	InnerJoin
	LeftOuterJoin
	RightOuterJoin
	FullOuterJoin
	SemiJoin
	AntiJoin
	Union
	Intersect
	Difference
	Division
)

// Binary is every binary operator: Cond is only meaningful for the
// six condition-carrying joins (inner, the three outer joins, semi and
// anti; nil | []string | value.Node, per ra.DecodeJoinCondition),
// and PreserveLeft only for SemiJoin.
type Binary struct {
	Op           BinOp
	Left, Right  Node
	Cond         interface{}
	PreserveLeft bool
}

func (*Binary) isNode() {}
