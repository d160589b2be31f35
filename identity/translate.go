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

// Package identity lowers a raast.Node into a ra.Op 1:1, resolving
// every raast.Relation leaf against a catalog.Catalog. Every other
// front end has to decide how to express its source language's
// constructs in terms of the RA vocabulary, but an RA-shaped input
// AST maps onto package ra's types directly.
package identity

import (
	"fmt"

	"github.com/relaq/relaq/catalog"
	"github.com/relaq/relaq/ra"
	"github.com/relaq/relaq/raast"
)

// Translate resolves n into a ra.Op tree against cat.
func Translate(n raast.Node, cat catalog.Catalog) (ra.Op, error) {
	switch node := n.(type) {
	case *raast.Relation:
		rel, err := cat.Lookup(node.Name)
		if err != nil {
			return nil, err
		}
		leaf := ra.NewRelation(rel.Copy())
		if node.Alias != "" {
			leaf.Alias = node.Alias
		}
		return leaf, nil

	case *raast.Projection:
		child, err := Translate(node.Child, cat)
		if err != nil {
			return nil, err
		}
		return ra.NewProjection(child, node.Columns...), nil

	case *raast.Selection:
		child, err := Translate(node.Child, cat)
		if err != nil {
			return nil, err
		}
		return ra.NewSelection(child, node.Predicate), nil

	case *raast.RenameRelation:
		child, err := Translate(node.Child, cat)
		if err != nil {
			return nil, err
		}
		return ra.NewRenameRelation(child, node.NewAlias), nil

	case *raast.RenameColumns:
		child, err := Translate(node.Child, cat)
		if err != nil {
			return nil, err
		}
		return ra.NewRenameColumns(child, node.Mapping), nil

	case *raast.OrderBy:
		child, err := Translate(node.Child, cat)
		if err != nil {
			return nil, err
		}
		return ra.NewOrderBy(child, node.Columns, node.Asc), nil

	case *raast.GroupBy:
		child, err := Translate(node.Child, cat)
		if err != nil {
			return nil, err
		}
		return ra.NewGroupBy(child, node.GroupCols, node.Aggs), nil

	case *raast.Binary:
		return translateBinary(node, cat)

	default:
		return nil, fmt.Errorf("identity: unsupported raast node %T", n)
	}
}

func translateBinary(node *raast.Binary, cat catalog.Catalog) (ra.Op, error) {
	left, err := Translate(node.Left, cat)
	if err != nil {
		return nil, err
	}
	right, err := Translate(node.Right, cat)
	if err != nil {
		return nil, err
	}
	if node.Op == raast.CrossJoin {
		return ra.NewCrossJoin(left, right), nil
	}
	if node.Op == raast.Union || node.Op == raast.Intersect || node.Op == raast.Difference {
		switch node.Op {
		case raast.Union:
			return ra.NewUnion(left, right), nil
		case raast.Intersect:
			return ra.NewIntersect(left, right), nil
		default:
			return ra.NewDifference(left, right), nil
		}
	}
	if node.Op == raast.Division {
		return ra.NewDivision(left, right), nil
	}
	cond, err := ra.DecodeJoinCondition(node.Cond)
	if err != nil {
		return nil, err
	}
	switch node.Op {
	case raast.InnerJoin:
		return ra.NewInnerJoin(left, right, cond), nil
	case raast.LeftOuterJoin:
		return ra.NewLeftOuterJoin(left, right, cond), nil
	case raast.RightOuterJoin:
		return ra.NewRightOuterJoin(left, right, cond), nil
	case raast.FullOuterJoin:
		return ra.NewFullOuterJoin(left, right, cond), nil
	case raast.SemiJoin:
		return ra.NewSemiJoin(left, right, cond, node.PreserveLeft), nil
	case raast.AntiJoin:
		return ra.NewAntiJoin(left, right, cond), nil
	default:
		return nil, fmt.Errorf("identity: unsupported binary operator %d", node.Op)
	}
}
