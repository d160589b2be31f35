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

package ra

import (
	"fmt"

	"github.com/relaq/relaq/value"
)

// JoinKind distinguishes a natural join (equates like-named columns)
// from a theta join (parametric on an arbitrary boolean predicate).
type JoinKind int

const (
	NaturalJoin JoinKind = iota
	ThetaJoin
)

func (k JoinKind) String() string {
	if k == ThetaJoin {
		return "theta"
	}
	return "natural"
}

// JoinCondition is the normalised form of a join's optional condition
// syntax: nil in the source means natural join, a column list means
// natural join restricted to those columns, and a boolean expression
// means a theta join.
type JoinCondition struct {
	Kind              JoinKind
	RestrictToColumns []string // only meaningful when Kind == NaturalJoin; nil means "all shared columns"
	Expression        value.Node // only meaningful when Kind == ThetaJoin
}

func (c JoinCondition) String() string {
	switch c.Kind {
	case ThetaJoin:
		return c.Expression.String()
	default:
		if len(c.RestrictToColumns) == 0 {
			return "natural"
		}
		return fmt.Sprintf("natural using (%v)", c.RestrictToColumns)
	}
}

// Natural builds the natural-join condition, optionally restricted
// to a subset of the shared columns.
func Natural(restrictTo ...string) JoinCondition {
	return JoinCondition{Kind: NaturalJoin, RestrictToColumns: restrictTo}
}

// Theta builds a theta-join condition from a boolean value expression.
func Theta(expr value.Node) JoinCondition {
	return JoinCondition{Kind: ThetaJoin, Expression: expr}
}

// DecodeJoinCondition is the join-condition decoder: it normalises
// the source syntax for an optional join condition, nil (natural
// join), a list of column names (natural join restricted to those
// columns), or an already-lowered boolean value expression (theta
// join), into a JoinCondition. It is shared by every front end that
// parses an explicit join condition (the TRC translator never calls
// it: its joins are built internally as cross/semi/anti-joins, never
// from source join syntax).
func DecodeJoinCondition(raw interface{}) (JoinCondition, error) {
	switch v := raw.(type) {
	case nil:
		return Natural(), nil
	case []string:
		return Natural(v...), nil
	case value.Node:
		return Theta(v), nil
	default:
		return JoinCondition{}, fmt.Errorf("ra: unsupported join condition literal of type %T", raw)
	}
}

// sharedColumns returns the column names common to both schemas, in
// left-schema order, used to resolve a natural join with no explicit
// restriction list.
func sharedColumns(left, right Schema) []string {
	rset := make(map[string]bool, len(right))
	for _, f := range right {
		rset[f.Name] = true
	}
	var out []string
	seen := make(map[string]bool)
	for _, f := range left {
		if rset[f.Name] && !seen[f.Name] {
			out = append(out, f.Name)
			seen[f.Name] = true
		}
	}
	return out
}

// naturalJoinColumns resolves the actual join-key column list for a
// natural join condition against a concrete pair of schemas.
func naturalJoinColumns(cond JoinCondition, left, right Schema) []string {
	if len(cond.RestrictToColumns) > 0 {
		return cond.RestrictToColumns
	}
	return sharedColumns(left, right)
}
