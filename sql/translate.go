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

// Package sql structurally walks a sqlast.Select/SetQuery into the
// same relational-algebra tree every front end lowers into, sharing
// the value-expression tree (value) and the join-condition decoder
// (ra.DecodeJoinCondition) with the rest of the translator family.
package sql

import (
	"fmt"

	"github.com/relaq/relaq/catalog"
	"github.com/relaq/relaq/ra"
	"github.com/relaq/relaq/sqlast"
	"github.com/relaq/relaq/value"
)

// crossJoinRowLimit is the estimated row-product above which a cross
// join raises a non-fatal warning rather than refusing to build the
// tree.
const crossJoinRowLimit = 1_000_000

type translator struct {
	cat catalog.Catalog
}

// Translate lowers a single SELECT statement into a relational-algebra
// tree, resolving every table reference against cat.
func Translate(sel *sqlast.Select, cat catalog.Catalog) (ra.Op, error) {
	tr := &translator{cat: cat}
	return tr.translateSelect(sel)
}

// TranslateSet lowers a UNION/INTERSECT/EXCEPT of two SELECTs.
func TranslateSet(q *sqlast.SetQuery, cat catalog.Catalog) (ra.Op, error) {
	tr := &translator{cat: cat}
	l, err := tr.translateSelect(q.Left)
	if err != nil {
		return nil, err
	}
	r, err := tr.translateSelect(q.Right)
	if err != nil {
		return nil, err
	}
	switch q.Op {
	case sqlast.Union:
		return ra.NewUnion(l, r), nil
	case sqlast.Intersect:
		return ra.NewIntersect(l, r), nil
	case sqlast.Except:
		return ra.NewDifference(l, r), nil
	default:
		return nil, fmt.Errorf("sql: unsupported set operator %d", q.Op)
	}
}

func (tr *translator) translateSelect(sel *sqlast.Select) (ra.Op, error) {
	if sel.From == nil {
		return nil, fmt.Errorf("sql: SELECT has no FROM clause")
	}
	op, err := tr.translateFrom(sel.From)
	if err != nil {
		return nil, err
	}
	if sel.Where != nil {
		op = ra.NewSelection(op, sel.Where)
	}
	if len(sel.GroupBy) > 0 || len(sel.Aggregates) > 0 {
		aggs := make([]ra.AggCall, len(sel.Aggregates))
		for i, a := range sel.Aggregates {
			aggs[i] = ra.AggCall{Name: a.Alias, Func: a.Func, Arg: a.Arg, Type: a.Type}
		}
		op = ra.NewGroupBy(op, sel.GroupBy, aggs)
	}
	if sel.Having != nil {
		op = ra.NewSelection(op, sel.Having)
	}
	if len(sel.Columns) > 0 && len(sel.GroupBy) == 0 && len(sel.Aggregates) == 0 {
		op = ra.NewProjection(op, sel.Columns...)
	}
	if len(sel.OrderBy) > 0 {
		cols := make([]*value.ColumnValue, len(sel.OrderBy))
		asc := make([]bool, len(sel.OrderBy))
		for i, o := range sel.OrderBy {
			cols[i] = o.Column
			asc[i] = o.Asc
		}
		op = ra.NewOrderBy(op, cols, asc)
	}
	if sel.Limit >= 0 || sel.Offset > 0 {
		op = tr.applyLimitOffset(op, sel.Limit, sel.Offset)
	}
	if !sel.Distinct {
		op.AddWarning("non-DISTINCT SELECT: bag semantics cannot be preserved by a set-semantics relational-algebra tree", sel.Region)
	}
	return op, nil
}

// applyLimitOffset lowers LIMIT n OFFSET k into a selection over a
// synthetic row-number column: rownum > k ∧ rownum ≤ n+k. n = -1
// means "no upper bound", leaving only the lower bound.
func (tr *translator) applyLimitOffset(op ra.Op, limit, offset int) ra.Op {
	numbered := ra.NewRowNumber(op)
	rownum := value.Column("rownum")
	lower := value.Cmp(value.OpGt, rownum, value.Const(value.TypeNumber, offset))
	if limit < 0 {
		return ra.NewSelection(numbered, lower)
	}
	upper := value.Cmp(value.OpLe, rownum, value.Const(value.TypeNumber, limit+offset))
	return ra.NewSelection(numbered, value.And(lower, upper))
}

func (tr *translator) translateFrom(f sqlast.From) (ra.Op, error) {
	if t, ok := sqlast.TableOf(f); ok {
		return tr.translateTable(t)
	}
	j, ok := f.(*sqlast.Join)
	if !ok {
		return nil, fmt.Errorf("sql: unsupported From node %T", f)
	}
	left, err := tr.translateFrom(j.Left)
	if err != nil {
		return nil, err
	}
	right, err := tr.translateFrom(j.Right)
	if err != nil {
		return nil, err
	}
	if j.Kind == sqlast.CrossJoin {
		tr.warnIfLargeProduct(left, right)
		return ra.NewCrossJoin(left, right), nil
	}
	cond, err := ra.DecodeJoinCondition(j.On)
	if err != nil {
		return nil, err
	}
	switch j.Kind {
	case sqlast.InnerJoin:
		return ra.NewInnerJoin(left, right, cond), nil
	case sqlast.LeftJoin:
		return ra.NewLeftOuterJoin(left, right, cond), nil
	case sqlast.RightJoin:
		return ra.NewRightOuterJoin(left, right, cond), nil
	case sqlast.FullJoin:
		return ra.NewFullOuterJoin(left, right, cond), nil
	default:
		return nil, fmt.Errorf("sql: unsupported join kind %d", j.Kind)
	}
}

func (tr *translator) translateTable(t sqlast.Table) (ra.Op, error) {
	rel, err := tr.cat.Lookup(t.Name)
	if err != nil {
		return nil, err
	}
	leaf := ra.NewRelation(rel.Copy())
	if t.Alias != "" {
		leaf.Alias = t.Alias
	}
	return leaf, nil
}

// warnIfLargeProduct estimates a cross join's row product from its
// operands' fixture row counts, when available, and raises a warning
// rather than refusing to build the tree.
func (tr *translator) warnIfLargeProduct(left, right ra.Op) {
	lc, lok := rowCountHint(left)
	rc, rok := rowCountHint(right)
	if lok && rok && lc*rc > crossJoinRowLimit {
		left.AddWarning(fmt.Sprintf("cross join estimated row product %d exceeds %d", lc*rc, crossJoinRowLimit), left.Region())
	}
}

func rowCountHint(op ra.Op) (int, bool) {
	if r, ok := op.(*ra.Relation); ok && r.Rel != nil {
		return len(r.Rel.Rows), true
	}
	return 0, false
}
