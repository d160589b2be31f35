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

// Package raeval is a reference, set-semantics evaluator for ra.Op
// trees. It exists to let tests (and the relaqc CLI's demo "-run"
// flag) check a translator's output against expected rows; it is
// never called by trc, sql, or identity themselves, since the
// translator builds trees and does not run them.
package raeval

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/dchest/siphash"

	"github.com/relaq/relaq/catalog"
	"github.com/relaq/relaq/ra"
	"github.com/relaq/relaq/value"
)

// fpKey0/fpKey1 are fixed siphash key halves used only to fingerprint
// rows for deduplication, not for anything security-sensitive. This
// mirrors plan/pir/joinelim.go's joinhash, a deterministic content
// hash used to avoid redoing work rather than to authenticate
// anything.
const (
	fpKey0 uint64 = 0x72656c6171
	fpKey1 uint64 = 0x6576616c00
)

// rowFingerprint computes a deterministic hash of a row's contents,
// used as a bucketing key so dedup and set operations don't compare
// every pair of rows against every other when most pairs differ.
func rowFingerprint(r Row) uint64 {
	keys := make([]Key, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].RelAlias != keys[j].RelAlias {
			return keys[i].RelAlias < keys[j].RelAlias
		}
		return keys[i].Name < keys[j].Name
	})
	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s.%s=%v;", k.RelAlias, k.Name, r[k])
	}
	return siphash.Hash(fpKey0, fpKey1, buf.Bytes())
}

// Key identifies one field of an evaluated Row: the relation alias
// it currently carries plus its column name. Kept distinct from a
// plain column name because a cross or theta join can legitimately
// carry two columns with the same name under different aliases.
type Key struct {
	RelAlias string
	Name     string
}

// Row is one evaluated tuple.
type Row map[Key]interface{}

// Relation is the realized result of evaluating an ra.Op.
type Relation struct {
	Schema ra.Schema
	Rows   []Row
}

// Len returns the number of rows. Leaves, projections, cross and
// inner joins, semi- and anti-joins, unions and intersections
// deduplicate their output; the remaining operators keep the rows
// their operands produce.
func (r *Relation) Len() int { return len(r.Rows) }

// Eval evaluates op against the in-memory rows its Relation leaves
// carry, checking the tree first. Evaluation is single-threaded and
// synchronous, the same concurrency model the translator itself
// uses.
func Eval(op ra.Op) (*Relation, error) {
	if err := op.Check(); err != nil {
		return nil, err
	}
	return eval(op)
}

func eval(op ra.Op) (*Relation, error) {
	switch n := op.(type) {
	case *ra.Relation:
		return evalRelation(n)
	case *ra.Projection:
		return evalProjection(n)
	case *ra.Selection:
		return evalSelection(n)
	case *ra.RenameRelation:
		return evalRenameRelation(n)
	case *ra.RenameColumns:
		return evalRenameColumns(n)
	case *ra.OrderBy:
		return evalOrderBy(n)
	case *ra.RowNumber:
		return evalRowNumber(n)
	case *ra.GroupBy:
		return evalGroupBy(n)
	case *ra.CrossJoin:
		return evalCrossJoin(n)
	case *ra.InnerJoin:
		return evalInnerJoin(n)
	case *ra.LeftOuterJoin:
		return evalLeftOuterJoin(n)
	case *ra.RightOuterJoin:
		return evalRightOuterJoin(n)
	case *ra.FullOuterJoin:
		return evalFullOuterJoin(n)
	case *ra.SemiJoin:
		return evalSemiJoin(n)
	case *ra.AntiJoin:
		return evalAntiJoin(n)
	case *ra.Union:
		return evalUnion(n)
	case *ra.Intersect:
		return evalIntersect(n)
	case *ra.Difference:
		return evalDifference(n)
	case *ra.Division:
		return evalDivision(n)
	default:
		return nil, fmt.Errorf("raeval: unsupported op %T", op)
	}
}

func evalRelation(n *ra.Relation) (*Relation, error) {
	rows := make([]Row, len(n.Rel.Rows))
	for i, r := range n.Rel.Rows {
		row := make(Row, len(n.Rel.Schema))
		for _, c := range n.Rel.Schema {
			row[Key{RelAlias: n.Alias, Name: c.Name}] = r[c.Name]
		}
		rows[i] = row
	}
	return dedup(&Relation{Schema: n.Schema(), Rows: rows})
}

// lookupColumn resolves a value expression's ColumnValue leaves against a
// row using the same (relAlias, name) resolution rules as ra.Schema.
func lookupColumn(row Row, schema ra.Schema, relAlias, name string) (interface{}, bool) {
	if relAlias != "" {
		v, ok := row[Key{RelAlias: relAlias, Name: name}]
		return v, ok
	}
	var found interface{}
	n := 0
	for k, v := range row {
		if k.Name == name {
			found = v
			n++
		}
	}
	return found, n == 1
}

func evalExpr(e value.Node, row Row, schema ra.Schema) (interface{}, error) {
	switch n := e.(type) {
	case *value.ColumnValue:
		v, ok := lookupColumn(row, schema, n.RelAlias, n.Name)
		if !ok {
			return nil, fmt.Errorf("raeval: column %q not found in row", n)
		}
		return v, nil
	case *value.Constant:
		return n.Literal, nil
	case *value.Operator:
		return evalOperator(n, row, schema)
	default:
		return nil, fmt.Errorf("raeval: unsupported value expression %T", e)
	}
}

func evalOperator(o *value.Operator, row Row, schema ra.Schema) (interface{}, error) {
	args := make([]interface{}, len(o.Args))
	for i, a := range o.Args {
		v, err := evalExpr(a, row, schema)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	switch o.Name {
	case value.OpNot:
		return !truthy(args[0]), nil
	case value.OpAnd:
		return truthy(args[0]) && truthy(args[1]), nil
	case value.OpOr:
		return truthy(args[0]) || truthy(args[1]), nil
	case value.OpEq:
		return compare(args[0], args[1]) == 0, nil
	case value.OpNe:
		return compare(args[0], args[1]) != 0, nil
	case value.OpLt:
		return compare(args[0], args[1]) < 0, nil
	case value.OpGt:
		return compare(args[0], args[1]) > 0, nil
	case value.OpLe:
		return compare(args[0], args[1]) <= 0, nil
	case value.OpGe:
		return compare(args[0], args[1]) >= 0, nil
	default:
		return nil, fmt.Errorf("raeval: unsupported operator %q", o.Name)
	}
}

func truthy(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

// compare orders two scalar literals. It supports the numeric,
// string/date (lexical) and boolean (false before true) literal kinds
// the catalog's fixture rows carry; anything else compares as equal.
func compare(a, b interface{}) int {
	switch av := a.(type) {
	case int:
		bv, _ := toFloat(b)
		return floatCompare(float64(av), bv)
	case int64:
		bv, _ := toFloat(b)
		return floatCompare(float64(av), bv)
	case float64:
		bv, _ := toFloat(b)
		return floatCompare(av, bv)
	case string:
		bv, _ := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case bool:
		bv, _ := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func floatCompare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func evalProjection(n *ra.Projection) (*Relation, error) {
	child, err := eval(n.Child)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(child.Rows))
	for i, r := range child.Rows {
		out := make(Row, len(n.Columns))
		for _, c := range n.Columns {
			v, ok := lookupColumn(r, child.Schema, c.RelAlias, c.Name)
			if !ok {
				return nil, fmt.Errorf("raeval: projected column %q missing from row", c)
			}
			out[Key{RelAlias: c.RelAlias, Name: c.Name}] = v
		}
		rows[i] = out
	}
	return dedup(&Relation{Schema: n.Schema(), Rows: rows})
}

func evalSelection(n *ra.Selection) (*Relation, error) {
	child, err := eval(n.Child)
	if err != nil {
		return nil, err
	}
	var rows []Row
	for _, r := range child.Rows {
		ok, err := evalExpr(n.Predicate, r, child.Schema)
		if err != nil {
			return nil, err
		}
		if truthy(ok) {
			rows = append(rows, r)
		}
	}
	return &Relation{Schema: n.Schema(), Rows: rows}, nil
}

func evalRenameRelation(n *ra.RenameRelation) (*Relation, error) {
	child, err := eval(n.Child)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(child.Rows))
	for i, r := range child.Rows {
		out := make(Row, len(r))
		for k, v := range r {
			out[Key{RelAlias: n.NewAlias, Name: k.Name}] = v
		}
		rows[i] = out
	}
	return &Relation{Schema: n.Schema(), Rows: rows}, nil
}

func evalRenameColumns(n *ra.RenameColumns) (*Relation, error) {
	child, err := eval(n.Child)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(child.Rows))
	for i, r := range child.Rows {
		out := make(Row, len(r))
		for k, v := range r {
			name := k.Name
			if to, ok := n.Mapping[k.Name]; ok {
				name = to
			}
			out[Key{RelAlias: k.RelAlias, Name: name}] = v
		}
		rows[i] = out
	}
	return &Relation{Schema: n.Schema(), Rows: rows}, nil
}

func evalOrderBy(n *ra.OrderBy) (*Relation, error) {
	child, err := eval(n.Child)
	if err != nil {
		return nil, err
	}
	rows := append([]Row{}, child.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		for k, c := range n.Columns {
			vi, _ := lookupColumn(rows[i], child.Schema, c.RelAlias, c.Name)
			vj, _ := lookupColumn(rows[j], child.Schema, c.RelAlias, c.Name)
			cmp := compare(vi, vj)
			if cmp == 0 {
				continue
			}
			if k < len(n.Asc) && !n.Asc[k] {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return &Relation{Schema: n.Schema(), Rows: rows}, nil
}

func evalRowNumber(n *ra.RowNumber) (*Relation, error) {
	child, err := eval(n.Child)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(child.Rows))
	for i, r := range child.Rows {
		out := make(Row, len(r)+1)
		for k, v := range r {
			out[k] = v
		}
		out[Key{Name: "rownum"}] = i + 1
		rows[i] = out
	}
	return &Relation{Schema: n.Schema(), Rows: rows}, nil
}

func evalGroupBy(n *ra.GroupBy) (*Relation, error) {
	child, err := eval(n.Child)
	if err != nil {
		return nil, err
	}
	type group struct {
		key  []interface{}
		rows []Row
	}
	var groups []*group
	find := func(key []interface{}) *group {
		for _, g := range groups {
			match := true
			for i := range key {
				if compare(g.key[i], key[i]) != 0 {
					match = false
					break
				}
			}
			if match {
				return g
			}
		}
		return nil
	}
	for _, r := range child.Rows {
		key := make([]interface{}, len(n.GroupCols))
		for i, c := range n.GroupCols {
			key[i], _ = lookupColumn(r, child.Schema, c.RelAlias, c.Name)
		}
		g := find(key)
		if g == nil {
			g = &group{key: key}
			groups = append(groups, g)
		}
		g.rows = append(g.rows, r)
	}
	out := make([]Row, len(groups))
	for gi, g := range groups {
		row := make(Row, len(n.GroupCols)+len(n.Aggs))
		for i, c := range n.GroupCols {
			row[Key{Name: c.Name}] = g.key[i]
		}
		for _, a := range n.Aggs {
			v, err := aggregate(a, g.rows, child.Schema)
			if err != nil {
				return nil, err
			}
			row[Key{Name: a.Name}] = v
		}
		out[gi] = row
	}
	return &Relation{Schema: n.Schema(), Rows: out}, nil
}

func aggregate(a ra.AggCall, rows []Row, schema ra.Schema) (interface{}, error) {
	switch a.Func {
	case "count":
		return len(rows), nil
	case "sum", "avg", "min", "max":
		var vals []float64
		for _, r := range rows {
			v, err := evalExpr(a.Arg, r, schema)
			if err != nil {
				return nil, err
			}
			f, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("raeval: aggregate %s over non-numeric value", a.Func)
			}
			vals = append(vals, f)
		}
		if len(vals) == 0 {
			return nil, nil
		}
		switch a.Func {
		case "sum":
			var s float64
			for _, v := range vals {
				s += v
			}
			return s, nil
		case "avg":
			var s float64
			for _, v := range vals {
				s += v
			}
			return s / float64(len(vals)), nil
		case "min":
			m := vals[0]
			for _, v := range vals {
				if v < m {
					m = v
				}
			}
			return m, nil
		default: // max
			m := vals[0]
			for _, v := range vals {
				if v > m {
					m = v
				}
			}
			return m, nil
		}
	default:
		return nil, fmt.Errorf("raeval: unsupported aggregate function %q", a.Func)
	}
}

func mergeRows(l, r Row) Row {
	out := make(Row, len(l)+len(r))
	for k, v := range l {
		out[k] = v
	}
	for k, v := range r {
		out[k] = v
	}
	return out
}

func evalCrossJoin(n *ra.CrossJoin) (*Relation, error) {
	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}
	var rows []Row
	for _, l := range left.Rows {
		for _, r := range right.Rows {
			rows = append(rows, mergeRows(l, r))
		}
	}
	return dedup(&Relation{Schema: n.Schema(), Rows: rows})
}

// joinColumnValue resolves the value a natural join key column takes
// in row, preferring the field carrying preferAlias and otherwise
// falling back to a unique match on the name. natRowMatch passes the
// alias the left schema gives the key (the last such field when the
// left schema holds the name more than once) for both sides. This is
// how a cross-joined row keeps e.g. both R.b and S.b distinguishable
// while the natural semi-join in trc, whose CrossJoin(q, base) puts
// base's fields last, resolves "b" to base's copy.
func joinColumnValue(row Row, schema ra.Schema, name, preferAlias string) (interface{}, bool) {
	if preferAlias != "" {
		if v, ok := row[Key{RelAlias: preferAlias, Name: name}]; ok {
			return v, true
		}
	}
	return lookupColumn(row, schema, "", name)
}

func natRowMatch(l Row, lSchema ra.Schema, r Row, rSchema ra.Schema, keys []string) bool {
	for _, k := range keys {
		lf, _ := lSchema.Lookup("", k)
		lv, ok := joinColumnValue(l, lSchema, k, lf.RelAlias)
		if !ok {
			return false
		}
		rv, ok := joinColumnValue(r, rSchema, k, lf.RelAlias)
		if !ok {
			return false
		}
		if compare(lv, rv) != 0 {
			return false
		}
	}
	return true
}

func matchesCond(cond ra.JoinCondition, l Row, lSchema ra.Schema, r Row, rSchema ra.Schema, keys []string) (bool, error) {
	if cond.Kind == ra.ThetaJoin {
		merged := mergeRows(l, r)
		mergedSchema := append(append(ra.Schema{}, lSchema...), rSchema...)
		v, err := evalExpr(cond.Expression, merged, mergedSchema)
		if err != nil {
			return false, err
		}
		return truthy(v), nil
	}
	return natRowMatch(l, lSchema, r, rSchema, keys), nil
}

func naturalKeys(cond ra.JoinCondition, left, right ra.Schema) []string {
	if len(cond.RestrictToColumns) > 0 {
		return cond.RestrictToColumns
	}
	set := map[string]bool{}
	var keys []string
	rset := map[string]bool{}
	for _, f := range right {
		rset[f.Name] = true
	}
	for _, f := range left {
		if rset[f.Name] && !set[f.Name] {
			keys = append(keys, f.Name)
			set[f.Name] = true
		}
	}
	return keys
}

func evalInnerJoin(n *ra.InnerJoin) (*Relation, error) {
	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}
	keys := naturalKeys(n.Cond, n.Left.Schema(), n.Right.Schema())
	keyset := map[string]bool{}
	for _, k := range keys {
		keyset[k] = true
	}
	var rows []Row
	for _, l := range left.Rows {
		for _, r := range right.Rows {
			ok, err := matchesCond(n.Cond, l, n.Left.Schema(), r, n.Right.Schema(), keys)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			rows = append(rows, joinRow(n.Cond, l, r, keyset))
		}
	}
	return dedup(&Relation{Schema: n.Schema(), Rows: rows})
}

// joinRow merges a matched pair, dropping the right side's copy of
// any natural join key so the result matches the schema Check computed.
func joinRow(cond ra.JoinCondition, l, r Row, keyset map[string]bool) Row {
	out := make(Row, len(l)+len(r))
	for k, v := range l {
		out[k] = v
	}
	if cond.Kind == ra.NaturalJoin {
		for k, v := range r {
			if keyset[k.Name] {
				continue
			}
			out[k] = v
		}
		return out
	}
	for k, v := range r {
		out[k] = v
	}
	return out
}

func nullRow(schema ra.Schema) Row {
	row := make(Row, len(schema))
	for _, f := range schema {
		row[Key{RelAlias: f.RelAlias, Name: f.Name}] = nil
	}
	return row
}

func evalLeftOuterJoin(n *ra.LeftOuterJoin) (*Relation, error) {
	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}
	keys := naturalKeys(n.Cond, n.Left.Schema(), n.Right.Schema())
	keyset := map[string]bool{}
	for _, k := range keys {
		keyset[k] = true
	}
	var rows []Row
	for _, l := range left.Rows {
		matched := false
		for _, r := range right.Rows {
			ok, err := matchesCond(n.Cond, l, n.Left.Schema(), r, n.Right.Schema(), keys)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				rows = append(rows, joinRow(n.Cond, l, r, keyset))
			}
		}
		if !matched {
			rows = append(rows, joinRow(n.Cond, l, nullRow(n.Right.Schema()), keyset))
		}
	}
	return &Relation{Schema: n.Schema(), Rows: rows}, nil
}

func evalRightOuterJoin(n *ra.RightOuterJoin) (*Relation, error) {
	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}
	keys := naturalKeys(n.Cond, n.Left.Schema(), n.Right.Schema())
	keyset := map[string]bool{}
	for _, k := range keys {
		keyset[k] = true
	}
	var rows []Row
	for _, r := range right.Rows {
		matched := false
		for _, l := range left.Rows {
			ok, err := matchesCond(n.Cond, l, n.Left.Schema(), r, n.Right.Schema(), keys)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				rows = append(rows, joinRow(n.Cond, l, r, keyset))
			}
		}
		if !matched {
			rows = append(rows, joinRow(n.Cond, nullRow(n.Left.Schema()), r, keyset))
		}
	}
	return &Relation{Schema: n.Schema(), Rows: rows}, nil
}

func evalFullOuterJoin(n *ra.FullOuterJoin) (*Relation, error) {
	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}
	keys := naturalKeys(n.Cond, n.Left.Schema(), n.Right.Schema())
	keyset := map[string]bool{}
	for _, k := range keys {
		keyset[k] = true
	}
	var rows []Row
	rightMatched := make([]bool, len(right.Rows))
	for _, l := range left.Rows {
		matched := false
		for ri, r := range right.Rows {
			ok, err := matchesCond(n.Cond, l, n.Left.Schema(), r, n.Right.Schema(), keys)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				rightMatched[ri] = true
				rows = append(rows, joinRow(n.Cond, l, r, keyset))
			}
		}
		if !matched {
			rows = append(rows, joinRow(n.Cond, l, nullRow(n.Right.Schema()), keyset))
		}
	}
	for ri, r := range right.Rows {
		if !rightMatched[ri] {
			rows = append(rows, joinRow(n.Cond, nullRow(n.Left.Schema()), r, keyset))
		}
	}
	return &Relation{Schema: n.Schema(), Rows: rows}, nil
}

func evalSemiJoin(n *ra.SemiJoin) (*Relation, error) {
	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}
	keys := naturalKeys(n.Cond, n.Left.Schema(), n.Right.Schema())
	var rows []Row
	if n.PreserveLeft {
		for _, l := range left.Rows {
			for _, r := range right.Rows {
				ok, err := matchesCond(n.Cond, l, n.Left.Schema(), r, n.Right.Schema(), keys)
				if err != nil {
					return nil, err
				}
				if ok {
					rows = append(rows, l)
					break
				}
			}
		}
	} else {
		for _, r := range right.Rows {
			for _, l := range left.Rows {
				ok, err := matchesCond(n.Cond, l, n.Left.Schema(), r, n.Right.Schema(), keys)
				if err != nil {
					return nil, err
				}
				if ok {
					rows = append(rows, r)
					break
				}
			}
		}
	}
	return dedup(&Relation{Schema: n.Schema(), Rows: rows})
}

func evalAntiJoin(n *ra.AntiJoin) (*Relation, error) {
	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}
	keys := naturalKeys(n.Cond, n.Left.Schema(), n.Right.Schema())
	var rows []Row
	for _, l := range left.Rows {
		matched := false
		for _, r := range right.Rows {
			ok, err := matchesCond(n.Cond, l, n.Left.Schema(), r, n.Right.Schema(), keys)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			rows = append(rows, l)
		}
	}
	return dedup(&Relation{Schema: n.Schema(), Rows: rows})
}

// rowsEqual compares two rows field by field. A field of a that b
// does not carry under the same (alias, name) key is matched by column
// name alone, so rows of two schema-compatible operands that carry
// different relation aliases compare by value.
func rowsEqual(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok {
			bv, ok = lookupColumn(b, nil, "", k.Name)
		}
		if !ok || compare(v, bv) != 0 {
			return false
		}
	}
	return true
}

func evalUnion(n *ra.Union) (*Relation, error) {
	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}
	rows := append([]Row{}, left.Rows...)
	for _, r := range right.Rows {
		dup := false
		for _, l := range left.Rows {
			if rowsEqual(l, r) {
				dup = true
				break
			}
		}
		if !dup {
			rows = append(rows, r)
		}
	}
	return dedup(&Relation{Schema: n.Schema(), Rows: rows})
}

func evalIntersect(n *ra.Intersect) (*Relation, error) {
	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}
	var rows []Row
	for _, l := range left.Rows {
		for _, r := range right.Rows {
			if rowsEqual(l, r) {
				rows = append(rows, l)
				break
			}
		}
	}
	return dedup(&Relation{Schema: n.Schema(), Rows: rows})
}

func evalDifference(n *ra.Difference) (*Relation, error) {
	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}
	var rows []Row
	for _, l := range left.Rows {
		found := false
		for _, r := range right.Rows {
			if rowsEqual(l, r) {
				found = true
				break
			}
		}
		if !found {
			rows = append(rows, l)
		}
	}
	return &Relation{Schema: n.Schema(), Rows: rows}, nil
}

func evalDivision(n *ra.Division) (*Relation, error) {
	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}
	remaining := n.Schema()
	groups := map[string][]Row{}
	order := []string{}
	for _, l := range left.Rows {
		key := make(Row, len(remaining))
		for _, f := range remaining {
			key[Key{RelAlias: f.RelAlias, Name: f.Name}] = l[Key{RelAlias: f.RelAlias, Name: f.Name}]
		}
		ks := fmt.Sprint(key)
		if _, ok := groups[ks]; !ok {
			order = append(order, ks)
		}
		groups[ks] = append(groups[ks], l)
	}
	var rows []Row
	for _, ks := range order {
		grp := groups[ks]
		if satisfiesDivisor(grp, right.Rows) {
			rows = append(rows, projectFields(grp[0], remaining))
		}
	}
	return &Relation{Schema: n.Schema(), Rows: rows}, nil
}

func projectFields(r Row, schema ra.Schema) Row {
	out := make(Row, len(schema))
	for _, f := range schema {
		out[Key{RelAlias: f.RelAlias, Name: f.Name}] = r[Key{RelAlias: f.RelAlias, Name: f.Name}]
	}
	return out
}

func satisfiesDivisor(group []Row, divisor []Row) bool {
	for _, d := range divisor {
		ok := false
		for _, g := range group {
			match := true
			for k, v := range d {
				gv, found := lookupColumn(g, nil, "", k.Name)
				if !found || compare(gv, v) != 0 {
					match = false
					break
				}
			}
			if match {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func dedup(r *Relation) (*Relation, error) {
	buckets := make(map[uint64][]Row)
	var out []Row
	for _, row := range r.Rows {
		fp := rowFingerprint(row)
		dup := false
		for _, o := range buckets[fp] {
			if rowsEqual(row, o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, row)
			buckets[fp] = append(buckets[fp], row)
		}
	}
	r.Rows = out
	return r, nil
}
