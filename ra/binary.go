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

import "fmt"

// naturalResultSchema computes the schema of a natural join: the
// left schema in full, followed by the right schema with the join
// columns (matched by name) dropped so they are not duplicated.
func naturalResultSchema(cond JoinCondition, left, right Schema) Schema {
	keys := naturalJoinColumns(cond, left, right)
	keyset := make(map[string]bool, len(keys))
	for _, k := range keys {
		keyset[k] = true
	}
	out := append(Schema{}, left...)
	for _, f := range right {
		if !keyset[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

func joinResultSchema(cond JoinCondition, left, right Schema) Schema {
	if cond.Kind == NaturalJoin {
		return naturalResultSchema(cond, left, right)
	}
	return append(append(Schema{}, left...), right...)
}

// CrossJoin is the Cartesian product of its two children.
type CrossJoin struct {
	binary
}

// NewCrossJoin builds a CrossJoin.
func NewCrossJoin(left, right Op) *CrossJoin {
	return &CrossJoin{binary: binary{Left: left, Right: right}}
}

func (c *CrossJoin) Check() error {
	if err := c.Left.Check(); err != nil {
		return err
	}
	if err := c.Right.Check(); err != nil {
		return err
	}
	c.schema = append(append(Schema{}, c.Left.Schema()...), c.Right.Schema()...)
	return nil
}

func (c *CrossJoin) String() string { return fmt.Sprintf("(%s × %s)", c.Left, c.Right) }

type joinBase struct {
	binary
	Cond JoinCondition
}

func (j *joinBase) checkChildren() error {
	if err := j.Left.Check(); err != nil {
		return err
	}
	return j.Right.Check()
}

// InnerJoin returns the rows of Left and Right satisfying Cond.
type InnerJoin struct{ joinBase }

// NewInnerJoin builds an InnerJoin.
func NewInnerJoin(left, right Op, cond JoinCondition) *InnerJoin {
	return &InnerJoin{joinBase{binary: binary{Left: left, Right: right}, Cond: cond}}
}

func (j *InnerJoin) Check() error {
	if err := j.checkChildren(); err != nil {
		return err
	}
	j.schema = joinResultSchema(j.Cond, j.Left.Schema(), j.Right.Schema())
	return nil
}

func (j *InnerJoin) String() string {
	return fmt.Sprintf("(%s ⋈ %s %s)", j.Left, j.Cond, j.Right)
}

// LeftOuterJoin preserves every row of Left, padding with nulls
// where Cond has no match in Right.
type LeftOuterJoin struct{ joinBase }

// NewLeftOuterJoin builds a LeftOuterJoin.
func NewLeftOuterJoin(left, right Op, cond JoinCondition) *LeftOuterJoin {
	return &LeftOuterJoin{joinBase{binary: binary{Left: left, Right: right}, Cond: cond}}
}

func (j *LeftOuterJoin) Check() error {
	if err := j.checkChildren(); err != nil {
		return err
	}
	j.schema = joinResultSchema(j.Cond, j.Left.Schema(), j.Right.Schema())
	return nil
}

func (j *LeftOuterJoin) String() string {
	return fmt.Sprintf("(%s ⟕ %s %s)", j.Left, j.Cond, j.Right)
}

// RightOuterJoin preserves every row of Right, padding with nulls
// where Cond has no match in Left.
type RightOuterJoin struct{ joinBase }

// NewRightOuterJoin builds a RightOuterJoin.
func NewRightOuterJoin(left, right Op, cond JoinCondition) *RightOuterJoin {
	return &RightOuterJoin{joinBase{binary: binary{Left: left, Right: right}, Cond: cond}}
}

func (j *RightOuterJoin) Check() error {
	if err := j.checkChildren(); err != nil {
		return err
	}
	j.schema = joinResultSchema(j.Cond, j.Left.Schema(), j.Right.Schema())
	return nil
}

func (j *RightOuterJoin) String() string {
	return fmt.Sprintf("(%s ⟖ %s %s)", j.Left, j.Cond, j.Right)
}

// FullOuterJoin preserves every row of both children.
type FullOuterJoin struct{ joinBase }

// NewFullOuterJoin builds a FullOuterJoin.
func NewFullOuterJoin(left, right Op, cond JoinCondition) *FullOuterJoin {
	return &FullOuterJoin{joinBase{binary: binary{Left: left, Right: right}, Cond: cond}}
}

func (j *FullOuterJoin) Check() error {
	if err := j.checkChildren(); err != nil {
		return err
	}
	j.schema = joinResultSchema(j.Cond, j.Left.Schema(), j.Right.Schema())
	return nil
}

func (j *FullOuterJoin) String() string {
	return fmt.Sprintf("(%s ⟗ %s %s)", j.Left, j.Cond, j.Right)
}

// SemiJoin returns the rows of one side that have at least one
// matching row on the other, preserving only the kept side's schema.
// PreserveLeft selects which side is kept; the TRC translator
// always keeps the base/left side.
type SemiJoin struct {
	joinBase
	PreserveLeft bool
}

// NewSemiJoin builds a SemiJoin.
func NewSemiJoin(left, right Op, cond JoinCondition, preserveLeft bool) *SemiJoin {
	return &SemiJoin{joinBase: joinBase{binary: binary{Left: left, Right: right}, Cond: cond}, PreserveLeft: preserveLeft}
}

func (j *SemiJoin) Check() error {
	if err := j.checkChildren(); err != nil {
		return err
	}
	if j.PreserveLeft {
		j.schema = j.Left.Schema()
	} else {
		j.schema = j.Right.Schema()
	}
	return nil
}

func (j *SemiJoin) String() string {
	side := "left"
	if !j.PreserveLeft {
		side = "right"
	}
	return fmt.Sprintf("(%s ⋉[%s] %s %s)", j.Left, side, j.Cond, j.Right)
}

// AntiJoin returns the rows of Left with no matching row in Right,
// preserving Left's schema.
type AntiJoin struct{ joinBase }

// NewAntiJoin builds an AntiJoin.
func NewAntiJoin(left, right Op, cond JoinCondition) *AntiJoin {
	return &AntiJoin{joinBase{binary: binary{Left: left, Right: right}, Cond: cond}}
}

func (j *AntiJoin) Check() error {
	if err := j.checkChildren(); err != nil {
		return err
	}
	j.schema = j.Left.Schema()
	return nil
}

func (j *AntiJoin) String() string {
	return fmt.Sprintf("(%s ▷ %s %s)", j.Left, j.Cond, j.Right)
}

// setOp is embedded by the three schema-preserving set operators.
type setOp struct {
	binary
	symbol string
}

func (s *setOp) check() error {
	if err := s.Left.Check(); err != nil {
		return err
	}
	if err := s.Right.Check(); err != nil {
		return err
	}
	if !s.Left.Schema().Compatible(s.Right.Schema()) {
		return errorf(s.region, "%s requires compatible schemas on both operands", s.symbol)
	}
	s.schema = s.Left.Schema()
	return nil
}

func (s *setOp) String() string { return fmt.Sprintf("(%s %s %s)", s.Left, s.symbol, s.Right) }

// Union returns the set union of its two (schema-compatible) children.
type Union struct{ setOp }

// NewUnion builds a Union.
func NewUnion(left, right Op) *Union {
	u := &Union{setOp{binary: binary{Left: left, Right: right}, symbol: "∪"}}
	return u
}

func (u *Union) Check() error { return u.check() }

// Intersect returns the set intersection of its two (schema-compatible) children.
type Intersect struct{ setOp }

// NewIntersect builds an Intersect.
func NewIntersect(left, right Op) *Intersect {
	return &Intersect{setOp{binary: binary{Left: left, Right: right}, symbol: "∩"}}
}

func (i *Intersect) Check() error { return i.check() }

// Difference returns the rows of Left with no matching row in Right (Left − Right).
type Difference struct{ setOp }

// NewDifference builds a Difference.
func NewDifference(left, right Op) *Difference {
	return &Difference{setOp{binary: binary{Left: left, Right: right}, symbol: "−"}}
}

func (d *Difference) Check() error { return d.check() }

// Division returns the rows of Left's non-shared columns that pair
// with every row of Right under the shared columns.
type Division struct {
	binary
}

// NewDivision builds a Division.
func NewDivision(left, right Op) *Division {
	return &Division{binary{Left: left, Right: right}}
}

func (d *Division) Check() error {
	if err := d.Left.Check(); err != nil {
		return err
	}
	if err := d.Right.Check(); err != nil {
		return err
	}
	ls, rs := d.Left.Schema(), d.Right.Schema()
	rset := make(map[string]bool, len(rs))
	for _, f := range rs {
		rset[f.Name] = true
	}
	var out Schema
	matched := 0
	for _, f := range ls {
		if rset[f.Name] {
			matched++
			continue
		}
		out = append(out, f)
	}
	if matched != len(rs) {
		return errorf(d.region, "division requires the divisor's columns to be a subset of the dividend's")
	}
	d.schema = out
	return nil
}

func (d *Division) String() string { return fmt.Sprintf("(%s ÷ %s)", d.Left, d.Right) }
