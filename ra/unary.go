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
	"strings"

	"github.com/relaq/relaq/value"
)

// Projection restricts the child's schema to the listed columns, in
// the order given.
type Projection struct {
	unary
	Columns []*value.ColumnValue
}

// NewProjection builds a Projection over child.
func NewProjection(child Op, cols ...*value.ColumnValue) *Projection {
	return &Projection{unary: unary{Child: child}, Columns: cols}
}

func (p *Projection) Check() error {
	if err := p.Child.Check(); err != nil {
		return err
	}
	cs := p.Child.Schema()
	out := make(Schema, len(p.Columns))
	for i, c := range p.Columns {
		f, ok := cs.Lookup(c.RelAlias, c.Name)
		if !ok {
			return errorf(p.region, "projection references unresolved column %q", c.String())
		}
		out[i] = f
	}
	p.schema = out
	return nil
}

func (p *Projection) String() string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.String()
	}
	return fmt.Sprintf("π %s (%s)", strings.Join(names, ","), p.Child)
}

// Selection filters the child's rows by a boolean predicate.
type Selection struct {
	unary
	Predicate value.Node
}

// NewSelection builds a Selection over child.
func NewSelection(child Op, pred value.Node) *Selection {
	return &Selection{unary: unary{Child: child}, Predicate: pred}
}

func (s *Selection) Check() error {
	if err := s.Child.Check(); err != nil {
		return err
	}
	s.schema = s.Child.Schema()
	return nil
}

func (s *Selection) String() string {
	return fmt.Sprintf("σ %s (%s)", s.Predicate, s.Child)
}

// RenameRelation rebinds every column of the child to a new relation
// alias, leaving column names untouched.
type RenameRelation struct {
	unary
	NewAlias string
}

// NewRenameRelation builds a RenameRelation over child.
func NewRenameRelation(child Op, newAlias string) *RenameRelation {
	return &RenameRelation{unary: unary{Child: child}, NewAlias: newAlias}
}

func (r *RenameRelation) Check() error {
	if err := r.Child.Check(); err != nil {
		return err
	}
	cs := r.Child.Schema()
	out := make(Schema, len(cs))
	for i, f := range cs {
		out[i] = Field{RelAlias: r.NewAlias, Name: f.Name, Type: f.Type}
	}
	r.schema = out
	return nil
}

func (r *RenameRelation) String() string {
	return fmt.Sprintf("ρ %s (%s)", r.NewAlias, r.Child)
}

// RenameColumns renames a subset of the child's columns, leaving
// their relation alias and type untouched.
type RenameColumns struct {
	unary
	Mapping map[string]string // old name -> new name
}

// NewRenameColumns builds a RenameColumns over child.
func NewRenameColumns(child Op, mapping map[string]string) *RenameColumns {
	return &RenameColumns{unary: unary{Child: child}, Mapping: mapping}
}

func (r *RenameColumns) Check() error {
	if err := r.Child.Check(); err != nil {
		return err
	}
	cs := r.Child.Schema()
	out := make(Schema, len(cs))
	for i, f := range cs {
		name := f.Name
		if to, ok := r.Mapping[f.Name]; ok {
			name = to
		}
		out[i] = Field{RelAlias: f.RelAlias, Name: name, Type: f.Type}
	}
	r.schema = out
	return nil
}

func (r *RenameColumns) String() string {
	return fmt.Sprintf("ρ %v (%s)", r.Mapping, r.Child)
}

// OrderBy sorts the child's rows by the given columns.
type OrderBy struct {
	unary
	Columns []*value.ColumnValue
	Asc     []bool
}

// NewOrderBy builds an OrderBy over child.
func NewOrderBy(child Op, cols []*value.ColumnValue, asc []bool) *OrderBy {
	return &OrderBy{unary: unary{Child: child}, Columns: cols, Asc: asc}
}

func (o *OrderBy) Check() error {
	if err := o.Child.Check(); err != nil {
		return err
	}
	cs := o.Child.Schema()
	for _, c := range o.Columns {
		if _, ok := cs.Lookup(c.RelAlias, c.Name); !ok {
			return errorf(o.region, "order by references unresolved column %q", c.String())
		}
	}
	o.schema = cs
	return nil
}

func (o *OrderBy) String() string {
	names := make([]string, len(o.Columns))
	for i, c := range o.Columns {
		dir := "asc"
		if i < len(o.Asc) && !o.Asc[i] {
			dir = "desc"
		}
		names[i] = fmt.Sprintf("%s %s", c, dir)
	}
	return fmt.Sprintf("τ %s (%s)", strings.Join(names, ","), o.Child)
}

// AggCall is a single aggregate computed by a GroupBy: Func applied
// to Arg (nil for COUNT(*)), bound to the output column Name.
type AggCall struct {
	Name string
	Func string
	Arg  value.Node
	Type value.Type
}

// GroupBy partitions the child's rows by GroupCols and computes Aggs
// over each partition.
type GroupBy struct {
	unary
	GroupCols []*value.ColumnValue
	Aggs      []AggCall
}

// NewGroupBy builds a GroupBy over child.
func NewGroupBy(child Op, groupCols []*value.ColumnValue, aggs []AggCall) *GroupBy {
	return &GroupBy{unary: unary{Child: child}, GroupCols: groupCols, Aggs: aggs}
}

func (g *GroupBy) Check() error {
	if err := g.Child.Check(); err != nil {
		return err
	}
	cs := g.Child.Schema()
	out := make(Schema, 0, len(g.GroupCols)+len(g.Aggs))
	for _, c := range g.GroupCols {
		f, ok := cs.Lookup(c.RelAlias, c.Name)
		if !ok {
			return errorf(g.region, "group by references unresolved column %q", c.String())
		}
		out = append(out, f)
	}
	for _, a := range g.Aggs {
		out = append(out, Field{Name: a.Name, Type: a.Type})
	}
	g.schema = out
	return nil
}

func (g *GroupBy) String() string {
	names := make([]string, len(g.GroupCols))
	for i, c := range g.GroupCols {
		names[i] = c.String()
	}
	aggs := make([]string, len(g.Aggs))
	for i, a := range g.Aggs {
		aggs[i] = fmt.Sprintf("%s(%v) as %s", a.Func, a.Arg, a.Name)
	}
	return fmt.Sprintf("γ %s; %s (%s)", strings.Join(names, ","), strings.Join(aggs, ","), g.Child)
}
