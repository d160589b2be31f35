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
	"testing"

	"github.com/relaq/relaq/catalog"
	"github.com/relaq/relaq/value"
)

func rel(name string, cols ...string) *Relation {
	schema := make(catalog.Schema, len(cols))
	for i, c := range cols {
		schema[i] = catalog.Column{Name: c, Type: value.TypeNumber}
	}
	return NewRelation(&catalog.Relation{Name: name, Schema: schema})
}

func TestSchemaLookup(t *testing.T) {
	s := Schema{{RelAlias: "r", Name: "a"}, {RelAlias: "s", Name: "a"}, {RelAlias: "s", Name: "b"}}
	if _, ok := s.Lookup("", "b"); !ok {
		t.Errorf("unqualified unique lookup of b should succeed")
	}
	if _, ok := s.Lookup("", "a"); ok {
		t.Errorf("unqualified ambiguous lookup of a should fail")
	}
	if f, ok := s.Lookup("r", "a"); !ok || f.RelAlias != "r" {
		t.Errorf("qualified lookup of r.a should succeed and return r's field")
	}
}

func TestSchemaCompatible(t *testing.T) {
	a := Schema{{Name: "x"}, {Name: "y"}}
	b := Schema{{Name: "y"}, {Name: "x"}}
	if !a.Compatible(b) {
		t.Errorf("schemas with same column names in different order should be Compatible")
	}
	c := Schema{{Name: "x"}}
	if a.Compatible(c) {
		t.Errorf("schemas of different length should not be Compatible")
	}
}

func TestRelationCheck(t *testing.T) {
	r := rel("R", "a", "b")
	if err := r.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(r.Schema()) != 2 {
		t.Fatalf("schema length = %d, want 2", len(r.Schema()))
	}
	if r.Schema()[0].RelAlias != "R" {
		t.Errorf("leaf schema should be aliased to the relation name by default")
	}
}

func TestProjectionCheck(t *testing.T) {
	r := rel("R", "a", "b")
	p := NewProjection(r, value.QualifiedColumn("R", "b"))
	if err := p.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got := p.Schema().Names(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("projection schema = %v, want [b]", got)
	}
}

func TestProjectionUnresolvedColumn(t *testing.T) {
	r := rel("R", "a")
	p := NewProjection(r, value.QualifiedColumn("R", "missing"))
	if err := p.Check(); err == nil {
		t.Fatal("expected an error projecting an unresolved column")
	}
}

func TestSelectionPreservesSchema(t *testing.T) {
	r := rel("R", "a")
	s := NewSelection(r, value.Cmp(value.OpGt, value.QualifiedColumn("R", "a"), value.Const(value.TypeNumber, 3)))
	if err := s.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !s.Schema().Compatible(r.Schema()) {
		t.Errorf("selection must preserve its child's schema")
	}
}

func TestUnionRequiresCompatibleSchemas(t *testing.T) {
	r := rel("R", "a", "b")
	s := rel("S", "a")
	u := NewUnion(r, s)
	if err := u.Check(); err == nil {
		t.Fatal("expected an error unioning incompatible schemas")
	}
}

func TestSemiJoinPreservesChosenSide(t *testing.T) {
	r := rel("R", "a", "b")
	s := rel("S", "b", "c")
	left := NewSemiJoin(r, s, Natural(), true)
	if err := left.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !left.Schema().Compatible(r.Schema()) {
		t.Errorf("left-preserving semi-join should keep left's schema")
	}

	right := NewSemiJoin(r, s, Natural(), false)
	if err := right.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !right.Schema().Compatible(s.Schema()) {
		t.Errorf("right-preserving semi-join should keep right's schema")
	}
}

func TestNaturalJoinSchemaDropsSharedColumns(t *testing.T) {
	r := rel("R", "a", "b")
	s := rel("S", "b", "c")
	j := NewInnerJoin(r, s, Natural())
	if err := j.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	names := j.Schema().Names()
	if len(names) != 3 {
		t.Fatalf("natural join schema = %v, want 3 columns (a, b, c)", names)
	}
}

func TestDivisionRequiresSubsetColumns(t *testing.T) {
	r := rel("R", "a", "b")
	s := rel("S", "z")
	d := NewDivision(r, s)
	if err := d.Check(); err == nil {
		t.Fatal("expected an error dividing by a non-subset schema")
	}
}

func TestDivisionSchema(t *testing.T) {
	r := rel("R", "a", "b")
	s := rel("S", "b")
	d := NewDivision(r, s)
	if err := d.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	names := d.Schema().Names()
	if len(names) != 1 || names[0] != "a" {
		t.Fatalf("division schema = %v, want [a]", names)
	}
}

// countingVisitor counts visited nodes for Walk.
type countingVisitor struct{ n int }

func (c *countingVisitor) Visit(Op) Visitor {
	c.n++
	return c
}

func TestWalkVisitsChildren(t *testing.T) {
	r := rel("R", "a")
	s := rel("S", "b")
	tree := NewCrossJoin(r, s)
	v := &countingVisitor{}
	Walk(v, tree)
	if v.n != 3 {
		t.Errorf("Walk visited %d nodes, want 3", v.n)
	}
}

func TestAddWarning(t *testing.T) {
	r := rel("R", "a")
	r.AddWarning("example warning", nil)
	if len(r.Warnings()) != 1 {
		t.Fatalf("expected one warning, got %d", len(r.Warnings()))
	}
}

func TestRowNumberAppendsColumn(t *testing.T) {
	r := rel("R", "a")
	n := NewRowNumber(r)
	if err := n.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	names := n.Schema().Names()
	if names[len(names)-1] != "rownum" {
		t.Fatalf("RowNumber schema = %v, want trailing rownum column", names)
	}
}
