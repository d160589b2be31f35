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

// Package catalog implements the read-only mapping from relation
// name to relation handle that every translator front end resolves
// its table references against.
package catalog

import (
	"fmt"

	"github.com/relaq/relaq/value"

	"golang.org/x/exp/slices"
)

// Column is a single schema entry: a name qualified by the relation
// it belongs to, with a declared type.
type Column struct {
	Name string
	Type value.Type
}

// Schema is an ordered list of qualified columns.
type Schema []Column

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Has reports whether the schema declares a column with the given name.
func (s Schema) Has(name string) bool {
	for _, c := range s {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Lookup returns the column with the given name.
func (s Schema) Lookup(name string) (Column, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Equal reports whether two schemas declare the same column names, in
// any order; column types are not compared.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	a := slices.Clone(s.Names())
	b := slices.Clone(o.Names())
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// Row is a single tuple, keyed by (unqualified) column name.
type Row map[string]interface{}

// Relation is an immutable handle identifying a relation in the
// catalog: its name, its schema, and, for test fixtures, its
// inline rows.
type Relation struct {
	Name   string
	Schema Schema
	Rows   []Row
}

// Copy returns a handle safe to embed as a leaf of an RA tree: it
// shares no mutable backing array with the catalog's own copy, so
// mutating the catalog after Copy returns cannot affect the copy.
func (r *Relation) Copy() *Relation {
	if r == nil {
		return nil
	}
	out := &Relation{
		Name:   r.Name,
		Schema: slices.Clone(r.Schema),
	}
	if r.Rows != nil {
		out.Rows = make([]Row, len(r.Rows))
		for i, row := range r.Rows {
			cp := make(Row, len(row))
			for k, v := range row {
				cp[k] = v
			}
			out.Rows[i] = cp
		}
	}
	return out
}

// Catalog is a read-only mapping from relation name to relation
// handle. The translator never mutates a Catalog; it defensively
// copies every relation it resolves before embedding it in the
// produced RA tree (see [Relation.Copy]), so the returned tree is
// safe to evaluate even if the caller later mutates the catalog.
type Catalog interface {
	// Lookup returns the relation registered under name, or an error
	// if no such relation exists.
	Lookup(name string) (*Relation, error)
}

// ErrUnknownRelation is returned by Lookup when name is not registered.
type ErrUnknownRelation struct {
	Name string
}

func (e *ErrUnknownRelation) Error() string {
	return fmt.Sprintf("unknown relation %q", e.Name)
}

// Map is the simplest Catalog implementation: a plain map from name
// to relation, suitable for tests and small in-memory catalogs.
type Map map[string]*Relation

// Lookup implements Catalog.
func (m Map) Lookup(name string) (*Relation, error) {
	r, ok := m[name]
	if !ok {
		return nil, &ErrUnknownRelation{Name: name}
	}
	return r, nil
}
