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
	"github.com/relaq/relaq/catalog"
)

// Relation is the sole leaf of the RA tree: a catalog lookup result,
// already defensively copied so the tree owns it independently of
// the catalog.
type Relation struct {
	base
	Rel   *catalog.Relation
	Alias string
}

// NewRelation wraps an already-copied catalog relation as a leaf,
// aliased to its own name.
func NewRelation(rel *catalog.Relation) *Relation {
	return &Relation{Rel: rel, Alias: rel.Name}
}

func (r *Relation) Children() []Op { return nil }

func (r *Relation) Check() error {
	if r.Rel == nil {
		return errorf(r.region, "relation leaf has no backing catalog relation")
	}
	s := make(Schema, len(r.Rel.Schema))
	for i, c := range r.Rel.Schema {
		s[i] = Field{RelAlias: r.Alias, Name: c.Name, Type: c.Type}
	}
	r.schema = s
	return nil
}

func (r *Relation) String() string {
	if r.Alias != "" && r.Alias != r.Rel.Name {
		return r.Rel.Name + " as " + r.Alias
	}
	return r.Rel.Name
}
