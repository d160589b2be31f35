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

// RowNumber appends a synthetic, unqualified "rownum" column carrying
// each row's 1-based ordinal position to the child's schema. It
// exists for the SQL front end's LIMIT/OFFSET lowering: a
// LIMIT n OFFSET k clause becomes a Selection over RowNumber(OrderBy(...))
// filtering rownum > k and rownum <= n+k, since plain relational
// algebra has no positional concept on its own.
type RowNumber struct {
	unary
}

// NewRowNumber builds a RowNumber over child.
func NewRowNumber(child Op) *RowNumber {
	return &RowNumber{unary: unary{Child: child}}
}

func (r *RowNumber) Check() error {
	if err := r.Child.Check(); err != nil {
		return err
	}
	r.schema = append(append(Schema{}, r.Child.Schema()...), Field{Name: "rownum", Type: value.TypeNumber})
	return nil
}

func (r *RowNumber) String() string { return fmt.Sprintf("ρ# (%s)", r.Child) }
