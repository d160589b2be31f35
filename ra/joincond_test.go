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

	"github.com/relaq/relaq/value"
)

func TestDecodeJoinCondition(t *testing.T) {
	cond, err := DecodeJoinCondition(nil)
	if err != nil || cond.Kind != NaturalJoin || len(cond.RestrictToColumns) != 0 {
		t.Fatalf("nil should decode to an unrestricted natural join, got %+v, err %v", cond, err)
	}

	cond, err = DecodeJoinCondition([]string{"a", "b"})
	if err != nil || cond.Kind != NaturalJoin || len(cond.RestrictToColumns) != 2 {
		t.Fatalf("[]string should decode to a restricted natural join, got %+v, err %v", cond, err)
	}

	expr := value.Cmp(value.OpEq, value.Column("a"), value.Column("b"))
	cond, err = DecodeJoinCondition(expr)
	if err != nil || cond.Kind != ThetaJoin || cond.Expression != value.Node(expr) {
		t.Fatalf("a value.Node should decode to a theta join, got %+v, err %v", cond, err)
	}

	if _, err := DecodeJoinCondition(42); err == nil {
		t.Fatal("expected an error for an unsupported join condition literal")
	}
}

func TestNaturalJoinColumnsDefaultsToSharedColumns(t *testing.T) {
	left := Schema{{Name: "a"}, {Name: "b"}}
	right := Schema{{Name: "b"}, {Name: "c"}}
	keys := naturalJoinColumns(Natural(), left, right)
	if len(keys) != 1 || keys[0] != "b" {
		t.Fatalf("naturalJoinColumns = %v, want [b]", keys)
	}
}

func TestNaturalJoinColumnsRespectsRestriction(t *testing.T) {
	left := Schema{{Name: "a"}, {Name: "b"}}
	right := Schema{{Name: "a"}, {Name: "b"}}
	keys := naturalJoinColumns(Natural("a"), left, right)
	if len(keys) != 1 || keys[0] != "a" {
		t.Fatalf("naturalJoinColumns = %v, want [a]", keys)
	}
}
