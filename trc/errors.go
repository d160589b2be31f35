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

package trc

import (
	"fmt"
	"io"

	"github.com/relaq/relaq/trcast"
)

// nodeError is embedded by every translator error, carrying the
// offending AST node so a caller can recover its code region, the
// same shape as expr.CompileError, expr.TypeError and
// expr.SyntaxError.
type nodeError struct {
	At  trcast.Node
	Msg string
}

func (e *nodeError) Error() string { return e.Msg }

// WriteTo pretty-prints the error against the node's code region, if
// the parser attached one.
func (e *nodeError) WriteTo(w io.Writer) (int64, error) {
	region := e.At.Region()
	var n int
	var err error
	if region != nil && region.Text != "" {
		n, err = fmt.Fprintf(w, "%s\n  --> %s\n", e.Msg, region.Text)
	} else {
		n, err = fmt.Fprintln(w, e.Msg)
	}
	return int64(n), err
}

// UnknownRelation is returned when a RelationPredicate names a
// relation the catalog does not have.
type UnknownRelation struct {
	nodeError
	Relation string
}

func newUnknownRelation(at trcast.Node, name string) *UnknownRelation {
	return &UnknownRelation{
		nodeError: nodeError{At: at, Msg: fmt.Sprintf("unknown relation %q", name)},
		Relation:  name,
	}
}

// UnboundVariable is returned when an attribute reference or quantifier
// names a tuple variable E has no binding for, and by the pre-pass when
// a tuple variable is bound to two different relations.
type UnboundVariable struct {
	nodeError
	Variable string
}

func newUnboundVariable(at trcast.Node, v string) *UnboundVariable {
	return &UnboundVariable{
		nodeError: nodeError{At: at, Msg: fmt.Sprintf("unbound tuple variable %q", v)},
		Variable:  v,
	}
}

// NullBase is returned when a correlated quantifier or predicate is
// reached with no base relation in scope, indicating a malformed AST.
type NullBase struct {
	nodeError
}

func newNullBase(at trcast.Node) *NullBase {
	return &NullBase{nodeError{At: at, Msg: "correlated formula reached with no base relation in scope"}}
}

// UnsupportedNode is returned for a trcast.Node shape the translator
// does not (yet) implement.
type UnsupportedNode struct {
	nodeError
}

func newUnsupportedNode(at trcast.Node) *UnsupportedNode {
	return &UnsupportedNode{nodeError{At: at, Msg: fmt.Sprintf("unsupported TRC node %T", at)}}
}

// NegatedRelationPredicate is returned when a RelationPredicate atom
// R(v) is reached with a pending negation. R(v) binds a variable to
// a relation and cannot itself be sensibly negated without a base to
// subtract it from; it must appear only as the left operand of a
// logical expression.
type NegatedRelationPredicate struct {
	nodeError
}

func newNegatedRelationPredicate(at trcast.Node) *NegatedRelationPredicate {
	return &NegatedRelationPredicate{nodeError{At: at, Msg: "negated relation predicate has no base to restrict"}}
}
