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
	"sort"

	"github.com/relaq/relaq/trcast"

	"golang.org/x/exp/maps"
)

// env is the reference environment E: a write-once map from tuple
// variable to the relation name it is bound to, built in a single
// pre-pass over the formula before translation begins, the same
// build-before-rewrite structure plan/pir uses to collect bindings
// before rewriting a query. Every RelationPredicate in the formula
// must be visited once before rec() can resolve an attribute
// reference.
type env map[string]string

// buildEnv walks formula collecting every RelationPredicate's
// variable -> relation binding. A variable may be bound more than
// once only if every binding agrees on the relation name (the same
// R(t) atom repeated harmlessly); a conflicting rebinding is an error.
func buildEnv(formula trcast.Node) (env, error) {
	e := env{}
	if err := collectEnv(formula, e); err != nil {
		return nil, err
	}
	return e, nil
}

func collectEnv(n trcast.Node, e env) error {
	switch node := n.(type) {
	case *trcast.RelationPredicate:
		if existing, ok := e[node.Variable]; ok && existing != node.Relation {
			return newUnboundVariable(node, node.Variable)
		}
		e[node.Variable] = node.Relation
		return nil
	case *trcast.Negation:
		return collectEnv(node.Formula, e)
	case *trcast.QuantifiedExpression:
		return collectEnv(node.Formula, e)
	case *trcast.LogicalExpression:
		if err := collectEnv(node.Left, e); err != nil {
			return err
		}
		return collectEnv(node.Right, e)
	case *trcast.Predicate, nil:
		return nil
	default:
		return newUnsupportedNode(n)
	}
}

// names returns every bound tuple variable in sorted order, for tests
// that need a deterministic listing.
func (e env) names() []string {
	keys := maps.Keys(e)
	sort.Strings(keys)
	return keys
}
