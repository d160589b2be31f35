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

// Package translator wraps the three front-end entry points (trc,
// sql, identity) with the correlation-ID logging every call gets,
// the same pattern cmd/snellerd's request handlers use: each
// translation mints a uuid, logs its start and outcome through it,
// and carries the ID on a failed translation's error so a caller can
// line a failure up against the log.
package translator

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/relaq/relaq/catalog"
	"github.com/relaq/relaq/identity"
	"github.com/relaq/relaq/ra"
	"github.com/relaq/relaq/raast"
	"github.com/relaq/relaq/sql"
	"github.com/relaq/relaq/sqlast"
	"github.com/relaq/relaq/trc"
	"github.com/relaq/relaq/trcast"
)

// Translator runs any of the three translation entry points, logging
// each call's start and outcome. The zero value logs through
// log.Default().
type Translator struct {
	// Logger receives one line per translation start and one per
	// outcome. Defaults to log.Default() when nil.
	Logger *log.Logger
}

func (t *Translator) logger() *log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.Default()
}

// Error wraps a front end's error with the translation ID that was
// logged alongside it.
type Error struct {
	ID  uuid.UUID
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("translation %s: %v", e.ID, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// TRC translates a Tuple Relational Calculus expression.
func (t *Translator) TRC(root *trcast.Expr, cat catalog.Catalog) (ra.Op, error) {
	id := uuid.New()
	l := t.logger()
	l.Printf("translation %s: start (trc)", id)
	op, err := trc.Translate(root, cat)
	if err != nil {
		l.Printf("translation %s: failed: %v", id, err)
		return nil, &Error{ID: id, Err: err}
	}
	l.Printf("translation %s: ok", id)
	return op, nil
}

// SQL translates a single SELECT statement.
func (t *Translator) SQL(sel *sqlast.Select, cat catalog.Catalog) (ra.Op, error) {
	id := uuid.New()
	l := t.logger()
	l.Printf("translation %s: start (sql)", id)
	op, err := sql.Translate(sel, cat)
	if err != nil {
		l.Printf("translation %s: failed: %v", id, err)
		return nil, &Error{ID: id, Err: err}
	}
	l.Printf("translation %s: ok", id)
	return op, nil
}

// SQLSet translates a UNION/INTERSECT/EXCEPT of two SELECTs.
func (t *Translator) SQLSet(q *sqlast.SetQuery, cat catalog.Catalog) (ra.Op, error) {
	id := uuid.New()
	l := t.logger()
	l.Printf("translation %s: start (sql set)", id)
	op, err := sql.TranslateSet(q, cat)
	if err != nil {
		l.Printf("translation %s: failed: %v", id, err)
		return nil, &Error{ID: id, Err: err}
	}
	l.Printf("translation %s: ok", id)
	return op, nil
}

// RA translates a native relational-algebra AST.
func (t *Translator) RA(n raast.Node, cat catalog.Catalog) (ra.Op, error) {
	id := uuid.New()
	l := t.logger()
	l.Printf("translation %s: start (ra)", id)
	op, err := identity.Translate(n, cat)
	if err != nil {
		l.Printf("translation %s: failed: %v", id, err)
		return nil, &Error{ID: id, Err: err}
	}
	l.Printf("translation %s: ok", id)
	return op, nil
}
