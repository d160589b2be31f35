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

package translator

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/relaq/relaq/catalog"
	"github.com/relaq/relaq/raast"
	"github.com/relaq/relaq/sqlast"
	"github.com/relaq/relaq/trcast"
	"github.com/relaq/relaq/value"
)

func fixtureCatalog() catalog.Catalog {
	return catalog.Map{
		"R": &catalog.Relation{
			Name:   "R",
			Schema: catalog.Schema{{Name: "a", Type: value.TypeNumber}},
			Rows:   []catalog.Row{{"a": 1}, {"a": 2}},
		},
	}
}

func newTranslator() (*Translator, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Translator{Logger: log.New(&buf, "", 0)}, &buf
}

func TestTranslatorTRCLogsStartAndOK(t *testing.T) {
	tr, buf := newTranslator()
	root := &trcast.Expr{
		Variable: "t",
		Formula: &trcast.LogicalExpression{
			Operator: trcast.And,
			Left:     &trcast.RelationPredicate{Variable: "t", Relation: "R"},
			Right: &trcast.Predicate{
				Left:     trcast.AttrRef{Variable: "t", Attribute: "a"},
				Operator: trcast.Gt,
				Right:    &trcast.Literal{Value: 0, Type: "number"},
			},
		},
	}
	op, err := tr.TRC(root, fixtureCatalog())
	if err != nil {
		t.Fatalf("TRC: %v", err)
	}
	if op == nil {
		t.Fatal("expected a non-nil RA tree")
	}
	out := buf.String()
	if !strings.Contains(out, "start (trc)") || !strings.Contains(out, ": ok") {
		t.Errorf("expected start/ok log lines, got %q", out)
	}
}

func TestTranslatorTRCFailureWrapsErrorWithID(t *testing.T) {
	tr, buf := newTranslator()
	root := &trcast.Expr{
		Variable: "t",
		Formula:  &trcast.RelationPredicate{Variable: "t", Relation: "Missing"},
	}
	_, err := tr.TRC(root, fixtureCatalog())
	if err == nil {
		t.Fatal("expected an error for an unknown relation")
	}
	terr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if terr.ID.String() == "" {
		t.Error("expected a non-empty translation ID")
	}
	if terr.Unwrap() == nil {
		t.Error("expected Unwrap to return the underlying error")
	}
	if !strings.Contains(buf.String(), "failed") {
		t.Errorf("expected a failure log line, got %q", buf.String())
	}
}

func TestTranslatorSQL(t *testing.T) {
	tr, _ := newTranslator()
	sel := &sqlast.Select{
		Distinct: true,
		From:     sqlast.NewTable("R", ""),
		Limit:    -1,
	}
	if _, err := tr.SQL(sel, fixtureCatalog()); err != nil {
		t.Fatalf("SQL: %v", err)
	}
}

func TestTranslatorSQLSet(t *testing.T) {
	tr, _ := newTranslator()
	left := &sqlast.Select{Distinct: true, From: sqlast.NewTable("R", ""), Limit: -1}
	right := &sqlast.Select{Distinct: true, From: sqlast.NewTable("R", ""), Limit: -1}
	q := &sqlast.SetQuery{Op: sqlast.Union, Left: left, Right: right}
	if _, err := tr.SQLSet(q, fixtureCatalog()); err != nil {
		t.Fatalf("SQLSet: %v", err)
	}
}

func TestTranslatorRA(t *testing.T) {
	tr, _ := newTranslator()
	if _, err := tr.RA(&raast.Relation{Name: "R"}, fixtureCatalog()); err != nil {
		t.Fatalf("RA: %v", err)
	}
}

func TestTranslatorDefaultLoggerDoesNotPanic(t *testing.T) {
	tr := &Translator{}
	if _, err := tr.RA(&raast.Relation{Name: "R"}, fixtureCatalog()); err != nil {
		t.Fatalf("RA: %v", err)
	}
}
