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
	"testing"

	"github.com/relaq/relaq/catalog"
	"github.com/relaq/relaq/raeval"
	"github.com/relaq/relaq/trcast"
	"github.com/relaq/relaq/value"
)

// fixtureCatalog builds the R/S fixtures fresh for every test, so
// no test can observe another's mutations.
func fixtureCatalog() catalog.Map {
	r := &catalog.Relation{
		Name:   "R",
		Schema: catalog.Schema{{Name: "a", Type: value.TypeNumber}, {Name: "b", Type: value.TypeString}, {Name: "c", Type: value.TypeString}},
		Rows: []catalog.Row{
			{"a": 1, "b": "a", "c": "d"},
			{"a": 3, "b": "c", "c": "c"},
			{"a": 4, "b": "d", "c": "f"},
			{"a": 5, "b": "d", "c": "b"},
			{"a": 6, "b": "e", "c": "f"},
			{"a": 1000, "b": "e", "c": "k"},
		},
	}
	s := &catalog.Relation{
		Name:   "S",
		Schema: catalog.Schema{{Name: "b", Type: value.TypeString}, {Name: "d", Type: value.TypeNumber}},
		Rows: []catalog.Row{
			{"b": "a", "d": 100},
			{"b": "b", "d": 300},
			{"b": "c", "d": 400},
			{"b": "d", "d": 200},
			{"b": "e", "d": 150},
		},
	}
	return catalog.Map{"R": r, "S": s}
}

func attr(v, a string) trcast.AttrRef { return trcast.AttrRef{Variable: v, Attribute: a} }

func lit(typ string, val interface{}) *trcast.Literal { return &trcast.Literal{Type: typ, Value: val} }

func cmp(v, a string, op trcast.CmpOp, rhs trcast.Node) *trcast.Predicate {
	return &trcast.Predicate{Left: attr(v, a), Operator: op, Right: rhs}
}

func relPred(v, r string) *trcast.RelationPredicate {
	return &trcast.RelationPredicate{Variable: v, Relation: r}
}

func and(l, r trcast.Node) *trcast.LogicalExpression {
	return &trcast.LogicalExpression{Operator: trcast.And, Left: l, Right: r}
}

func or(l, r trcast.Node) *trcast.LogicalExpression {
	return &trcast.LogicalExpression{Operator: trcast.Or, Left: l, Right: r}
}

func implies(l, r trcast.Node) *trcast.LogicalExpression {
	return &trcast.LogicalExpression{Operator: trcast.Implies, Left: l, Right: r}
}

func not(f trcast.Node) *trcast.Negation { return &trcast.Negation{Formula: f} }

func exists(v string, f trcast.Node) *trcast.QuantifiedExpression {
	return &trcast.QuantifiedExpression{Quantifier: trcast.Exists, Variable: v, Formula: f}
}

func forAll(v string, f trcast.Node) *trcast.QuantifiedExpression {
	return &trcast.QuantifiedExpression{Quantifier: trcast.ForAll, Variable: v, Formula: f}
}

// runEval translates and evaluates root, returning the result rows as
// sorted, comparable strings (ignoring relation-alias qualification,
// which every scenario below projects away anyway).
func runEval(t *testing.T, root *trcast.Expr, cat catalog.Catalog) []string {
	t.Helper()
	op, err := Translate(root, cat)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	rel, err := raeval.Eval(op)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	return rowStrings(rel)
}

func rowStrings(rel *raeval.Relation) []string {
	out := make([]string, len(rel.Rows))
	for i, row := range rel.Rows {
		names := make([]string, 0, len(rel.Schema))
		for _, f := range rel.Schema {
			names = append(names, f.Name)
		}
		sort.Strings(names)
		s := ""
		for _, n := range names {
			for k, v := range row {
				if k.Name == n {
					s += n + "="
					s += toStr(v)
					s += ";"
					break
				}
			}
		}
		out[i] = s
	}
	sort.Strings(out)
	return out
}

func toStr(v interface{}) string {
	return sprintValue(v)
}

func sprintValue(v interface{}) string {
	switch n := v.(type) {
	case int:
		return itoa(n)
	default:
		return sprintf(v)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func sprintf(v interface{}) string {
	return "" + fmtV(v)
}

func fmtV(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// T1: { t | R(t) ∧ t.a > 3 } -> rows with a in {4,5,6,1000}
func TestScenarioT1(t *testing.T) {
	root := &trcast.Expr{
		Variable:    "t",
		Projections: []string{"a"},
		Formula:     and(relPred("t", "R"), cmp("t", "a", trcast.Gt, lit("number", 3))),
	}
	got := runEval(t, root, fixtureCatalog())
	want := []string{"a=1000;", "a=4;", "a=5;", "a=6;"}
	sort.Strings(want)
	assertRowsEqual(t, got, want)
}

// T2: { t | R(t) ∧ ¬(t.a < 5 ∧ t.a > 3) } -> a <= 3 ∨ a >= 5
func TestScenarioT2(t *testing.T) {
	root := &trcast.Expr{
		Variable:    "t",
		Projections: []string{"a"},
		Formula: and(relPred("t", "R"),
			not(and(cmp("t", "a", trcast.Lt, lit("number", 5)), cmp("t", "a", trcast.Gt, lit("number", 3))))),
	}
	got := runEval(t, root, fixtureCatalog())
	want := []string{"a=1;", "a=3;", "a=5;", "a=6;", "a=1000;"}
	sort.Strings(want)
	assertRowsEqual(t, got, want)
}

// T3: { t | R(t) ∧ ¬(t.a < 3 ∨ t.a < 5) } -> a >= 3 ∧ a >= 5 i.e. a >= 5
func TestScenarioT3(t *testing.T) {
	root := &trcast.Expr{
		Variable:    "t",
		Projections: []string{"a"},
		Formula: and(relPred("t", "R"),
			not(or(cmp("t", "a", trcast.Lt, lit("number", 3)), cmp("t", "a", trcast.Lt, lit("number", 5))))),
	}
	got := runEval(t, root, fixtureCatalog())
	want := []string{"a=5;", "a=6;", "a=1000;"}
	sort.Strings(want)
	assertRowsEqual(t, got, want)
}

// T4: { r | R(r) ∧ (r.a > 5 → r.b = 'e') } -> a<=5 ∨ b='e'
func TestScenarioT4(t *testing.T) {
	root := &trcast.Expr{
		Variable:    "r",
		Projections: []string{"a"},
		Formula: and(relPred("r", "R"),
			implies(cmp("r", "a", trcast.Gt, lit("number", 5)), cmp("r", "b", trcast.Eq, lit("string", "e")))),
	}
	got := runEval(t, root, fixtureCatalog())
	want := []string{"a=1;", "a=3;", "a=4;", "a=5;", "a=6;", "a=1000;"}
	sort.Strings(want)
	assertRowsEqual(t, got, want)
}

// T5: { t | R(t) ∧ ∃s(S(s) ∧ s.b = t.b) } -> every R row (S.b covers all R.b values)
func TestScenarioT5(t *testing.T) {
	root := &trcast.Expr{
		Variable:    "t",
		Projections: []string{"a"},
		Formula: and(relPred("t", "R"),
			exists("s", and(relPred("s", "S"), cmp("s", "b", trcast.Eq, attr("t", "b"))))),
	}
	got := runEval(t, root, fixtureCatalog())
	want := []string{"a=1;", "a=3;", "a=4;", "a=5;", "a=6;", "a=1000;"}
	sort.Strings(want)
	assertRowsEqual(t, got, want)
}

// T6: { t | R(t) ∧ ¬∃s(S(s) ∧ s.d<200 ∧ t.a<3) } -> a >= 3
// (the uncorrelated subformula s.d<200 is true for some s, so the
// correlated conjunct t.a<3 is what the negated existential restricts)
func TestScenarioT6(t *testing.T) {
	root := &trcast.Expr{
		Variable:    "t",
		Projections: []string{"a"},
		Formula: and(relPred("t", "R"),
			not(exists("s", and(relPred("s", "S"),
				and(cmp("s", "d", trcast.Lt, lit("number", 200)), cmp("t", "a", trcast.Lt, lit("number", 3))))))),
	}
	got := runEval(t, root, fixtureCatalog())
	want := []string{"a=3;", "a=4;", "a=5;", "a=6;", "a=1000;"}
	sort.Strings(want)
	assertRowsEqual(t, got, want)
}

// T7: { r | R(r) ∧ ∀s(S(s) → s.d < r.a) } -> a=1000 (only row whose a exceeds every S.d)
func TestScenarioT7(t *testing.T) {
	root := &trcast.Expr{
		Variable:    "r",
		Projections: []string{"a"},
		Formula: and(relPred("r", "R"),
			forAll("s", implies(relPred("s", "S"), cmp("s", "d", trcast.Lt, attr("r", "a"))))),
	}
	got := runEval(t, root, fixtureCatalog())
	want := []string{"a=1000;"}
	assertRowsEqual(t, got, want)
}

// T8: { t | R(t) ∧ ¬∃s(S(s) ∧ s.d > 1000) } -> all of R (the uncorrelated
// existential is false for every s, so the negation keeps everything)
func TestScenarioT8(t *testing.T) {
	root := &trcast.Expr{
		Variable:    "t",
		Projections: []string{"a"},
		Formula: and(relPred("t", "R"),
			not(exists("s", and(relPred("s", "S"), cmp("s", "d", trcast.Gt, lit("number", 1000)))))),
	}
	got := runEval(t, root, fixtureCatalog())
	want := []string{"a=1;", "a=3;", "a=4;", "a=5;", "a=6;", "a=1000;"}
	sort.Strings(want)
	assertRowsEqual(t, got, want)
}

func assertRowsEqual(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows %v, want %d rows %v", len(got), got, len(want), want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("row %d = %q, want %q (full: got=%v want=%v)", i, got[i], want[i], got, want)
		}
	}
}

// P2: double negation is a no-op.
func TestDoubleNegation(t *testing.T) {
	base := and(relPred("t", "R"), cmp("t", "a", trcast.Gt, lit("number", 3)))
	doubled := and(relPred("t", "R"), not(not(cmp("t", "a", trcast.Gt, lit("number", 3)))))

	got := runEval(t, &trcast.Expr{Variable: "t", Projections: []string{"a"}, Formula: doubled}, fixtureCatalog())
	want := runEval(t, &trcast.Expr{Variable: "t", Projections: []string{"a"}, Formula: base}, fixtureCatalog())
	assertRowsEqual(t, got, want)
}

// P3: De Morgan for ∧/∨.
func TestDeMorgan(t *testing.T) {
	p := cmp("t", "a", trcast.Gt, lit("number", 3))
	q := cmp("t", "b", trcast.Eq, lit("string", "e"))

	lhs := and(relPred("t", "R"), not(and(p, q)))
	rhs := and(relPred("t", "R"), or(not(p), not(q)))

	got := runEval(t, &trcast.Expr{Variable: "t", Projections: []string{"a"}, Formula: lhs}, fixtureCatalog())
	want := runEval(t, &trcast.Expr{Variable: "t", Projections: []string{"a"}, Formula: rhs}, fixtureCatalog())
	assertRowsEqual(t, got, want)
}

// P4: ∀/∃ duality, ∀v Φ ≡ ¬∃v ¬Φ.
func TestForAllExistsDuality(t *testing.T) {
	body := implies(relPred("s", "S"), cmp("s", "d", trcast.Lt, attr("r", "a")))
	viaForAll := and(relPred("r", "R"), forAll("s", body))
	viaRewrite := and(relPred("r", "R"), not(exists("s", not(body))))

	got := runEval(t, &trcast.Expr{Variable: "r", Projections: []string{"a"}, Formula: viaForAll}, fixtureCatalog())
	want := runEval(t, &trcast.Expr{Variable: "r", Projections: []string{"a"}, Formula: viaRewrite}, fixtureCatalog())
	assertRowsEqual(t, got, want)
}

// P5: implication rewrite, p -> q ≡ ¬p ∨ q.
func TestImplicationRewrite(t *testing.T) {
	p := cmp("t", "a", trcast.Gt, lit("number", 5))
	q := cmp("t", "b", trcast.Eq, lit("string", "e"))

	viaImplies := and(relPred("t", "R"), implies(p, q))
	viaRewrite := and(relPred("t", "R"), or(not(p), q))

	got := runEval(t, &trcast.Expr{Variable: "t", Projections: []string{"a"}, Formula: viaImplies}, fixtureCatalog())
	want := runEval(t, &trcast.Expr{Variable: "t", Projections: []string{"a"}, Formula: viaRewrite}, fixtureCatalog())
	assertRowsEqual(t, got, want)
}

// P6: schema preservation, no projection returns the full tuple shape.
func TestSchemaPreservation(t *testing.T) {
	root := &trcast.Expr{Variable: "t", Formula: relPred("t", "R")}
	op, err := Translate(root, fixtureCatalog())
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if err := op.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	names := op.Schema().Names()
	if len(names) != 3 {
		t.Fatalf("unprojected schema = %v, want 3 columns (a,b,c)", names)
	}
}

// P7: catalog isolation, mutating the catalog after Translate returns
// must not affect the produced tree's evaluation.
func TestCatalogIsolation(t *testing.T) {
	cat := fixtureCatalog()
	root := &trcast.Expr{
		Variable:    "t",
		Projections: []string{"a"},
		Formula:     and(relPred("t", "R"), cmp("t", "a", trcast.Gt, lit("number", 3))),
	}
	op, err := Translate(root, cat)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	r, _ := cat.Lookup("R")
	r.Rows[0]["a"] = 9999
	r.Rows = append(r.Rows, catalog.Row{"a": 1, "b": "z", "c": "z"})

	rel, err := raeval.Eval(op)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if rel.Len() != 4 {
		t.Fatalf("post-mutation eval returned %d rows, want 4 (catalog mutation must not leak in)", rel.Len())
	}
}

func TestUnknownRelation(t *testing.T) {
	root := &trcast.Expr{Variable: "t", Formula: relPred("t", "Missing")}
	_, err := Translate(root, fixtureCatalog())
	if err == nil {
		t.Fatal("expected an error for an unknown relation")
	}
	if _, ok := err.(*UnknownRelation); !ok {
		t.Errorf("expected *UnknownRelation, got %T (%v)", err, err)
	}
}

func TestUnboundVariable(t *testing.T) {
	root := &trcast.Expr{
		Variable: "t",
		Formula:  and(relPred("t", "R"), cmp("u", "a", trcast.Gt, lit("number", 1))),
	}
	_, err := Translate(root, fixtureCatalog())
	if err == nil {
		t.Fatal("expected an error for an unbound tuple variable")
	}
	if _, ok := err.(*UnboundVariable); !ok {
		t.Errorf("expected *UnboundVariable, got %T (%v)", err, err)
	}
}

func TestConflictingBinding(t *testing.T) {
	root := &trcast.Expr{
		Variable: "t",
		Formula:  and(relPred("t", "R"), and(relPred("t", "S"), cmp("t", "a", trcast.Gt, lit("number", 1)))),
	}
	_, err := Translate(root, fixtureCatalog())
	if err == nil {
		t.Fatal("expected an error rebinding t to a different relation")
	}
}
