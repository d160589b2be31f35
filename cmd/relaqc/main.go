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

// relaqc is a small demo front end exercising the translator package's
// TRC entry point against a YAML-loaded catalog fixture; it does not
// accept SQL or RA-AST input.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/relaq/relaq/catalog"
	"github.com/relaq/relaq/raeval"
	"github.com/relaq/relaq/translator"
	"github.com/relaq/relaq/trcast"
)

func main() {
	catalogPath := flag.String("catalog", "", "path to a YAML catalog fixture")
	queryPath := flag.String("query", "", "path to a JSON-encoded trcast.Expr")
	run := flag.Bool("run", false, "evaluate the translated tree against the fixture rows and print the result")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.Lshortfile)

	if *catalogPath == "" || *queryPath == "" {
		fmt.Fprintln(os.Stderr, "usage: relaqc -catalog fixture.yaml -query expr.json [-run]")
		os.Exit(1)
	}

	doc, err := os.ReadFile(*catalogPath)
	if err != nil {
		logger.Fatalf("reading catalog: %v", err)
	}
	cat, err := catalog.LoadYAML(doc)
	if err != nil {
		logger.Fatalf("loading catalog: %v", err)
	}

	queryDoc, err := os.ReadFile(*queryPath)
	if err != nil {
		logger.Fatalf("reading query: %v", err)
	}
	expr, err := decodeExpr(queryDoc)
	if err != nil {
		logger.Fatalf("decoding query: %v", err)
	}

	t := &translator.Translator{Logger: logger}
	op, err := t.TRC(expr, cat)
	if err != nil {
		logger.Fatalf("translating: %v", err)
	}
	if err := op.Check(); err != nil {
		logger.Fatalf("checking translated tree: %v", err)
	}
	fmt.Println(op)
	for _, w := range op.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}

	if *run {
		result, err := raeval.Eval(op)
		if err != nil {
			logger.Fatalf("evaluating: %v", err)
		}
		printResult(result)
	}
}

func printResult(r *raeval.Relation) {
	for _, f := range r.Schema {
		fmt.Printf("%s\t", f.Name)
	}
	fmt.Println()
	for _, row := range r.Rows {
		for _, f := range r.Schema {
			fmt.Printf("%v\t", row[raeval.Key{RelAlias: f.RelAlias, Name: f.Name}])
		}
		fmt.Println()
	}
}

// jsonExpr mirrors trcast.Expr for the CLI's demo query decoding; a
// real front end would parse source text instead of JSON.
type jsonExpr struct {
	Variable    string          `json:"variable"`
	Projections []string        `json:"projections"`
	Formula     json.RawMessage `json:"formula"`
}

func decodeExpr(doc []byte) (*trcast.Expr, error) {
	var je jsonExpr
	if err := json.Unmarshal(doc, &je); err != nil {
		return nil, err
	}
	formula, err := decodeNode(je.Formula)
	if err != nil {
		return nil, err
	}
	return &trcast.Expr{Variable: je.Variable, Projections: je.Projections, Formula: formula}, nil
}

type jsonNode struct {
	Kind       string          `json:"kind"`
	Variable   string          `json:"variable"`
	Relation   string          `json:"relation"`
	Attribute  string          `json:"attribute"`
	Operator   string          `json:"operator"`
	Left       json.RawMessage `json:"left"`
	Right      json.RawMessage `json:"right"`
	Formula    json.RawMessage `json:"formula"`
	Quantifier string          `json:"quantifier"`
	Type       string          `json:"type"`
	Value      interface{}     `json:"value"`
}

func decodeNode(raw json.RawMessage) (trcast.Node, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var jn jsonNode
	if err := json.Unmarshal(raw, &jn); err != nil {
		return nil, err
	}
	switch jn.Kind {
	case "relation":
		return &trcast.RelationPredicate{Variable: jn.Variable, Relation: jn.Relation}, nil
	case "attr":
		return trcast.AttrRef{Variable: jn.Variable, Attribute: jn.Attribute}, nil
	case "literal":
		return &trcast.Literal{Type: jn.Type, Value: jn.Value}, nil
	case "predicate":
		left, err := decodeNode(jn.Left)
		if err != nil {
			return nil, err
		}
		leftAttr, ok := left.(trcast.AttrRef)
		if !ok {
			return nil, fmt.Errorf("relaqc: predicate left side must be an attribute reference")
		}
		right, err := decodeNode(jn.Right)
		if err != nil {
			return nil, err
		}
		return &trcast.Predicate{Left: leftAttr, Operator: trcast.CmpOp(jn.Operator), Right: right}, nil
	case "not":
		f, err := decodeNode(jn.Formula)
		if err != nil {
			return nil, err
		}
		return &trcast.Negation{Formula: f}, nil
	case "and", "or", "implies":
		l, err := decodeNode(jn.Left)
		if err != nil {
			return nil, err
		}
		r, err := decodeNode(jn.Right)
		if err != nil {
			return nil, err
		}
		op := map[string]trcast.LogicalOp{"and": trcast.And, "or": trcast.Or, "implies": trcast.Implies}[jn.Kind]
		return &trcast.LogicalExpression{Operator: op, Left: l, Right: r}, nil
	case "exists", "forall":
		f, err := decodeNode(jn.Formula)
		if err != nil {
			return nil, err
		}
		q := trcast.Exists
		if jn.Kind == "forall" {
			q = trcast.ForAll
		}
		return &trcast.QuantifiedExpression{Quantifier: q, Variable: jn.Variable, Formula: f}, nil
	default:
		return nil, fmt.Errorf("relaqc: unknown node kind %q", jn.Kind)
	}
}
