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

package catalog

import (
	"fmt"

	"github.com/relaq/relaq/value"

	"sigs.k8s.io/yaml"
)

// yamlDoc is the on-disk shape of a catalog fixture file.
type yamlDoc struct {
	Relations []yamlRelation `json:"relations"`
}

type yamlRelation struct {
	Name    string          `json:"name"`
	Columns []yamlColumn    `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

type yamlColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func parseType(s string) (value.Type, error) {
	switch s {
	case "string":
		return value.TypeString, nil
	case "number":
		return value.TypeNumber, nil
	case "boolean":
		return value.TypeBoolean, nil
	case "date":
		return value.TypeDate, nil
	case "", "null":
		return value.TypeNull, nil
	default:
		return value.TypeNull, fmt.Errorf("unknown column type %q", s)
	}
}

// LoadYAML parses a YAML document describing a set of relations
// (schema plus, optionally, inline fixture rows) into a [Map]
// catalog. This is how test suites and the relaqc CLI load the
// fixtures used throughout this repository's tests, using
// sigs.k8s.io/yaml the same way cmd/snellerd loads its own
// configuration.
func LoadYAML(doc []byte) (Map, error) {
	var parsed yamlDoc
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("catalog: parsing fixture yaml: %w", err)
	}
	out := make(Map, len(parsed.Relations))
	for _, rel := range parsed.Relations {
		schema := make(Schema, len(rel.Columns))
		for i, c := range rel.Columns {
			t, err := parseType(c.Type)
			if err != nil {
				return nil, fmt.Errorf("catalog: relation %q: %w", rel.Name, err)
			}
			schema[i] = Column{Name: c.Name, Type: t}
		}
		rows := make([]Row, len(rel.Rows))
		for i, r := range rel.Rows {
			rows[i] = Row(r)
		}
		out[rel.Name] = &Relation{Name: rel.Name, Schema: schema, Rows: rows}
	}
	return out, nil
}
