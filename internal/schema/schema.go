/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package schema validates mutation payloads structurally before they enter
// the persistence queue. Payloads are a tagged union over the operation
// kinds: create and update carry a semantics-complete feature snapshot,
// delete carries at most a feature reference.
package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const featureSnapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["geometry"],
  "properties": {
    "geometry": {
      "type": "object",
      "required": ["type", "points"],
      "properties": {
        "type": {"enum": ["Point", "LineString", "Polygon"]},
        "points": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["lng", "lat"],
            "properties": {
              "lng": {"type": "number", "minimum": -180, "maximum": 180},
              "lat": {"type": "number", "minimum": -90, "maximum": 90}
            }
          }
        }
      }
    },
    "properties": {"type": "object"},
    "vertexEditable": {"type": "boolean"},
    "style": {
      "type": "object",
      "properties": {
        "strokeColor": {"type": "string"},
        "strokeWidth": {"type": "number", "minimum": 0},
        "fillColor": {"type": "string"},
        "opacity": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`

const deletePayloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "id": {"type": "string"}
  }
}`

var compiled = map[string]*gojsonschema.Schema{}

func init() {
	for kind, raw := range map[string]string{
		"create": featureSnapshotSchema,
		"update": featureSnapshotSchema,
		"delete": deletePayloadSchema,
	} {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("schema %s does not compile: %v", kind, err))
		}
		compiled[kind] = s
	}
}

// ValidatePayload checks a raw JSON payload against the schema for the given
// operation kind ("create", "update", "delete"). Unknown kinds error.
func ValidatePayload(kind string, payload []byte) error {
	s, ok := compiled[kind]
	if !ok {
		return fmt.Errorf("unknown operation kind %q", kind)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("validate %s payload: %w", kind, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid %s payload: %s", kind, strings.Join(msgs, "; "))
	}
	return nil
}
