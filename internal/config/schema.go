// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package config

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the config file schema.
const SchemaID = "https://passgate.dev/schemas/config.schema.json"

var (
	compileOnce sync.Once
	compiled    *jschema.Schema
	compileErr  error
)

// GenerateSchema reflects Config into a JSON Schema keyed by koanf names.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
		FieldNameTag:   "koanf",
		// Every field is optional in the file.
		RequiredFromJSONSchemaTags: true,
	}
	schema := r.Reflect(&Config{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Passgate Configuration"
	schema.Description = "Schema for passgate YAML configuration files"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").Wrap(err)
	}
	return data, nil
}

// ValidateYAML checks a config file body against the generated schema.
func ValidateYAML(data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return oops.Code("CONFIG_EMPTY").Errorf("config file is empty")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code("CONFIG_INVALID_YAML").Wrap(err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(toJSON(doc)); err != nil {
		return oops.Code("CONFIG_SCHEMA_MISMATCH").Wrap(err)
	}
	return nil
}

func compiledSchema() (*jschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := GenerateSchema()
		if err != nil {
			compileErr = err
			return
		}
		var schemaDoc any
		if err := json.Unmarshal(raw, &schemaDoc); err != nil {
			compileErr = oops.Code("CONFIG_SCHEMA_FAILED").Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("config.schema.json", schemaDoc); err != nil {
			compileErr = oops.Code("CONFIG_SCHEMA_FAILED").Wrap(err)
			return
		}
		compiled, compileErr = c.Compile("config.schema.json")
		if compileErr != nil {
			compileErr = oops.Code("CONFIG_SCHEMA_FAILED").Wrap(compileErr)
		}
	})
	return compiled, compileErr
}

// toJSON normalizes YAML-decoded values to the types the validator expects.
func toJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = toJSON(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = toJSON(v)
		}
		return out
	default:
		return val
	}
}
