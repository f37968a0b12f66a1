package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

// Schema definitions exposed by schema.cue.
const (
	DefConfig   = "#Config"
	DefScenario = "#Scenario"
)

//go:embed schema.cue
var schemaSource []byte

// ValidateYAML checks a YAML document against one definition of the embedded
// CUE schema.
func ValidateYAML(data []byte, definition string) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return fmt.Errorf("schema definition %s not found", definition)
	}

	file, err := yaml.Extract("input.yaml", data)
	if err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("build yaml value: %w", err)
	}

	final := def.Unify(doc)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
