package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	schemafs "github.com/ethereum-optimism/infra/op-bdd/registry/schema"
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

const manifestSchemaName = "manifest.schema.json"

// Manifest is a scope declared in YAML. The root manifest is a suite.
type Manifest struct {
	Describe string         `yaml:"describe"`
	Skip     Mark           `yaml:"skip,omitempty"`
	Pending  Mark           `yaml:"pending,omitempty"`
	Tags     map[string]any `yaml:"tags,omitempty"`
	Before   []CommandSpec  `yaml:"before,omitempty"`
	Let      []LetSpec      `yaml:"let,omitempty"`
	Finally  []CommandSpec  `yaml:"finally,omitempty"`
	Examples []ExampleSpec  `yaml:"examples,omitempty"`
	Contexts []Manifest     `yaml:"contexts,omitempty"`
}

// CommandSpec is a before or finally hook running a shell script
type CommandSpec struct {
	Name string `yaml:"name,omitempty"`
	Run  string `yaml:"run"`
}

// LetSpec is a let whose value is the trimmed output of a shell script
type LetSpec struct {
	Name  string `yaml:"name"`
	Run   string `yaml:"run"`
	Eager bool   `yaml:"eager,omitempty"`
}

// ExampleSpec is an example running a shell script. An empty script declares
// a pending example.
type ExampleSpec struct {
	It      string         `yaml:"it"`
	Run     string         `yaml:"run,omitempty"`
	Skip    Mark           `yaml:"skip,omitempty"`
	Pending Mark           `yaml:"pending,omitempty"`
	Tags    map[string]any `yaml:"tags,omitempty"`
	Expect  *ExpectSpec    `yaml:"expect,omitempty"`
}

// ExpectSpec lists what the example script must produce
type ExpectSpec struct {
	Stdout   *string `yaml:"stdout,omitempty"`
	ExitCode *int    `yaml:"exit_code,omitempty"`
}

// Mark is a skip or pending flag written either as a boolean or as a reason
type Mark types.Mark

// UnmarshalYAML implements yaml.Unmarshaler
func (m *Mark) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: skip and pending take a boolean or a reason", value.Line)
	}
	if value.Tag == "!!bool" {
		var enabled bool
		if err := value.Decode(&enabled); err != nil {
			return err
		}
		*m = Mark{Enabled: enabled}
		return nil
	}
	*m = Mark{Enabled: true, Reason: value.Value}
	return nil
}

var (
	manifestSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// compileSchema compiles the embedded manifest schema once
func compileSchema() error {
	compileOnce.Do(func() {
		data, err := schemafs.FS.ReadFile(manifestSchemaName)
		if err != nil {
			compileErr = fmt.Errorf("read manifest schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal manifest schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(manifestSchemaName, doc); err != nil {
			compileErr = fmt.Errorf("add manifest schema resource: %w", err)
			return
		}
		manifestSchema, err = compiler.Compile(manifestSchemaName)
		if err != nil {
			compileErr = fmt.Errorf("compile manifest schema: %w", err)
		}
	})
	return compileErr
}

// Validate checks YAML manifest data against the manifest schema
func Validate(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	// round trip through JSON so numbers reach the validator as json.Number
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("manifest is not representable as JSON: %w", err)
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := manifestSchema.Validate(v); err != nil {
		return fmt.Errorf("manifest validation failed: %w", err)
	}
	return nil
}

// ParseManifest validates and decodes a YAML manifest
func ParseManifest(data []byte) (*Manifest, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
