// Package schema describes the structured record extracted from a Master
// Service Agreement: the nodes, fields, mandatory flags and enum values that
// drive the extraction prompt, enum normalization and validation.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed msa.yaml
var msaYAML []byte

// ErrInvalidSchema indicates a schema document that cannot drive extraction.
var ErrInvalidSchema = errors.New("invalid schema")

// Field types.
const (
	TypeString  = "string"
	TypeDate    = "date"
	TypeBoolean = "boolean"
	TypeNumeric = "numeric"
	TypeEnum    = "enum"
)

// TypeObject is the only node type.
const TypeObject = "obj"

var fieldTypes = []string{TypeString, TypeDate, TypeBoolean, TypeNumeric, TypeEnum}

// Field is a scalar attribute of a node.
type Field struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type"`
	Mandatory   bool     `yaml:"mandatory"`
	Values      []string `yaml:"values"`
}

// Node is an object, or list of objects, in the record tree.
type Node struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Type        string  `yaml:"type"`
	Mandatory   bool    `yaml:"mandatory"`
	List        bool    `yaml:"list"`
	Fields      []Field `yaml:"fields"`
	Children    []*Node `yaml:"children"`
}

// Default returns the built-in Master Service Agreement schema.
func Default() *Node {
	n, err := Load(msaYAML)
	if err != nil {
		panic(fmt.Sprintf("schema: embedded msa.yaml: %v", err))
	}
	return n
}

// Load parses and checks a YAML schema document.
func Load(data []byte) (*Node, error) {
	var root Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if err := root.check(""); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return &root, nil
}

// LoadFile reads a YAML schema document from path.
func LoadFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Load(data)
}

// RootKey is the JSON key a model may wrap the whole record in, such as
// MASTER_SERVICE_AGREEMENT.
func (n *Node) RootKey() string {
	return strings.ReplaceAll(strings.ToUpper(n.Name), " ", "_")
}

// Child returns the direct child node called name.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Allows reports whether value is one of the field's enum values, ignoring case.
func (f Field) Allows(value string) bool {
	return slices.ContainsFunc(f.Values, func(v string) bool {
		return strings.EqualFold(v, value)
	})
}

func (n *Node) check(parent string) error {
	path := join(parent, n.Name)
	if n.Name == "" {
		return fmt.Errorf("node under %q has no name", parent)
	}
	if n.Type == "" {
		n.Type = TypeObject
	}
	if n.Type != TypeObject {
		return fmt.Errorf("%s: node type %q, want %q", path, n.Type, TypeObject)
	}

	seen := map[string]bool{}
	for _, f := range n.Fields {
		if f.Name == "" {
			return fmt.Errorf("%s: field has no name", path)
		}
		if seen[f.Name] {
			return fmt.Errorf("%s: duplicate name %q", path, f.Name)
		}
		seen[f.Name] = true

		if !slices.Contains(fieldTypes, f.Type) {
			return fmt.Errorf("%s.%s: unknown field type %q", path, f.Name, f.Type)
		}
		if f.Type == TypeEnum && len(f.Values) == 0 {
			return fmt.Errorf("%s.%s: enum without values", path, f.Name)
		}
	}

	for _, c := range n.Children {
		if c == nil {
			return fmt.Errorf("%s: empty child", path)
		}
		if seen[c.Name] {
			return fmt.Errorf("%s: duplicate name %q", path, c.Name)
		}
		seen[c.Name] = true
		if err := c.check(path); err != nil {
			return err
		}
	}
	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
