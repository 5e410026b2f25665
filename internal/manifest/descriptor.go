package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// DescriptorNames lists the recognized description files by precedence.
var DescriptorNames = []string{"MLHUB.yaml", "DESCRIPTION.yaml", "DESCRIPTION.yml"}

// PreferredName is the name a descriptor gets when placed in a package.
const PreferredName = "MLHUB.yaml"

// Find returns the path of the description file inside dir.
func Find(dir string) (string, error) {
	for _, name := range DescriptorNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s: %w", dir, ErrDescriptorNotFound)
}

// Load finds and parses the description file inside dir.
func Load(dir string) (*Descriptor, error) {
	p, err := Find(dir)
	if err != nil {
		return nil, err
	}
	return LoadFile(p)
}

// LoadFile parses the description file at path.
func LoadFile(path string) (*Descriptor, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Parse decodes descriptor bytes; source names the origin in errors.
func Parse(data []byte, source string) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		if errors.Is(err, ErrMalformedYAML) {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		return nil, fmt.Errorf("%s: %v: %w", source, err, ErrMalformedYAML)
	}
	return &d, nil
}

// Marshal encodes the descriptor as YAML.
func (d *Descriptor) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding descriptor %s: %w", d.Meta.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SetName rewrites meta.name in the description file at path, keeping the
// rest of the document, including key order and comments, untouched.
func SetName(path, name string) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, ErrMalformedYAML)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("%s: top level is not a mapping: %w", path, ErrMalformedYAML)
	}

	meta := mappingValue(doc.Content[0], "meta")
	if meta == nil || meta.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: missing meta block: %w", path, ErrMalformedYAML)
	}
	if n := mappingValue(meta, "name"); n != nil {
		n.Value = name
		n.Tag = "!!str"
		n.Style = 0
	} else {
		meta.Content = append([]*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "name"},
			{Kind: yaml.ScalarNode, Value: name},
		}, meta.Content...)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, ErrYAMLAccess)
	}
	if err := os.WriteFile(path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// readFile wraps os.ReadFile with a descriptive error.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v: %w", path, err, ErrYAMLAccess)
	}
	return data, nil
}
