package manifest

import (
	"strings"

	"go.yaml.in/yaml/v3"
)

// Descriptor is a parsed package description.
type Descriptor struct {
	Meta         Meta       `yaml:"meta"`
	Commands     Commands   `yaml:"commands,omitempty"`
	Dependencies *yaml.Node `yaml:"dependencies,omitempty"`
	Files        *yaml.Node `yaml:"files,omitempty"`
}

// Meta is the meta: block of a descriptor.
type Meta struct {
	Name         string     `yaml:"name"`
	Version      string     `yaml:"version"`
	Title        string     `yaml:"title,omitempty"`
	Description  string     `yaml:"description,omitempty"`
	Languages    string     `yaml:"languages,omitempty"`
	Display      StringList `yaml:"display,omitempty"`
	Private      *yaml.Node `yaml:"private,omitempty"`
	URL          string     `yaml:"url,omitempty"`
	YAML         string     `yaml:"yaml,omitempty"`
	Dependencies *yaml.Node `yaml:"dependencies,omitempty"`
}

// Summary returns the title, falling back to the description.
func (m Meta) Summary() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Description
}

// Location returns where a catalog entry's package can be fetched from:
// the descriptor URL when given, otherwise the package URL.
func (m Meta) Location() string {
	if m.YAML != "" {
		return m.YAML
	}
	return m.URL
}

// DependencyNode returns the dependency tree: the top-level block wins
// over the legacy one under meta.
func (d *Descriptor) DependencyNode() *yaml.Node {
	if d.Dependencies != nil {
		return d.Dependencies
	}
	return d.Meta.Dependencies
}

// ScriptExt maps meta.languages to the extension of command scripts.
// Abbreviations of a known language resolve to it; anything else is used
// verbatim.
func (d *Descriptor) ScriptExt() string {
	lang := d.Meta.Languages
	switch {
	case lang != "" && strings.Contains("python", lang):
		return "py"
	case lang != "" && strings.Contains("R", lang):
		return "R"
	}
	return lang
}

// NeedsDisplay reports whether cmd is listed under meta.display.
func (d *Descriptor) NeedsDisplay(cmd string) bool {
	for _, c := range d.Meta.Display {
		if c == cmd {
			return true
		}
	}
	return false
}

// StringList accepts either a YAML sequence or a comma-separated string.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	*s = scalarList(node)
	return nil
}

// PrivateGroup is one set of private items to collect from the user. The
// service is empty for the plain "key*, location" form.
type PrivateGroup struct {
	Service string
	Items   []string
}

// PrivateGroups interprets meta.private. A string or sequence yields one
// unnamed group; a mapping yields one group per service in order.
func (m Meta) PrivateGroups() []PrivateGroup {
	n := m.Private
	if n == nil {
		return nil
	}
	if n.Kind == yaml.MappingNode {
		var groups []PrivateGroup
		for i := 0; i+1 < len(n.Content); i += 2 {
			groups = append(groups, PrivateGroup{
				Service: n.Content[i].Value,
				Items:   scalarList(n.Content[i+1]),
			})
		}
		return groups
	}
	items := scalarList(n)
	if len(items) == 0 {
		return nil
	}
	return []PrivateGroup{{Items: items}}
}

// scalarList flattens a scalar (split on commas) or a sequence of scalars.
func scalarList(n *yaml.Node) []string {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return splitComma(n.Value)
	case yaml.SequenceNode:
		var out []string
		for _, c := range n.Content {
			out = append(out, scalarList(c)...)
		}
		return out
	case yaml.MappingNode:
		var out []string
		for i := 0; i < len(n.Content); i += 2 {
			out = append(out, n.Content[i].Value)
		}
		return out
	}
	return nil
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
