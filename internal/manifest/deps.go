package manifest

import (
	"strings"

	"go.yaml.in/yaml/v3"
)

// FilesCategory is the category of file dependencies.
const FilesCategory = "files"

// DepSpec is one flattened dependency group.
type DepSpec struct {
	// Category is the lower-cased key path, e.g. [r cran]. It is empty for
	// a bare list whose installer follows meta.languages.
	Category []string
	// Items are the plain entries of the group.
	Items []string
	// Options holds mapping entries of a list, e.g. conda's file: or name:.
	Options map[string]string
	// Files is set for the files category.
	Files []FileDep
}

// FileDep is a location with an optional target inside the package.
type FileDep struct {
	Location string
	Target   string
}

// Kind returns the innermost category, or "" for a language default.
func (d DepSpec) Kind() string {
	if len(d.Category) == 0 {
		return ""
	}
	return d.Category[len(d.Category)-1]
}

// IsFilesKey reports whether key abbreviates "files" (f, fi, ..., files).
func IsFilesKey(key string) bool {
	return key != "" && strings.HasPrefix(FilesCategory, strings.ToLower(key))
}

// FlattenDependencies turns the nested dependency tree into ordered specs.
// Strings split on commas; mapping keys become the category path; any key
// abbreviating "files" yields a single files spec.
func FlattenDependencies(n *yaml.Node) []DepSpec {
	var out []DepSpec
	flatten(n, nil, &out)
	return out
}

func flatten(n *yaml.Node, cats []string, out *[]DepSpec) {
	if n == nil {
		return
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		flatten(n.Content[0], cats, out)
		return
	}
	if n.Kind != yaml.MappingNode {
		*out = append(*out, listSpec(n, cats))
		return
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		if IsFilesKey(key) {
			*out = append(*out, DepSpec{Category: []string{FilesCategory}, Files: ParseFileDeps(val)})
			continue
		}
		path := append(append([]string(nil), cats...), strings.ToLower(key))
		flatten(val, path, out)
	}
}

func listSpec(n *yaml.Node, cats []string) DepSpec {
	spec := DepSpec{Category: cats}
	switch n.Kind {
	case yaml.ScalarNode:
		spec.Items = splitComma(n.Value)
	case yaml.SequenceNode:
		for _, c := range n.Content {
			switch c.Kind {
			case yaml.MappingNode:
				if spec.Options == nil {
					spec.Options = map[string]string{}
				}
				for j := 0; j+1 < len(c.Content); j += 2 {
					spec.Options[c.Content[j].Value] = c.Content[j+1].Value
				}
			default:
				spec.Items = append(spec.Items, scalarList(c)...)
			}
		}
	}
	return spec
}

// ParseFileDeps reads a files: value. Entries are a comma string, a list of
// locations or single-key location: target mappings, or one mapping.
func ParseFileDeps(n *yaml.Node) []FileDep {
	if n == nil {
		return nil
	}
	var deps []FileDep
	add := func(loc, target string) {
		for i := range deps {
			if deps[i].Location == loc {
				deps[i].Target = target
				return
			}
		}
		deps = append(deps, FileDep{Location: loc, Target: target})
	}
	addMapping := func(m *yaml.Node) {
		for j := 0; j+1 < len(m.Content); j += 2 {
			target := m.Content[j+1].Value
			if m.Content[j+1].Tag == "!!null" {
				target = ""
			}
			add(m.Content[j].Value, target)
		}
	}

	switch n.Kind {
	case yaml.ScalarNode:
		for _, loc := range splitComma(n.Value) {
			add(loc, "")
		}
	case yaml.MappingNode:
		addMapping(n)
	case yaml.SequenceNode:
		for _, c := range n.Content {
			if c.Kind == yaml.MappingNode {
				addMapping(c)
			} else if c.Value != "" {
				add(c.Value, "")
			}
		}
	}
	return deps
}

// InstallFiles returns the file dependencies that must be arranged when the
// package is installed: dependencies.files, falling back to a top-level
// files block.
func (d *Descriptor) InstallFiles() ([]FileDep, bool) {
	if dep := d.DependencyNode(); dep != nil && dep.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(dep.Content); i += 2 {
			if dep.Content[i].Value == FilesCategory {
				return ParseFileDeps(dep.Content[i+1]), true
			}
		}
	}
	if d.Files != nil {
		return ParseFileDeps(d.Files), true
	}
	return nil, false
}
