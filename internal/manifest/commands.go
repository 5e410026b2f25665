package manifest

import (
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Command is one entry of the commands: block.
type Command struct {
	Name        string
	Description string
	Required    []string
	Optional    []string
}

// Commands keeps the declaration order of the commands: mapping, which
// drives both listing and next-step suggestions.
type Commands []Command

// UnmarshalYAML implements yaml.Unmarshaler. A command maps either to its
// description or to a mapping with description, required and optional.
func (c *Commands) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*c = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("commands must be a mapping (line %d): %w", node.Line, ErrMalformedYAML)
	}

	cmds := make(Commands, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		cmd := Command{Name: key.Value}

		switch val.Kind {
		case yaml.ScalarNode:
			if val.Tag != "!!null" {
				cmd.Description = val.Value
			}
		case yaml.MappingNode:
			for j := 0; j+1 < len(val.Content); j += 2 {
				k, v := val.Content[j].Value, val.Content[j+1]
				switch k {
				case "description":
					cmd.Description = v.Value
				case "required":
					cmd.Required = scalarList(v)
				case "optional":
					cmd.Optional = scalarList(v)
				}
			}
		default:
			return fmt.Errorf("command %q (line %d): %w", key.Value, key.Line, ErrMalformedYAML)
		}
		cmds = append(cmds, cmd)
	}
	*c = cmds
	return nil
}

// MarshalYAML writes the commands back as an ordered mapping.
func (c Commands) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, cmd := range c {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: cmd.Name}
		var val *yaml.Node
		if len(cmd.Required) == 0 && len(cmd.Optional) == 0 {
			val = &yaml.Node{Kind: yaml.ScalarNode, Value: cmd.Description}
		} else {
			val = &yaml.Node{Kind: yaml.MappingNode}
			if cmd.Description != "" {
				val.Content = append(val.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: "description"},
					&yaml.Node{Kind: yaml.ScalarNode, Value: cmd.Description})
			}
			for _, part := range []struct {
				name   string
				values []string
			}{{"required", cmd.Required}, {"optional", cmd.Optional}} {
				if len(part.values) == 0 {
					continue
				}
				seq := &yaml.Node{Kind: yaml.SequenceNode}
				for _, v := range part.values {
					seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: v})
				}
				val.Content = append(val.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: part.name}, seq)
			}
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// Names returns the command names in declaration order.
func (c Commands) Names() []string {
	names := make([]string, len(c))
	for i, cmd := range c {
		names[i] = cmd.Name
	}
	return names
}

// Find returns the named command.
func (c Commands) Find(name string) (Command, bool) {
	for _, cmd := range c {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return Command{}, false
}

// Index returns the position of name, or -1.
func (c Commands) Index(name string) int {
	for i, cmd := range c {
		if cmd.Name == name {
			return i
		}
	}
	return -1
}
