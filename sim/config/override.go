package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// applyOverrides rewrites the YAML document with each path=value override.
// Path segments walk mappings by key and sequences by the "name" of an entry
// (or its index); missing mapping keys are created so params can be added.
func applyOverrides(data []byte, overrides []string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing experiment config: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	for _, o := range overrides {
		path, value, err := ParseOverride(o)
		if err != nil {
			return nil, err
		}
		if err := setPath(doc.Content[0], strings.Split(path, "."), value); err != nil {
			return nil, fmt.Errorf("override %q: %w", o, err)
		}
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("re-encoding experiment config: %w", err)
	}
	return out, nil
}

// ParseOverride splits a path=value override.
func ParseOverride(o string) (path, value string, err error) {
	path, value, ok := strings.Cut(o, "=")
	if !ok || strings.TrimSpace(path) == "" {
		return "", "", fmt.Errorf("override %q: want path=value", o)
	}
	return strings.TrimSpace(path), value, nil
}

func setPath(node *yaml.Node, segments []string, value string) error {
	seg := segments[0]
	last := len(segments) == 1

	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value != seg {
				continue
			}
			if last {
				v, err := scalarNode(value)
				if err != nil {
					return err
				}
				node.Content[i+1] = v
				return nil
			}
			return setPath(node.Content[i+1], segments[1:], value)
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: seg}
		var child *yaml.Node
		if last {
			v, err := scalarNode(value)
			if err != nil {
				return err
			}
			child = v
		} else {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		node.Content = append(node.Content, key, child)
		if last {
			return nil
		}
		return setPath(child, segments[1:], value)

	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind == yaml.MappingNode && mappingValue(item, "name") == seg {
				if last {
					return fmt.Errorf("cannot replace list entry %q", seg)
				}
				return setPath(item, segments[1:], value)
			}
		}
		if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 && idx < len(node.Content) {
			if last {
				v, err := scalarNode(value)
				if err != nil {
					return err
				}
				node.Content[idx] = v
				return nil
			}
			return setPath(node.Content[idx], segments[1:], value)
		}
		return fmt.Errorf("no list entry named %q", seg)
	}
	return fmt.Errorf("cannot descend into %q: not a mapping or list", seg)
}

func mappingValue(node *yaml.Node, key string) string {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1].Value
		}
	}
	return ""
}

// scalarNode parses value as a YAML fragment so numbers, booleans and flow
// lists keep their type.
func scalarNode(value string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(value), &doc); err != nil {
		return nil, fmt.Errorf("value %q: %w", value, err)
	}
	if len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: ""}, nil
	}
	return doc.Content[0], nil
}
