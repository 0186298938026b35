package application

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/envpush/internal/domain/model"
)

// BulkFormat names a text format accepted for pasting many items at once.
type BulkFormat string

const (
	BulkFormatDotenv BulkFormat = "dotenv"
	BulkFormatYAML   BulkFormat = "yaml"
)

// ParseBulkItems parses text in the given format into items, preserving the
// order in which they appear. Blank input yields no items.
func ParseBulkItems(format BulkFormat, text string) ([]model.Item, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	switch format {
	case BulkFormatYAML:
		var doc yaml.Node
		if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		if len(doc.Content) == 0 {
			return nil, nil
		}
		return itemsFromYAML(doc.Content[0])
	case BulkFormatDotenv, "":
		return parseDotenv(text)
	default:
		return nil, fmt.Errorf("unsupported bulk format %q", format)
	}
}

// parseDotenv reads NAME=value lines. Comments (#), blank lines and an
// optional "export " prefix are accepted; values may be single or double
// quoted, and double-quoted values expand \n.
func parseDotenv(text string) ([]model.Item, error) {
	var items []model.Item

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected NAME=value", lineNo)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("line %d: missing name", lineNo)
		}

		items = append(items, model.Item{Name: name, Value: unquote(strings.TrimSpace(value))})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dotenv: %w", err)
	}

	return items, nil
}

func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	switch {
	case v[0] == '"' && v[len(v)-1] == '"':
		return strings.ReplaceAll(v[1:len(v)-1], `\n`, "\n")
	case v[0] == '\'' && v[len(v)-1] == '\'':
		return v[1 : len(v)-1]
	default:
		return v
	}
}

// itemsFromYAML accepts either a mapping (NAME: value) or a sequence of
// {name, value} mappings.
func itemsFromYAML(node *yaml.Node) ([]model.Item, error) {
	switch node.Kind {
	case yaml.MappingNode:
		items := make([]model.Item, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: value of %s must be a scalar", val.Line, key.Value)
			}
			items = append(items, model.Item{Name: key.Value, Value: val.Value})
		}
		return items, nil
	case yaml.SequenceNode:
		items := make([]model.Item, 0, len(node.Content))
		for _, elem := range node.Content {
			var entry struct {
				Name  string `yaml:"name"`
				Value string `yaml:"value"`
			}
			if err := elem.Decode(&entry); err != nil {
				return nil, fmt.Errorf("line %d: %w", elem.Line, err)
			}
			items = append(items, model.Item{Name: entry.Name, Value: entry.Value})
		}
		return items, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, errors.New("items must be a mapping of NAME: value or a list of {name, value}")
}
