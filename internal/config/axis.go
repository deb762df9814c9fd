package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// AxisValues is the list of values of one sweep axis. Values are kept as
// the text written in the file, so "5.0" and "5" stay distinct. A single
// scalar is accepted as a one-element list.
type AxisValues []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *AxisValues) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*a = nil
			return nil
		}
		*a = AxisValues{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(AxisValues, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
				return fmt.Errorf("line %d: axis values must be scalars", item.Line)
			}
			out = append(out, item.Value)
		}
		*a = out
		return nil
	default:
		return fmt.Errorf("line %d: axis must be a scalar or a list of scalars", node.Line)
	}
}

// UnmarshalJSON implements json.Unmarshaler. Numbers keep their literal text.
func (a *AxisValues) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	items, ok := raw.([]any)
	if !ok {
		if raw == nil {
			*a = nil
			return nil
		}
		items = []any{raw}
	}

	out := make(AxisValues, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case json.Number:
			out = append(out, v.String())
		default:
			return fmt.Errorf("axis values must be numbers or strings, got %T", item)
		}
	}
	*a = out
	return nil
}
