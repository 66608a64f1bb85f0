package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// IDList is a set of chat ids accepted as a YAML sequence, a JSON list
// or a string delimited by commas or semicolons.
type IDList []int64

// ParseIDList parses "1,2;3" or "[1, 2, 3]". Non-numeric parts are an error.
func ParseIDList(raw string) (IDList, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var ids []int64
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil, fmt.Errorf("admin id list: %w", err)
		}
		return IDList(ids), nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make(IDList, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("admin id list: invalid id %q", p)
		}
		out = append(out, id)
	}
	return out, nil
}

// Decode implements envconfig.Decoder.
func (l *IDList) Decode(value string) error {
	ids, err := ParseIDList(value)
	if err != nil {
		return err
	}
	*l = ids
	return nil
}

// UnmarshalYAML accepts both a scalar and a sequence node.
func (l *IDList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return l.Decode(node.Value)
	case yaml.SequenceNode:
		var ids []int64
		if err := node.Decode(&ids); err != nil {
			return fmt.Errorf("admin id list: %w", err)
		}
		*l = IDList(ids)
		return nil
	default:
		return fmt.Errorf("admin id list: unsupported yaml node at line %d", node.Line)
	}
}

// Normalized drops non-positive ids and returns a sorted slice without repeats.
func (l IDList) Normalized() []int64 {
	seen := make(map[int64]struct{}, len(l))
	out := make([]int64, 0, len(l))
	for _, id := range l {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
