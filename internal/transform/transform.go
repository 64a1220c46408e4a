// Package transform implements the JSON-shaped filter+mutation rules applied
// to the raw roster before modelling — spec §4.2. Grounded on
// original_source/common/transform_config.py.
package transform

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Document is the optional {"filter": ..., "transform": [...]} config.
type Document struct {
	Filter    *FilterNode `json:"filter,omitempty"`
	Transform []Rule      `json:"transform,omitempty"`
}

// FilterNode is a tree of and/or nodes whose leaves test one dotted property
// against a string predicate.
type FilterNode struct {
	And      []FilterNode `json:"and,omitempty"`
	Or       []FilterNode `json:"or,omitempty"`
	Property string       `json:"property,omitempty"`
	String   *StringMatch `json:"string,omitempty"`
}

// StringMatch holds exactly one of the leaf predicates.
type StringMatch struct {
	Equals      *string `json:"equals,omitempty"`
	StartsWith  *string `json:"starts_with,omitempty"`
	EndsWith    *string `json:"ends_with,omitempty"`
	Contains    *string `json:"contains,omitempty"`
}

// Rule is a single mutation applied when the filter matches.
type Rule struct {
	Property string `json:"property"`
	Action   string `json:"action"`
	Value    any    `json:"value"`
}

const ActionReplaceAll = "replace_all"

// LoadConfig accepts either a raw JSON string or a path to a file containing
// one, matching original_source's load_transform_config dual-input
// convenience. Malformed top-level JSON is fatal (spec §4.2/§7).
func LoadConfig(raw string) (*Document, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	payload := raw
	if !strings.HasPrefix(raw, "{") {
		data, err := os.ReadFile(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "reading transform config file %q", raw)
		}
		payload = string(data)
	}

	var doc Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, errors.Wrap(err, "parsing transform config JSON")
	}
	return &doc, nil
}

// Apply runs the filter+mutation pass over every object in docs, returning
// the (possibly mutated) copies in the same order. It never mutates the
// inputs in place.
func Apply(doc *Document, objs []map[string]any, warn func(string)) []map[string]any {
	if doc == nil {
		return objs
	}
	out := make([]map[string]any, len(objs))
	for i, obj := range objs {
		out[i] = applyOne(doc, obj, warn)
	}
	return out
}

func applyOne(doc *Document, obj map[string]any, warn func(string)) map[string]any {
	if doc.Filter != nil && !matches(*doc.Filter, obj) {
		return obj
	}
	result := deepCopyMap(obj)
	for _, rule := range doc.Transform {
		switch rule.Action {
		case ActionReplaceAll:
			setValue(result, splitPath(rule.Property), rule.Value)
		default:
			if warn != nil {
				warn(fmt.Sprintf("transform: unknown action %q for property %q, rule skipped", rule.Action, rule.Property))
			}
		}
	}
	return result
}

func matches(node FilterNode, obj map[string]any) bool {
	if len(node.And) > 0 {
		for _, child := range node.And {
			if !matches(child, obj) {
				return false
			}
		}
		return true
	}
	if len(node.Or) > 0 {
		for _, child := range node.Or {
			if matches(child, obj) {
				return true
			}
		}
		return false
	}
	if node.String == nil {
		return false
	}
	val, ok := getValue(obj, splitPath(node.Property))
	if !ok {
		val = ""
	}
	s := fmt.Sprintf("%v", val)

	m := node.String
	switch {
	case m.Equals != nil:
		return s == *m.Equals
	case m.StartsWith != nil:
		return strings.HasPrefix(s, *m.StartsWith)
	case m.EndsWith != nil:
		return strings.HasSuffix(s, *m.EndsWith)
	case m.Contains != nil:
		return strings.Contains(s, *m.Contains)
	default:
		return false
	}
}

func splitPath(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, ".")
}

// getValue traverses nested maps by key and arrays by numeric index.
func getValue(root any, path []string) (any, bool) {
	cur := root
	for _, seg := range path {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// setValue traverses like getValue but writes the final segment, creating
// intermediate maps as needed (mirrors transform_config.py::_set_value).
func setValue(root map[string]any, path []string, value any) {
	if len(path) == 0 {
		return
	}
	var cur any = root
	for i, seg := range path[:len(path)-1] {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				next = map[string]any{}
				node[seg] = next
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return
			}
			cur = node[idx]
		default:
			return
		}
		_ = i
	}
	last := path[len(path)-1]
	switch node := cur.(type) {
	case map[string]any:
		node[last] = value
	case []any:
		idx, err := strconv.Atoi(last)
		if err != nil || idx < 0 || idx >= len(node) {
			return
		}
		node[idx] = value
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return val
	}
}
