package ruletree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/reoring/rdapschema/internal/engine"
)

// BaseURL is the synthetic origin rule-set documents are registered under.
const BaseURL = "https://rdapschema.local/rulesets/"

// URL returns the resource URL of a rule-set file.
func URL(file string) string { return BaseURL + file }

// LoadJSON decodes a rule-set document keeping numbers as json.Number.
func LoadJSON(data []byte) (any, error) {
	v, err := engine.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("ruletree: %w", err)
	}
	return v, nil
}

// LoadYAML decodes a YAML rule-set document into the same shape LoadJSON
// produces: string-keyed maps, []any and json.Number.
func LoadYAML(data []byte) (any, error) {
	var v any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("ruletree: decode yaml: %w", err)
	}
	return yamlNormalize(v), nil
}

func yamlNormalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			out[ks] = yamlNormalize(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalize(t[i])
		}
		return arr
	case int:
		return json.Number(strconv.Itoa(t))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	case float64:
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64))
	default:
		return v
	}
}
