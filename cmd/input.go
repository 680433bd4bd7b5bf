package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ca-srg/fluentsearch/internal/search"
)

// readPayload decodes a JSON or YAML file. "-" reads stdin.
func readPayload(path string) (interface{}, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return decodePayload(data)
}

func decodePayload(data []byte) (interface{}, error) {
	var payload interface{}
	if json.Valid(data) {
		// Numbers stay json.Number so integer ids past 2^53 keep every digit.
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
		return payload, nil
	}
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}
	return normalizeYAML(payload), nil
}

// normalizeYAML converts map[interface{}]interface{} nodes, which YAML produces
// for non-string keys, into JSON-compatible maps.
func normalizeYAML(v interface{}) interface{} {
	switch value := v.(type) {
	case map[string]interface{}:
		for k, item := range value {
			value[k] = normalizeYAML(item)
		}
		return value
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, item := range value {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []interface{}:
		for i, item := range value {
			value[i] = normalizeYAML(item)
		}
		return value
	default:
		return v
	}
}

func readObject(path string) (map[string]interface{}, error) {
	payload, err := readPayload(path)
	if err != nil {
		return nil, err
	}
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must contain a single object", path)
	}
	return obj, nil
}

func readDocuments(path string) ([]map[string]interface{}, error) {
	payload, err := readPayload(path)
	if err != nil {
		return nil, err
	}
	return search.ParseDocuments(payload)
}

// assignMissingIDs gives every document lacking idField a random UUID and returns how
// many were assigned.
func assignMissingIDs(docs []map[string]interface{}, idField string) int {
	assigned := 0
	for _, doc := range docs {
		if v, ok := doc[idField]; ok && v != nil && v != "" {
			continue
		}
		doc[idField] = uuid.NewString()
		assigned++
	}
	return assigned
}
