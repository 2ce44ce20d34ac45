package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"goarena/sgf"
	"goarena/types"
)

// LoadGameConfiguration reads a game configuration from path. The format
// follows the extension: .yaml and .yml are YAML, .sgf is an SGF record,
// anything else is JSON. A missing file yields (nil, nil).
func LoadGameConfiguration(path string) (*types.GameConfiguration, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg types.GameConfiguration
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = DecodeYAML(data)
	case ".sgf":
		cfg, err = sgf.Parse(string(data))
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &cfg, nil
}

// DecodeYAML decodes a YAML game configuration. The document is converted
// to JSON first so both formats share one set of decoding rules.
func DecodeYAML(data []byte) (types.GameConfiguration, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.GameConfiguration{}, err
	}
	raw, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return types.GameConfiguration{}, err
	}
	var cfg types.GameConfiguration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return types.GameConfiguration{}, err
	}
	return cfg, nil
}

// jsonCompatible turns the map[interface{}]interface{} values YAML may
// produce into map[string]interface{}.
func jsonCompatible(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		for k, item := range v {
			v[k] = jsonCompatible(item)
		}
		return v
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = jsonCompatible(item)
		}
		return out
	case []interface{}:
		for i, item := range v {
			v[i] = jsonCompatible(item)
		}
		return v
	}
	return v
}
