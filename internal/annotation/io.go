package annotation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeYAML parses and validates a YAML manifest.
func DecodeYAML(raw []byte) (*Manifest, error) {
	m := NewManifest()
	if err := yaml.Unmarshal(raw, m); err != nil {
		return nil, NewConstructionError("manifest.DecodeYAML", err)
	}
	return m.normalize()
}

// Read loads a manifest from a JSON or YAML file, chosen by extension.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isYAML(path) {
		return DecodeYAML(data)
	}
	return DecodeJSON(data)
}

// Write stores a manifest as JSON or YAML, chosen by extension.
func Write(m *Manifest, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(m)
	} else {
		data, err = json.MarshalIndent(m, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
