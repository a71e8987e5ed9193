package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zhubert/uartspy/paths"
)

// Load reads the profile at path. Keys missing from the file keep their
// default values; a missing file yields DefaultProfile. An empty path selects
// the profile in the config directory.
func Load(path string) (*Profile, error) {
	if path == "" {
		var err error
		path, err = paths.ProfilePath()
		if err != nil {
			return nil, err
		}
	}

	p := DefaultProfile()
	p.filePath = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if errs := Validate(p); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, fmt.Errorf("invalid profile %s: %w", path, errors.Join(joined...))
	}

	return p, nil
}

// Save writes the profile to its file path as YAML.
func (p *Profile) Save() error {
	if p.filePath == "" {
		return fmt.Errorf("profile has no file path")
	}
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		return err
	}

	data, err := p.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(p.filePath, data, 0644)
}

// Marshal renders the profile as YAML.
func (p *Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

// SetFilePath sets the profile file path (for testing).
func (p *Profile) SetFilePath(path string) {
	p.filePath = path
}
