package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a YAML profile file and returns a validated Profile.
func LoadFromFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile file: %w", err)
	}

	var prof Profile
	if err := yaml.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("parsing profile YAML: %w", err)
	}

	if err := validate(&prof); err != nil {
		return nil, fmt.Errorf("validating profile: %w", err)
	}

	return &prof, nil
}
