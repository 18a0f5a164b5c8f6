package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays a YAML config file onto opts. A missing file is not an
// error when the path was not explicitly configured; pass required=true for
// paths the user named on the command line.
func LoadFile(path string, opts Options, required bool) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return opts, nil
		}
		return opts, fmt.Errorf("config: read %s: %w", path, err)
	}

	// Unmarshal directly onto the current options so absent keys keep
	// their existing values.
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return opts.Normalize(), nil
}
