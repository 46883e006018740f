package gate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfigFile reads a YAML config file into a Settings overlay. A
// missing file is not an error — it simply means no file layer applies,
// consistent with "config file -> defaults" being the lowest-precedence,
// optional layer.
func LoadConfigFile(path string) (*Settings, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &s, nil
}
