package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/metaq/metaq/loader"
)

// Config holds the file-based configuration. Flags override whatever
// the file sets.
type Config struct {
	// Data is the base path scanned for metadata folders.
	Data string `yaml:"data"`

	// MetadataFile overrides the per-folder document name.
	MetadataFile string `yaml:"metadata_file,omitempty"`

	// Format is the default output format (grid|json|csv).
	Format string `yaml:"format,omitempty"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose,omitempty"`
}

// DefaultConfigFile is looked up in the working directory when no
// --config flag is given.
const DefaultConfigFile = "metaq.yaml"

// LoadConfig reads a YAML config file. A missing default file is not
// an error; an explicitly named missing file is.
func LoadConfig(path string, explicit bool) (Config, error) {
	cfg := Config{
		Data:         "raw_dat",
		MetadataFile: loader.MetadataFile,
		Format:       "grid",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.MetadataFile == "" {
		cfg.MetadataFile = loader.MetadataFile
	}
	if cfg.Format == "" {
		cfg.Format = "grid"
	}
	return cfg, nil
}
