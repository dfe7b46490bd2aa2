package grep

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/esgrep/esgrep"
	"github.com/esgrep/esgrep/scanner"
)

// DefaultConfigFile is the configuration file read from the working directory.
const DefaultConfigFile = ".esgrep.yaml"

// Formats lists the accepted output formats.
var Formats = []string{"pretty", "oneline", "jsonl", "count"}

// Config is the content of a configuration file.
type Config struct {
	Format         string `yaml:"format"`
	esgrep.Options `yaml:",inline"`
	Extensions     []string `yaml:"extensions"`
	Exclude        string   `yaml:"exclude,omitempty"`
	Jobs           int      `yaml:"jobs"`
	Prefilter      bool     `yaml:"prefilter"`
}

func DefaultConfig() Config {
	return Config{
		Format:     "pretty",
		Extensions: slices.Clone(scanner.Extensions),
		Jobs:       runtime.NumCPU(),
		Prefilter:  true,
	}
}

// LoadConfig reads the configuration file at path on top of the defaults.
// A missing file yields the defaults when allowMissing is set.
func LoadConfig(path string, allowMissing bool) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if allowMissing && errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("%s: %w", path, err)
	}

	return config, config.Validate()
}

// Validate checks the values a file or flags can get wrong.
func (c Config) Validate() error {
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q, want one of %v", c.Format, Formats)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if _, err := c.excludeRegex(); err != nil {
		return err
	}
	return nil
}

// SaveConfig writes config to path, replacing any existing file.
func SaveConfig(path string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(d)
	return err
}
