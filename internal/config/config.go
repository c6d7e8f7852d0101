package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/calaisgraph/internal/platform/envutil"
)

// FieldSpec names one field of an analyzable object and the content type it
// is submitted as.
type FieldSpec struct {
	Name        string `yaml:"name"`
	ContentType string `yaml:"content_type"`
}

type Config struct {
	// DefaultFields lists the fields analyzed per owner type when the caller
	// passes none.
	DefaultFields map[string][]FieldSpec `yaml:"default_fields"`
}

// Fields returns the default fields for ownerType, or nil.
func (c *Config) Fields(ownerType string) []FieldSpec {
	if c == nil {
		return nil
	}
	return c.DefaultFields[ownerType]
}

// LoadFromEnv reads the file named by CALAIS_CONFIG. An unset variable
// yields an empty config.
func LoadFromEnv() (*Config, error) {
	path := strings.TrimSpace(envutil.String("CALAIS_CONFIG", ""))
	if path == "" {
		return &Config{DefaultFields: map[string][]FieldSpec{}}, nil
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return Parse(file)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DefaultFields == nil {
		cfg.DefaultFields = map[string][]FieldSpec{}
	}
	for owner, fields := range cfg.DefaultFields {
		for i, f := range fields {
			if strings.TrimSpace(f.Name) == "" {
				return nil, fmt.Errorf("default_fields.%s[%d]: name required", owner, i)
			}
			fields[i].Name = strings.TrimSpace(f.Name)
			fields[i].ContentType = strings.TrimSpace(f.ContentType)
		}
	}
	return &cfg, nil
}
