// Package config implements the ambient -profile convenience described
// in SPEC_FULL.md §A: a named bundle of default global flags loaded from
// ~/.csvfix.yaml. This is new ambient surface the distillation omitted,
// not a replacement for any spec.md behaviour.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Profile is one named bundle of default global-flag values.
type Profile struct {
	Sep        string            `yaml:"sep"`
	SmartQuote bool              `yaml:"smq"`
	Skip       string            `yaml:"skip"`
	Pass       string            `yaml:"pass"`
	Vars       map[string]string `yaml:"vars"`
}

// File is the on-disk shape of ~/.csvfix.yaml: a map of profile name to
// Profile.
type File struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Load reads and parses the config file at path. A missing file yields
// an empty File and no error (the feature is fully opt-in).
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &File{}, nil
	}
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// DefaultPath returns ~/.csvfix.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".csvfix.yaml"
	}
	return filepath.Join(home, ".csvfix.yaml")
}

// Lookup returns the named profile, or false if it isn't defined.
func (f *File) Lookup(name string) (Profile, bool) {
	p, ok := f.Profiles[name]
	return p, ok
}
