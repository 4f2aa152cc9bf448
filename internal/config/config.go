// Package config loads optional akmc.toml project defaults: output
// directory, a named capability profile, and a default security level.
// CLI flags always take precedence over anything found here.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the parsed form of akmc.toml.
type Config struct {
	Output struct {
		Dir string `toml:"dir"`
	} `toml:"output"`

	Profiles map[string]Profile `toml:"profiles"`

	Build struct {
		Profile       string `toml:"profile"`
		SecurityLevel uint8  `toml:"security-level"`
		Optimize      bool   `toml:"optimize"`
	} `toml:"build"`

	// Dir is the directory containing akmc.toml (set at load time).
	Dir string `toml:"-"`
}

// Profile is a named set of capability names, selected by build.profile.
type Profile struct {
	Capabilities []string `toml:"capabilities"`
}

// Load parses akmc.toml from dir.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "akmc.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return &c, nil
}

// FindAndLoad walks up from startDir looking for akmc.toml, the same
// way maggie.toml discovery works in the teacher's manifest package.
// It returns nil, nil if no akmc.toml is found anywhere above startDir.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "akmc.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// ResolveProfile returns the capability names for the named profile, or
// false if the profile doesn't exist in c.
func (c *Config) ResolveProfile(name string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.Profiles[name]
	return p.Capabilities, ok
}

// OutputDir returns the configured default output directory, resolved
// relative to the config file's own directory, or "" if unset.
func (c *Config) OutputDir() string {
	if c == nil || c.Output.Dir == "" {
		return ""
	}
	if filepath.IsAbs(c.Output.Dir) {
		return c.Output.Dir
	}
	return filepath.Join(c.Dir, c.Output.Dir)
}
