package config

import (
	"os"
	"strconv"
)

const (
	// EnvDefinitionsAutodeployDir overrides the schema autodeploy directory.
	EnvDefinitionsAutodeployDir = "DEFINITIONS_AUTODEPLOY_DIR"

	// EnvDefinitionsReadOnly overrides the read-only flag for autodeployed schemas.
	EnvDefinitionsReadOnly = "DEFINITIONS_READ_ONLY"

	// EnvDefinitionsForce overrides the force flag for autodeployed schemas.
	EnvDefinitionsForce = "DEFINITIONS_FORCE"
)

// DefinitionsConfig controls schema autodeployment at startup. When
// AutodeployDir is empty, autodeployment is disabled.
type DefinitionsConfig struct {
	AutodeployDir string `toml:"autodeploy_dir"`
	ReadOnly      bool   `toml:"read_only"`
	Force         bool   `toml:"force"`
}

// Finalize loads environment overrides.
func (c *DefinitionsConfig) Finalize() error {
	c.loadEnv()
	return nil
}

// Merge applies values from overlay configuration.
func (c *DefinitionsConfig) Merge(overlay *DefinitionsConfig) {
	if overlay.AutodeployDir != "" {
		c.AutodeployDir = overlay.AutodeployDir
	}
	c.ReadOnly = overlay.ReadOnly
	c.Force = overlay.Force
}

func (c *DefinitionsConfig) loadEnv() {
	if v := os.Getenv(EnvDefinitionsAutodeployDir); v != "" {
		c.AutodeployDir = v
	}
	if v := os.Getenv(EnvDefinitionsReadOnly); v != "" {
		if readOnly, err := strconv.ParseBool(v); err == nil {
			c.ReadOnly = readOnly
		}
	}
	if v := os.Getenv(EnvDefinitionsForce); v != "" {
		if force, err := strconv.ParseBool(v); err == nil {
			c.Force = force
		}
	}
}
