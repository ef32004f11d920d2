package config

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

const (
	// EnvFilesRoot overrides the blob storage root directory.
	EnvFilesRoot = "FILES_ROOT"

	// EnvFilesMaxUploadSize overrides the upload size limit (human readable,
	// e.g. "25MB").
	EnvFilesMaxUploadSize = "FILES_MAX_UPLOAD_SIZE"
)

// FilesConfig contains file storage configuration. MaxUploadSize accepts
// human-readable sizes such as "25MB".
type FilesConfig struct {
	Root          string `toml:"root"`
	MaxUploadSize string `toml:"max_upload_size"`
}

// MaxUploadSizeBytes returns the parsed upload size limit in bytes.
func (c *FilesConfig) MaxUploadSizeBytes() int64 {
	size, _ := units.FromHumanSize(c.MaxUploadSize)
	return size
}

// Finalize applies defaults, loads environment overrides, and validates the files configuration.
func (c *FilesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *FilesConfig) Merge(overlay *FilesConfig) {
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
}

func (c *FilesConfig) loadDefaults() {
	if c.Root == "" {
		c.Root = "data/files"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "25MB"
	}
}

func (c *FilesConfig) loadEnv() {
	if v := os.Getenv(EnvFilesRoot); v != "" {
		c.Root = v
	}
	if v := os.Getenv(EnvFilesMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *FilesConfig) validate() error {
	if _, err := units.FromHumanSize(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	return nil
}
