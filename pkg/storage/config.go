package storage

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config locates the blob container that archives uploads.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	MaxListSize      int32  `toml:"max_list_size"`
}

// Env names the environment variables that override Config.
type Env struct {
	ContainerName    string
	ConnectionString string
	MaxListSize      string
}

// Finalize fills defaults, applies env overrides and validates.
// MaxListSize is clamped to MaxListCap.
func (c *Config) Finalize(env *Env) error {
	if c.ContainerName == "" {
		c.ContainerName = "imports"
	}
	if c.MaxListSize <= 0 {
		c.MaxListSize = 50
	}

	if env != nil {
		if v := lookup(env.ContainerName); v != "" {
			c.ContainerName = v
		}
		if v := lookup(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
		if n, err := strconv.Atoi(lookup(env.MaxListSize)); err == nil && n > 0 {
			c.MaxListSize = int32(min(n, int(MaxListCap)))
		}
	}

	c.MaxListSize = min(c.MaxListSize, MaxListCap)

	if c.ConnectionString == "" {
		return errors.New("connection_string required")
	}
	return validContainer(c.ContainerName)
}

// Merge applies the non-zero values of overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.MaxListSize != 0 {
		c.MaxListSize = overlay.MaxListSize
	}
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// validContainer applies the blob service naming rules: 3 to 63 lowercase
// letters, digits and single hyphens, starting and ending alphanumeric.
func validContainer(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return fmt.Errorf("container_name %q must be 3-63 characters", name)
	}

	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
		case ch == '-' && i > 0 && i < len(name)-1 && name[i-1] != '-':
		default:
			return fmt.Errorf("container_name %q may only hold lowercase letters, digits and single inner hyphens", name)
		}
	}
	return nil
}
