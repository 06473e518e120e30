package config

import (
	"fmt"

	"github.com/ejosa-pasquale/HoreCa/pkg/export"
)

// OutputConfig selects where and how results are exported.
type OutputConfig struct {
	Directory string   `json:"directory"`
	Formats   []string `json:"formats"`
}

// SetDefaults writes both formats to ./out.
func (c *OutputConfig) SetDefaults() {
	if c.Directory == "" {
		c.Directory = "out"
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{export.FormatCSV, export.FormatJSON}
	}
}

// Validate checks the format names.
func (c OutputConfig) Validate() error {
	for _, f := range c.Formats {
		switch f {
		case export.FormatCSV, export.FormatJSON, export.FormatHTML:
		default:
			return fmt.Errorf("output format %q: want %s, %s or %s", f, export.FormatCSV, export.FormatJSON, export.FormatHTML)
		}
	}
	return nil
}

// Wants reports whether format f is enabled.
func (c OutputConfig) Wants(f string) bool {
	for _, x := range c.Formats {
		if x == f {
			return true
		}
	}
	return false
}
