package scrap

import "slices"

// Config is the top-level install request: the buckets to make available
// and the apps to install from them.
type Config struct {
	Buckets []Bucket `json:"buckets,omitempty"`
	Apps    []App    `json:"apps,omitempty"`
}

// App is one application entry in a config file.
type App struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Bucket references a bucket by name or id.
	Bucket string `json:"bucket,omitempty"`
	// OS and Arch are allow-lists. An unset list allows every value.
	OS   []string `json:"os,omitempty"`
	Arch []string `json:"arch,omitempty"`
}

// SupportedOn reports whether the app's platform filters allow the given
// platform. A filter that is set must contain the current value.
func (a *App) SupportedOn(platform Platform) bool {
	if a.OS != nil && !slices.Contains(a.OS, platform.OS) {
		return false
	}
	if a.Arch != nil && !slices.Contains(a.Arch, platform.Arch) {
		return false
	}
	return true
}

// LoadConfig reads and parses a config file.
func LoadConfig(path string) (*Config, error) {
	var config Config
	if err := readJSONFile(path, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save writes the config as indented JSON.
func (c *Config) Save(path string) error {
	return writeJSONFile(path, c)
}
