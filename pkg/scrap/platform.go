package scrap

import (
	"fmt"
	"runtime"
)

// Platform identifies an operating system / architecture pair using the
// manifest naming conventions.
type Platform struct {
	OS   string
	Arch string
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

var osNames = map[string]string{
	"windows": "windows",
	"linux":   "linux",
	"darwin":  "macos",
}

var archNames = map[string]string{
	"amd64": "x86_64",
	"arm64": "aarch64",
}

// CurrentPlatform maps runtime.GOOS/GOARCH onto the manifest platform
// tokens. Platforms outside the lookup tables are not supported.
func CurrentPlatform() (Platform, error) {
	osName, ok := osNames[runtime.GOOS]
	if !ok {
		return Platform{}, fmt.Errorf("unsupported operating system: '%s'", runtime.GOOS)
	}
	archName, ok := archNames[runtime.GOARCH]
	if !ok {
		return Platform{}, fmt.Errorf("unsupported architecture: '%s'", runtime.GOARCH)
	}
	return Platform{OS: osName, Arch: archName}, nil
}
