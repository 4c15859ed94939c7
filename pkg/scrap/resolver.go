package scrap

import "regexp"

var placeholderRegex = regexp.MustCompile(`\$\{(\w+)}`)

// ExpandVariables replaces ${key} placeholders in the template with values
// from the given map. Unknown keys are left verbatim. Substituted values
// are never expanded again, the replacement is a single pass.
func ExpandVariables(template string, variables map[string]string) string {
	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		// Strip "${" and "}".
		key := match[2 : len(match)-1]
		if value, ok := variables[key]; ok {
			return value
		}
		return match
	})
}

// ResolveArchive returns the first archive of the version exactly matching
// the given platform.
func ResolveArchive(version *AppVersion, platform Platform) (*Archive, error) {
	for i := range version.Archives {
		archive := &version.Archives[i]
		if archive.OS == platform.OS && archive.Arch == platform.Arch {
			return archive, nil
		}
	}

	supported := make([]Platform, len(version.Archives))
	for i, archive := range version.Archives {
		supported[i] = Platform{OS: archive.OS, Arch: archive.Arch}
	}
	return nil, &PlatformUnsupportedError{
		OS:        platform.OS,
		Arch:      platform.Arch,
		Supported: supported,
	}
}

// ResolveDownloadURL builds the fully-expanded download URL for an
// archive. The archive-level template takes precedence over the
// version-level one. The "ext" variable is only bound when the archive
// declares an extension; a template referencing ${ext} without one keeps
// the placeholder verbatim.
func ResolveDownloadURL(version *AppVersion, archive *Archive) (string, error) {
	template := archive.URL
	if template == "" {
		template = version.URL
	}
	if template == "" {
		return "", ErrNoDownloadURL
	}

	variables := map[string]string{
		"version": version.Version,
		"os":      archive.OS,
		"arch":    archive.Arch,
	}
	if archive.Ext != "" {
		variables["ext"] = archive.Ext
	}
	return ExpandVariables(template, variables), nil
}
