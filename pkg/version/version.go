package version

import "strings"

// DevVersion is the version of builds without release ldflags
var DevVersion = "v0.0.0"

// set with -ldflags "-X github.com/easytier/easytier-service/pkg/version.version=v1.2.3"
var version = "v0.0.0"

func GetVersion() string {
	return version
}

// GetSemver returns the version without the leading v
func GetSemver() string {
	return strings.TrimPrefix(version, "v")
}

func IsDev() bool {
	return version == DevVersion
}
