package install

import (
	"strings"
)

// Version holds the versions of the installed executables. A nil field means the
// executable is missing or its version couldn't be read.
type Version struct {
	Core *string `json:"core"`
	Cli  *string `json:"cli"`
}

// Complete checks if the versions of both executables are known
func (v *Version) Complete() bool {
	return v != nil && v.Core != nil && v.Cli != nil
}

// ParseVersion extracts the version from the output of `<name> --version`. The first non-empty
// line is used and a leading "<name> " is removed, so "easytier-core 1.2.3\n" becomes "1.2.3".
// Returns false if nothing is left.
func ParseVersion(name, output string) (string, bool) {
	line := ""
	for _, l := range strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(l) != "" {
			line = strings.TrimSpace(l)
			break
		}
	}

	if strings.HasPrefix(line, name+" ") {
		line = strings.TrimSpace(strings.TrimPrefix(line, name+" "))
	}
	if line == "" {
		return "", false
	}

	return line, true
}
