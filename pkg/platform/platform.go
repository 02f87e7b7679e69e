package platform

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/easytier/easytier-service/pkg/requirement"
)

const (
	// ToolName is the name of the companion toolset
	ToolName = "easytier"

	CoreName   = "easytier-core"
	CliName    = "easytier-cli"
	PacketName = "packet"
	WintunName = "wintun"
)

// File is a required file of an installation
type File struct {
	Role requirement.Role
	// Name is the file name on disk
	Name string
}

// Executable is an executable of an installation whose version can be queried
type Executable struct {
	Role requirement.Role
	// Name is the name the executable prints in front of its version
	Name string
	// FileName is the file name on disk
	FileName string
}

// Descriptor describes what an installation looks like on a specific host
type Descriptor struct {
	// OS is the upstream identifier of the operating system, e.g. linux, windows or macos
	OS string
	// Arch is the upstream identifier of the cpu architecture, e.g. x86_64 or aarch64
	Arch string
	// GOOS is the go identifier of the operating system
	GOOS string

	// Files are the required files in order
	Files []File
}

// Current returns the descriptor for the running process
func Current() *Descriptor {
	return For(runtime.GOOS, runtime.GOARCH)
}

// For returns the descriptor for the given go os and arch
func For(goos, goarch string) *Descriptor {
	d := &Descriptor{
		OS:   mapOS(goos),
		Arch: mapArch(goarch),
		GOOS: goos,
	}

	if d.IsWindows() {
		d.Files = []File{
			{Role: requirement.Core, Name: CoreName + ".exe"},
			{Role: requirement.Cli, Name: CliName + ".exe"},
			{Role: requirement.PacketLib, Name: "Packet.dll"},
			{Role: requirement.WintunLib, Name: "wintun.dll"},
		}
	} else {
		d.Files = []File{
			{Role: requirement.Core, Name: CoreName},
			{Role: requirement.Cli, Name: CliName},
		}
	}

	return d
}

// IsWindows checks if the descriptor targets windows
func (d *Descriptor) IsWindows() bool {
	return d.GOOS == "windows"
}

// InstallDirName returns the name of the installation directory, e.g. easytier-linux-x86_64
func (d *Descriptor) InstallDirName() string {
	return fmt.Sprintf("%s-%s-%s", ToolName, d.OS, d.Arch)
}

// InstallDir returns the installation directory below baseDir
func (d *Descriptor) InstallDir(baseDir string) string {
	return filepath.Join(baseDir, d.InstallDirName())
}

// Roles returns the roles of the required files
func (d *Descriptor) Roles() []requirement.Role {
	roles := make([]requirement.Role, 0, len(d.Files))
	for _, file := range d.Files {
		roles = append(roles, file.Role)
	}

	return roles
}

// Executables returns the executables whose versions are queried
func (d *Descriptor) Executables() []Executable {
	suffix := ""
	if d.IsWindows() {
		suffix = ".exe"
	}

	return []Executable{
		{Role: requirement.Core, Name: CoreName, FileName: CoreName + suffix},
		{Role: requirement.Cli, Name: CliName, FileName: CliName + suffix},
	}
}

// RoleFromFileName maps a file name to its role. The comparison is case insensitive and
// ignores .exe and .dll extensions. Names with characters other than alphanumerics and
// hyphens are never recognized.
func (d *Descriptor) RoleFromFileName(name string) requirement.Role {
	processed := strings.ToLower(name)
	processed = strings.ReplaceAll(processed, ".exe", "")
	processed = strings.ReplaceAll(processed, ".dll", "")
	if processed == "" || !isPlainName(processed) {
		return requirement.Other
	}

	if d.IsWindows() {
		switch processed {
		case PacketName:
			return requirement.PacketLib
		case WintunName:
			return requirement.WintunLib
		}
	}

	switch processed {
	case CoreName:
		return requirement.Core
	case CliName:
		return requirement.Cli
	default:
		return requirement.Other
	}
}

// DecodeRoles decodes a bitmask with the roles known on this platform
func (d *Descriptor) DecodeRoles(mask uint64) []requirement.Role {
	return requirement.Decode(mask, append([]requirement.Role{requirement.All, requirement.Other}, d.Roles()...))
}

// MatchesAsset checks if a release asset was built for this platform. GUI builds never match.
func (d *Descriptor) MatchesAsset(name string) bool {
	return !strings.Contains(name, "gui") && strings.Contains(name, d.OS) && strings.Contains(name, d.Arch)
}

func isPlainName(name string) bool {
	for _, c := range name {
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '-' {
			return false
		}
	}

	return true
}

// mapOS maps go GOOS values to the names upstream uses in asset names
func mapOS(goos string) string {
	switch goos {
	case "darwin":
		return "macos"
	default:
		return goos
	}
}

// mapArch maps go GOARCH values to the names upstream uses in asset names
func mapArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "x86"
	case "mips", "mipsle":
		return "mips"
	case "mips64", "mips64le":
		return "mips64"
	case "loong64":
		return "loongarch64"
	default:
		return goarch
	}
}
