package install

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/easytier/easytier-service/pkg/command"
	"github.com/easytier/easytier-service/pkg/errdefs"
	"github.com/easytier/easytier-service/pkg/platform"
	"github.com/easytier/easytier-service/pkg/requirement"
	"github.com/loft-sh/log"
)

const (
	// DefaultVersionTimeout bounds a single version run
	DefaultVersionTimeout = 10 * time.Second

	versionFlag = "--version"

	// versionWaitDelay bounds how long output pipes held by leftover child processes are
	// waited for once the version run was killed
	versionWaitDelay = time.Second
)

// Inspector inspects a toolset installation on disk
type Inspector struct {
	dir      string
	platform *platform.Descriptor
	timeout  time.Duration
	log      log.Logger
}

// NewInspector creates an inspector for the installation below baseDir
func NewInspector(baseDir string, descriptor *platform.Descriptor, timeout time.Duration, log log.Logger) *Inspector {
	if timeout <= 0 {
		timeout = DefaultVersionTimeout
	}

	return &Inspector{
		dir:      descriptor.InstallDir(baseDir),
		platform: descriptor,
		timeout:  timeout,
		log:      log,
	}
}

// Dir returns the installation directory
func (p *Inspector) Dir() string {
	return p.dir
}

// Missing returns the roles whose files don't exist in the installation directory, in the
// order the platform requires them
func (p *Inspector) Missing() []requirement.Role {
	missing := []requirement.Role{}
	for _, file := range p.platform.Files {
		if !exists(filepath.Join(p.dir, file.Name)) {
			missing = append(missing, file.Role)
		}
	}

	return missing
}

// IsInstalled checks if every required file exists
func (p *Inspector) IsInstalled() bool {
	return len(p.Missing()) == 0
}

// ReadVersion runs every executable with --version. Executables that are missing or fail
// leave their field nil.
func (p *Inspector) ReadVersion(ctx context.Context) (*Version, error) {
	if !p.IsInstalled() {
		return nil, errdefs.ErrNotInstalled
	}

	version := &Version{}
	for _, executable := range p.platform.Executables() {
		v := p.runVersion(ctx, executable)
		switch executable.Role {
		case requirement.Core:
			version.Core = v
		case requirement.Cli:
			version.Cli = v
		}
	}

	return version, nil
}

func (p *Inspector) runVersion(ctx context.Context, executable platform.Executable) *string {
	path := filepath.Join(p.dir, executable.FileName)
	if !exists(path) {
		return nil
	}

	// relative paths would be looked up in PATH otherwise
	absPath, err := filepath.Abs(path)
	if err != nil {
		p.log.Debugf("Resolve %s: %v", path, err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, absPath, versionFlag)
	cmd.WaitDelay = versionWaitDelay
	command.HideWindow(cmd)
	p.log.Debugf("Run %s", command.Quote(absPath, versionFlag))
	out, err := cmd.Output()
	if err != nil {
		p.log.Debugf("Read version of %s: %v", executable.Name, command.WrapCommandError(out, err))
		return nil
	}

	v, ok := ParseVersion(executable.Name, DecodeOutput(out, p.platform.IsWindows()))
	if !ok {
		p.log.Debugf("Empty version output from %s", executable.Name)
		return nil
	}

	return &v
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
