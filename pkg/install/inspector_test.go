package install

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/easytier/easytier-service/pkg/errdefs"
	"github.com/easytier/easytier-service/pkg/platform"
	"github.com/easytier/easytier-service/pkg/requirement"
	"github.com/loft-sh/log"
	"gotest.tools/assert"
)

func writeScript(t *testing.T, path, content string) {
	assert.NilError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NilError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+content+"\n"), 0o755))
}

func TestInspectorMissing(t *testing.T) {
	baseDir := t.TempDir()
	inspector := NewInspector(baseDir, platform.For("linux", "amd64"), time.Second, log.Discard)
	assert.Equal(t, filepath.Join(baseDir, "easytier-linux-x86_64"), inspector.Dir())
	assert.DeepEqual(t, []requirement.Role{requirement.Core, requirement.Cli}, inspector.Missing())

	_, err := inspector.ReadVersion(context.Background())
	assert.Assert(t, errdefs.IsNotInstalled(err))

	writeScript(t, filepath.Join(inspector.Dir(), "easytier-core"), "echo core")
	assert.DeepEqual(t, []requirement.Role{requirement.Cli}, inspector.Missing())
	assert.Assert(t, !inspector.IsInstalled())

	windows := NewInspector(baseDir, platform.For("windows", "amd64"), time.Second, log.Discard)
	assert.DeepEqual(t, []requirement.Role{requirement.Core, requirement.Cli, requirement.PacketLib, requirement.WintunLib}, windows.Missing())
}

func TestInspectorReadVersion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	descriptor := platform.Current()
	inspector := NewInspector(t.TempDir(), descriptor, 5*time.Second, log.Discard)
	writeScript(t, filepath.Join(inspector.Dir(), "easytier-core"), `echo "easytier-core 1.2.3"`)
	writeScript(t, filepath.Join(inspector.Dir(), "easytier-cli"), "exit 3")

	v, err := inspector.ReadVersion(context.Background())
	assert.NilError(t, err)
	assert.Assert(t, v.Core != nil)
	assert.Equal(t, "1.2.3", *v.Core)
	assert.Assert(t, v.Cli == nil)
	assert.Assert(t, !v.Complete())

	writeScript(t, filepath.Join(inspector.Dir(), "easytier-cli"), `echo "easytier-cli 1.2.3"`)
	v, err = inspector.ReadVersion(context.Background())
	assert.NilError(t, err)
	assert.Assert(t, v.Complete())
	assert.Equal(t, "1.2.3", *v.Cli)
}

func TestInspectorTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	inspector := NewInspector(t.TempDir(), platform.Current(), 200*time.Millisecond, log.Discard)
	writeScript(t, filepath.Join(inspector.Dir(), "easytier-core"), "exec sleep 5")
	writeScript(t, filepath.Join(inspector.Dir(), "easytier-cli"), `echo "easytier-cli 1.0"`)

	v, err := inspector.ReadVersion(context.Background())
	assert.NilError(t, err)
	assert.Assert(t, v.Core == nil)
	assert.Equal(t, "1.0", *v.Cli)
}

func TestInspectorTimeoutWithChildProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	inspector := NewInspector(t.TempDir(), platform.Current(), 200*time.Millisecond, log.Discard)
	// the shell forks sleep, which keeps stdout open after the shell is killed
	writeScript(t, filepath.Join(inspector.Dir(), "easytier-core"), "sleep 5")
	writeScript(t, filepath.Join(inspector.Dir(), "easytier-cli"), `echo "easytier-cli 1.0"`)

	start := time.Now()
	v, err := inspector.ReadVersion(context.Background())
	assert.NilError(t, err)
	assert.Assert(t, time.Since(start) < 3*time.Second, "version run took %s", time.Since(start))
	assert.Assert(t, v.Core == nil)
	assert.Equal(t, "1.0", *v.Cli)
}
