package toolset

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/easytier/easytier-service/pkg/binaries"
	"github.com/easytier/easytier-service/pkg/errdefs"
	"github.com/easytier/easytier-service/pkg/install"
	"github.com/easytier/easytier-service/pkg/platform"
	"github.com/easytier/easytier-service/pkg/release"
	"github.com/easytier/easytier-service/pkg/requirement"
	"github.com/easytier/easytier-service/pkg/testutil"
	"github.com/loft-sh/log"
	"github.com/pkg/errors"
	"gotest.tools/assert"
)

type fakeCatalog struct {
	releases []release.Release
	err      error
	calls    int
}

func (f *fakeCatalog) ListReleases(ctx context.Context, filterToPlatform bool) ([]release.Release, error) {
	f.calls++
	return f.releases, f.err
}

type fakeInspector struct {
	missing []requirement.Role
	version *install.Version
}

func (f *fakeInspector) Dir() string { return "dir" }

func (f *fakeInspector) Missing() []requirement.Role { return f.missing }

func (f *fakeInspector) IsInstalled() bool { return len(f.missing) == 0 }

func (f *fakeInspector) ReadVersion(ctx context.Context) (*install.Version, error) {
	if len(f.missing) > 0 {
		return nil, errdefs.ErrNotInstalled
	}

	return f.version, nil
}

type fakeInstaller struct {
	inspector *fakeInspector
	err    error

	assetURL string
	roles    []requirement.Role
	calls    int
}

func (f *fakeInstaller) FetchAndInstall(ctx context.Context, assetURL, targetFolder string, roles []requirement.Role) error {
	f.calls++
	f.assetURL = assetURL
	f.roles = roles
	if f.err != nil {
		return f.err
	}

	f.inspector.missing = nil
	return nil
}

func stringPtr(s string) *string {
	return &s
}

func latestRelease(assets ...release.Asset) []release.Release {
	return []release.Release{
		{TagName: "v2.0.0", Assets: assets},
		{TagName: "v1.0.0", Assets: []release.Asset{{Name: "old.zip", BrowserDownloadURL: "https://example.com/old.zip"}}},
	}
}

func newFakeManager(catalog *fakeCatalog, inspector *fakeInspector) (*Manager, *fakeInstaller) {
	installer := &fakeInstaller{inspector: inspector}
	return NewManager("base", catalog, inspector, installer, log.Discard), installer
}

func TestCheckForUpdate(t *testing.T) {
	type testCase struct {
		name     string
		releases []release.Release
		inspector   *fakeInspector

		expectedTag   string
		expectedState State
	}

	complete := &install.Version{Core: stringPtr("1.0"), Cli: stringPtr("1.0")}
	testCases := []testCase{
		{
			name:          "no releases",
			inspector:        &fakeInspector{missing: []requirement.Role{requirement.Core}},
			expectedState: StateUpToDate,
		},
		{
			name:          "not installed",
			releases:      latestRelease(release.Asset{Name: "new.zip"}),
			inspector:        &fakeInspector{missing: []requirement.Role{requirement.Core, requirement.Cli}},
			expectedTag:   "v2.0.0",
			expectedState: StateNeedsRepair,
		},
		{
			name:          "unreadable version",
			releases:      latestRelease(release.Asset{Name: "new.zip"}),
			inspector:        &fakeInspector{version: &install.Version{Core: stringPtr("1.0")}},
			expectedTag:   "v2.0.0",
			expectedState: StateNeedsRepair,
		},
		{
			name:          "installed",
			releases:      latestRelease(release.Asset{Name: "new.zip"}),
			inspector:        &fakeInspector{version: complete},
			expectedState: StateUpToDate,
		},
	}

	for _, testCase := range testCases {
		manager, _ := newFakeManager(&fakeCatalog{releases: testCase.releases}, testCase.inspector)
		latest, err := manager.CheckForUpdate(context.Background())
		assert.NilError(t, err, testCase.name)
		if testCase.expectedTag == "" {
			assert.Assert(t, latest == nil, "expected no release in %s", testCase.name)
		} else {
			assert.Assert(t, latest != nil, "expected a release in %s", testCase.name)
			assert.Equal(t, testCase.expectedTag, latest.TagName, testCase.name)
		}
		assert.Equal(t, testCase.expectedState, manager.State(), testCase.name)
	}
}

func TestCheckForUpdateError(t *testing.T) {
	catalog := &fakeCatalog{err: errdefs.Network(errors.New("offline"))}
	manager, _ := newFakeManager(catalog, &fakeInspector{})

	_, err := manager.CheckForUpdate(context.Background())
	assert.Assert(t, errdefs.IsNetwork(err))
	assert.Equal(t, StateUnknown, manager.State())
}

func TestEnsureInstalledNothingMissing(t *testing.T) {
	catalog := &fakeCatalog{}
	inspector := &fakeInspector{version: &install.Version{Core: stringPtr("1.0"), Cli: stringPtr("1.0")}}
	manager, installer := newFakeManager(catalog, inspector)

	v, err := manager.EnsureInstalled(context.Background(), false)
	assert.NilError(t, err)
	assert.Equal(t, "1.0", *v.Core)
	assert.Equal(t, 0, catalog.calls)
	assert.Equal(t, 0, installer.calls)
	assert.Equal(t, StateUpToDate, manager.State())
}

func TestEnsureInstalledMissing(t *testing.T) {
	catalog := &fakeCatalog{releases: latestRelease(release.Asset{Name: "new.zip", BrowserDownloadURL: "https://example.com/new.zip"})}
	inspector := &fakeInspector{
		missing: []requirement.Role{requirement.Cli},
		version: &install.Version{Core: stringPtr("1.0"), Cli: stringPtr("2.0")},
	}
	manager, installer := newFakeManager(catalog, inspector)

	v, err := manager.EnsureInstalled(context.Background(), false)
	assert.NilError(t, err)
	assert.Equal(t, "2.0", *v.Cli)
	assert.Equal(t, "https://example.com/new.zip", installer.assetURL)
	assert.DeepEqual(t, []requirement.Role{requirement.Cli}, installer.roles)
	assert.Equal(t, StateRepaired, manager.State())
}

func TestEnsureInstalledForce(t *testing.T) {
	catalog := &fakeCatalog{releases: latestRelease(release.Asset{Name: "new.zip", BrowserDownloadURL: "https://example.com/new.zip"})}
	inspector := &fakeInspector{version: &install.Version{Core: stringPtr("1.0"), Cli: stringPtr("1.0")}}
	manager, installer := newFakeManager(catalog, inspector)

	_, err := manager.EnsureInstalled(context.Background(), true)
	assert.NilError(t, err)
	assert.Equal(t, 1, installer.calls)
	assert.DeepEqual(t, []requirement.Role{requirement.All}, installer.roles)
}

func TestInstallRoles(t *testing.T) {
	catalog := &fakeCatalog{releases: latestRelease(release.Asset{Name: "new.zip", BrowserDownloadURL: "https://example.com/new.zip"})}
	inspector := &fakeInspector{version: &install.Version{Core: stringPtr("1.0"), Cli: stringPtr("1.0")}}
	manager, installer := newFakeManager(catalog, inspector)

	_, err := manager.InstallRoles(context.Background(), []requirement.Role{requirement.Cli})
	assert.NilError(t, err)
	assert.Equal(t, 1, installer.calls)
	assert.DeepEqual(t, []requirement.Role{requirement.Cli}, installer.roles)
	assert.Equal(t, StateRepaired, manager.State())

	_, err = manager.InstallRoles(context.Background(), nil)
	assert.NilError(t, err)
	assert.Equal(t, 1, installer.calls)
	assert.Equal(t, StateUpToDate, manager.State())
}

func TestEnsureInstalledErrors(t *testing.T) {
	type testCase struct {
		name     string
		releases []release.Release
		err      error

		check func(err error) bool
	}

	testCases := []testCase{
		{name: "no release", check: errdefs.IsNoRelease},
		{name: "no asset", releases: latestRelease(), check: errdefs.IsNoAsset},
		{name: "catalog error", err: errdefs.Decode(errors.New("bad json")), check: errdefs.IsDecode},
	}

	for _, testCase := range testCases {
		catalog := &fakeCatalog{releases: testCase.releases, err: testCase.err}
		inspector := &fakeInspector{missing: []requirement.Role{requirement.Core, requirement.Cli}}
		manager, installer := newFakeManager(catalog, inspector)

		_, err := manager.EnsureInstalled(context.Background(), false)
		assert.Assert(t, testCase.check(err), "unexpected error in %s: %v", testCase.name, err)
		assert.Equal(t, 0, installer.calls, testCase.name)
		assert.Equal(t, StateRepairFailed, manager.State(), testCase.name)
	}
}

func TestEnsureInstalledPartialRepair(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	descriptor := platform.For(runtime.GOOS, runtime.GOARCH)
	assetName := "easytier-" + descriptor.OS + "-" + descriptor.Arch + "-v2.0.0.zip"
	dirName := descriptor.InstallDirName()

	server := testutil.NewReleaseServer(t, "easytier", "easytier")
	server.AddRelease("v2.0.0", testutil.ReleaseAsset{
		Name: assetName,
		Archive: testutil.Zip(t,
			testutil.Entry{Name: dirName + "/"},
			testutil.Script(dirName+"/easytier-core", "easytier-core", "2.0.0"),
			testutil.Script(dirName+"/easytier-cli", "easytier-cli", "2.0.0"),
		),
	})

	baseDir := t.TempDir()
	installDir := filepath.Join(baseDir, dirName)
	assert.NilError(t, os.MkdirAll(installDir, 0o755))
	oldCore := []byte("#!/bin/sh\necho \"easytier-core 1.0.0\"\n")
	assert.NilError(t, os.WriteFile(filepath.Join(installDir, "easytier-core"), oldCore, 0o755))

	catalog, err := release.NewClient(&http.Client{}, release.Options{
		Owner:      "easytier",
		Repo:       "easytier",
		BaseURL:    server.URL,
		MatchAsset: descriptor.MatchesAsset,
	}, log.Discard)
	assert.NilError(t, err)
	inspector := install.NewInspector(baseDir, descriptor, 5*time.Second, log.Discard)
	installer := binaries.NewInstaller(&http.Client{}, "", "", descriptor, log.Discard)
	manager := NewManager(baseDir, catalog, inspector, installer, log.Discard)

	v, err := manager.EnsureInstalled(context.Background(), false)
	assert.NilError(t, err)
	assert.Equal(t, "1.0.0", *v.Core)
	assert.Equal(t, "2.0.0", *v.Cli)

	core, err := os.ReadFile(filepath.Join(installDir, "easytier-core"))
	assert.NilError(t, err)
	assert.DeepEqual(t, oldCore, core)

	v, err = manager.EnsureInstalled(context.Background(), true)
	assert.NilError(t, err)
	assert.Equal(t, "2.0.0", *v.Core)
	assert.Equal(t, 2, server.Downloads(assetName))
}
