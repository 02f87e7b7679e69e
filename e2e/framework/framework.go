package framework

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/easytier/easytier-service/pkg/config"
	"github.com/easytier/easytier-service/pkg/platform"
	"github.com/easytier/easytier-service/pkg/server"
	"github.com/easytier/easytier-service/pkg/testutil"
	"github.com/easytier/easytier-service/pkg/toolset"
	"github.com/easytier/easytier-service/pkg/token"
	"github.com/loft-sh/log"
	"github.com/onsi/ginkgo/v2"
	"github.com/otiai10/copy"
)

// Framework runs the api in process against a fake release catalog
type Framework struct {
	TestDirectory string
	Platform      *platform.Descriptor
	Releases      *testutil.ReleaseServer

	api   *httptest.Server
	token string
}

func NewDefaultFramework() *Framework {
	return &Framework{
		Platform: platform.Current(),
		Releases: testutil.NewReleaseServer(ginkgo.GinkgoT(), config.DefaultOwner, config.DefaultRepo),
	}
}

func (f *Framework) SetupTestDirectory() error {
	dir, err := CreateTempDir()
	if err != nil {
		return err
	}
	f.TestDirectory = dir
	return nil
}

func (f *Framework) TeardownTestDirectory() error {
	if f.api != nil {
		f.api.Close()
	}

	return os.RemoveAll(f.TestDirectory)
}

// InstallDir returns the installation directory of the current platform
func (f *Framework) InstallDir() string {
	return f.Platform.InstallDir(f.TestDirectory)
}

// SeedInstallation copies the contents of seedDir into the installation directory
func (f *Framework) SeedInstallation(seedDir string) error {
	return copy.Copy(seedDir, f.InstallDir())
}

// AssetName is the release asset name of the current platform
func (f *Framework) AssetName(tag string) string {
	return fmt.Sprintf("easytier-%s-%s-%s.zip", f.Platform.OS, f.Platform.Arch, tag)
}

// PublishRelease publishes tag with a single asset for the current platform that contains
// scripts printing tag as their version
func (f *Framework) PublishRelease(tag string) {
	dirName := f.Platform.InstallDirName()
	entries := []testutil.Entry{{Name: dirName + "/"}}
	for _, executable := range f.Platform.Executables() {
		entries = append(entries, testutil.Script(dirName+"/"+executable.FileName, executable.Name, tag))
	}

	f.Releases.AddRelease(tag,
		testutil.ReleaseAsset{Name: "easytier-gui-" + f.Platform.OS + "-" + f.Platform.Arch + ".zip", Archive: []byte("gui")},
		testutil.ReleaseAsset{Name: f.AssetName(tag), Archive: testutil.Zip(ginkgo.GinkgoT(), entries...)},
	)
}

// StartServer wires the service against the fake catalog the way `serve` does
func (f *Framework) StartServer() error {
	cfg := config.Default()
	cfg.APIBaseURL = f.Releases.URL
	cfg.Mirror = ""
	cfg.BaseDir = f.TestDirectory
	cfg.TokenFile = filepath.Join(f.TestDirectory, config.DefaultTokenFile)
	cfg.VersionTimeout = 5 * time.Second
	if err := cfg.Validate(); err != nil {
		return err
	}

	manager, err := toolset.NewManagerFromConfig(cfg, f.Platform, log.Discard)
	if err != nil {
		return err
	}

	tokens := token.NewStore(cfg.TokenFile, log.Discard)
	list, err := tokens.Tokens(context.Background())
	if err != nil {
		return err
	}
	f.token = list[0]

	s := server.NewServer(server.Options{Host: cfg.Host, Port: cfg.Port}, manager, tokens, f.Platform, log.Discard)
	f.api = httptest.NewServer(s.Handler())
	return nil
}

// Request calls the api and decodes the response envelope, with data decoded into out
func (f *Framework) Request(ctx context.Context, method, route string, authorized bool, out interface{}) (int, *server.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, GetTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, f.api.URL+route, nil)
	if err != nil {
		return 0, nil, err
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.api.Client().Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	response := &server.Response{Data: out}
	if err := json.Unmarshal(raw, response); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decode %s: %w", string(raw), err)
	}

	return resp.StatusCode, response, nil
}

// SkipOnWindows skips specs that execute the fake shell script binaries
func SkipOnWindows() {
	if runtime.GOOS == "windows" {
		ginkgo.Skip("fake binaries are shell scripts")
	}
}

func RegisterTestCase(testsuite, testcase string, fn func()) bool {
	return ginkgo.Describe(fmt.Sprintf("[%s]: %s", testsuite, testcase), fn)
}
