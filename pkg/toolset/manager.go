package toolset

import (
	"context"
	"sync"

	"github.com/easytier/easytier-service/pkg/errdefs"
	"github.com/easytier/easytier-service/pkg/install"
	"github.com/easytier/easytier-service/pkg/release"
	"github.com/easytier/easytier-service/pkg/requirement"
	"github.com/loft-sh/log"
)

// State is the state of the last synchronization
type State string

const (
	StateUnknown      State = "unknown"
	StateChecking     State = "checking"
	StateUpToDate     State = "upToDate"
	StateNeedsRepair  State = "needsRepair"
	StateRepairing    State = "repairing"
	StateRepaired     State = "repaired"
	StateRepairFailed State = "repairFailed"
)

// Catalog lists the published releases
type Catalog interface {
	ListReleases(ctx context.Context, filterToPlatform bool) ([]release.Release, error)
}

// Inspector inspects the local installation
type Inspector interface {
	Dir() string
	Missing() []requirement.Role
	IsInstalled() bool
	ReadVersion(ctx context.Context) (*install.Version, error)
}

// Installer fetches an archive and extracts the requested roles
type Installer interface {
	FetchAndInstall(ctx context.Context, assetURL, targetFolder string, roles []requirement.Role) error
}

// Manager keeps the local toolset installation in sync with the latest release
type Manager struct {
	baseDir   string
	catalog   Catalog
	inspector    Inspector
	installer Installer
	log       log.Logger

	m     sync.Mutex
	state State
}

// NewManager creates a new manager. Archives are extracted into baseDir, which contains the
// installation directory.
func NewManager(baseDir string, catalog Catalog, inspector Inspector, installer Installer, log log.Logger) *Manager {
	return &Manager{
		baseDir:   baseDir,
		catalog:   catalog,
		inspector:    inspector,
		installer: installer,
		log:       log,
		state:     StateUnknown,
	}
}

// State returns the state of the last check or repair
func (m *Manager) State() State {
	m.m.Lock()
	defer m.m.Unlock()

	return m.state
}

func (m *Manager) setState(state State) {
	m.m.Lock()
	defer m.m.Unlock()

	m.state = state
}

// Dir returns the installation directory
func (m *Manager) Dir() string {
	return m.inspector.Dir()
}

// IsInstalled checks if every required file exists
func (m *Manager) IsInstalled() bool {
	return m.inspector.IsInstalled()
}

// Version queries the installed executables
func (m *Manager) Version(ctx context.Context) (*install.Version, error) {
	return m.inspector.ReadVersion(ctx)
}

// CheckForUpdate returns the latest release if the installation is absent or incomplete and
// nil otherwise. The installed version isn't compared with the release tag.
func (m *Manager) CheckForUpdate(ctx context.Context) (*release.Release, error) {
	m.setState(StateChecking)
	releases, err := m.catalog.ListReleases(ctx, true)
	if err != nil {
		m.setState(StateUnknown)
		return nil, err
	}

	latest, ok := release.Latest(releases)
	if !ok {
		m.log.Info("No release available")
		m.setState(StateUpToDate)
		return nil, nil
	}

	version, err := m.inspector.ReadVersion(ctx)
	if err != nil && !errdefs.IsNotInstalled(err) {
		m.setState(StateUnknown)
		return nil, err
	}
	if err != nil || !version.Complete() {
		m.log.Infof("Release %s is pending", latest.TagName)
		m.setState(StateNeedsRepair)
		return latest, nil
	}

	m.setState(StateUpToDate)
	return nil, nil
}

// EnsureInstalled downloads the files missing from the installation, or every file with
// forceFullReplace, and returns the version read afterwards
func (m *Manager) EnsureInstalled(ctx context.Context, forceFullReplace bool) (*install.Version, error) {
	m.setState(StateChecking)
	missing := m.missing(forceFullReplace)
	m.log.Infof("Missing files: %v", missing)

	return m.install(ctx, missing)
}

// InstallRoles replaces the files with the given roles from the latest release, whether they
// exist or not, and returns the version read afterwards. No roles installs nothing.
func (m *Manager) InstallRoles(ctx context.Context, roles []requirement.Role) (*install.Version, error) {
	m.setState(StateChecking)
	m.log.Infof("Requested files: %v", roles)

	return m.install(ctx, roles)
}

func (m *Manager) install(ctx context.Context, roles []requirement.Role) (*install.Version, error) {
	if len(roles) > 0 {
		m.setState(StateRepairing)
		if err := m.download(ctx, roles); err != nil {
			m.setState(StateRepairFailed)
			return nil, err
		}
		m.setState(StateRepaired)
	} else {
		m.setState(StateUpToDate)
	}

	version, err := m.inspector.ReadVersion(ctx)
	if err != nil {
		m.setState(StateRepairFailed)
		return nil, err
	}

	return version, nil
}

func (m *Manager) missing(forceFullReplace bool) []requirement.Role {
	if forceFullReplace {
		return []requirement.Role{requirement.All}
	}

	return m.inspector.Missing()
}

func (m *Manager) download(ctx context.Context, roles []requirement.Role) error {
	releases, err := m.catalog.ListReleases(ctx, true)
	if err != nil {
		return err
	}

	latest, ok := release.Latest(releases)
	if !ok {
		return errdefs.ErrNoRelease
	}

	asset, ok := latest.FirstAsset()
	if !ok {
		return errdefs.ErrNoAsset
	}

	m.log.Infof("Install %v from %s (%s)", roles, latest.TagName, asset.Name)
	return m.installer.FetchAndInstall(ctx, asset.BrowserDownloadURL, m.baseDir, roles)
}
