package toolset

import (
	"github.com/easytier/easytier-service/pkg/binaries"
	"github.com/easytier/easytier-service/pkg/config"
	"github.com/easytier/easytier-service/pkg/http"
	"github.com/easytier/easytier-service/pkg/install"
	"github.com/easytier/easytier-service/pkg/platform"
	"github.com/easytier/easytier-service/pkg/release"
	"github.com/loft-sh/log"
)

// NewManagerFromConfig wires a manager for the running host from the service config
func NewManagerFromConfig(cfg *config.Config, descriptor *platform.Descriptor, log log.Logger) (*Manager, error) {
	catalog, err := release.NewClient(http.NewClient(cfg.DownloadTimeout), release.Options{
		Owner:           cfg.Owner,
		Repo:            cfg.Repo,
		BaseURL:         cfg.APIBaseURL,
		UserAgent:       cfg.UserAgent,
		SortByPublished: cfg.SortReleases,
		MatchAsset:      descriptor.MatchesAsset,
	}, log)
	if err != nil {
		return nil, err
	}

	inspector := install.NewInspector(cfg.BaseDir, descriptor, cfg.VersionTimeout, log)
	installer := binaries.NewInstaller(http.NewClient(cfg.DownloadTimeout), cfg.Mirror, cfg.UserAgent, descriptor, log)
	return NewManager(cfg.BaseDir, catalog, inspector, installer, log), nil
}
