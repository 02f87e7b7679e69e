package binaries

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/easytier/easytier-service/pkg/download"
	"github.com/easytier/easytier-service/pkg/errdefs"
	"github.com/easytier/easytier-service/pkg/extract"
	"github.com/easytier/easytier-service/pkg/platform"
	"github.com/easytier/easytier-service/pkg/requirement"
	"github.com/loft-sh/log"
	"github.com/pkg/errors"
)

// Installer downloads release archives and unpacks the requested files
type Installer struct {
	client    *http.Client
	mirror    string
	userAgent string
	platform  *platform.Descriptor
	log       log.Logger
}

// NewInstaller creates a new installer. Downloads go through mirror unless it is empty.
func NewInstaller(client *http.Client, mirror, userAgent string, descriptor *platform.Descriptor, log log.Logger) *Installer {
	return &Installer{
		client:    client,
		mirror:    mirror,
		userAgent: userAgent,
		platform:  descriptor,
		log:       log,
	}
}

// FetchAndInstall downloads the archive at assetURL into targetFolder and extracts the entries
// whose role is in roles. No roles or All extracts every entry. The downloaded archive is
// always removed afterwards.
func (i *Installer) FetchAndInstall(ctx context.Context, assetURL, targetFolder string, roles []requirement.Role) error {
	if err := os.MkdirAll(targetFolder, 0o755); err != nil {
		return errdefs.Archive(errors.Wrap(err, "create folder"))
	}

	tempFile, err := os.CreateTemp(targetFolder, ".download-*.zip")
	if err != nil {
		return errdefs.Archive(errors.Wrap(err, "create temp file"))
	}
	archivePath := tempFile.Name()
	_ = tempFile.Close()
	defer i.cleanup(archivePath)

	url := download.MirrorURL(i.mirror, assetURL)
	i.log.Infof("Download %s", url)
	if err := download.File(ctx, i.client, url, i.userAgent, archivePath); err != nil {
		return err
	}

	selected := requirement.NewSet(roles...)
	written, err := extract.Unzip(archivePath, targetFolder,
		extract.WithLogger(i.log),
		extract.WithFilter(func(name string) bool {
			return selected.Matches(i.platform.RoleFromFileName(name))
		}),
	)
	if err != nil {
		return err
	}

	i.log.Donef("Extracted %s", strings.Join(written, ", "))
	return nil
}

func (i *Installer) cleanup(archivePath string) {
	err := os.Remove(archivePath)
	if err != nil && !os.IsNotExist(err) {
		i.log.Warnf("delete archive %s: %v", archivePath, err)
		return
	}

	i.log.Debugf("Deleted archive %s", archivePath)
}
