package upgrade

import (
	"fmt"
	"os"

	"github.com/blang/semver"
	"github.com/easytier/easytier-service/pkg/version"
	"github.com/loft-sh/log"
	"github.com/pkg/errors"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

// Slug is the GitHub repository the service itself is released from
var Slug = "easytier/easytier-service"

// CheckForNewerVersion returns the latest released version of the service if it is newer
// than the running one, and an empty string otherwise
func CheckForNewerVersion() (string, error) {
	if version.IsDev() {
		return "", nil
	}

	current, err := semver.Parse(version.GetSemver())
	if err != nil {
		return "", errors.Wrap(err, "parse current version")
	}

	latest, found, err := selfupdate.DetectLatest(Slug)
	if err != nil {
		return "", errors.Wrap(err, "detect latest version")
	} else if !found || latest.Version.LTE(current) {
		return "", nil
	}

	return latest.Version.String(), nil
}

// Upgrade replaces the running binary with the given version, or the latest one if
// flagVersion is empty
func Upgrade(flagVersion string, log log.Logger) error {
	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Filters: []string{"easytier-service"},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize updater: %w", err)
	}

	cmdPath, err := os.Executable()
	if err != nil {
		return err
	}

	if flagVersion != "" {
		release, found, err := updater.DetectVersion(Slug, flagVersion)
		if err != nil {
			return errors.Wrap(err, "find version")
		} else if !found {
			return fmt.Errorf("easytier-service version %s couldn't be found", flagVersion)
		}

		log.Infof("Downloading version %s...", flagVersion)
		err = updater.UpdateTo(release, cmdPath)
		if err != nil {
			return err
		}

		log.Donef("Successfully updated easytier-service to version %s", flagVersion)
		return nil
	}

	newerVersion, err := CheckForNewerVersion()
	if err != nil {
		return err
	}
	if newerVersion == "" {
		log.Infof("Current binary is the latest version: %s", version.GetVersion())
		return nil
	}

	log.Info("Downloading newest version...")
	latest, err := updater.UpdateCommand(cmdPath, semver.MustParse(version.GetSemver()), Slug)
	if err != nil {
		return err
	}

	log.Donef("Successfully updated to version %s", latest.Version)
	return nil
}
