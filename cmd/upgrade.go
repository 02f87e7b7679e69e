package cmd

import (
	"github.com/easytier/easytier-service/pkg/upgrade"
	"github.com/easytier/easytier-service/pkg/version"
	"github.com/loft-sh/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// UpgradeCmd holds the upgrade cmd flags
type UpgradeCmd struct {
	Version   string
	CheckOnly bool
}

// NewUpgradeCmd creates a new upgrade command
func NewUpgradeCmd() *cobra.Command {
	cmd := &UpgradeCmd{}
	upgradeCmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Replaces the easytier-service binary with a newer release",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Run(log.GetInstance())
		},
	}

	upgradeCmd.Flags().StringVar(&cmd.Version, "version", "", "The release to install. Defaults to the latest stable release")
	upgradeCmd.Flags().BoolVar(&cmd.CheckOnly, "check", false, "Only print whether a newer release exists")
	return upgradeCmd
}

// Run runs the command logic
func (cmd *UpgradeCmd) Run(logger log.Logger) error {
	if cmd.CheckOnly {
		newerVersion, err := upgrade.CheckForNewerVersion()
		if err != nil {
			return errors.Wrap(err, "check for newer version")
		} else if newerVersion == "" {
			logger.Donef("easytier-service %s is up to date", version.GetVersion())
			return nil
		}

		logger.Infof("easytier-service %s is available", newerVersion)
		return nil
	}

	if err := upgrade.Upgrade(cmd.Version, logger); err != nil {
		return errors.Wrap(err, "upgrade easytier-service")
	}

	return nil
}
