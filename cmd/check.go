package cmd

import (
	"github.com/easytier/easytier-service/cmd/flags"
	"github.com/loft-sh/log"
	"github.com/spf13/cobra"
)

// CheckCmd holds the check cmd flags
type CheckCmd struct {
	*flags.GlobalFlags
}

// NewCheckCmd creates a new check command
func NewCheckCmd(globalFlags *flags.GlobalFlags) *cobra.Command {
	cmd := &CheckCmd{GlobalFlags: globalFlags}
	return &cobra.Command{
		Use:   "check",
		Short: "Checks if the installation needs to be updated",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}
}

// Run runs the command logic
func (cmd *CheckCmd) Run(cobraCmd *cobra.Command, _ []string) error {
	manager, err := newManager(cmd.GlobalFlags)
	if err != nil {
		return err
	}

	latest, err := manager.CheckForUpdate(cobraCmd.Context())
	if err != nil {
		return err
	} else if latest == nil {
		log.Default.Done("No update available")
		return nil
	}

	log.Default.Infof("Release %s is available, run `easytier-service repair` to install it", latest.TagName)
	return nil
}
