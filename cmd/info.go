package cmd

import (
	"github.com/easytier/easytier-service/cmd/flags"
	"github.com/easytier/easytier-service/pkg/errdefs"
	"github.com/loft-sh/log"
	"github.com/spf13/cobra"
)

// InfoCmd holds the info cmd flags
type InfoCmd struct {
	*flags.GlobalFlags
}

// NewInfoCmd creates a new info command
func NewInfoCmd(globalFlags *flags.GlobalFlags) *cobra.Command {
	cmd := &InfoCmd{GlobalFlags: globalFlags}
	return &cobra.Command{
		Use:   "info",
		Short: "Prints the installed easytier version",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}
}

// Run runs the command logic
func (cmd *InfoCmd) Run(cobraCmd *cobra.Command, _ []string) error {
	manager, err := newManager(cmd.GlobalFlags)
	if err != nil {
		return err
	}

	version, err := manager.Version(cobraCmd.Context())
	if errdefs.IsNotInstalled(err) {
		log.Default.Infof("EasyTier is not installed in %s, run `easytier-service repair` to install it", manager.Dir())
		return nil
	} else if err != nil {
		return err
	}

	return printJSON(version)
}
