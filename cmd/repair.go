package cmd

import (
	"github.com/easytier/easytier-service/cmd/flags"
	"github.com/easytier/easytier-service/pkg/install"
	"github.com/easytier/easytier-service/pkg/requirement"
	"github.com/easytier/easytier-service/pkg/toolset"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RepairCmd holds the repair cmd flags
type RepairCmd struct {
	*flags.GlobalFlags

	Force bool
	Files []string
}

// NewRepairCmd creates a new repair command
func NewRepairCmd(globalFlags *flags.GlobalFlags) *cobra.Command {
	cmd := &RepairCmd{GlobalFlags: globalFlags}
	repairCmd := &cobra.Command{
		Use:   "repair",
		Short: "Downloads the missing files of the installation",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}

	repairCmd.Flags().BoolVar(&cmd.Force, "force", false, "Replace every file with the latest release")
	repairCmd.Flags().StringSliceVar(&cmd.Files, "files", nil, "Replace only these files, e.g. core,cli. Overrides --force")
	return repairCmd
}

// Run runs the command logic
func (cmd *RepairCmd) Run(cobraCmd *cobra.Command, _ []string) error {
	manager, err := newManager(cmd.GlobalFlags)
	if err != nil {
		return err
	}

	roles := []requirement.Role{}
	for _, name := range cmd.Files {
		role, ok := requirement.Parse(name)
		if !ok {
			return errors.Errorf("unknown file %q", name)
		}
		roles = append(roles, role)
	}

	ctx := cobraCmd.Context()
	err = toolset.NewDirLock(manager.Dir()).Do(ctx, func() error {
		var version *install.Version
		var err error
		if len(roles) > 0 {
			version, err = manager.InstallRoles(ctx, roles)
		} else {
			version, err = manager.EnsureInstalled(ctx, cmd.Force)
		}
		if err != nil {
			return errors.Wrap(err, "repair easytier")
		}

		return printJSON(version)
	})
	return err
}
