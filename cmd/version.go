package cmd

import (
	"fmt"

	"github.com/easytier/easytier-service/pkg/version"
	"github.com/spf13/cobra"
)

// VersionCmd holds the version cmd flags
type VersionCmd struct{}

// NewVersionCmd creates a new version command
func NewVersionCmd() *cobra.Command {
	cmd := &VersionCmd{}
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}
}

// Run runs the command logic
func (cmd *VersionCmd) Run(_ *cobra.Command, _ []string) error {
	fmt.Println(version.GetVersion())
	return nil
}
