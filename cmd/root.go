package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/easytier/easytier-service/cmd/flags"
	"github.com/loft-sh/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd returns a new root command
func NewRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "easytier-service",
		Short:         "Keeps the local EasyTier installation up to date",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// build the root command
	rootCmd := BuildRoot()

	// execute command
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// BuildRoot creates a new root command with all sub commands
func BuildRoot() *cobra.Command {
	rootCmd := NewRootCmd()
	globalFlags := flags.SetGlobalFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentPreRunE = func(cobraCmd *cobra.Command, args []string) error {
		if globalFlags.Silent {
			log.Default.SetLevel(logrus.FatalLevel)
		} else if globalFlags.Debug {
			log.Default.SetLevel(logrus.DebugLevel)
		}

		return nil
	}

	rootCmd.AddCommand(NewServeCmd(globalFlags))
	rootCmd.AddCommand(NewInfoCmd(globalFlags))
	rootCmd.AddCommand(NewCheckCmd(globalFlags))
	rootCmd.AddCommand(NewRepairCmd(globalFlags))
	rootCmd.AddCommand(NewTokenCmd(globalFlags))
	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewUpgradeCmd())
	return rootCmd
}
