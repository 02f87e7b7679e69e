package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/easytier/easytier-service/cmd/flags"
	"github.com/easytier/easytier-service/pkg/config"
	"github.com/easytier/easytier-service/pkg/platform"
	"github.com/easytier/easytier-service/pkg/server"
	"github.com/easytier/easytier-service/pkg/token"
	"github.com/easytier/easytier-service/pkg/toolset"
	"github.com/easytier/easytier-service/pkg/upgrade"
	"github.com/loft-sh/log"
	"github.com/spf13/cobra"
)

// ServeCmd holds the serve cmd flags
type ServeCmd struct {
	*flags.GlobalFlags

	Host string
	Port int
}

// NewServeCmd creates a new serve command
func NewServeCmd(globalFlags *flags.GlobalFlags) *cobra.Command {
	cmd := &ServeCmd{GlobalFlags: globalFlags}
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the status and repair api",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}

	serveCmd.Flags().StringVar(&cmd.Host, "host", config.DefaultHost, "The address to listen on")
	serveCmd.Flags().IntVarP(&cmd.Port, "port", "p", config.DefaultPort, "The port to listen on")
	return serveCmd
}

// Run runs the command logic
func (cmd *ServeCmd) Run(cobraCmd *cobra.Command, _ []string) error {
	cfg, err := cmd.LoadConfig()
	if err != nil {
		return err
	}
	if cobraCmd.Flags().Changed("host") {
		cfg.Host = cmd.Host
	}
	if cobraCmd.Flags().Changed("port") {
		cfg.Port = cmd.Port
	}

	descriptor := platform.Current()
	manager, err := toolset.NewManagerFromConfig(cfg, descriptor, log.Default)
	if err != nil {
		return err
	}

	srv := server.NewServer(server.Options{
		Host:        cfg.Host,
		Port:        cfg.Port,
		DisableAuth: cfg.DisableAuth,
	}, manager, token.NewStore(cfg.TokenFile, log.Default), descriptor, log.Default)

	ctx, stop := signal.NotifyContext(cobraCmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		newerVersion, err := upgrade.CheckForNewerVersion()
		if err != nil {
			log.Default.Debugf("check for newer version: %v", err)
		} else if newerVersion != "" {
			log.Default.Warnf("easytier-service %s is available, run `easytier-service upgrade` to update", newerVersion)
		}
	}()

	return srv.ListenAndServe(ctx)
}
