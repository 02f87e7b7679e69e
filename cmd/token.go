package cmd

import (
	"fmt"

	"github.com/easytier/easytier-service/cmd/flags"
	"github.com/easytier/easytier-service/pkg/token"
	"github.com/loft-sh/log"
	"github.com/spf13/cobra"
)

// NewTokenCmd creates a new token command
func NewTokenCmd(globalFlags *flags.GlobalFlags) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manages the tokens of the api",
	}

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Prints the api tokens, generating one if there is none",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			store, err := newTokenStore(globalFlags)
			if err != nil {
				return err
			}

			tokens, err := store.Tokens(cobraCmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tokens {
				fmt.Println(t)
			}
			return nil
		},
	})
	tokenCmd.AddCommand(&cobra.Command{
		Use:   "add",
		Short: "Generates a new api token",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			store, err := newTokenStore(globalFlags)
			if err != nil {
				return err
			}

			t, err := store.Add(cobraCmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(t)
			return nil
		},
	})

	return tokenCmd
}

func newTokenStore(globalFlags *flags.GlobalFlags) (*token.Store, error) {
	cfg, err := globalFlags.LoadConfig()
	if err != nil {
		return nil, err
	}

	return token.NewStore(cfg.TokenFile, log.Default), nil
}
