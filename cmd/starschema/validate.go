package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.checkConfig(); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "configuration is valid")
			return nil
		},
	}
}
