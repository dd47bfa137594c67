package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/obenchekro/namkin-data-migration/internal/config"
	"github.com/obenchekro/namkin-data-migration/internal/logging"
)

// app carries what the persistent pre-run resolved for the subcommand.
type app struct {
	cfgPath string
	verbose bool

	cfg      *config.Config
	log      *zap.SugaredLogger
	closeLog func()
	stdout   io.Writer
	stderr   io.Writer
}

var subcommandFns = []func(a *app) *cobra.Command{
	newRunCommand,
	newValidateCommand,
	newListenCommand,
	newTimeDimCommand,
}

// NewRootCommand creates the top level command with every subcommand.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	rc := &cobra.Command{
		Use:   "starschema",
		Short: "starschema - Namkin production warehouse loader",
		Long: `Builds the Namkin star schema (dim_material, dim_part_information,
dim_machine, dim_contract, dim_time, fact_sales, fact_supply_chain)
from machine event files and reference workbooks.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closeLog != nil {
				a.closeLog()
			}
		},
	}
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	rc.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "config file (default: ./configs/starschema.{yaml,json})")
	rc.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logs")
	for _, fn := range subcommandFns {
		rc.AddCommand(fn(a))
	}
	return rc
}

func (a *app) load() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	log, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	a.cfg, a.log, a.closeLog = cfg, log, closeLog
	return nil
}

// checkConfig prints every validation issue and fails on errors.
func (a *app) checkConfig() error {
	issues := config.Validate(*a.cfg)
	for _, iss := range issues {
		fmt.Fprintf(a.stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid")
	}
	return nil
}
