package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loftwm/loftwm/internal/config"
	"github.com/loftwm/loftwm/internal/ui/tui"
)

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "Show the stacking order, bottom to top",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		wins, err := cli.Stacking(ctx)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(os.Stdout, wins)
		}
		parts := make([]string, 0, len(wins))
		for _, win := range wins {
			parts = append(parts, fmt.Sprintf("%d", win))
		}
		fmt.Println(strings.Join(parts, " < "))
		return nil
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show the daemon's counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		snap, err := cli.Metrics(ctx)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, snap)
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the daemon's full state as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		snap, err := cli.Inspect(ctx)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, snap)
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Trigger a live config reload",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		if err := cli.Reload(ctx); err != nil {
			return err
		}
		fmt.Println("reload requested")
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Launch the live dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if err := tui.Run(ctx, cli); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <config>",
	Short: "Validate a configuration file without a running daemon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(args[0]); err != nil {
			return err
		}
		fmt.Println("configuration OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stackCmd, metricsCmd, inspectCmd, reloadCmd, watchCmd, checkCmd)
}
