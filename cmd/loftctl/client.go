package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loftwm/loftwm/internal/control/client"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List every managed client",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		infos, err := cli.Clients(ctx)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(os.Stdout, infos)
		}
		printClientTable(infos)
		return nil
	},
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Inspect or mutate one client",
}

var clientGetCmd = &cobra.Command{
	Use:   "get <window>",
	Short: "Show one client's state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		win, err := parseWindowArg(args[0])
		if err != nil {
			return err
		}
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		info, err := cli.Get(ctx, win)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, info)
	},
}

var clientSetCmd = &cobra.Command{
	Use:   "set <window> <field> <true|false>",
	Short: "Flip a client flag",
	Long:  "Fields: fullscreen, maximized_horizontal, maximized_vertical, above, below, ontop, urgent, sticky, minimized, hidden, modal, size_hints_honor.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		win, err := parseWindowArg(args[0])
		if err != nil {
			return err
		}
		value, err := strconv.ParseBool(args[2])
		if err != nil {
			return fmt.Errorf("invalid value %q", args[2])
		}
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		info, err := cli.Set(ctx, win, args[1], value)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(os.Stdout, info)
		}
		fmt.Printf("window %d: %s = %v\n", win, args[1], value)
		return nil
	},
}

var clientResizeCmd = &cobra.Command{
	Use:   "resize <window> <x> <y> <width> <height>",
	Short: "Move and resize a client",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		win, err := parseWindowArg(args[0])
		if err != nil {
			return err
		}
		nums := make([]int, 4)
		for i, arg := range args[1:] {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("invalid number %q", arg)
			}
			nums[i] = n
		}
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		info, err := cli.Resize(ctx, win, nums[0], nums[1], nums[2], nums[3])
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(os.Stdout, info)
		}
		fmt.Printf("window %d: %dx%d @ %d,%d\n", win, info.Outer.Width, info.Outer.Height, info.Outer.X, info.Outer.Y)
		return nil
	},
}

var clientBorderCmd = &cobra.Command{
	Use:   "border <window> <width>",
	Short: "Set a client's border width",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		win, err := parseWindowArg(args[0])
		if err != nil {
			return err
		}
		width, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid width %q", args[1])
		}
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		info, err := cli.Border(ctx, win, width)
		if err != nil {
			return err
		}
		fmt.Printf("window %d: border %d\n", win, info.Border)
		return nil
	},
}

var focusCmd = &cobra.Command{
	Use:   "focus [window]",
	Short: "Give a client input focus",
	Long:  "Without an argument the daemon picks its default focus candidate.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var win uint32
		if len(args) == 1 {
			v, err := parseWindowArg(args[0])
			if err != nil {
				return err
			}
			win = v
		}
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		return cli.Focus(ctx, win)
	},
}

var closeCmd = &cobra.Command{
	Use:   "close <window>",
	Short: "Ask a client to close",
	Args:  cobra.ExactArgs(1),
	RunE:  windowActionRunE(func(ctx context.Context, cli *client.Client, win uint32) error { return cli.Close(ctx, win) }),
}

var raiseCmd = &cobra.Command{
	Use:   "raise <window>",
	Short: "Raise a client within its layer",
	Args:  cobra.ExactArgs(1),
	RunE:  windowActionRunE(func(ctx context.Context, cli *client.Client, win uint32) error { return cli.Raise(ctx, win) }),
}

var lowerCmd = &cobra.Command{
	Use:   "lower <window>",
	Short: "Lower a client within its layer",
	Args:  cobra.ExactArgs(1),
	RunE:  windowActionRunE(func(ctx context.Context, cli *client.Client, win uint32) error { return cli.Lower(ctx, win) }),
}

var swapCmd = &cobra.Command{
	Use:   "swap <window> <window>",
	Short: "Exchange two clients' list positions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := parseWindowArg(args[0])
		if err != nil {
			return err
		}
		b, err := parseWindowArg(args[1])
		if err != nil {
			return err
		}
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		return cli.Swap(ctx, a, b)
	},
}

var retagCmd = &cobra.Command{
	Use:   "retag <window> <tag>...",
	Short: "Replace the tags carrying a client",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		win, err := parseWindowArg(args[0])
		if err != nil {
			return err
		}
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		_, err = cli.Retag(ctx, win, args[1:])
		return err
	},
}

func windowActionRunE(fn func(ctx context.Context, cli *client.Client, win uint32) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		win, err := parseWindowArg(args[0])
		if err != nil {
			return err
		}
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		return fn(ctx, cli, win)
	}
}

func printClientTable(infos []client.ClientInfo) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW\tCLASS\tTITLE\tSCREEN\tGEOMETRY\tLAYER\tSTATE")
	for _, info := range infos {
		title := info.Title
		if title == "" {
			title = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%dx%d@%d,%d\t%s\t%s\n",
			info.Window, info.Class, title, info.Screen,
			info.Outer.Width, info.Outer.Height, info.Outer.X, info.Outer.Y,
			info.Layer, stateColumn(info))
	}
	tw.Flush()
}

func stateColumn(info client.ClientInfo) string {
	var parts []string
	if info.Focused {
		parts = append(parts, "focused")
	}
	if info.Fullscreen {
		parts = append(parts, "fullscreen")
	}
	if info.Sticky {
		parts = append(parts, "sticky")
	}
	if info.Minimized {
		parts = append(parts, "minimized")
	}
	if info.Hidden {
		parts = append(parts, "hidden")
	}
	if info.Banned {
		parts = append(parts, "banned")
	}
	if info.Urgent {
		parts = append(parts, "urgent")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func init() {
	clientCmd.AddCommand(clientGetCmd, clientSetCmd, clientResizeCmd, clientBorderCmd)
	rootCmd.AddCommand(clientsCmd, clientCmd, focusCmd, closeCmd, raiseCmd, lowerCmd, swapCmd, retagCmd)
}
