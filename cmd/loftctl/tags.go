package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loftwm/loftwm/internal/control/client"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags and their clients",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		states, err := cli.Tags(ctx)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(os.Stdout, states)
		}
		printTagTable(states)
		return nil
	},
}

var tagsSelectCmd = &cobra.Command{
	Use:   "select <screen> <tag>...",
	Short: "Replace a screen's tag selection",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		screen, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid screen %q", args[0])
		}
		cli, err := controlClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		states, err := cli.SelectTags(ctx, screen, args[1:])
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(os.Stdout, states)
		}
		printTagTable(states)
		return nil
	},
}

func printTagTable(states []client.TagState) {
	sort.Slice(states, func(i, j int) bool {
		if states[i].Screen == states[j].Screen {
			return states[i].Name < states[j].Name
		}
		return states[i].Screen < states[j].Screen
	})
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCREEN\tTAG\tSELECTED\tCLIENTS")
	for _, st := range states {
		selected := "-"
		if st.Selected {
			selected = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", st.Screen, st.Name, selected, len(st.Clients))
	}
	tw.Flush()
}

func init() {
	tagsCmd.AddCommand(tagsSelectCmd)
	rootCmd.AddCommand(tagsCmd)
}
