package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/loftwm/loftwm/internal/control/client"
)

var rootCmd = &cobra.Command{
	Use:           "loftctl",
	Short:         "Control a running loftwm daemon",
	Long:          "loftctl talks to the loftwm control socket: inspect clients, flip their state, drive tags and stacking, or watch the whole thing live.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("socket", "", "path to the loftwm control socket")
	rootCmd.PersistentFlags().Duration("timeout", 3*time.Second, "control request timeout")
	rootCmd.PersistentFlags().Bool("json", false, "print raw JSON instead of tables")
}

// controlClient builds a client from the root flags.
func controlClient(cmd *cobra.Command) (*client.Client, error) {
	socket, _ := cmd.Flags().GetString("socket")
	return client.New(socket)
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseWindowArg(arg string) (uint32, error) {
	v, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window %q", arg)
	}
	return uint32(v), nil
}
