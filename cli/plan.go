package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "Compile a report into a publication plan without publishing",
		Args:  cobra.ExactArgs(1),
		Run:   runPlan,
	}
	cmd.Flags().StringP("dest", "d", "", "Destination container ID (required)")
	cmd.MarkFlagRequired("dest")
	RootCmd.AddCommand(cmd)
}

func runPlan(cmd *cobra.Command, args []string) {
	dest, _ := cmd.Flags().GetString("dest")
	src, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read report", err)
	}

	pub, err := openPublisher()
	if err != nil {
		exitErr("open publisher", err)
	}
	defer pub.Close()

	pl, stats, err := pub.Compile(src, args[0], dest)
	if err != nil {
		exitErr("compile", err)
	}

	out := map[string]any{
		"requests": len(pl.Requests),
		"blocks":   stats.Blocks,
		"steps":    pl.Steps,
		"notes":    pl.Notes,
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
