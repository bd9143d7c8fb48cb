package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/depeche/engine"
	"github.com/hazyhaar/depeche/publish"
)

func init() {
	cmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "Compile and publish a report",
		Args:  cobra.ExactArgs(1),
		Run:   runPublish,
	}
	cmd.Flags().StringP("dest", "d", "", "Destination container ID (required)")
	cmd.Flags().Bool("quiet", false, "Suppress progress output")
	cmd.MarkFlagRequired("dest")
	RootCmd.AddCommand(cmd)
}

func progressPrinter(quiet bool) engine.ProgressFunc {
	if quiet {
		return nil
	}
	return func(ev engine.Event) {
		fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", ev.Percent, ev.Message)
	}
}

// reportRun prints the run outcome and exits non-zero on failure.
// Cancellation exits cleanly: the run ID is the handle for resume.
func reportRun(runID string, res *engine.Result, err error) {
	out := map[string]any{"run_id": runID}
	if res != nil {
		out["outcome"] = res.Report.Summary.Outcome
		out["root_url"] = res.RootURL
		out["api_calls"] = res.Report.Summary.APICalls
		if len(res.Report.Errors) > 0 {
			out["errors"] = res.Report.Errors
		}
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))

	if err != nil && !errors.Is(err, engine.ErrCancelled) {
		exitErr("publish", err)
	}
}

func runPublish(cmd *cobra.Command, args []string) {
	dest, _ := cmd.Flags().GetString("dest")
	quiet, _ := cmd.Flags().GetBool("quiet")
	src, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read report", err)
	}

	pub, err := openPublisher(publish.WithProgress(progressPrinter(quiet)))
	if err != nil {
		exitErr("open publisher", err)
	}
	defer pub.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runID, res, err := pub.Publish(ctx, src, args[0], dest)
	reportRun(runID, res, err)
}
