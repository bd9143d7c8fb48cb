package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/depeche/publish"
)

func init() {
	cmd := &cobra.Command{
		Use:   "resume <run-id> <file>",
		Short: "Resume an interrupted run from its checkpoint",
		Long:  "Recompiles the same report and continues the run from the recorded position. The source file must be unchanged since the original run.",
		Args:  cobra.ExactArgs(2),
		Run:   runResume,
	}
	cmd.Flags().Bool("quiet", false, "Suppress progress output")
	RootCmd.AddCommand(cmd)
}

func runResume(cmd *cobra.Command, args []string) {
	quiet, _ := cmd.Flags().GetBool("quiet")
	src, err := os.ReadFile(args[1])
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

	res, err := pub.Resume(ctx, args[0], src, args[1])
	reportRun(args[0], res, err)
}
