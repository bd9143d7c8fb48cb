package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the publisher tools over MCP stdio",
		Run:   runMCP,
	}
	RootCmd.AddCommand(cmd)
}

func runMCP(cmd *cobra.Command, _ []string) {
	pub, err := openPublisher()
	if err != nil {
		exitErr("open publisher", err)
	}
	defer pub.Close()

	srv := mcp.NewServer(&mcp.Implementation{Name: "depeche", Version: "1.0.0"}, nil)
	pub.RegisterMCP(srv)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		exitErr("mcp server", err)
	}
}
