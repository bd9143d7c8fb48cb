package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/depeche/publish"
)

func init() {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List accepted report formats",
		Run: func(_ *cobra.Command, _ []string) {
			for _, f := range publish.Formats() {
				fmt.Println(f)
			}
		},
	}
	RootCmd.AddCommand(cmd)
}
