package cli

import (
	"github.com/spf13/cobra"

	"github.com/verso-proxy/verso/internal/versoserver"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dispatch proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return versoserver.Run(cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "verso.yaml", "config yaml path")
	return cmd
}
