package cli

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/verso-proxy/verso/pkg/config"
	"github.com/verso-proxy/verso/pkg/ruleset"
)

func newValidateCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and negotiation rules without serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "verso.yaml", "config yaml path")
	return cmd
}

func runValidate(cmd *cobra.Command, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %q: %w", cfgPath, err)
	}

	// Rule warnings go to the command output so they show up in CI logs.
	logger := log.New(cmd.OutOrStdout(), "", 0)
	res := ruleset.ResolverFunc(func(name string) (http.Handler, error) {
		if _, ok := cfg.Backends[name]; !ok {
			return nil, fmt.Errorf("unknown backend %q", name)
		}
		return http.NotFoundHandler(), nil
	})
	rules, err := ruleset.Load(cfg.Negotiation.Rules, res, logger)
	if err != nil {
		return fmt.Errorf("load negotiation rules: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"ok: backends=%d versions=%d aliases=%d uris=%d types=%d formats=%d\n",
		len(cfg.Backends), len(rules.Versions), len(rules.Aliases), len(rules.URIs), len(rules.Types), len(rules.Formats))
	return nil
}
