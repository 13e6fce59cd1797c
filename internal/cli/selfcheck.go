package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/andreluis2005/cognira/internal/config"
	"github.com/spf13/cobra"
)

// NewSelfCheckCmd runs the engine's integrity checks against the configured catalog.
func NewSelfCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "selfcheck",
		Short: "Run engine integrity checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			res := &resources{}
			defer res.Close()
			service, err := res.practiceService(ctx, cfg, newLogger(cfg, os.Stderr, false))
			if err != nil {
				return err
			}
			report, err := service.SelfCheck(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range report.Results {
				if r.Passed {
					fmt.Fprintf(out, "PASS  %s\n", r.Name)
				} else {
					fmt.Fprintf(out, "FAIL  %s: %s\n", r.Name, r.Detail)
				}
			}
			if !report.Passed {
				return errors.New("self-check failed")
			}
			return nil
		},
	}
}
