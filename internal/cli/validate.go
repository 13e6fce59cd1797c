package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/andreluis2005/cognira/internal/config"
	"github.com/spf13/cobra"
)

// NewValidateCmd checks the stored profile against the progress rules.
func NewValidateCmd(configPath *string) *cobra.Command {
	var profile string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the saved profile for inconsistencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if profile == "" {
				profile = cfg.Profile.Key
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			service, repo, cleanup, err := openProfile(ctx, cfg, newLogger(cfg, os.Stderr, false))
			if err != nil {
				return err
			}
			defer cleanup()

			progress, err := repo.Load(ctx, profile)
			if err != nil {
				return err
			}
			verdict := service.Validate(progress)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(verdict); err != nil {
					return err
				}
			} else if verdict.Valid {
				fmt.Fprintf(out, "profile %q is valid\n", profile)
			} else {
				for _, line := range verdict.Strings() {
					fmt.Fprintln(out, line)
				}
			}
			if !verdict.Valid {
				return fmt.Errorf("profile %q has %d violations", profile, len(verdict.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "profile key (defaults to profile.key)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the verdict as JSON")
	return cmd
}
