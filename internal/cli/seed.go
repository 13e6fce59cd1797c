package cli

import (
	"context"
	"os"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/config"
	pgcatalog "github.com/andreluis2005/cognira/internal/infra/postgres"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads a question dataset into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Migrate and load a question dataset into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			logger := newLogger(cfg, os.Stderr, false)

			ds, err := readDataset(file)
			if err != nil {
				return err
			}
			if err := runMigrations(ctx, cfg, logger); err != nil {
				return err
			}

			res := &resources{}
			defer res.Close()
			pool, err := res.pgPool(ctx, cfg)
			if err != nil {
				return err
			}
			if err := pgcatalog.NewCatalogSeeder(pool).Seed(ctx, ds); err != nil {
				return err
			}
			logger.Info("catalog seeded",
				"certification", ds.Certification,
				"topics", len(ds.Topics),
				"questions", len(ds.Questions),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML or JSON dataset (defaults to the built-in dataset)")
	return cmd
}

func readDataset(path string) (catalog.Dataset, error) {
	if path == "" {
		return catalog.Embedded()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return catalog.Dataset{}, err
	}
	return catalog.Decode(raw)
}
