package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talentmatch/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import candidates and jobs from a seed file into the postgres store",
	Run: func(cmd *cobra.Command, _ []string) {
		seed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringP("file", "f", "", "seed file to import (defaults to store.seed-file)")
}

func seed(cmd *cobra.Command) {
	l := newLogger()
	defer l.Sync() //nolint:errcheck

	config := mustConfig(l)
	if config.Store.Driver != StorePostgres {
		l.Fatal("seeding needs the postgres store", zap.String("store", config.Store.Driver))
	}

	path, err := seedPath(cmd.Flag("file").Value.String(), config.Store)
	if err != nil {
		l.Fatal("invalid arguments", zap.Error(err))
	}

	dsn, err := postgresDSN(config.Store)
	if err != nil {
		l.Fatal("loading postgres dsn", zap.Error(err))
	}

	pg, err := store.OpenPostgres(dsn, l)
	if err != nil {
		l.Fatal("opening postgres", zap.Error(err))
	}

	candidates, jobs, err := store.Import(context.Background(), pg, path)
	if closeErr := pg.Close(); closeErr != nil {
		l.Warn("closing postgres", zap.Error(closeErr))
	}
	if err != nil {
		l.Fatal("seeding", zap.String("file", path), zap.Error(err))
	}

	l.Info("seed imported",
		zap.String("file", path),
		zap.Int("candidates", candidates),
		zap.Int("jobs", jobs),
	)
}

func seedPath(flag string, cfg StoreConfig) (string, error) {
	if path := strings.TrimSpace(flag); path != "" {
		return path, nil
	}
	if path := strings.TrimSpace(cfg.SeedFile); path != "" {
		return path, nil
	}
	return "", errors.New("--file or store.seed-file is required")
}
