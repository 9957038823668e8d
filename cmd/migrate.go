package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talentmatch/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the postgres schema migrations",
	Run: func(_ *cobra.Command, _ []string) {
		migrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func migrate() {
	l := newLogger()
	defer l.Sync() //nolint:errcheck

	config := mustConfig(l)
	if config.Store.Driver != StorePostgres {
		l.Fatal("migrations need the postgres store", zap.String("store", config.Store.Driver))
	}

	dsn, err := postgresDSN(config.Store)
	if err != nil {
		l.Fatal("loading postgres dsn", zap.Error(err))
	}

	if err := store.Migrate(dsn, l); err != nil {
		l.Fatal("migrating", zap.Error(err))
	}
}
