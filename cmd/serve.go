package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talentmatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the matching HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address, overrides server.addr")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	l := newLogger()
	defer l.Sync() //nolint:errcheck

	config := mustConfig(l)

	l.Info("starting the talentmatch api",
		zap.String("version", version),
		zap.String("environment", config.Server.Environment),
		zap.String("store", config.Store.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := buildComponents(ctx, config, l)
	if err != nil {
		l.Fatal("building components", zap.Error(err))
	}
	defer c.Close(l)

	srv := server.New(config.Server, server.NewHandler(c.service, version), l)
	if err := srv.Run(ctx); err != nil {
		l.Error("server stopped with error", zap.Error(err))
		return
	}

	l.Info("server stopped")
}
