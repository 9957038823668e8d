package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talentmatch/internal/logger"
)

const (
	app       = "talentmatch"
	envPrefix = "TALENTMATCH"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talentmatch scores candidates against jobs and ranks them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talentmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("seed-file", "", "json file with candidates and jobs for the in-memory store")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("store.seed-file", rootCmd.PersistentFlags().Lookup("seed-file"))
}

func initConfig() {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	// We can't proceed if the config file parsed with error.
	if err := readConfigFile(viper.GetViper(), cfgFile); err != nil {
		log.Fatal(err)
	}
}

// readConfigFile prepares v for Unmarshal. An explicit file must exist; the
// default talentmatch.yaml is optional since every key has a default or an
// environment variable.
func readConfigFile(v *viper.Viper, file string) error {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(app)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	return nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func mustConfig(l *zap.Logger) *Config {
	config, err := getConfig(viper.GetViper())
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}
	return config
}
