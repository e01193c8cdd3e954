package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/likearthian/sqlmap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type demoConfig struct {
	sqlmap.Config `mapstructure:",squash"`
	Verbose       bool `mapstructure:"verbose"`
	CreateSchema  bool `mapstructure:"create_schema"`
}

// loadConfig merges flags, SQLMAP_* environment variables and an optional
// sqlmapdemo.yaml, in that order of precedence.
func loadConfig(cmd *cobra.Command) (*demoConfig, error) {
	v := viper.New()

	v.SetDefault("provider", "sqlite")
	v.SetDefault("dsn", ":memory:")
	v.SetDefault("create_schema", true)

	v.SetEnvPrefix("SQLMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := cmd.Flag("config").Value.String(); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("sqlmapdemo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for _, name := range []string{"provider", "dsn", "verbose"} {
		if err := v.BindPFlag(name, cmd.Flag(name)); err != nil {
			return nil, err
		}
	}

	var cfg demoConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// a postgres block in the config file replaces the default dsn
	if cfg.Postgres != nil && !cmd.Flag("dsn").Changed && v.GetString("dsn") == ":memory:" {
		cfg.DSN = ""
	}

	return &cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}
