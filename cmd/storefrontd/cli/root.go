// Package cli holds the storefrontd commands
package cli

import (
	"fmt"
	"os"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-storefront-auth/config"
	"github.com/spf13/cobra"
)

var cfg *config.Config

// NewRootCommand builds the command tree. Flags override STOREFRONT_*
// environment values.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "storefrontd",
		Short: "Storefront API server",
		Long: `storefrontd serves the storefront accounts, reviews, wishlist and
support ticket API over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := applyFlags(cmd, loaded); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("db-url", "", "Database connection URL (env: STOREFRONT_DATABASE_URL)")
	flags.String("server-addr", "", "Server bind address (env: STOREFRONT_SERVER_ADDR)")
	flags.String("signing-key", "", "JWT signing key (env: STOREFRONT_JWT_SIGNING_KEY)")
	flags.String("key-id", "", "JWT key id (env: STOREFRONT_JWT_KEY_ID)")
	flags.Duration("token-ttl", 0, "Access token lifetime (env: STOREFRONT_TOKEN_TTL)")
	flags.Int("bcrypt-cost", 0, "bcrypt work factor (env: STOREFRONT_BCRYPT_COST)")
	flags.Bool("debug", false, "Enable debug logging (env: STOREFRONT_DEBUG)")

	root.AddCommand(newServeCommand(), newMigrateCommand(), newHashPasswordCommand())
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()

	stringFlags := map[string]*string{
		"db-url":      &c.DatabaseURL,
		"server-addr": &c.ServerAddr,
		"signing-key": &c.SigningKey,
		"key-id":      &c.SigningKeyID,
	}
	for name, target := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*target = value
	}

	if flags.Changed("token-ttl") {
		ttl, err := flags.GetDuration("token-ttl")
		if err != nil {
			return err
		}
		c.TokenTTL = ttl
	}

	if flags.Changed("bcrypt-cost") {
		cost, err := flags.GetInt("bcrypt-cost")
		if err != nil {
			return err
		}
		c.BcryptCost = cost
	}

	if flags.Changed("debug") {
		debug, err := flags.GetBool("debug")
		if err != nil {
			return err
		}
		c.Debug = debug
	}

	return nil
}

func newLogger(debug bool) *glog.BaseLogger {
	if debug {
		return glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithLevel(glog.Trace),
			glog.WithName("storefront"),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
		)
	}
	return glog.NewLogger(
		glog.WithLoggerTypeJSON(),
		glog.WithLevel(glog.Info),
		glog.WithName("storefront"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)
}

func shutdownTimeout() time.Duration {
	if cfg == nil || cfg.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return cfg.ShutdownTimeout
}
