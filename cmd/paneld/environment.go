package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"panel-backend/config"
	"panel-backend/internal/cache"
)

type environmentOptions struct {
	url       string
	timezone  string
	cache     string
	redisHost string
	redisPass string
	redisPort int
	author    string
}

func newEnvironmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "environment",
		Short: "Manage the panel environment",
	}

	var opts environmentOptions
	setup := &cobra.Command{
		Use:   "setup",
		Short: "Write the panel URL, timezone and cache settings to the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if errors.Is(err, fs.ErrNotExist) {
				cfg = &config.Config{}
				cfg.ApplyDefaults()
			} else if err != nil {
				return err
			}

			if err := applyEnvironment(cmd.Context(), cfg, cmd, opts); err != nil {
				return err
			}
			if err := config.Save(configPath, cfg); err != nil {
				return err
			}
			cmd.Printf("Environment written to %s.\n", configPath)
			return nil
		},
	}

	f := setup.Flags()
	f.StringVar(&opts.url, "url", "", "public URL of the panel")
	f.StringVar(&opts.timezone, "timezone", "", "IANA timezone used for coupon expiry times and schedules")
	f.StringVar(&opts.cache, "cache", "", "response cache driver: memory, redis or memcached")
	f.StringVar(&opts.redisHost, "redis-host", "", "redis host")
	f.StringVar(&opts.redisPass, "redis-pass", "", "redis password")
	f.IntVar(&opts.redisPort, "redis-port", 0, "redis port")
	f.StringVar(&opts.author, "author", "", "email address shown as the author of eggs exported from this panel")

	cmd.AddCommand(setup)
	return cmd
}

// applyEnvironment copies the changed flags onto cfg and validates the
// result. Redis is pinged before anything is written.
func applyEnvironment(ctx context.Context, cfg *config.Config, cmd *cobra.Command, opts environmentOptions) error {
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.App.URL = opts.url
	}
	if flags.Changed("timezone") {
		if _, err := time.LoadLocation(opts.timezone); err != nil {
			return fmt.Errorf("the timezone %q is not valid: %w", opts.timezone, err)
		}
		cfg.App.Timezone = opts.timezone
	}
	if flags.Changed("author") {
		cfg.App.ServiceAuthor = opts.author
	}
	if flags.Changed("cache") {
		cfg.Cache.Driver = opts.cache
	}
	if flags.Changed("redis-host") {
		cfg.Cache.RedisHost = opts.redisHost
	}
	if flags.Changed("redis-pass") {
		cfg.Cache.RedisPassword = opts.redisPass
	}
	if flags.Changed("redis-port") {
		cfg.Cache.RedisPort = opts.redisPort
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	if cfg.Cache.Driver == cache.DriverRedis {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.Ping(pingCtx); err != nil {
			return fmt.Errorf("unable to connect to redis at %s: %w", cfg.Cache.RedisAddr(), err)
		}
		log.Infof("Connected to redis at %s", cfg.Cache.RedisAddr())
	}
	return nil
}
