/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/stopots/games/stop"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

type Config struct {
	bind           string
	categories     []string
	maxPlayers     int
	port           int
	prefix         string
	profile        bool
	rateBurst      int
	rateLimit      float64
	roundLimit     time.Duration
	sessionTimeout time.Duration
	spinDelay      time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxPlayers < 1 || c.maxPlayers > stop.PlayerLimit {
		return fmt.Errorf("invalid max players (must be between 1-%d inclusive): %d", stop.PlayerLimit, c.maxPlayers)
	}
	if len(c.categories) == 0 {
		return errors.New("at least one category is required")
	}
	if len(c.categories) > stop.CategoryLimit {
		return fmt.Errorf("too many categories (must be at most %d): %d", stop.CategoryLimit, len(c.categories))
	}

	seen := make(map[string]bool, len(c.categories))
	for _, category := range c.categories {
		key := stop.Normalize(category)
		if key == "" {
			return errors.New("categories must not be blank")
		}
		if len(strings.TrimSpace(category)) > stop.CategoryNameLimit {
			return fmt.Errorf("category longer than %d bytes: %q", stop.CategoryNameLimit, category)
		}
		if seen[key] {
			return fmt.Errorf("duplicate category: %q", category)
		}
		seen[key] = true
	}

	if c.spinDelay <= 0 {
		return fmt.Errorf("invalid spin delay (must be positive): %s", c.spinDelay)
	}
	if c.roundLimit < 0 {
		return fmt.Errorf("invalid round limit (must not be negative): %s", c.roundLimit)
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid session timeout (must not be negative): %s", c.sessionTimeout)
	}
	if c.rateLimit <= 0 {
		return fmt.Errorf("invalid rate limit (must be positive): %v", c.rateLimit)
	}
	if c.rateBurst < 1 {
		return fmt.Errorf("invalid rate burst (must be at least 1): %d", c.rateBurst)
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// gameOptions translates the command line into engine settings.
func (c *Config) gameOptions(log zerolog.Logger) stop.Options {
	categories := make([]string, len(c.categories))
	for i, category := range c.categories {
		categories[i] = strings.TrimSpace(category)
	}

	return stop.Options{
		MaxPlayers: c.maxPlayers,
		Categories: categories,
		SpinDelay:  c.spinDelay,
		RoundLimit: c.roundLimit,
		RateLimit:  rate.Limit(c.rateLimit),
		RateBurst:  c.rateBurst,
		Logger:     log,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	// Values already in the environment win over .env.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STOPOTS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "stopots",
		Short:         "A real-time multiplayer game of Stop, served over websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, newLogger(cfg, cmd.ErrOrStderr()))
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: STOPOTS_BIND)")
	fs.StringSliceVar(&cfg.categories, "categories", stop.DefaultCategories, "categories for new rooms (env: STOPOTS_CATEGORIES)")
	fs.IntVar(&cfg.maxPlayers, "max-players", stop.DefaultMaxPlayers, "maximum players per room (env: STOPOTS_MAX_PLAYERS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: STOPOTS_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: STOPOTS_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: STOPOTS_PROFILE)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", stop.DefaultRateBurst, "commands a connection may send in a burst (env: STOPOTS_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", stop.DefaultRateLimit, "sustained commands per second per connection (env: STOPOTS_RATE_LIMIT)")
	fs.DurationVar(&cfg.roundLimit, "round-limit", stop.DefaultRoundLimit, "time before an unstopped round moves to voting, 0 to disable (env: STOPOTS_ROUND_LIMIT)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle rooms are closed, 0 to disable (env: STOPOTS_SESSION_TIMEOUT)")
	fs.DurationVar(&cfg.spinDelay, "spin-delay", stop.DefaultSpinDelay, "length of the letter reveal (env: STOPOTS_SPIN_DELAY)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: STOPOTS_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: STOPOTS_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: STOPOTS_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: STOPOTS_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("stopots v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
