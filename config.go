package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/triviabox/games/trivia"
)

type Config struct {
	bind          string
	intermission  time.Duration
	joinGrace     time.Duration
	maxTemplate   int64
	metrics       bool
	port          int
	prefix        string
	profile       bool
	roundDuration time.Duration
	stipend       int
	tlsCert       string
	tlsKey        string
	verbose       bool
	version       bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.roundDuration < time.Second || c.roundDuration%time.Second != 0 {
		return fmt.Errorf("invalid round duration (must be a whole number of seconds): %s", c.roundDuration)
	}
	if c.intermission < 0 || c.intermission%time.Second != 0 {
		return fmt.Errorf("invalid intermission (must be a whole number of seconds): %s", c.intermission)
	}
	if c.joinGrace <= 0 {
		return fmt.Errorf("invalid join grace period (must be positive): %s", c.joinGrace)
	}
	if c.stipend < 1 {
		return fmt.Errorf("invalid stipend (must be positive): %d", c.stipend)
	}
	if c.maxTemplate < 1 {
		return fmt.Errorf("invalid template size limit (must be positive): %d", c.maxTemplate)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) gameOptions() []trivia.Option {
	return []trivia.Option{
		trivia.WithRoundDuration(c.roundDuration),
		trivia.WithIntermission(c.intermission),
		trivia.WithJoinGrace(c.joinGrace),
		trivia.WithStipend(c.stipend),
		trivia.WithLogger(func(format string, args ...any) {
			logf(c, "GAMES: "+format, args...)
		}),
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TRIVIABOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "triviabox",
		Short:         "Live trivia games where players bet on each other's guesses.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TRIVIABOX_BIND)")
	fs.DurationVar(&cfg.intermission, "intermission", trivia.DefaultIntermission, "pause announced between rounds (env: TRIVIABOX_INTERMISSION)")
	fs.DurationVar(&cfg.joinGrace, "join-grace", trivia.DefaultJoinGrace, "time a joined player has to connect before being dropped (env: TRIVIABOX_JOIN_GRACE)")
	fs.Int64Var(&cfg.maxTemplate, "max-template-bytes", 1<<20, "largest accepted trivia template, in bytes (env: TRIVIABOX_MAX_TEMPLATE_BYTES)")
	fs.BoolVar(&cfg.metrics, "metrics", false, "expose prometheus metrics at /metrics (env: TRIVIABOX_METRICS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TRIVIABOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TRIVIABOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TRIVIABOX_PROFILE)")
	fs.DurationVar(&cfg.roundDuration, "round-duration", trivia.DefaultRoundDuration, "time players have to answer and bet (env: TRIVIABOX_ROUND_DURATION)")
	fs.IntVar(&cfg.stipend, "stipend", trivia.DefaultStipend, "funds credited to every player at the start of each round (env: TRIVIABOX_STIPEND)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TRIVIABOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TRIVIABOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TRIVIABOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: TRIVIABOX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("triviabox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
