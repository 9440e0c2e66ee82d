/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "GAMECHOOSER"

type Config struct {
	bind      string
	envFile   string
	logFormat string
	maxGames  int
	port      int
	prefix    string
	profile   bool
	qrSize    int
	tlsCert   string
	tlsKey    string
	verbose   bool
	version   bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.logFormat != "console" && c.logFormat != "json" {
		return fmt.Errorf("invalid log format (must be console or json): %q", c.logFormat)
	}
	if c.maxGames < 0 {
		return fmt.Errorf("invalid max games (must be 0 or greater): %d", c.maxGames)
	}
	if c.qrSize < 64 || c.qrSize > 2048 {
		return fmt.Errorf("invalid qr size (must be between 64-2048 inclusive): %d", c.qrSize)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// applyEnv fills every flag left unset on the command line from the
// environment, after loading the optional env file.
func applyEnv(cfg *Config, v *viper.Viper, fs *pflag.FlagSet) error {
	if !fs.Changed("env-file") && v.IsSet("env-file") {
		cfg.envFile = v.GetString("env-file")
	}
	if cfg.envFile != "" {
		if err := godotenv.Load(cfg.envFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", cfg.envFile, err)
		}
	}

	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if setErr := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); setErr != nil {
			err = fmt.Errorf("invalid value for %s_%s: %w", envPrefix, envKey(f.Name), setErr)
		}
	})
	return err
}

func envKey(flag string) string {
	return strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "gamechooser",
		Short:         "Pick a game to play together: seed a room, share the code, vote, and let the host draw a winner.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return applyEnv(cfg, v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			configureLogging(cfg)

			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: GAMECHOOSER_BIND)")
	fs.StringVar(&cfg.envFile, "env-file", "", "load environment variables from this file before reading them (env: GAMECHOOSER_ENV_FILE)")
	fs.StringVar(&cfg.logFormat, "log-format", "console", "log output format, console or json (env: GAMECHOOSER_LOG_FORMAT)")
	fs.IntVar(&cfg.maxGames, "max-games", 50, "maximum games per room, 0 for no limit (env: GAMECHOOSER_MAX_GAMES)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: GAMECHOOSER_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: GAMECHOOSER_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: GAMECHOOSER_PROFILE)")
	fs.IntVar(&cfg.qrSize, "qr-size", 320, "edge length in pixels of invite QR codes (env: GAMECHOOSER_QR_SIZE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: GAMECHOOSER_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: GAMECHOOSER_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: GAMECHOOSER_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: GAMECHOOSER_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("gamechooser v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
