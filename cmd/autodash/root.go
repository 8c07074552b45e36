package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arifinrio95/auto-dashboard/internal/config"
)

// errInvalidConfig is returned after the issues were printed.
var errInvalidConfig = errors.New("invalid configuration")

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &rootOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "autodash",
		Short:         "Model-suggested dashboards for tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "config file (.json, .yaml or .yml)")
	pf.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&o.logFormat, "log-format", "", "log format: text or json (overrides config)")

	root.AddCommand(
		newRenderCmd(o),
		newServeCmd(o),
		newProfileCmd(o),
	)
	return root
}

// load resolves and validates the configuration and installs the logger.
// Every issue is printed to stderr; any error-severity issue stops the
// command. defaultFormat applies when neither the flag nor the config chose
// a format.
func (o *rootOptions) load(requireModel bool, defaultFormat string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath, nil)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	switch {
	case o.logFormat != "":
		cfg.Log.Format = o.logFormat
	case defaultFormat != "" && cfg.Log.Format == config.Default().Log.Format:
		cfg.Log.Format = defaultFormat
	}

	issues := config.Validate(cfg, requireModel)
	for _, iss := range issues {
		fmt.Fprintln(o.stderr, iss.String())
	}
	if config.HasErrors(issues) {
		return config.Config{}, nil, errInvalidConfig
	}

	logger, err := newLogger(o.stderr, cfg.Log)
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(w io.Writer, c config.Log) (*slog.Logger, error) {
	level, err := config.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
