package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/scriptloader-go/internal/infra/buildinfo"
	"github.com/yndnr/scriptloader-go/internal/infra/confloader"
	"github.com/yndnr/scriptloader-go/internal/server/app"
	"github.com/yndnr/scriptloader-go/internal/server/config"
	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
)

func main() {
	info := buildinfo.Get()
	cliApp := &cli.App{
		Name:    "scriptloader-server",
		Usage:   "Load scripts by name and serve the outcomes over HTTP",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"SCRIPTLOADER_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "HTTP listen address (overrides server.http.addr)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "Override a configuration key, e.g. --set cache.enabled=true (repeatable)",
			},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	overrides, err := flagOverrides(c)
	if err != nil {
		return err
	}

	conf := confloader.NewLoader(
		confloader.WithConfigFile(c.String("config")),
		confloader.WithOverrides(overrides),
	)
	cfg, err := config.LoadWith(conf)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting scriptloader-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", conf.FilePath())
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	server, err := app.New(conf, cfg, log)
	if err != nil {
		return err
	}
	if err := server.Run(c.Context); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// flagOverrides maps the command line flags to configuration keys.
func flagOverrides(c *cli.Context) (map[string]any, error) {
	overrides := make(map[string]any)
	if c.IsSet("addr") {
		overrides["server.http.addr"] = c.String("addr")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	for _, kv := range c.StringSlice("set") {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", kv)
		}
		overrides[key] = value
	}
	return overrides, nil
}
