package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/scriptloader-go/internal/cli/config"
	"github.com/yndnr/scriptloader-go/internal/cli/output"
	serverconfig "github.com/yndnr/scriptloader-go/internal/server/config"
)

// ConfigCommand returns the config subcommand group. Everything here runs
// locally; nothing is sent to a server.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and validate configuration files",
		Subcommands: []*cli.Command{
			{
				Name:  "cli",
				Usage: "CLI configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Show the effective CLI configuration",
						Action: configCLIShow,
					},
					{
						Name:   "validate",
						Usage:  "Validate the CLI configuration file",
						Action: configCLIValidate,
					},
				},
			},
			{
				Name:  "server",
				Usage: "Server configuration",
				Subcommands: []*cli.Command{
					{
						Name:      "show",
						Usage:     "Show a server configuration file merged with defaults and SCRIPTLOADER_ variables",
						ArgsUsage: "[FILE]",
						Action:    configServerShow,
					},
					{
						Name:      "validate",
						Usage:     "Validate a server configuration file",
						ArgsUsage: "FILE",
						Action:    configServerValidate,
					},
					{
						Name:   "defaults",
						Usage:  "Print the default server configuration",
						Action: configServerDefaults,
					},
				},
			},
		},
	}
}

// printDocument prints nested configuration; a table cannot show it, so
// table output becomes YAML.
func printDocument(c *cli.Context, flags *GlobalFlags, data any) error {
	if flags.Output == output.FormatTable {
		return (&output.YAMLFormatter{}).Format(stdout(c), data)
	}
	return printResult(c, flags, data)
}

func configCLIShow(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	return printDocument(c, flags, cfg.Sanitized())
}

func configCLIValidate(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("invalid cli config: %w", err)
	}
	if _, err := output.ParseFormat(cfg.Output); err != nil {
		return fmt.Errorf("invalid cli config: %w", err)
	}
	if _, err := cfg.Active(""); err != nil {
		return fmt.Errorf("invalid cli config: %w", err)
	}

	fmt.Fprintf(stdout(c), "✓ CLI configuration is valid: %s\n", path)
	return nil
}

func configServerShow(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	cfg, err := serverconfig.Load(c.Args().First(), nil)
	if err != nil {
		return err
	}
	return printDocument(c, flags, serverconfig.Sanitize(cfg))
}

func configServerValidate(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("configuration file path required")
	}

	if _, err := serverconfig.Load(path, nil); err != nil {
		return err
	}
	fmt.Fprintf(stdout(c), "✓ Server configuration is valid: %s\n", path)
	return nil
}

func configServerDefaults(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	return printDocument(c, flags, serverconfig.Default())
}
