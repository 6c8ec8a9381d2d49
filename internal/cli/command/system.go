package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/scriptloader-go/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server health and version",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check that the server is up",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check that the server accepts loads",
				Action: systemReady,
			},
			{
				Name:   "version",
				Usage:  "Show the CLI build information",
				Action: systemVersion,
			},
		},
	}
}

func systemHealth(c *cli.Context) error {
	return getAndPrint(c, "/health")
}

// systemReady fails with the server's error when it is not ready, so the
// exit status can drive scripts and probes.
func systemReady(c *cli.Context) error {
	return getAndPrint(c, "/ready")
}

func getAndPrint(c *cli.Context, path string) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	var result map[string]any
	if err := client.GetJSON(ctx, path, &result); err != nil {
		return err
	}
	return printResult(c, flags, result)
}

func systemVersion(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	return printResult(c, flags, buildinfo.Get())
}
