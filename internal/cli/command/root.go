package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/scriptloader-go/internal/cli/config"
	"github.com/yndnr/scriptloader-go/internal/cli/connection"
	"github.com/yndnr/scriptloader-go/internal/cli/output"
	"github.com/yndnr/scriptloader-go/internal/infra/buildinfo"
	"github.com/yndnr/scriptloader-go/internal/infra/tlsroots"
)

// App creates the CLI application.
func App() *cli.App {
	info := buildinfo.Get()
	return &cli.App{
		Name:    "scriptloader-cli",
		Usage:   "Load and inspect scripts on a scriptloader server",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ScriptCommand(),
			SystemCommand(),
			ConfigCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file (default: $XDG_CONFIG_HOME/scriptloader/cli.yaml)",
			EnvVars: []string{"SCRIPTLOADER_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Named server profile from the CLI config file",
			EnvVars: []string{"SCRIPTLOADER_PROFILE"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Server address (e.g., 127.0.0.1:5080)",
			EnvVars: []string{"SCRIPTLOADER_SERVER"},
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM file with extra CA certificates for https servers",
		},
		&cli.StringSliceFlag{
			Name:    "header",
			Aliases: []string{"H"},
			Usage:   "Extra request header as 'Name: value' (repeatable)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Do not show progress",
		},
	}
}

// GlobalFlags are the effective settings shared by all commands, after
// merging the config file, the selected profile and the flags.
type GlobalFlags struct {
	Server  string
	CAFile  string
	Headers map[string]string
	Timeout time.Duration
	Output  output.Format
	Wide    bool
	Quiet   bool
}

// ParseGlobalFlags resolves the global settings. Flags and their
// environment variables win over the config file.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load cli config: %w", err)
	}
	profile, err := cfg.Active(c.String("profile"))
	if err != nil {
		return nil, err
	}

	flags := &GlobalFlags{
		Server:  profile.Server,
		CAFile:  profile.CAFile,
		Headers: make(map[string]string, len(profile.Headers)),
		Timeout: cfg.Timeout,
		Wide:    c.Bool("wide"),
		Quiet:   c.Bool("quiet"),
	}
	for k, v := range profile.Headers {
		flags.Headers[k] = v
	}

	if c.IsSet("server") {
		flags.Server = c.String("server")
	}
	if c.IsSet("ca-file") {
		flags.CAFile = c.String("ca-file")
	}
	if c.IsSet("timeout") {
		flags.Timeout = c.Duration("timeout")
	}
	for _, h := range c.StringSlice("header") {
		name, value, err := parseHeader(h)
		if err != nil {
			return nil, err
		}
		flags.Headers[name] = value
	}

	format := cfg.Output
	if c.IsSet("output") {
		format = c.String("output")
	}
	if flags.Output, err = output.ParseFormat(format); err != nil {
		return nil, err
	}
	return flags, nil
}

// parseHeader accepts "Name: value" and "Name=value", split at the first
// separator.
func parseHeader(s string) (string, string, error) {
	i := strings.IndexAny(s, ":=")
	if i <= 0 || strings.TrimSpace(s[:i]) == "" {
		return "", "", fmt.Errorf("invalid header %q, want 'Name: value'", s)
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), nil
}

// EnsureConnected resolves the settings and returns a client for the
// selected server.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}

	tlsCfg, err := tlsroots.ClientTLSConfig(flags.CAFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load ca file: %w", err)
	}

	client := connection.NewHTTPClient(flags.Server,
		connection.WithTimeout(flags.Timeout),
		connection.WithTLSConfig(tlsCfg),
		connection.WithHeaders(flags.Headers),
	)
	return client, flags, nil
}

// requestContext bounds one command by the resolved timeout.
func requestContext(c *cli.Context, flags *GlobalFlags) (context.Context, context.CancelFunc) {
	if flags.Timeout <= 0 {
		return context.WithCancel(c.Context)
	}
	return context.WithTimeout(c.Context, flags.Timeout)
}

func stdout(c *cli.Context) io.Writer {
	if c.App != nil && c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func stderr(c *cli.Context) io.Writer {
	if c.App != nil && c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// printResult writes data in the selected format.
func printResult(c *cli.Context, flags *GlobalFlags, data any) error {
	return output.NewFormatter(flags.Output, flags.Wide).Format(stdout(c), data)
}

// startSpinner shows progress on an interactive stderr for table output.
// It returns nil otherwise, which done accepts.
func startSpinner(c *cli.Context, flags *GlobalFlags, message string) *spinner {
	if flags.Quiet || flags.Output != output.FormatTable || !isTerminal(stderr(c)) {
		return nil
	}
	s := output.NewSpinner(stderr(c), message)
	s.Start()
	return &spinner{s}
}

type spinner struct{ *output.Spinner }

func (s *spinner) done(err error, message string) {
	if s == nil {
		return
	}
	if err != nil {
		s.Fail(err.Error())
		return
	}
	s.Success(message)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
