package command

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/scriptloader-go/internal/cli/output"
)

type scriptRequest struct {
	Name      string `json:"name" yaml:"name"`
	Src       string `json:"src" yaml:"src"`
	Integrity string `json:"integrity,omitempty" yaml:"integrity"`
	Async     *bool  `json:"async,omitempty" yaml:"async"`
	SkipError *bool  `json:"skip_error,omitempty" yaml:"skip_error"`
	SkipAbort *bool  `json:"skip_abort,omitempty" yaml:"skip_abort"`
}

type scriptResult struct {
	Name    string `json:"name" yaml:"name"`
	Src     string `json:"src" yaml:"src"`
	Fetched bool   `json:"fetched" yaml:"fetched"`
	Loaded  bool   `json:"loaded" yaml:"loaded"`
	Module  any    `json:"module,omitempty" yaml:"module,omitempty" table:"wide"`
}

type scriptList struct {
	Items []scriptResult `json:"items" yaml:"items"`
	Total int            `json:"total" yaml:"total"`
}

type scriptStatus struct {
	Name   string `json:"name" yaml:"name"`
	Exists bool   `json:"exists" yaml:"exists"`
	Loaded bool   `json:"loaded" yaml:"loaded"`
	State  string `json:"state" yaml:"state"`
}

func optionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "async",
			Usage: "Inject with the async attribute (use --async=false to clear)",
		},
		&cli.BoolFlag{
			Name:  "skip-error",
			Usage: "Report a failed script as not loaded instead of failing",
		},
		&cli.BoolFlag{
			Name:  "skip-abort",
			Usage: "Report an aborted script as not loaded instead of failing",
		},
	}
}

// applyOptionFlags fills the options the request leaves unset from the
// flags given on the command line.
func applyOptionFlags(c *cli.Context, req *scriptRequest) {
	set := func(name string, dst **bool) {
		if *dst == nil && c.IsSet(name) {
			v := c.Bool(name)
			*dst = &v
		}
	}
	set("async", &req.Async)
	set("skip-error", &req.SkipError)
	set("skip-abort", &req.SkipAbort)
}

// ScriptCommand returns the script subcommand group.
func ScriptCommand() *cli.Command {
	return &cli.Command{
		Name:    "script",
		Aliases: []string{"scripts"},
		Usage:   "Script loading commands",
		Subcommands: []*cli.Command{
			{
				Name:      "load",
				Usage:     "Load a script by name",
				ArgsUsage: "NAME [SRC]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "integrity",
						Usage: "Subresource integrity metadata (e.g. sha384-...)",
					},
				}, optionFlags()...),
				Action: scriptLoadAction,
			},
			{
				Name:      "batch",
				Usage:     "Load the scripts listed in a YAML or JSON file ('-' for stdin)",
				ArgsUsage: "FILE",
				Flags:     optionFlags(),
				Action:    scriptBatchAction,
			},
			{
				Name:      "get",
				Usage:     "Show the recorded outcome of a script",
				ArgsUsage: "NAME",
				Action:    scriptGetAction,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List loaded scripts",
				Action:  scriptListAction,
			},
			{
				Name:      "status",
				Usage:     "Show whether a script is absent, pending or loaded",
				ArgsUsage: "NAME",
				Action:    scriptStatusAction,
			},
		},
	}
}

func scriptLoadAction(c *cli.Context) error {
	name := c.Args().Get(0)
	if name == "" {
		return fmt.Errorf("script name required")
	}

	req := scriptRequest{
		Name:      name,
		Src:       c.Args().Get(1),
		Integrity: c.String("integrity"),
	}
	applyOptionFlags(c, &req)

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	sp := startSpinner(c, flags, "Loading "+name)
	var result scriptResult
	err = client.PostJSON(ctx, "/scripts/load", req, &result)
	sp.done(err, "Loaded "+name)
	if err != nil {
		return err
	}
	return printResult(c, flags, result)
}

func scriptBatchAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("batch file required")
	}

	scripts, err := readBatch(c, path)
	if err != nil {
		return err
	}
	for i := range scripts {
		applyOptionFlags(c, &scripts[i])
	}

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	sp := startSpinner(c, flags, fmt.Sprintf("Loading %d scripts", len(scripts)))
	var result struct {
		Scripts []scriptResult `json:"scripts"`
	}
	body := map[string]any{"scripts": scripts}
	err = client.PostJSON(ctx, "/scripts/batch", body, &result)
	sp.done(err, fmt.Sprintf("Loaded %d scripts", len(result.Scripts)))
	if err != nil {
		return err
	}
	return printResult(c, flags, result.Scripts)
}

func readBatch(c *cli.Context, path string) ([]scriptRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		r := io.Reader(os.Stdin)
		if c.App != nil && c.App.Reader != nil {
			r = c.App.Reader
		}
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return parseBatch(data)
}

// parseBatch accepts either a list of scripts or a document with a
// "scripts" list. JSON input works since JSON is valid YAML.
func parseBatch(data []byte) ([]scriptRequest, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, errors.New("batch file is empty")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var scripts []scriptRequest
	if root.Content[0].Kind == yaml.SequenceNode {
		err := dec.Decode(&scripts)
		if err != nil {
			return nil, fmt.Errorf("parse batch file: %w", err)
		}
	} else {
		var doc struct {
			Scripts []scriptRequest `yaml:"scripts"`
		}
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse batch file: %w", err)
		}
		scripts = doc.Scripts
	}

	if len(scripts) == 0 {
		return nil, errors.New("batch file lists no scripts")
	}
	for i, s := range scripts {
		if s.Name == "" {
			return nil, fmt.Errorf("script %d: name required", i+1)
		}
	}
	return scripts, nil
}

func scriptGetAction(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("script name required")
	}

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	var result scriptResult
	if err := client.GetJSON(ctx, "/scripts/"+url.PathEscape(name), &result); err != nil {
		return err
	}
	return printResult(c, flags, result)
}

func scriptListAction(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	var result scriptList
	if err := client.GetJSON(ctx, "/scripts", &result); err != nil {
		return err
	}
	if flags.Output != output.FormatTable {
		return printResult(c, flags, result)
	}
	return printResult(c, flags, result.Items)
}

func scriptStatusAction(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("script name required")
	}

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	var result scriptStatus
	if err := client.GetJSON(ctx, "/scripts/"+url.PathEscape(name)+"/status", &result); err != nil {
		return err
	}
	return printResult(c, flags, result)
}
