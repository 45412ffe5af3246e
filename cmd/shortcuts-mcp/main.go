// Command shortcuts-mcp exposes the macOS Shortcuts runner as MCP tools.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/deixis/shortcuts"
	"github.com/deixis/shortcuts/internal/bridge"
	"github.com/deixis/shortcuts/internal/config"
	"github.com/deixis/shortcuts/internal/dispatch"
	"github.com/deixis/shortcuts/internal/logging"
	shortcutsmcp "github.com/deixis/shortcuts/internal/mcp"
	"github.com/deixis/shortcuts/internal/metrics"
	"github.com/deixis/shortcuts/internal/runner"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix(shortcuts.Name + ": ")

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    shortcuts.Name,
		Usage:   "expose the Shortcuts runner as MCP tools",
		Version: shortcuts.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a YAML config file",
			},
			&cli.StringFlag{
				Name:  "binary",
				Usage: "Shortcuts runner executable (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "one of [debug,info,warn,error] (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			return serve(c, "")
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the MCP server (stdio by default)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "http",
						Usage: "serve streamable HTTP on this address (e.g. :9090) instead of stdio",
					},
					&cli.BoolFlag{
						Name:  "instructions",
						Usage: "print model instructions and exit",
					},
				},
				Action: func(c *cli.Context) error {
					if c.Bool("instructions") {
						fmt.Fprint(c.App.Writer, shortcutsmcp.Instructions)
						return nil
					}
					return serve(c, c.String("http"))
				},
			},
			{
				Name:  "list",
				Usage: "list all shortcuts",
				Action: func(c *cli.Context) error {
					return call(c, dispatch.OpList, nil)
				},
			},
			{
				Name:  "folders",
				Usage: "list shortcut folders",
				Action: func(c *cli.Context) error {
					return call(c, dispatch.OpListFolders, nil)
				},
			},
			{
				Name:      "search",
				Usage:     "search shortcuts by name",
				ArgsUsage: "QUERY",
				Action: func(c *cli.Context) error {
					return call(c, dispatch.OpSearch, map[string]any{"query": c.Args().First()})
				},
			},
			{
				Name:      "run",
				Usage:     "run a shortcut",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Usage: "text piped to the shortcut"},
					&cli.StringFlag{Name: "input-file", Usage: "file passed as input (takes precedence over --input)"},
					&cli.StringFlag{Name: "output-type", Usage: "output UTI, e.g. public.plain-text"},
				},
				Action: func(c *cli.Context) error {
					return call(c, dispatch.OpRun, map[string]any{
						"name":        c.Args().First(),
						"input":       c.String("input"),
						"input_file":  c.String("input-file"),
						"output_type": c.String("output-type"),
					})
				},
			},
			{
				Name:      "exists",
				Usage:     "check whether a shortcut exists",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					return call(c, dispatch.OpExists, map[string]any{"name": c.Args().First()})
				},
			},
		},
	}
}

// env holds everything built from config and global flags.
type env struct {
	log        *zap.SugaredLogger
	metrics    *metrics.Metrics
	dispatcher *dispatch.Dispatcher
}

func newEnv(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if b := c.String("binary"); b != "" {
		cfg.RawBinary = b
	}
	if l := c.String("log-level"); l != "" {
		cfg.RawLogLevel = l
	}

	logger, err := logging.New(cfg.LogLevel())
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	b := &bridge.Bridge{
		Runner: &runner.Runner{
			Timeout:   cfg.RunTimeout(),
			MaxOutput: cfg.MaxOutputBytes(),
			Logger:    logger.Named("runner"),
		},
		Binary:      cfg.Binary(),
		ListTimeout: cfg.ListTimeout(),
		RunTimeout:  cfg.RunTimeout(),
		Logger:      logger.Named("bridge"),
		Metrics:     m,
	}

	return &env{
		log:     logger,
		metrics: m,
		dispatcher: &dispatch.Dispatcher{
			Bridge:  b,
			Logger:  logger.Named("dispatch"),
			Metrics: m,
		},
	}, nil
}

func serve(c *cli.Context, httpAddr string) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := shortcutsmcp.NewServer(e.dispatcher, e.log.Named("mcp"))

	if httpAddr != "" {
		handler := shortcutsmcp.NewHTTPHandler(server, e.metrics, e.log.Named("http"))
		return shortcutsmcp.ServeHTTP(ctx, httpAddr, handler, e.log)
	}
	if err := shortcutsmcp.Serve(ctx, server, e.log); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serving stdio: %w", err)
	}
	return nil
}

// call dispatches a single operation and prints its payload. An error
// response is printed to stderr and exits with status 1.
func call(c *cli.Context, op string, args map[string]any) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	resp := e.dispatcher.Handle(c.Context, op, args)
	if resp.IsError {
		return cli.Exit(resp.Text, 1)
	}
	fmt.Fprintln(c.App.Writer, resp.Text)
	return nil
}
