// Command cellgraph serves and administers a cell graph.
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/jacentio/cellgraph/internal/config"
	"github.com/jacentio/cellgraph/internal/logger"
)

var (
	flagConfig = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to a TOML config file",
		EnvVars: []string{"CELLGRAPH_CONFIG"},
	}
	flagWorkspace = &cli.StringFlag{
		Name:    "workspace",
		Aliases: []string{"w"},
		Usage:   "workspace id to bind, overrides the config file",
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:                 "cellgraph",
		Usage:                "cell relationship graph and query engine",
		EnableBashCompletion: true,
		Flags:                []cli.Flag{flagConfig, flagWorkspace},
		Before:               before,
		After: func(*cli.Context) error {
			logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			serveCmd,
			listCmd,
			getCmd,
			createCmd,
			updateCmd,
			deleteCmd,
			purgeCmd,
			connectCmd,
			disconnectCmd,
			relateCmd,
			unrelateCmd,
			workspacesCmd,
			configCmd,
		},
	}
}

// before loads the configuration and sets up the process logger.
func before(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String(flagConfig.Name))
	if err != nil {
		return err
	}
	if ws := cctx.String(flagWorkspace.Name); ws != "" {
		cfg.Workspace = ws
	}
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		return err
	}
	cctx.App.Metadata = map[string]any{metaConfig: cfg}
	return nil
}

func main() {
	app := newApp()
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
