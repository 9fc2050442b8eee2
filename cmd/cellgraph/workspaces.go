package main

import (
	"github.com/urfave/cli/v2"

	"github.com/jacentio/cellgraph/docstore"
)

var workspacesCmd = &cli.Command{
	Name:  "workspaces",
	Usage: "manage workspaces",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "list registered workspaces",
			Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
				all, err := rt.workspaces.List(cctx.Context)
				if err != nil {
					return err
				}
				out := make([]docstore.Document, 0, len(all))
				for _, ws := range all {
					out = append(out, ws.Document())
				}
				return printJSON(cctx, out)
			}),
		},
		{
			Name:  "current",
			Usage: "show the workspace commands run against",
			Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
				ws, err := rt.workspaces.Current()
				if err != nil {
					return err
				}
				return printJSON(cctx, ws.Document())
			}),
		},
		{
			Name:  "create",
			Usage: "register a new workspace",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name"},
				&cli.StringFlag{Name: "data", Usage: "workspace fields as a JSON object"},
			},
			Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
				data, err := jsonObject(cctx.String("data"))
				if err != nil {
					return err
				}
				if name := cctx.String("name"); name != "" {
					if data == nil {
						data = map[string]any{}
					}
					data["name"] = name
				}
				ws, err := rt.workspaces.Create(cctx.Context, data)
				if err != nil {
					return err
				}
				return printJSON(cctx, ws.Document())
			}),
		},
		{
			Name:      "update",
			Usage:     "change workspace fields",
			ArgsUsage: "<id>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "data", Usage: "fields as a JSON object", Required: true},
			},
			Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
				a, err := args(cctx, "id")
				if err != nil {
					return err
				}
				patch, err := jsonObject(cctx.String("data"))
				if err != nil {
					return err
				}
				ws, err := rt.workspaces.Update(cctx.Context, a[0], patch)
				if err != nil {
					return err
				}
				return printJSON(cctx, ws.Document())
			}),
		},
		{
			Name:      "delete",
			Usage:     "delete a workspace and all of its cells",
			ArgsUsage: "<id>",
			Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
				a, err := args(cctx, "id")
				if err != nil {
					return err
				}
				return rt.workspaces.Delete(cctx.Context, a[0])
			}),
		},
	},
}
