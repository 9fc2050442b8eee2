package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/jacentio/cellgraph/cell"
)

var connectCmd = &cli.Command{
	Name:      "connect",
	Usage:     "make target a child of source",
	ArgsUsage: "<source> <target>",
	Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
		a, err := args(cctx, "source", "target")
		if err != nil {
			return err
		}
		id, err := rt.engine.ConnectCells(cctx.Context, a[0], a[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, id)
		return nil
	}),
}

var disconnectCmd = &cli.Command{
	Name:      "disconnect",
	Usage:     "remove one source to target relation",
	ArgsUsage: "<source> <target>",
	Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
		a, err := args(cctx, "source", "target")
		if err != nil {
			return err
		}
		return rt.engine.DisconnectCells(cctx.Context, a[0], a[1])
	}),
}

var relateCmd = &cli.Command{
	Name:      "relate",
	Usage:     "mark a cell for the current user (star, like)",
	ArgsUsage: "<id> <type>",
	Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
		a, err := args(cctx, "id", "type")
		if err != nil {
			return err
		}
		id, err := rt.engine.ConnectCellAndUser(cctx.Context, a[0], cell.RelationType(a[1]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, id)
		return nil
	}),
}

var unrelateCmd = &cli.Command{
	Name:      "unrelate",
	Usage:     "clear a user mark on a cell",
	ArgsUsage: "<id> <type>",
	Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
		a, err := args(cctx, "id", "type")
		if err != nil {
			return err
		}
		return rt.engine.DisconnectCellAndUser(cctx.Context, a[0], cell.RelationType(a[1]))
	}),
}
