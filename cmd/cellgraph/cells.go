package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/jacentio/cellgraph/graph"
)

var listCmd = &cli.Command{
	Name:  "list",
	Usage: "query cells of the active workspace",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "fetch one cell by id"},
		&cli.StringFlag{Name: "partition"},
		&cli.StringFlag{Name: "type-group"},
		&cli.StringFlag{Name: "type"},
		&cli.StringFlag{Name: "root", Usage: "0 or 1"},
		&cli.StringSliceFlag{Name: "parent", Usage: "only children of these cells"},
		&cli.StringSliceFlag{Name: "child", Usage: "only parents of these cells"},
		&cli.StringFlag{Name: "relation", Usage: "only cells with this user relation (star, like)"},
		&cli.StringFlag{Name: "since", Usage: "lower time bound (epoch ms or date)"},
		&cli.StringFlag{Name: "until", Usage: "upper time bound (epoch ms or date)"},
		&cli.StringFlag{Name: "time-type", Value: "createTime"},
		&cli.StringSliceFlag{Name: "order", Usage: "column[:asc|desc], repeatable"},
		&cli.IntFlag{Name: "page", Value: 1},
		&cli.IntFlag{Name: "page-size", Value: graph.DefaultPageSize},
		&cli.BoolFlag{Name: "detail", Usage: "include data, config and statistics"},
		&cli.BoolFlag{Name: "parents", Usage: "attach parent cells"},
		&cli.BoolFlag{Name: "children", Usage: "attach child cells"},
	},
	Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
		q := graph.Query{
			CellID:                  cctx.String("id"),
			Partition:               cctx.String("partition"),
			TypeGroup:               cctx.String("type-group"),
			Type:                    cctx.String("type"),
			ParentIDs:               cctx.StringSlice("parent"),
			ChildIDs:                cctx.StringSlice("child"),
			RelationshipType:        cctx.String("relation"),
			StartTime:               graph.TimeBound(cctx.String("since")),
			EndTime:                 graph.TimeBound(cctx.String("until")),
			TimeType:                cctx.String("time-type"),
			Page:                    cctx.Int("page"),
			PageSize:                cctx.Int("page-size"),
			ShowDetail:              cctx.Bool("detail"),
			ShowCorrelationParents:  cctx.Bool("parents"),
			ShowCorrelationChildren: cctx.Bool("children"),
			Orders:                  parseOrders(cctx.StringSlice("order")),
		}
		switch cctx.String("root") {
		case "0":
			q.IsRoot = intPtr(0)
		case "1":
			q.IsRoot = intPtr(1)
		}

		page, err := rt.engine.GetCells(cctx.Context, q)
		if err != nil {
			return err
		}
		return printJSON(cctx, page)
	}),
}

var getCmd = &cli.Command{
	Name:      "get",
	Usage:     "show one cell",
	ArgsUsage: "<id>",
	Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
		a, err := args(cctx, "id")
		if err != nil {
			return err
		}
		c, err := rt.engine.GetCell(cctx.Context, a[0])
		if err != nil {
			return err
		}
		return printJSON(cctx, c)
	}),
}

var createCmd = &cli.Command{
	Name:  "create",
	Usage: "create a cell",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "data", Usage: "cell fields as a JSON object", Required: true},
	},
	Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
		payload, err := jsonObject(cctx.String("data"))
		if err != nil {
			return err
		}
		c, err := rt.engine.CreateCell(cctx.Context, payload)
		if err != nil {
			return err
		}
		return printJSON(cctx, c)
	}),
}

var updateCmd = &cli.Command{
	Name:      "update",
	Usage:     "update a cell",
	ArgsUsage: "<id>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "data", Usage: "top-level fields as a JSON object"},
		&cli.StringFlag{Name: "deep", Usage: "nested fields merged before --data, as a JSON object"},
	},
	Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
		a, err := args(cctx, "id")
		if err != nil {
			return err
		}
		fields, err := jsonObject(cctx.String("data"))
		if err != nil {
			return err
		}
		deep, err := jsonObject(cctx.String("deep"))
		if err != nil {
			return err
		}
		c, err := rt.engine.UpdateCell(cctx.Context, graph.UpdateInput{
			ID:         a[0],
			Fields:     fields,
			DeepUpdate: deep != nil,
			DeepData:   deep,
		})
		if err != nil {
			return err
		}
		return printJSON(cctx, c)
	}),
}

var deleteCmd = &cli.Command{
	Name:      "delete",
	Usage:     "delete a cell and its relations",
	ArgsUsage: "<id>",
	Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
		a, err := args(cctx, "id")
		if err != nil {
			return err
		}
		return rt.engine.DeleteCell(cctx.Context, a[0])
	}),
}

var purgeCmd = &cli.Command{
	Name:      "purge",
	Usage:     "remove every relation that mentions a cell",
	ArgsUsage: "<id>",
	Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
		a, err := args(cctx, "id")
		if err != nil {
			return err
		}
		n, err := rt.engine.PurgeRelations(cctx.Context, a[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "removed %d relations\n", n)
		return nil
	}),
}

// parseOrders reads "column[:direction]" items.
func parseOrders(items []string) []graph.Order {
	var orders []graph.Order
	for _, item := range items {
		column, direction, _ := strings.Cut(item, ":")
		if column == "" {
			continue
		}
		if direction == "" {
			direction = "desc"
		}
		orders = append(orders, graph.Order{Column: column, Direction: direction})
	}
	return orders
}

func intPtr(n int) *int { return &n }
