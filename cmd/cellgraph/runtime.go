package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/jacentio/cellgraph/graph"
	"github.com/jacentio/cellgraph/internal/config"
	"github.com/jacentio/cellgraph/internal/logger"
	"github.com/jacentio/cellgraph/sqlite"
	"github.com/jacentio/cellgraph/store"
	"github.com/jacentio/cellgraph/workspace"
)

const metaConfig = "config"

// runtime is what every data command needs: an engine bound to the active
// workspace and the manager that bound it.
type runtime struct {
	cfg        *config.Config
	log        *zap.Logger
	engine     *graph.Engine
	workspaces *workspace.Manager
	close      func() error
}

func configFrom(cctx *cli.Context) *config.Config {
	if cfg, ok := cctx.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// openRuntime opens the configured backend and activates a workspace.
func openRuntime(cctx *cli.Context) (*runtime, error) {
	ctx := cctx.Context
	cfg := configFrom(cctx)
	log := logger.Get()

	backend, closer, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	engine := graph.New(graph.Collections{}, graph.WithLogger(log))
	manager := workspace.NewManager(backend, engine, workspace.WithLogger(log))

	ws, err := manager.Init(ctx, cfg.Workspace)
	if err != nil {
		closer()
		return nil, fmt.Errorf("init workspace: %w", err)
	}
	log.Debug("Workspace bound", zap.String("workspace", ws.ID), zap.String("backend", cfg.Backend))

	return &runtime{
		cfg:        cfg,
		log:        log,
		engine:     engine,
		workspaces: manager,
		close:      closer,
	}, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (workspace.Backend, func() error, error) {
	switch cfg.Backend {
	case config.BackendDynamoDB:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
			}
		})
		s := store.New(client, store.Config{
			Table:     cfg.DynamoTable,
			NumShards: cfg.NumShards,
		})
		return s, func() error { return nil }, nil

	default:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}
}

// withRuntime wraps a command action that needs an open runtime.
func withRuntime(action func(*cli.Context, *runtime) error) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		rt, err := openRuntime(cctx)
		if err != nil {
			return err
		}
		defer rt.close()
		return action(cctx, rt)
	}
}

func printJSON(cctx *cli.Context, v any) error {
	enc := json.NewEncoder(cctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// jsonObject decodes a JSON object argument. An empty string yields nil.
func jsonObject(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	return m, nil
}

// args returns exactly n positional arguments.
func args(cctx *cli.Context, names ...string) ([]string, error) {
	if cctx.NArg() != len(names) {
		return nil, fmt.Errorf("%s expects arguments: %v", cctx.Command.Name, names)
	}
	return cctx.Args().Slice(), nil
}
