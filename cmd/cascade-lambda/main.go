// Command cascade-lambda consumes the documents table's DynamoDB stream and
// purges the relations of removed cells.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/jacentio/cellgraph/internal/config"
	"github.com/jacentio/cellgraph/internal/logger"
	"github.com/jacentio/cellgraph/store"
	"github.com/jacentio/cellgraph/stream"
)

func main() {
	handler, err := setup(context.Background())
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	lambda.Start(handler.HandleCellRemoved)
}

func setup(ctx context.Context) (*stream.Handler, error) {
	cfg, err := config.Load(os.Getenv("CELLGRAPH_CONFIG"))
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get()

	if cfg.Backend != config.BackendDynamoDB {
		log.Warn("Ignoring configured backend, the stream handler always uses DynamoDB",
			zap.String("backend", cfg.Backend))
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
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
	log.Info("Cascade handler ready",
		zap.String("table", s.Config().Table),
		zap.Int("shards", s.Config().NumShards),
	)
	return stream.NewHandler(s, log), nil
}
