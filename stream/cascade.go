// Package stream provides DynamoDB Streams handlers for relation cleanup.
package stream

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/jacentio/cellgraph/graph"
	"github.com/jacentio/cellgraph/internal/logger"
	"github.com/jacentio/cellgraph/internal/shard"
	"github.com/jacentio/cellgraph/workspace"
)

// Handler purges the relations of cells removed from the table. Deleting a
// cell already purges its relations, but that step is best effort; the
// stream re-runs it so relations never outlive their cell.
type Handler struct {
	backend workspace.Backend
	logger  *zap.Logger
}

// NewHandler creates a new stream handler over backend.
func NewHandler(backend workspace.Backend, l *zap.Logger) *Handler {
	if l == nil {
		l = logger.Get()
	}
	return &Handler{
		backend: backend,
		logger:  l,
	}
}

// HandleCellRemoved processes DynamoDB stream events and purges the
// relations of every removed cell. It is designed to be used as an AWS
// Lambda handler; a returned error makes Lambda retry the batch.
func (h *Handler) HandleCellRemoved(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				zap.String("eventID", record.EventID),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != string(events.DynamoDBOperationTypeRemove) {
		return nil
	}

	wsID, cid, ok := CellKey(record.Change.Keys)
	if !ok {
		return nil
	}

	h.logger.Info("purging relations of removed cell",
		zap.String("workspace", wsID),
		zap.String("cid", cid),
		zap.Int64("rev", getNumberAttr(record.Change.OldImage, "_rev")),
	)

	engine := graph.New(workspace.CollectionsFor(h.backend, wsID), graph.WithLogger(h.logger))
	n, err := engine.PurgeRelations(ctx, cid)
	if err != nil {
		return fmt.Errorf("purge relations of %s/%s: %w", wsID, cid, err)
	}

	h.logger.Info("relation purge completed",
		zap.String("workspace", wsID),
		zap.String("cid", cid),
		zap.Int("removed", n),
	)
	return nil
}

// CellKey extracts the workspace id and cell id from the key of a stream
// record. ok is false for items that are not cells.
func CellKey(keys map[string]events.DynamoDBAttributeValue) (wsID, cid string, ok bool) {
	collection, _, ok := shard.SplitPartitionKey(getStringAttr(keys, "pk"))
	if !ok {
		return "", "", false
	}
	wsID, ok = strings.CutPrefix(collection, workspace.CellsPrefix)
	cid = getStringAttr(keys, "id")
	if !ok || wsID == "" || cid == "" {
		return "", "", false
	}
	return wsID, cid, true
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}
