package graph

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/jacentio/cellgraph/cell"
	"github.com/jacentio/cellgraph/docstore"
)

// UpdateInput is a partial update of one cell.
type UpdateInput struct {
	ID string `json:"cid"`

	// Fields holds top-level values. Only cell.Mutable fields with valid
	// values are applied; everything else is ignored.
	Fields map[string]any `json:"fields"`

	// DeepUpdate merges DeepData into the stored cell key by key before
	// Fields are applied. DeepData must be plain JSON.
	DeepUpdate bool           `json:"deepUpdate"`
	DeepData   map[string]any `json:"deepData"`
}

// fetch loads a cell document, mapping a missing document to ErrCellNotFound.
func fetch(ctx context.Context, cols Collections, id string) (docstore.Document, error) {
	doc, err := cols.Cells.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrCellNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cell %s: %w", id, err)
	}
	return doc, nil
}

// statisticsOf returns doc's statistics object, creating it if absent.
func statisticsOf(doc docstore.Document) map[string]any {
	stats, ok := doc[cell.FieldStatistics].(map[string]any)
	if !ok {
		stats = map[string]any{}
		doc[cell.FieldStatistics] = stats
	}
	return stats
}

// GetCell returns one cell and records the view in statistics.lastViewTime.
// A failed view stamp is logged and the cell is returned as read.
func (e *Engine) GetCell(ctx context.Context, id string) (*cell.Cell, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing cell id", ErrInvalidInput)
	}
	cols, err := e.Collections()
	if err != nil {
		return nil, err
	}

	doc, err := fetch(ctx, cols, id)
	if err != nil {
		e.logFailure("get cell", err, zap.String("cid", id))
		return nil, err
	}

	stamped := doc.Clone()
	statisticsOf(stamped)["lastViewTime"] = e.nowMillis()
	rev, err := cols.Cells.Put(ctx, stamped)
	if err != nil {
		e.logger.Warn("failed to stamp view time",
			zap.String("cid", id),
			zap.Error(err),
		)
		return cell.Decode(doc), nil
	}
	stamped[docstore.RevField] = rev
	return cell.Decode(stamped), nil
}

// CreateCell normalizes payload into a new cell with a fresh id and stores it.
func (e *Engine) CreateCell(ctx context.Context, payload map[string]any) (*cell.Cell, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: cell payload must be an object", ErrInvalidInput)
	}
	cols, err := e.Collections()
	if err != nil {
		return nil, err
	}

	now := e.now()
	c := cell.Normalize(payload, now)
	c.ID = e.newID()
	c.CreateTime = now.UnixMilli()
	c.UpdateTime = c.CreateTime

	e.emit(Event{Type: EventBeforeCreate, Cell: c, CellID: c.ID})

	rev, err := cols.Cells.Put(ctx, c.Document())
	if err != nil {
		err = fmt.Errorf("put cell: %w", err)
		e.logger.Error("create cell failed", zap.Error(err))
		return nil, err
	}
	c.Rev = rev

	e.logger.Debug("cell created", zap.String("cid", c.ID))
	e.emit(Event{Type: EventCreated, Cell: c, CellID: c.ID})
	return c, nil
}

// UpdateCell applies in to a stored cell and returns the stored result.
//
// publishTime is stamped when status is set to PublishedStatus or above, no
// publishTime is given, and the cell has never been published. updateTime
// is always stamped. A concurrent write to the same cell fails the update
// with docstore.ErrConflict.
func (e *Engine) UpdateCell(ctx context.Context, in UpdateInput) (*cell.Cell, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("%w: missing cell id", ErrInvalidInput)
	}
	if in.DeepUpdate && (in.DeepData == nil || !cell.IsPlainJSON(in.DeepData)) {
		return nil, fmt.Errorf("%w: deep data must be plain JSON", ErrInvalidInput)
	}
	cols, err := e.Collections()
	if err != nil {
		return nil, err
	}

	stored, err := fetch(ctx, cols, in.ID)
	if err != nil {
		e.logFailure("update cell", err, zap.String("cid", in.ID))
		return nil, err
	}

	c := cell.Decode(stored)
	applied := cell.ApplyPatch(c, patchFor(stored, in))

	now := e.nowMillis()
	if cell.Applied(applied, cell.FieldStatus) &&
		c.Status >= cell.PublishedStatus &&
		!cell.Applied(applied, cell.FieldPublishTime) &&
		c.PublishTime == 0 {
		c.PublishTime = now
	}
	c.UpdateTime = now

	if _, err := cols.Cells.Put(ctx, c.Document()); err != nil {
		err = fmt.Errorf("put cell %s: %w", in.ID, err)
		e.logger.Error("update cell failed", zap.Error(err))
		return nil, err
	}

	doc, err := cols.Cells.Get(ctx, in.ID)
	if err != nil {
		err = fmt.Errorf("reread cell %s: %w", in.ID, err)
		e.logger.Error("update cell failed", zap.Error(err))
		return nil, err
	}
	updated := cell.Decode(doc)

	e.logger.Debug("cell updated", zap.String("cid", in.ID), zap.Strings("fields", applied))
	e.emit(Event{Type: EventUpdated, Cell: updated, CellID: updated.ID})
	return updated, nil
}

// patchFor builds the whitelist patch of an update. Deep data is merged into
// a copy of the stored document first, and each top-level key it touches
// contributes its merged value. Fields take precedence.
func patchFor(stored docstore.Document, in UpdateInput) map[string]any {
	patch := make(map[string]any, len(in.Fields)+len(in.DeepData))
	if in.DeepUpdate {
		merged := stored.Clone()
		cell.DeepMerge(merged, in.DeepData)
		for k := range in.DeepData {
			patch[k] = merged[k]
		}
	}
	for k, v := range in.Fields {
		patch[k] = v
	}
	return patch
}

// DeleteCell removes a cell and every relation that references it. Relation
// cleanup failures are logged and do not fail the delete; PurgeRelations
// can be re-run for the same id.
func (e *Engine) DeleteCell(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing cell id", ErrInvalidInput)
	}
	cols, err := e.Collections()
	if err != nil {
		return err
	}

	if _, err := fetch(ctx, cols, id); err != nil {
		e.logFailure("delete cell", err, zap.String("cid", id))
		return err
	}
	if err := cols.Cells.Remove(ctx, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrCellNotFound
		}
		err = fmt.Errorf("remove cell %s: %w", id, err)
		e.logger.Error("delete cell failed", zap.Error(err))
		return err
	}

	if n, err := e.purge(ctx, cols, id); err != nil {
		e.logger.Warn("relation cleanup incomplete",
			zap.String("cid", id),
			zap.Error(err),
		)
	} else {
		e.logger.Debug("cell deleted", zap.String("cid", id), zap.Int("relations", n))
	}

	e.emit(Event{Type: EventDeleted, CellID: id})
	return nil
}

// logFailure logs expected rejections at debug and store failures at error.
func (e *Engine) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, ErrCellNotFound),
		errors.Is(err, ErrRelationNotFound),
		errors.Is(err, ErrDuplicateRelation),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrSelfLoop):
		e.logger.Debug(op+" rejected", fields...)
	default:
		e.logger.Error(op+" failed", fields...)
	}
}

// floorInt64 reads a numeric statistic, dropping any fraction.
func floorInt64(v any) int64 {
	f, ok := docstore.AsFloat64(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(math.Floor(f))
}
