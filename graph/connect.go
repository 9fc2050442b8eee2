package graph

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jacentio/cellgraph/cell"
	"github.com/jacentio/cellgraph/docstore"
)

func validateEdge(sourceID, targetID string) error {
	if sourceID == "" || targetID == "" {
		return fmt.Errorf("%w: missing sourceId or targetId", ErrInvalidInput)
	}
	if sourceID == targetID {
		return ErrSelfLoop
	}
	return nil
}

// ConnectCells adds a structural relation sourceID -> targetID and returns
// its id. Repeated connects create separate relations. A root target loses
// its root flag.
func (e *Engine) ConnectCells(ctx context.Context, sourceID, targetID string) (string, error) {
	if err := validateEdge(sourceID, targetID); err != nil {
		e.logFailure("connect cells", err)
		return "", err
	}
	cols, err := e.Collections()
	if err != nil {
		return "", err
	}

	if _, err := fetch(ctx, cols, sourceID); err != nil {
		e.logFailure("connect cells", err, zap.String("sourceId", sourceID))
		return "", err
	}
	target, err := fetch(ctx, cols, targetID)
	if err != nil {
		e.logFailure("connect cells", err, zap.String("targetId", targetID))
		return "", err
	}

	rel := cell.StructuralRelation{ID: e.newID(), SourceID: sourceID, TargetID: targetID}
	if _, err := cols.Relations.Put(ctx, rel.Document()); err != nil {
		err = fmt.Errorf("put relation: %w", err)
		e.logger.Error("connect cells failed", zap.Error(err))
		return "", err
	}

	if isRoot, _ := docstore.AsInt64(target[cell.FieldIsRoot]); isRoot != 0 {
		target[cell.FieldIsRoot] = 0
		if _, err := cols.Cells.Put(ctx, target); err != nil {
			e.logger.Warn("failed to clear root flag",
				zap.String("cid", targetID),
				zap.Error(err),
			)
		}
	}

	e.emit(Event{Type: EventConnected, SourceID: sourceID, TargetID: targetID, RelationID: rel.ID})
	return rel.ID, nil
}

// DisconnectCells removes the first structural relation sourceID -> targetID.
// The target's root flag is left as is.
func (e *Engine) DisconnectCells(ctx context.Context, sourceID, targetID string) error {
	if err := validateEdge(sourceID, targetID); err != nil {
		e.logFailure("disconnect cells", err)
		return err
	}
	cols, err := e.Collections()
	if err != nil {
		return err
	}

	sel := docstore.Where().
		Eq(cell.FieldSourceID, sourceID).
		Eq(cell.FieldTargetID, targetID)
	if err := e.removeFirst(ctx, cols.Relations, sel); err != nil {
		e.logFailure("disconnect cells", err,
			zap.String("sourceId", sourceID),
			zap.String("targetId", targetID),
		)
		return err
	}

	e.emit(Event{Type: EventDisconnected, SourceID: sourceID, TargetID: targetID})
	return nil
}

func validateUserRelation(cid string, relType cell.RelationType) error {
	if cid == "" {
		return fmt.Errorf("%w: missing cell id", ErrInvalidInput)
	}
	if !relType.Valid() {
		return fmt.Errorf("%w: unknown relation type %q", ErrInvalidInput, relType)
	}
	return nil
}

// ConnectCellAndUser records a user relation of relType on cid and returns
// its id. A cell holds at most one relation per type.
func (e *Engine) ConnectCellAndUser(ctx context.Context, cid string, relType cell.RelationType) (string, error) {
	if err := validateUserRelation(cid, relType); err != nil {
		e.logFailure("connect cell and user", err)
		return "", err
	}
	cols, err := e.Collections()
	if err != nil {
		return "", err
	}

	if _, err := fetch(ctx, cols, cid); err != nil {
		e.logFailure("connect cell and user", err, zap.String("cid", cid))
		return "", err
	}

	// The existence check and insert must not interleave with another connect.
	e.userRelMu.Lock()
	defer e.userRelMu.Unlock()

	existing, err := cols.UserRelations.Find(ctx,
		docstore.Where().Eq(cell.FieldCellID, cid).Eq(cell.FieldRelType, string(relType)),
		docstore.FindOptions{Fields: []string{cell.FieldID}, Limit: 1})
	if err != nil {
		err = fmt.Errorf("find user relation: %w", err)
		e.logger.Error("connect cell and user failed", zap.Error(err))
		return "", err
	}
	if len(existing) > 0 {
		e.logFailure("connect cell and user", ErrDuplicateRelation,
			zap.String("cid", cid),
			zap.String("type", string(relType)),
		)
		return "", ErrDuplicateRelation
	}

	rel := cell.UserRelation{ID: e.newID(), CellID: cid, Type: relType}
	if _, err := cols.UserRelations.Put(ctx, rel.Document()); err != nil {
		err = fmt.Errorf("put user relation: %w", err)
		e.logger.Error("connect cell and user failed", zap.Error(err))
		return "", err
	}

	e.emit(Event{Type: EventConnectedUser, CellID: cid, RelationType: relType, RelationID: rel.ID})
	return rel.ID, nil
}

// DisconnectCellAndUser removes the user relation of relType on cid.
func (e *Engine) DisconnectCellAndUser(ctx context.Context, cid string, relType cell.RelationType) error {
	if err := validateUserRelation(cid, relType); err != nil {
		e.logFailure("disconnect cell and user", err)
		return err
	}
	cols, err := e.Collections()
	if err != nil {
		return err
	}

	e.userRelMu.Lock()
	defer e.userRelMu.Unlock()

	sel := docstore.Where().
		Eq(cell.FieldCellID, cid).
		Eq(cell.FieldRelType, string(relType))
	if err := e.removeFirst(ctx, cols.UserRelations, sel); err != nil {
		e.logFailure("disconnect cell and user", err,
			zap.String("cid", cid),
			zap.String("type", string(relType)),
		)
		return err
	}

	e.emit(Event{Type: EventDisconnectedUser, CellID: cid, RelationType: relType})
	return nil
}

// removeFirst removes the first relation matching sel.
func (e *Engine) removeFirst(ctx context.Context, col docstore.Collection, sel *docstore.Selector) error {
	docs, err := col.Find(ctx, sel, docstore.FindOptions{Fields: []string{cell.FieldID}, Limit: 1})
	if err != nil {
		return fmt.Errorf("find relation: %w", err)
	}
	if len(docs) == 0 {
		return ErrRelationNotFound
	}
	if err := col.Remove(ctx, docs[0].ID()); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrRelationNotFound
		}
		return fmt.Errorf("remove relation: %w", err)
	}
	return nil
}
