package graph

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/cellgraph/cell"
	"github.com/jacentio/cellgraph/docstore"
)

// cellRef names a relation field that holds a cell id.
type cellRef struct {
	// Name labels the reference in logs and errors.
	Name string

	// Kind selects the relation collection.
	Kind relationKind

	// Field is the document field holding the cell id.
	Field string
}

// cellRefs lists every place a cell id is referenced. Deleting a cell
// removes each relation matching any entry.
var cellRefs = []cellRef{
	{Name: "outgoing", Kind: structuralRelations, Field: cell.FieldSourceID},
	{Name: "incoming", Kind: structuralRelations, Field: cell.FieldTargetID},
	{Name: "user", Kind: userRelations, Field: cell.FieldCellID},
}

type relationKind int

const (
	structuralRelations relationKind = iota
	userRelations
)

func (k relationKind) collection(c Collections) docstore.Collection {
	if k == userRelations {
		return c.UserRelations
	}
	return c.Relations
}

// PurgeRelations removes every structural relation with cid at either end
// and every user relation of cid, returning how many were removed. It is
// idempotent and safe to run for a cell that no longer exists.
func (e *Engine) PurgeRelations(ctx context.Context, cid string) (int, error) {
	if cid == "" {
		return 0, fmt.Errorf("%w: missing cell id", ErrInvalidInput)
	}
	cols, err := e.Collections()
	if err != nil {
		return 0, err
	}

	n, err := e.purge(ctx, cols, cid)
	if err != nil {
		e.logger.Error("purge relations failed", zap.String("cid", cid), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// purge finds all references concurrently, then bulk-deletes once per
// relation collection.
func (e *Engine) purge(ctx context.Context, cols Collections, cid string) (int, error) {
	var (
		mu  sync.Mutex
		ids = map[relationKind][]string{}
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, ref := range cellRefs {
		col := ref.Kind.collection(cols)
		g.Go(func() error {
			docs, err := col.Find(gctx, docstore.Where().Eq(ref.Field, cid),
				docstore.FindOptions{Fields: []string{cell.FieldID}})
			if err != nil {
				return fmt.Errorf("find %s relations: %w", ref.Name, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, d := range docs {
				ids[ref.Kind] = append(ids[ref.Kind], d.ID())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, kind := range []relationKind{structuralRelations, userRelations} {
		unique := newCandidateSet(ids[kind]).ids
		if len(unique) == 0 {
			continue
		}
		if err := kind.collection(cols).BulkDelete(ctx, unique); err != nil {
			return total, fmt.Errorf("bulk delete relations: %w", err)
		}
		total += len(unique)
	}
	return total, nil
}
