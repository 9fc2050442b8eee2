package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/cellgraph/cell"
	"github.com/jacentio/cellgraph/docstore"
)

// GetCells runs q and returns one page of enriched cells. Data is empty,
// not nil, when nothing matches.
func (e *Engine) GetCells(ctx context.Context, q Query) (*Page, error) {
	cols, err := e.Collections()
	if err != nil {
		return nil, err
	}

	page, err := e.getCells(ctx, cols, q)
	if err != nil {
		e.logger.Error("get cells failed", zap.Error(err))
		return nil, err
	}
	return page, nil
}

func (e *Engine) getCells(ctx context.Context, cols Collections, q Query) (*Page, error) {
	p, err := e.buildPlan(ctx, cols, q)
	if err != nil {
		return nil, err
	}
	if p.empty {
		return emptyPage(), nil
	}

	docs, err := cols.Cells.Find(ctx, p.selector, p.opts)
	if err != nil {
		return nil, fmt.Errorf("find cells: %w", err)
	}
	if len(docs) == 0 {
		return emptyPage(), nil
	}
	sortDocuments(docs, p.orders)

	cells := make([]*cell.Cell, len(docs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		cells[i] = cell.Decode(d)
		ids[i] = cells[i].ID
	}

	if err := e.enrich(ctx, cols, cells, ids, q, p.orders); err != nil {
		return nil, err
	}
	return &Page{Data: cells, Total: len(cells)}, nil
}

// neighbors are the cells on one side of a page's structural edges.
type neighbors struct {
	edges []cell.StructuralRelation
	docs  []docstore.Document
}

// enrich annotates cells with user relation flags and, if requested, their
// parent and child cells. The lookups run concurrently.
func (e *Engine) enrich(ctx context.Context, cols Collections, cells []*cell.Cell, ids []string, q Query, orders []Order) error {
	var (
		userRels          []cell.UserRelation
		parents, children neighbors
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := cols.UserRelations.Find(gctx,
			docstore.Where().InStrings(cell.FieldCellID, ids),
			docstore.FindOptions{Limit: e.scanLimit})
		if err != nil {
			return fmt.Errorf("user relations of page: %w", err)
		}
		for _, d := range docs {
			userRels = append(userRels, cell.DecodeUserRelation(d))
		}
		return nil
	})
	if q.ShowCorrelationParents {
		g.Go(func() error {
			n, err := e.loadNeighbors(gctx, cols, cell.FieldTargetID, ids, orders)
			if err != nil {
				return fmt.Errorf("parent cells: %w", err)
			}
			parents = n
			return nil
		})
	}
	if q.ShowCorrelationChildren {
		g.Go(func() error {
			n, err := e.loadNeighbors(gctx, cols, cell.FieldSourceID, ids, orders)
			if err != nil {
				return fmt.Errorf("child cells: %w", err)
			}
			children = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	flags := make(map[string]map[cell.RelationType]bool, len(ids))
	for _, r := range userRels {
		if flags[r.CellID] == nil {
			flags[r.CellID] = map[cell.RelationType]bool{}
		}
		flags[r.CellID][r.Type] = true
	}

	for _, c := range cells {
		c.IsStar = flags[c.ID][cell.RelationStar]
		c.IsLike = flags[c.ID][cell.RelationLike]
		if q.ShowCorrelationParents {
			c.CorrelationParents = attached(parents, func(r cell.StructuralRelation, n string) bool {
				return r.SourceID == n && r.TargetID == c.ID
			})
		}
		if q.ShowCorrelationChildren {
			c.CorrelationChildren = attached(children, func(r cell.StructuralRelation, n string) bool {
				return r.SourceID == c.ID && r.TargetID == n
			})
		}
	}
	return nil
}

// loadNeighbors fetches the edges whose pageSide field is one of ids, then
// the cells at the other end of those edges, sorted by orders.
func (e *Engine) loadNeighbors(ctx context.Context, cols Collections, pageSide string, ids []string, orders []Order) (neighbors, error) {
	edgeDocs, err := cols.Relations.Find(ctx,
		docstore.Where().InStrings(pageSide, ids),
		docstore.FindOptions{Limit: e.scanLimit})
	if err != nil {
		return neighbors{}, err
	}
	if len(edgeDocs) == 0 {
		return neighbors{}, nil
	}

	var n neighbors
	otherIDs := make([]string, 0, len(edgeDocs))
	for _, d := range edgeDocs {
		r := cell.DecodeStructuralRelation(d)
		n.edges = append(n.edges, r)
		if pageSide == cell.FieldTargetID {
			otherIDs = append(otherIDs, r.SourceID)
		} else {
			otherIDs = append(otherIDs, r.TargetID)
		}
	}

	n.docs, err = cols.Cells.Find(ctx,
		docstore.Where().InStrings(cell.FieldID, newCandidateSet(otherIDs).ids),
		docstore.FindOptions{Fields: withOrderColumns(cell.TagFields, orders), Limit: e.scanLimit})
	if err != nil {
		return neighbors{}, err
	}
	sortDocuments(n.docs, orders)
	for i, d := range n.docs {
		n.docs[i] = d.Project(cell.TagFields)
	}
	return n, nil
}

// attached returns the neighbor cells joined to one page cell by at least
// one edge, in neighbor order.
func attached(n neighbors, joins func(r cell.StructuralRelation, neighborID string) bool) []*cell.Cell {
	out := []*cell.Cell{}
	for _, d := range n.docs {
		id := d.ID()
		for _, r := range n.edges {
			if joins(r, id) {
				out = append(out, cell.Decode(d))
				break
			}
		}
	}
	return out
}
