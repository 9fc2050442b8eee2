package graph

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jacentio/cellgraph/cell"
	"github.com/jacentio/cellgraph/docstore"
)

// plan is a resolved query: the selector to run against the cell
// collection, or empty when a requested relation filter matched nothing.
type plan struct {
	selector *docstore.Selector
	empty    bool
	opts     docstore.FindOptions
	orders   []Order
}

// baseSelector builds the status, time and category clauses of q.
func baseSelector(q Query) *docstore.Selector {
	lo, hi := q.statusRange()
	sel := docstore.Where().
		Gte(cell.FieldStatus, lo).
		Lte(cell.FieldStatus, hi).
		Gte(cell.FieldCreateTime, 0)

	field := q.timeField()
	if start, ok := q.StartTime.Millis(); ok {
		sel.Gte(field, start)
	}
	if end, ok := q.EndTime.Millis(); ok {
		sel.Lte(field, end)
	}

	if q.CellID != "" {
		return sel.Eq(cell.FieldID, q.CellID)
	}
	if q.Partition != "" {
		sel.Eq(cell.FieldPartition, q.Partition)
	}
	if q.TypeGroup != "" {
		sel.Eq(cell.FieldTypeGroup, q.TypeGroup)
	}
	if q.Type != "" {
		sel.Eq(cell.FieldType, q.Type)
	}
	if q.IsRoot != nil && (*q.IsRoot == 0 || *q.IsRoot == 1) {
		sel.Eq(cell.FieldIsRoot, *q.IsRoot)
	}
	return sel
}

// candidateSet is a set of cell ids in first-seen order.
type candidateSet struct {
	active bool
	ids    []string
}

func newCandidateSet(ids []string) candidateSet {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return candidateSet{active: true, ids: out}
}

// intersect keeps the ids of s that are also in other.
func (s candidateSet) intersect(other candidateSet) candidateSet {
	in := make(map[string]bool, len(other.ids))
	for _, id := range other.ids {
		in[id] = true
	}
	out := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		if in[id] {
			out = append(out, id)
		}
	}
	return candidateSet{active: true, ids: out}
}

// combine applies the candidate rule: either active set alone restricts the
// query, both restrict it to their intersection, neither leaves it open.
func combine(user, structural candidateSet) candidateSet {
	switch {
	case user.active && structural.active:
		return structural.intersect(user)
	case user.active:
		return user
	case structural.active:
		return structural
	}
	return candidateSet{}
}

// buildPlan resolves the relation filters of q and returns the final plan.
func (e *Engine) buildPlan(ctx context.Context, cols Collections, q Query) (plan, error) {
	skip, limit := q.window()
	p := plan{
		selector: baseSelector(q),
		opts:     docstore.FindOptions{Fields: q.fields(), Skip: skip, Limit: limit},
		orders:   q.orders(),
	}
	if q.CellID != "" {
		return p, nil
	}

	var user, byParents, byChildren candidateSet
	g, gctx := errgroup.WithContext(ctx)

	if q.RelationshipType != "" {
		rt := cell.RelationType(q.RelationshipType)
		if !rt.Valid() {
			user = candidateSet{active: true}
		} else {
			g.Go(func() error {
				ids, err := e.scanField(gctx, cols.UserRelations,
					docstore.Where().Eq(cell.FieldRelType, string(rt)), cell.FieldCellID)
				if err != nil {
					return fmt.Errorf("user relation candidates: %w", err)
				}
				user = newCandidateSet(ids)
				return nil
			})
		}
	}
	if len(q.ParentIDs) > 0 {
		g.Go(func() error {
			ids, err := e.scanField(gctx, cols.Relations,
				docstore.Where().InStrings(cell.FieldSourceID, q.ParentIDs), cell.FieldTargetID)
			if err != nil {
				return fmt.Errorf("children of parents: %w", err)
			}
			byParents = newCandidateSet(ids)
			return nil
		})
	}
	if len(q.ChildIDs) > 0 {
		g.Go(func() error {
			ids, err := e.scanField(gctx, cols.Relations,
				docstore.Where().InStrings(cell.FieldTargetID, q.ChildIDs), cell.FieldSourceID)
			if err != nil {
				return fmt.Errorf("parents of children: %w", err)
			}
			byChildren = newCandidateSet(ids)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return plan{}, err
	}

	structural := byParents
	switch {
	case byParents.active && byChildren.active:
		structural = byParents.intersect(byChildren)
	case byChildren.active:
		structural = byChildren
	}

	c := combine(user, structural)
	switch {
	case !c.active:
	case len(c.ids) == 0:
		p.empty = true
	default:
		p.selector.InStrings(cell.FieldID, c.ids)
	}
	return p, nil
}

// scanField returns field of every document matching sel, up to the scan limit.
func (e *Engine) scanField(ctx context.Context, col docstore.Collection, sel *docstore.Selector, field string) ([]string, error) {
	docs, err := col.Find(ctx, sel, docstore.FindOptions{
		Fields: []string{field},
		Limit:  e.scanLimit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		if s, ok := d[field].(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
