package graph_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jacentio/cellgraph/cell"
	"github.com/jacentio/cellgraph/docstore"
	"github.com/jacentio/cellgraph/graph"
	"github.com/jacentio/cellgraph/sqlite"
)

var errInjected = errors.New("injected store failure")

var epoch = time.UnixMilli(1_700_000_000_000)

// --- Clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// --- Event recorder ---

type recorder struct {
	mu     sync.Mutex
	events []graph.Event
}

func (r *recorder) HandleEvent(ev graph.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) Types() []graph.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]graph.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) Last() graph.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// --- Failure injection ---

// faultyCollection fails selected operations and can run a hook before Put.
type faultyCollection struct {
	docstore.Collection

	findErr   error
	getErr    error
	putErr    error
	removeErr error
	bulkErr   error

	beforePut func(doc docstore.Document)
}

func (c *faultyCollection) Get(ctx context.Context, id string) (docstore.Document, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.Collection.Get(ctx, id)
}

func (c *faultyCollection) Put(ctx context.Context, doc docstore.Document) (int64, error) {
	if c.beforePut != nil {
		c.beforePut(doc)
	}
	if c.putErr != nil {
		return 0, c.putErr
	}
	return c.Collection.Put(ctx, doc)
}

func (c *faultyCollection) Remove(ctx context.Context, id string) error {
	if c.removeErr != nil {
		return c.removeErr
	}
	return c.Collection.Remove(ctx, id)
}

func (c *faultyCollection) BulkDelete(ctx context.Context, ids []string) error {
	if c.bulkErr != nil {
		return c.bulkErr
	}
	return c.Collection.BulkDelete(ctx, ids)
}

func (c *faultyCollection) Find(ctx context.Context, sel *docstore.Selector, opts docstore.FindOptions) ([]docstore.Document, error) {
	if c.findErr != nil {
		return nil, c.findErr
	}
	return c.Collection.Find(ctx, sel, opts)
}

// --- Fixture ---

type fixture struct {
	t      *testing.T
	ctx    context.Context
	raw    graph.Collections
	engine *graph.Engine
	clock  *fakeClock
	events *recorder
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nil)
}

// newFixtureWith builds an engine on a fresh in-memory database. wrap, if
// set, may replace the collections the engine sees.
func newFixtureWith(t *testing.T, wrap func(graph.Collections) graph.Collections) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	raw := graph.Collections{
		Cells:         db.Collection("cells_test"),
		Relations:     db.Collection("cellRelations_test"),
		UserRelations: db.Collection("cellUserRelations_test"),
	}
	cols := raw
	if wrap != nil {
		cols = wrap(raw)
	}

	f := &fixture{
		t:      t,
		ctx:    ctx,
		raw:    raw,
		clock:  &fakeClock{now: epoch},
		events: &recorder{},
	}
	f.engine = graph.New(cols,
		graph.WithLogger(zaptest.NewLogger(t)),
		graph.WithClock(f.clock.Now),
		graph.WithListener(f.events),
	)
	return f
}

// create stores a cell and advances the clock by one second.
func (f *fixture) create(name string, fields map[string]any) *cell.Cell {
	f.t.Helper()
	payload := map[string]any{"name": name}
	for k, v := range fields {
		payload[k] = v
	}
	c, err := f.engine.CreateCell(f.ctx, payload)
	require.NoError(f.t, err)
	f.clock.Advance(time.Second)
	return c
}

func (f *fixture) connect(source, target *cell.Cell) string {
	f.t.Helper()
	id, err := f.engine.ConnectCells(f.ctx, source.ID, target.ID)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) relate(c *cell.Cell, rt cell.RelationType) string {
	f.t.Helper()
	id, err := f.engine.ConnectCellAndUser(f.ctx, c.ID, rt)
	require.NoError(f.t, err)
	return id
}

// stored reads a cell document directly from the database.
func (f *fixture) stored(id string) docstore.Document {
	f.t.Helper()
	doc, err := f.raw.Cells.Get(f.ctx, id)
	require.NoError(f.t, err)
	return doc
}

// relationsWith returns the ids of relations referencing cid in any field.
func (f *fixture) relationsWith(cid string) []string {
	f.t.Helper()
	var out []string
	for _, sel := range []struct {
		col   docstore.Collection
		field string
	}{
		{f.raw.Relations, cell.FieldSourceID},
		{f.raw.Relations, cell.FieldTargetID},
		{f.raw.UserRelations, cell.FieldCellID},
	} {
		docs, err := sel.col.Find(f.ctx, docstore.Where().Eq(sel.field, cid), docstore.FindOptions{})
		require.NoError(f.t, err)
		for _, d := range docs {
			out = append(out, d.ID())
		}
	}
	return out
}

func (f *fixture) query(q graph.Query) *graph.Page {
	f.t.Helper()
	page, err := f.engine.GetCells(f.ctx, q)
	require.NoError(f.t, err)
	require.NotNil(f.t, page)
	return page
}

func names(cells []*cell.Cell) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.Name)
	}
	return out
}

func intPtr(n int) *int { return &n }
