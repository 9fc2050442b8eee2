package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/cellgraph/docstore"
	"github.com/jacentio/cellgraph/sqlite"
)

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func ids(docs []docstore.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID())
	}
	return out
}

// --- Put / Get Tests ---

func TestPut_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	col := openDB(t).Collection("cells_w1")

	rev, err := col.Put(ctx, docstore.Document{"id": "c1", "name": "first", "status": 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	doc, err := col.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "first", doc["name"])
	assert.Equal(t, float64(2), doc["status"])
	assert.Equal(t, int64(1), doc.Rev())
}

func TestPut_CreateExistingConflicts(t *testing.T) {
	ctx := context.Background()
	col := openDB(t).Collection("cells_w1")

	_, err := col.Put(ctx, docstore.Document{"id": "c1"})
	require.NoError(t, err)

	_, err = col.Put(ctx, docstore.Document{"id": "c1"})
	assert.ErrorIs(t, err, docstore.ErrConflict)
}

func TestPut_UpdateWithRevision(t *testing.T) {
	ctx := context.Background()
	col := openDB(t).Collection("cells_w1")

	_, err := col.Put(ctx, docstore.Document{"id": "c1", "name": "v1"})
	require.NoError(t, err)

	doc, err := col.Get(ctx, "c1")
	require.NoError(t, err)
	doc["name"] = "v2"

	rev, err := col.Put(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	// The copy still carries revision 1.
	doc["name"] = "stale"
	_, err = col.Put(ctx, doc)
	assert.ErrorIs(t, err, docstore.ErrConflict)

	got, err := col.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got["name"])
	assert.Equal(t, int64(2), got.Rev())
}

func TestPut_MissingID(t *testing.T) {
	_, err := openDB(t).Collection("c").Put(context.Background(), docstore.Document{"name": "x"})
	assert.ErrorIs(t, err, docstore.ErrMissingID)
}

func TestGet_NotFound(t *testing.T) {
	_, err := openDB(t).Collection("c").Get(context.Background(), "nope")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestCollections_AreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	_, err := db.Collection("cells_w1").Put(ctx, docstore.Document{"id": "c1"})
	require.NoError(t, err)

	_, err = db.Collection("cells_w2").Get(ctx, "c1")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	_, err = db.Collection("cells_w2").Put(ctx, docstore.Document{"id": "c1"})
	assert.NoError(t, err)
}

// --- Remove / BulkDelete Tests ---

func TestRemove(t *testing.T) {
	ctx := context.Background()
	col := openDB(t).Collection("c")

	_, err := col.Put(ctx, docstore.Document{"id": "c1"})
	require.NoError(t, err)

	require.NoError(t, col.Remove(ctx, "c1"))
	assert.ErrorIs(t, col.Remove(ctx, "c1"), docstore.ErrNotFound)
}

func TestBulkDelete(t *testing.T) {
	ctx := context.Background()
	col := openDB(t).Collection("c")

	for i := 0; i < 5; i++ {
		_, err := col.Put(ctx, docstore.Document{"id": fmt.Sprintf("d%d", i)})
		require.NoError(t, err)
	}

	require.NoError(t, col.BulkDelete(ctx, []string{"d1", "d3", "missing"}))
	require.NoError(t, col.BulkDelete(ctx, nil))

	docs, err := col.Find(ctx, nil, docstore.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"d0", "d2", "d4"}, ids(docs))
}

// --- Find Tests ---

func seed(t *testing.T, col docstore.Collection) {
	t.Helper()
	docs := []docstore.Document{
		{"id": "a", "typeGroup": "CONTENT", "status": 1, "createTime": int64(100), "name": "alpha"},
		{"id": "b", "typeGroup": "CONTENT", "status": 3, "createTime": int64(200), "name": "beta"},
		{"id": "c", "typeGroup": "TAG", "status": 2, "createTime": int64(300), "name": "gamma"},
		{"id": "d", "typeGroup": "CONTENT", "status": 4, "createTime": int64(400), "name": "delta", "partition": "p1"},
	}
	for _, d := range docs {
		_, err := col.Put(context.Background(), d)
		require.NoError(t, err)
	}
}

func TestFind_Selectors(t *testing.T) {
	ctx := context.Background()
	col := openDB(t).Collection("cells_w1")
	seed(t, col)

	tests := []struct {
		name string
		sel  *docstore.Selector
		want []string
	}{
		{"all", nil, []string{"a", "b", "c", "d"}},
		{"eq", docstore.Where().Eq("typeGroup", "CONTENT"), []string{"a", "b", "d"}},
		{"range", docstore.Where().Gte("status", 2).Lte("status", 3), []string{"b", "c"}},
		{"time window", docstore.Where().Gte("createTime", int64(150)).Lte("createTime", 350), []string{"b", "c"}},
		{"in", docstore.Where().InStrings("id", []string{"d", "a", "zz"}), []string{"a", "d"}},
		{"in empty", docstore.Where().In("id"), []string{}},
		{"eq nil", docstore.Where().Eq("partition", nil), []string{"a", "b", "c"}},
		{"combined", docstore.Where().Eq("typeGroup", "CONTENT").Gte("status", 3).In("id", "a", "b", "d"), []string{"b", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := col.Find(ctx, tt.sel, docstore.FindOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(docs))
		})
	}
}

func TestFind_SkipLimit(t *testing.T) {
	ctx := context.Background()
	col := openDB(t).Collection("cells_w1")
	seed(t, col)

	page1, err := col.Find(ctx, nil, docstore.FindOptions{Skip: 0, Limit: 2})
	require.NoError(t, err)
	page2, err := col.Find(ctx, nil, docstore.FindOptions{Skip: 2, Limit: 2})
	require.NoError(t, err)
	tail, err := col.Find(ctx, nil, docstore.FindOptions{Skip: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, ids(page1))
	assert.Equal(t, []string{"c", "d"}, ids(page2))
	assert.Equal(t, []string{"d"}, ids(tail))
}

func TestFind_Projection(t *testing.T) {
	ctx := context.Background()
	col := openDB(t).Collection("cells_w1")
	seed(t, col)

	docs, err := col.Find(ctx, docstore.Where().Eq("id", "a"), docstore.FindOptions{Fields: []string{"name"}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, docstore.Document{"id": "a", "_rev": int64(1), "name": "alpha"}, docs[0])
}

func TestFind_UpdatedDocumentKeepsPosition(t *testing.T) {
	ctx := context.Background()
	col := openDB(t).Collection("cells_w1")
	seed(t, col)

	doc, err := col.Get(ctx, "a")
	require.NoError(t, err)
	doc["name"] = "alpha2"
	_, err = col.Put(ctx, doc)
	require.NoError(t, err)

	docs, err := col.Find(ctx, nil, docstore.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(docs))
}

func TestFind_InvalidField(t *testing.T) {
	col := openDB(t).Collection("cells_w1")
	_, err := col.Find(context.Background(), docstore.Where().Eq("a') OR 1=1 --", 1), docstore.FindOptions{})
	assert.ErrorIs(t, err, docstore.ErrInvalidField)
}
