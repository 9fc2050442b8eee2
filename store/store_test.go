package store_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/cellgraph/docstore"
	"github.com/jacentio/cellgraph/store"
)

// --- Fake DynamoDB ---

// fakeDynamo keeps items in memory. Query ignores FilterExpression so tests
// can observe what the store evaluates on its own.
type fakeDynamo struct {
	mu          sync.Mutex
	items       map[string]map[string]types.AttributeValue
	queries     []*dynamodb.QueryInput
	batchCalls  int
	unprocessed int // batch calls that process nothing
	queryErr    error
}

func newFake() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(key map[string]types.AttributeValue) string {
	pk := key["pk"].(*types.AttributeValueMemberS).Value
	id := key["id"].(*types.AttributeValueMemberS).Value
	return pk + "|" + id
}

func condFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyOf(in.Item)
	existing, exists := f.items[k]

	switch aws.ToString(in.ConditionExpression) {
	case "attribute_not_exists(id)":
		if exists {
			return nil, condFailed()
		}
	case "#rev = :expected_rev":
		want := in.ExpressionAttributeValues[":expected_rev"].(*types.AttributeValueMemberN).Value
		if !exists || existing["_rev"].(*types.AttributeValueMemberN).Value != want {
			return nil, condFailed()
		}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyOf(in.Key)
	if _, ok := f.items[k]; !ok {
		return nil, condFailed()
	}
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.unprocessed > 0 {
		f.unprocessed--
		return &dynamodb.BatchWriteItemOutput{UnprocessedItems: in.RequestItems}, nil
	}
	for _, reqs := range in.RequestItems {
		for _, r := range reqs {
			delete(f.items, keyOf(r.DeleteRequest.Key))
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, in)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	pk := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value
	var out []map[string]types.AttributeValue
	for _, item := range f.items {
		if item["pk"].(*types.AttributeValueMemberS).Value == pk {
			out = append(out, item)
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

var _ store.API = (*fakeDynamo)(nil)
var _ store.API = (*dynamodb.Client)(nil)

func docIDs(docs []docstore.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID())
	}
	return out
}

// --- Config Tests ---

func TestDefaultConfig(t *testing.T) {
	cfg := store.DefaultConfig()

	if cfg.Table != "cellgraph_documents" {
		t.Errorf("expected Table 'cellgraph_documents', got %q", cfg.Table)
	}
	if cfg.NumShards != 1 {
		t.Errorf("expected NumShards 1, got %d", cfg.NumShards)
	}
	if cfg.BatchSize != 25 {
		t.Errorf("expected BatchSize 25, got %d", cfg.BatchSize)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		cfg       store.Config
		table     string
		numShards int
		batchSize int
	}{
		{"zero NumShards gets set to 1", store.Config{NumShards: 0}, "cellgraph_documents", 1, 25},
		{"negative NumShards gets set to 1", store.Config{NumShards: -5}, "cellgraph_documents", 1, 25},
		{"NumShards over 256 gets capped", store.Config{NumShards: 500}, "cellgraph_documents", 256, 25},
		{"BatchSize over 25 gets capped", store.Config{BatchSize: 100}, "cellgraph_documents", 1, 25},
		{"explicit values kept", store.Config{Table: "t", NumShards: 8, BatchSize: 10}, "t", 8, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := store.New(nil, tt.cfg).Config()
			if cfg.Table != tt.table {
				t.Errorf("expected Table %q, got %q", tt.table, cfg.Table)
			}
			if cfg.NumShards != tt.numShards {
				t.Errorf("expected NumShards %d, got %d", tt.numShards, cfg.NumShards)
			}
			if cfg.BatchSize != tt.batchSize {
				t.Errorf("expected BatchSize %d, got %d", tt.batchSize, cfg.BatchSize)
			}
		})
	}
}

// --- Put / Get / Remove Tests ---

func TestCollection_PutGet(t *testing.T) {
	ctx := context.Background()
	col := store.New(newFake(), store.DefaultConfig()).Collection("cells_w1")

	rev, err := col.Put(ctx, docstore.Document{"id": "c1", "name": "first", "status": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rev != 1 {
		t.Errorf("expected rev 1, got %d", rev)
	}

	doc, err := col.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc["name"] != "first" {
		t.Errorf("expected name 'first', got %v", doc["name"])
	}
	if doc["status"] != float64(2) {
		t.Errorf("expected status 2, got %v", doc["status"])
	}
	if doc.Rev() != 1 {
		t.Errorf("expected rev 1, got %d", doc.Rev())
	}
}

func TestCollection_GetNotFound(t *testing.T) {
	col := store.New(newFake(), store.DefaultConfig()).Collection("cells_w1")

	_, err := col.Get(context.Background(), "missing")
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCollection_PutConflicts(t *testing.T) {
	ctx := context.Background()
	col := store.New(newFake(), store.DefaultConfig()).Collection("cells_w1")

	if _, err := col.Put(ctx, docstore.Document{"id": "c1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Create over an existing id
	if _, err := col.Put(ctx, docstore.Document{"id": "c1"}); !errors.Is(err, docstore.ErrConflict) {
		t.Errorf("expected ErrConflict on duplicate create, got %v", err)
	}

	// Update with the current revision
	rev, err := col.Put(ctx, docstore.Document{"id": "c1", "_rev": int64(1), "name": "v2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rev != 2 {
		t.Errorf("expected rev 2, got %d", rev)
	}

	// Update with a stale revision
	if _, err := col.Put(ctx, docstore.Document{"id": "c1", "_rev": int64(1)}); !errors.Is(err, docstore.ErrConflict) {
		t.Errorf("expected ErrConflict on stale update, got %v", err)
	}
}

func TestCollection_PutMissingID(t *testing.T) {
	col := store.New(newFake(), store.DefaultConfig()).Collection("cells_w1")

	if _, err := col.Put(context.Background(), docstore.Document{"name": "x"}); !errors.Is(err, docstore.ErrMissingID) {
		t.Errorf("expected ErrMissingID, got %v", err)
	}
}

func TestCollection_Remove(t *testing.T) {
	ctx := context.Background()
	col := store.New(newFake(), store.DefaultConfig()).Collection("cells_w1")

	if _, err := col.Put(ctx, docstore.Document{"id": "c1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := col.Remove(ctx, "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := col.Remove(ctx, "c1"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}
}

// --- BulkDelete Tests ---

func TestCollection_BulkDelete_Chunks(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	col := store.New(fake, store.DefaultConfig()).Collection("rel_w1")

	var ids []string
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("r%02d", i)
		ids = append(ids, id)
		if _, err := col.Put(ctx, docstore.Document{"id": id}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := col.BulkDelete(ctx, ids); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.batchCalls != 3 {
		t.Errorf("expected 3 batch calls, got %d", fake.batchCalls)
	}
	if len(fake.items) != 0 {
		t.Errorf("expected all items deleted, %d left", len(fake.items))
	}
}

func TestCollection_BulkDelete_RetriesUnprocessed(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	fake.unprocessed = 1
	col := store.New(fake, store.DefaultConfig()).Collection("rel_w1")

	if _, err := col.Put(ctx, docstore.Document{"id": "r1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := col.BulkDelete(ctx, []string{"r1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.batchCalls != 2 {
		t.Errorf("expected 2 batch calls, got %d", fake.batchCalls)
	}
}

func TestCollection_BulkDelete_GivesUp(t *testing.T) {
	fake := newFake()
	fake.unprocessed = 100
	col := store.New(fake, store.DefaultConfig()).Collection("rel_w1")

	err := col.BulkDelete(context.Background(), []string{"r1"})
	if !errors.Is(err, store.ErrBatchIncomplete) {
		t.Errorf("expected ErrBatchIncomplete, got %v", err)
	}
}

func TestCollection_BulkDelete_Empty(t *testing.T) {
	fake := newFake()
	col := store.New(fake, store.DefaultConfig()).Collection("rel_w1")

	if err := col.BulkDelete(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.batchCalls != 0 {
		t.Errorf("expected no batch calls, got %d", fake.batchCalls)
	}
}

// --- Find Tests ---

func TestCollection_Find_FansOutAcrossShards(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	cfg := store.DefaultConfig()
	cfg.NumShards = 4
	col := store.New(fake, cfg).Collection("cells_w1")

	for i := 9; i >= 0; i-- {
		if _, err := col.Put(ctx, docstore.Document{"id": "c" + strconv.Itoa(i)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	docs, err := col.Find(ctx, nil, docstore.FindOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.queries) != 4 {
		t.Errorf("expected 4 partition queries, got %d", len(fake.queries))
	}
	want := []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9"}
	got := docIDs(docs)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	page, err := col.Find(ctx, nil, docstore.FindOptions{Skip: 3, Limit: 2, Fields: []string{"name"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(docIDs(page)) != "[c3 c4]" {
		t.Errorf("expected [c3 c4], got %v", docIDs(page))
	}
}

func TestCollection_Find_SetsFilterExpression(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	col := store.New(fake, store.DefaultConfig()).Collection("cells_w1")

	_, err := col.Find(ctx, docstore.Where().Eq("typeGroup", "CONTENT").Gte("status", 0), docstore.FindOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.queries) != 1 {
		t.Fatalf("expected 1 query, got %d", len(fake.queries))
	}
	q := fake.queries[0]
	if got := aws.ToString(q.FilterExpression); got != "#doc.#f0 = :v0 AND #doc.#f1 >= :v1" {
		t.Errorf("unexpected filter expression %q", got)
	}
	if got := aws.ToString(q.KeyConditionExpression); got != "#pk = :pk" {
		t.Errorf("unexpected key condition %q", got)
	}
	if q.ExpressionAttributeNames["#f0"] != "typeGroup" {
		t.Errorf("expected #f0 to name typeGroup, got %q", q.ExpressionAttributeNames["#f0"])
	}
}

func TestCollection_Find_LargeInSetFilteredLocally(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	col := store.New(fake, store.DefaultConfig()).Collection("cells_w1")

	for i := 0; i < 5; i++ {
		if _, err := col.Put(ctx, docstore.Document{"id": fmt.Sprintf("c%d", i)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	wanted := []string{"c1", "c3"}
	for i := 0; i < 150; i++ {
		wanted = append(wanted, fmt.Sprintf("other%d", i))
	}

	docs, err := col.Find(ctx, docstore.Where().InStrings("id", wanted), docstore.FindOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(docIDs(docs)) != "[c1 c3]" {
		t.Errorf("expected [c1 c3], got %v", docIDs(docs))
	}
	if fake.queries[0].FilterExpression != nil {
		t.Errorf("expected no server-side filter, got %q", aws.ToString(fake.queries[0].FilterExpression))
	}
}

func TestCollection_Find_Unsatisfiable(t *testing.T) {
	fake := newFake()
	col := store.New(fake, store.DefaultConfig()).Collection("cells_w1")

	docs, err := col.Find(context.Background(), docstore.Where().In("id"), docstore.FindOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no documents, got %d", len(docs))
	}
	if len(fake.queries) != 0 {
		t.Errorf("expected no queries, got %d", len(fake.queries))
	}
}

func TestCollection_Find_QueryError(t *testing.T) {
	fake := newFake()
	fake.queryErr = errors.New("throttled")
	cfg := store.DefaultConfig()
	cfg.NumShards = 2
	col := store.New(fake, cfg).Collection("cells_w1")

	if _, err := col.Find(context.Background(), nil, docstore.FindOptions{}); err == nil {
		t.Error("expected error from failing partition query")
	}
}

func TestCollection_Find_InvalidField(t *testing.T) {
	col := store.New(newFake(), store.DefaultConfig()).Collection("cells_w1")

	_, err := col.Find(context.Background(), docstore.Where().Eq("a.b", 1), docstore.FindOptions{})
	if !errors.Is(err, docstore.ErrInvalidField) {
		t.Errorf("expected ErrInvalidField, got %v", err)
	}
}

// --- Example ---

// ExampleStore_Collection shows wiring a workspace's cell collection.
func ExampleStore_Collection() {
	cfg := store.DefaultConfig()
	cfg.NumShards = 16

	// s := store.New(dynamodb.NewFromConfig(awsCfg), cfg)
	s := store.New(newFake(), cfg)
	cells := s.Collection("cells_" + "workspace-1")
	_ = cells
}
