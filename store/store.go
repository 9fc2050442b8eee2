package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/cellgraph/docstore"
	"github.com/jacentio/cellgraph/internal/shard"
)

// maxBatchRetries bounds re-submission of unprocessed batch items.
const maxBatchRetries = 5

// maxParallelQueries bounds concurrent shard queries per Find.
const maxParallelQueries = 16

// API is the subset of the DynamoDB client used by the store.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store provides document collections on a single DynamoDB table.
type Store struct {
	client API
	config Config
}

// New creates a new Store instance.
func New(client API, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// Collection returns a handle on the named collection.
func (s *Store) Collection(name string) docstore.Collection {
	return &Collection{store: s, name: name}
}

// Collection is a docstore.Collection stored under one partition-key prefix.
type Collection struct {
	store *Store
	name  string
}

var _ docstore.Collection = (*Collection)(nil)

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// partitionKey computes the sharded partition key for a document.
func (c *Collection) partitionKey(id string) string {
	return shard.PartitionKey(c.name, id, c.store.config.NumShards)
}

// Get retrieves a document by id, returning docstore.ErrNotFound if missing.
func (c *Collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	result, err := c.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.store.config.Table),
		Key:            itemKey(c.partitionKey(id), id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, docstore.ErrNotFound
	}
	return unmarshalItem(result.Item)
}

// Put writes a document with optimistic locking on its revision.
func (c *Collection) Put(ctx context.Context, doc docstore.Document) (int64, error) {
	id := doc.ID()
	if id == "" {
		return 0, docstore.ErrMissingID
	}
	expected := doc.Rev()
	next := expected + 1

	item, err := marshalItem(c.partitionKey(id), doc, next)
	if err != nil {
		return 0, err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(c.store.config.Table),
		Item:      item,
	}
	if expected == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(id)")
	} else {
		input.ConditionExpression = aws.String("#rev = :expected_rev")
		input.ExpressionAttributeNames = map[string]string{"#rev": attrRev}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected_rev": &types.AttributeValueMemberN{Value: strconv.FormatInt(expected, 10)},
		}
	}

	_, err = c.store.client.PutItem(ctx, input)
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, docstore.ErrConflict
		}
		return 0, err
	}
	return next, nil
}

// Remove deletes a document by id.
func (c *Collection) Remove(ctx context.Context, id string) error {
	_, err := c.store.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(c.store.config.Table),
		Key:                 itemKey(c.partitionKey(id), id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return docstore.ErrNotFound
		}
		return err
	}
	return nil
}

// BulkDelete deletes documents in BatchWriteItem chunks, re-submitting
// unprocessed items with backoff.
func (c *Collection) BulkDelete(ctx context.Context, ids []string) error {
	size := c.store.config.BatchSize
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, id := range ids[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: itemKey(c.partitionKey(id), id)},
			})
		}

		if err := c.writeBatch(ctx, requests); err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (c *Collection) writeBatch(ctx context.Context, requests []types.WriteRequest) error {
	table := c.store.config.Table
	pending := map[string][]types.WriteRequest{table: requests}

	for attempt := 0; ; attempt++ {
		out, err := c.store.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return err
		}
		if len(out.UnprocessedItems[table]) == 0 {
			return nil
		}
		if attempt+1 >= maxBatchRetries {
			return ErrBatchIncomplete
		}
		pending = out.UnprocessedItems

		backoff := time.Duration(1<<attempt) * 50 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// Find queries every partition of the collection, filters with the selector
// and returns documents ordered by id before applying skip and limit.
func (c *Collection) Find(ctx context.Context, sel *docstore.Selector, opts docstore.FindOptions) ([]docstore.Document, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if sel.Unsatisfiable() {
		return []docstore.Document{}, nil
	}

	f, err := buildFilter(sel)
	if err != nil {
		return nil, err
	}

	partitions := shard.PartitionKeys(c.name, c.store.config.NumShards)

	// Fast path for single shard (default)
	var docs []docstore.Document
	if len(partitions) == 1 {
		docs, err = c.queryPartition(ctx, partitions[0], f)
		if err != nil {
			return nil, err
		}
	} else {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxParallelQueries)
		for _, pk := range partitions {
			g.Go(func() error {
				part, err := c.queryPartition(gctx, pk, f)
				if err != nil {
					return fmt.Errorf("partition %s: %w", pk, err)
				}
				mu.Lock()
				docs = append(docs, part...)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID() < docs[j].ID() })
	return docstore.Window(docs, opts), nil
}

// queryPartition pages through one partition with the translated filter.
func (c *Collection) queryPartition(ctx context.Context, pk string, f filter) ([]docstore.Document, error) {
	names := map[string]string{"#pk": attrPK}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: pk},
	}
	for k, v := range f.names {
		names[k] = v
	}
	for k, v := range f.values {
		values[k] = v
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(c.store.config.Table),
		KeyConditionExpression:    aws.String("#pk = :pk"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConsistentRead:            aws.Bool(true),
	}
	if f.expr != "" {
		input.FilterExpression = aws.String(f.expr)
	}

	var docs []docstore.Document
	paginator := dynamodb.NewQueryPaginator(c.store.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			doc, err := unmarshalItem(raw)
			if err != nil {
				return nil, err
			}
			if f.keep(doc) {
				docs = append(docs, doc)
			}
		}
	}
	return docs, nil
}
