package store

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/cellgraph/docstore"
)

// Item attribute names.
const (
	attrPK  = "pk"
	attrID  = "id"
	attrRev = "_rev"
	attrDoc = "doc"
)

// itemKey builds the primary key of a document item.
func itemKey(pk, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}

// marshalItem converts a document to a table item carrying revision rev.
func marshalItem(pk string, doc docstore.Document, rev int64) (map[string]types.AttributeValue, error) {
	body := make(map[string]any, len(doc))
	for k, v := range doc {
		if k != docstore.RevField {
			body[k] = v
		}
	}
	av, err := attributevalue.MarshalMap(body)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	item := itemKey(pk, doc.ID())
	item[attrRev] = &types.AttributeValueMemberN{Value: strconv.FormatInt(rev, 10)}
	item[attrDoc] = &types.AttributeValueMemberM{Value: av}
	return item, nil
}

// unmarshalItem converts a table item back to a document with its revision.
func unmarshalItem(raw map[string]types.AttributeValue) (docstore.Document, error) {
	m, ok := raw[attrDoc].(*types.AttributeValueMemberM)
	if !ok {
		return nil, ErrMalformedItem
	}

	doc := docstore.Document{}
	if err := attributevalue.UnmarshalMap(m.Value, (*map[string]any)(&doc)); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	if v, ok := raw[attrRev].(*types.AttributeValueMemberN); ok {
		rev, _ := strconv.ParseInt(v.Value, 10, 64)
		doc[docstore.RevField] = rev
	}
	if _, ok := doc[docstore.KeyField]; !ok {
		if v, ok := raw[attrID].(*types.AttributeValueMemberS); ok {
			doc[docstore.KeyField] = v.Value
		}
	}
	return doc, nil
}
