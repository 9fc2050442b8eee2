package store

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/cellgraph/docstore"
)

// maxInOperands is the DynamoDB limit on IN operands in one comparison.
const maxInOperands = 100

// filter is a selector translated to a FilterExpression. Clauses DynamoDB
// cannot express are kept in residual and evaluated after the query.
type filter struct {
	expr     string
	names    map[string]string
	values   map[string]types.AttributeValue
	residual *docstore.Selector
}

// buildFilter translates sel into a filter over the doc attribute.
func buildFilter(sel *docstore.Selector) (filter, error) {
	f := filter{
		names:  map[string]string{},
		values: map[string]types.AttributeValue{},
	}

	var conds []string
	for i, c := range sel.Clauses() {
		if c.Op == docstore.OpIn && len(c.Values) > maxInOperands {
			if f.residual == nil {
				f.residual = docstore.Where()
			}
			f.residual.In(c.Field, c.Values...)
			continue
		}

		f.names["#doc"] = attrDoc
		nameKey := fmt.Sprintf("#f%d", i)
		f.names[nameKey] = c.Field
		path := "#doc." + nameKey

		switch c.Op {
		case docstore.OpEq:
			if c.Value == nil {
				f.values[":null"] = &types.AttributeValueMemberS{Value: "NULL"}
				conds = append(conds, fmt.Sprintf("(attribute_not_exists(%s) OR attribute_type(%s, :null))", path, path))
				continue
			}
			key, err := f.addValue(fmt.Sprintf(":v%d", i), c.Value)
			if err != nil {
				return filter{}, err
			}
			conds = append(conds, fmt.Sprintf("%s = %s", path, key))
		case docstore.OpGte, docstore.OpLte:
			key, err := f.addValue(fmt.Sprintf(":v%d", i), c.Value)
			if err != nil {
				return filter{}, err
			}
			op := ">="
			if c.Op == docstore.OpLte {
				op = "<="
			}
			conds = append(conds, fmt.Sprintf("%s %s %s", path, op, key))
		case docstore.OpIn:
			keys := make([]string, 0, len(c.Values))
			for j, v := range c.Values {
				key, err := f.addValue(fmt.Sprintf(":v%d_%d", i, j), v)
				if err != nil {
					return filter{}, err
				}
				keys = append(keys, key)
			}
			conds = append(conds, fmt.Sprintf("%s IN (%s)", path, strings.Join(keys, ", ")))
		}
	}

	f.expr = strings.Join(conds, " AND ")
	return f, nil
}

func (f *filter) addValue(key string, v any) (string, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal filter value %s: %w", key, err)
	}
	f.values[key] = av
	return key, nil
}

// keep reports whether a queried document passes the residual clauses.
func (f filter) keep(doc docstore.Document) bool {
	return f.residual.Matches(doc)
}
