package store

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/linkpkg/graph"
)

// Index names of the links and values tables.
const (
	IndexByType  = "by_type"
	IndexByFrom  = "by_from"
	IndexByTo    = "by_to"
	IndexByValue = "by_value"
)

// linkCounter is the counters row that allocates link ids.
const linkCounter = "links"

// PK represents a DynamoDB primary key.
type PK map[string]types.AttributeValue

// LinkKey returns the primary key of link id in the links table.
func LinkKey(id int64) PK {
	return PK{"id": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)}}
}

// ValueKey returns the primary key of the value of link id in the values table.
func ValueKey(id int64) PK {
	return PK{"link_id": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)}}
}

// linkRecord is a links table item. from_id, to_id and type_pk are omitted
// when absent so the link stays out of the sparse index.
type linkRecord struct {
	ID        int64  `dynamodbav:"id"`
	TypeID    int64  `dynamodbav:"type_id"`
	FromID    int64  `dynamodbav:"from_id,omitempty"`
	ToID      int64  `dynamodbav:"to_id,omitempty"`
	TypePK    string `dynamodbav:"type_pk,omitempty"`
	Settled   bool   `dynamodbav:"settled"`
	CreatedAt string `dynamodbav:"created_at"`
}

// valueRecord is a values table item. lookup_pk is set when the value has
// a "value" field and feeds the by_value index.
type valueRecord struct {
	LinkID   int64          `dynamodbav:"link_id"`
	Table    string         `dynamodbav:"table_name"`
	Value    map[string]any `dynamodbav:"value"`
	LookupPK string         `dynamodbav:"lookup_pk,omitempty"`
}

func (r linkRecord) link() graph.Link {
	return graph.Link{ID: r.ID, Type: r.TypeID, From: r.FromID, To: r.ToID}
}

func unmarshalLinks(items []map[string]types.AttributeValue) ([]linkRecord, error) {
	var records []linkRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, fmt.Errorf("unmarshal links: %w", err)
	}
	return records, nil
}

// IsSettled reports whether a links table item has been settled.
func IsSettled(item map[string]types.AttributeValue) bool {
	v, ok := item["settled"].(*types.AttributeValueMemberBOOL)
	return ok && v.Value
}

// LinkID returns the id of a links table item, or 0.
func LinkID(item map[string]types.AttributeValue) int64 {
	v, ok := item["id"].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
