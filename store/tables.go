package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableAdmin is the subset of the DynamoDB client used to manage tables.
type TableAdmin interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// TableInputs returns the CreateTable inputs of the links, values and
// counters tables. The links table streams new images to the settler.
func TableInputs(config Config) []*dynamodb.CreateTableInput {
	config.validate()

	all := &types.Projection{ProjectionType: types.ProjectionTypeAll}
	attr := func(name string, t types.ScalarAttributeType) types.AttributeDefinition {
		return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: t}
	}
	key := func(hash, rng string) []types.KeySchemaElement {
		k := []types.KeySchemaElement{{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash}}
		if rng != "" {
			k = append(k, types.KeySchemaElement{AttributeName: aws.String(rng), KeyType: types.KeyTypeRange})
		}
		return k
	}
	index := func(name, hash, rng string) types.GlobalSecondaryIndex {
		return types.GlobalSecondaryIndex{IndexName: aws.String(name), KeySchema: key(hash, rng), Projection: all}
	}

	return []*dynamodb.CreateTableInput{
		{
			TableName: aws.String(config.LinksTable),
			KeySchema: key("id", ""),
			AttributeDefinitions: []types.AttributeDefinition{
				attr("id", types.ScalarAttributeTypeN),
				attr("type_id", types.ScalarAttributeTypeN),
				attr("from_id", types.ScalarAttributeTypeN),
				attr("to_id", types.ScalarAttributeTypeN),
				attr("type_pk", types.ScalarAttributeTypeS),
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				index(IndexByType, "type_pk", "id"),
				index(IndexByFrom, "from_id", "type_id"),
				index(IndexByTo, "to_id", "type_id"),
			},
			StreamSpecification: &types.StreamSpecification{
				StreamEnabled:  aws.Bool(true),
				StreamViewType: types.StreamViewTypeNewImage,
			},
			BillingMode: types.BillingModePayPerRequest,
		},
		{
			TableName: aws.String(config.ValuesTable),
			KeySchema: key("link_id", ""),
			AttributeDefinitions: []types.AttributeDefinition{
				attr("link_id", types.ScalarAttributeTypeN),
				attr("lookup_pk", types.ScalarAttributeTypeS),
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				index(IndexByValue, "lookup_pk", "link_id"),
			},
			BillingMode: types.BillingModePayPerRequest,
		},
		{
			TableName:            aws.String(config.CountersTable),
			KeySchema:            key("name", ""),
			AttributeDefinitions: []types.AttributeDefinition{attr("name", types.ScalarAttributeTypeS)},
			BillingMode:          types.BillingModePayPerRequest,
		},
	}
}

// CreateTables creates the tables of config and waits until they are active.
func CreateTables(ctx context.Context, client TableAdmin, config Config, wait time.Duration) error {
	inputs := TableInputs(config)
	for _, in := range inputs {
		if _, err := client.CreateTable(ctx, in); err != nil {
			return fmt.Errorf("create table %s: %w", aws.ToString(in.TableName), err)
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	for _, in := range inputs {
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: in.TableName}, wait); err != nil {
			return fmt.Errorf("wait for table %s: %w", aws.ToString(in.TableName), err)
		}
	}
	return nil
}

// DeleteTables deletes the tables of config, attempting every table and
// returning the first error.
func DeleteTables(ctx context.Context, client TableAdmin, config Config) error {
	var first error
	for _, in := range TableInputs(config) {
		_, err := client.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: in.TableName})
		if err != nil && first == nil {
			first = fmt.Errorf("delete table %s: %w", aws.ToString(in.TableName), err)
		}
	}
	return first
}
