package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sony/gobreaker"

	"github.com/jacentio/linkpkg/graph"
	"github.com/jacentio/linkpkg/internal/shard"
)

// maxBatchGet is the BatchGetItem key limit.
const maxBatchGet = 100

// API is the subset of the DynamoDB client used by Store.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

var _ graph.Client = (*Store)(nil)

// Store is a graph store on DynamoDB.
type Store struct {
	client  API
	config  Config
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// New creates a new Store instance.
func New(client API, config Config, logger *slog.Logger) *Store {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client:  client,
		config:  config,
		breaker: newBreaker(config, logger),
		logger:  logger,
	}
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// Select returns the links matching filter, ordered by id, values hydrated.
// Ids are fetched directly; otherwise the from, to or type index is
// queried, in that order of preference, and the remaining fields are
// matched on the result.
func (s *Store) Select(ctx context.Context, filter graph.Filter) ([]graph.Link, error) {
	if filter.Empty() {
		return nil, ErrInvalidFilter
	}

	var (
		records []linkRecord
		err     error
	)
	switch {
	case len(filter.IDs) > 0:
		records, err = s.getLinks(ctx, filter.IDs)
	case filter.From != 0:
		records, err = s.queryIndex(ctx, IndexByFrom, "from_id", filter.From, filter.Type)
	case filter.To != 0:
		records, err = s.queryIndex(ctx, IndexByTo, "to_id", filter.To, filter.Type)
	default:
		records, err = s.queryType(ctx, filter.Type)
	}
	if err != nil {
		return nil, err
	}

	links := make([]graph.Link, 0, len(records))
	for _, r := range records {
		if l := r.link(); filter.Match(l) {
			links = append(links, l)
		}
	}
	slices.SortFunc(links, func(a, b graph.Link) int { return cmp.Compare(a.ID, b.ID) })

	if err := s.hydrate(ctx, links); err != nil {
		return nil, err
	}
	return links, nil
}

// SelectValues returns the ids of links whose value row in table has a
// "value" field equal to value.
func (s *Store) SelectValues(ctx context.Context, table string, value any) ([]int64, error) {
	keyCond := expression.Key("lookup_pk").Equal(expression.Value(shard.ValuePK(table, graph.LookupKey(value))))
	filter := expression.Name("table_name").Equal(expression.Value(table))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("build value query: %w", err)
	}

	items, err := s.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.ValuesTable),
		IndexName:                 aws.String(IndexByValue),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("select values in %s: %w", table, err)
	}

	var records []valueRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.LinkID)
	}
	slices.Sort(ids)
	return ids, nil
}

// InsertLink creates a link, reserving an id when link.ID is zero. The link
// starts unsettled unless Config.InlineSettle is set.
func (s *Store) InsertLink(ctx context.Context, link graph.Link) (int64, error) {
	if link.ID == 0 {
		ids, err := s.Reserve(ctx, 1)
		if err != nil {
			return 0, err
		}
		link.ID = ids[0]
	}

	rec := linkRecord{
		ID:        link.ID,
		TypeID:    link.Type,
		FromID:    link.From,
		ToID:      link.To,
		Settled:   s.config.InlineSettle,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if link.Type != 0 {
		rec.TypePK = shard.TypePK(link.Type, link.ID, s.config.NumShards)
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return 0, fmt.Errorf("marshal link: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("id").AttributeNotExists()).
		Build()
	if err != nil {
		return 0, fmt.Errorf("build link condition: %w", err)
	}

	err = s.call(ctx, "insert link", func(ctx context.Context) error {
		_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                aws.String(s.config.LinksTable),
			Item:                     item,
			ConditionExpression:      expr.Condition(),
			ExpressionAttributeNames: expr.Names(),
		})
		return err
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return 0, fmt.Errorf("link %d: %w", link.ID, ErrAlreadyExists)
	}
	if err != nil {
		return 0, fmt.Errorf("insert link %d: %w", link.ID, err)
	}
	return link.ID, nil
}

// InsertValue creates the value row of linkID.
func (s *Store) InsertValue(ctx context.Context, table string, linkID int64, value graph.Value) error {
	rec := valueRecord{LinkID: linkID, Table: table, Value: value}
	if v, ok := value["value"]; ok {
		rec.LookupPK = shard.ValuePK(table, graph.LookupKey(v))
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("link_id").AttributeNotExists()).
		Build()
	if err != nil {
		return fmt.Errorf("build value condition: %w", err)
	}

	err = s.call(ctx, "insert value", func(ctx context.Context) error {
		_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                aws.String(s.config.ValuesTable),
			Item:                     item,
			ConditionExpression:      expr.Condition(),
			ExpressionAttributeNames: expr.Names(),
		})
		return err
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("value of link %d: %w", linkID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert value of link %d: %w", linkID, err)
	}
	return nil
}

// Reserve allocates n consecutive ids with a single atomic counter update,
// so concurrent reservations never overlap.
func (s *Store) Reserve(ctx context.Context, n int) ([]int64, error) {
	if n <= 0 {
		return nil, ErrInvalidCount
	}

	expr, err := expression.NewBuilder().
		WithUpdate(expression.Add(expression.Name("next"), expression.Value(n))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build reserve update: %w", err)
	}

	var out *dynamodb.UpdateItemOutput
	err = s.call(ctx, "reserve", func(ctx context.Context) error {
		var err error
		out, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(s.config.CountersTable),
			Key:                       PK{"name": &types.AttributeValueMemberS{Value: linkCounter}},
			UpdateExpression:          expr.Update(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ReturnValues:              types.ReturnValueUpdatedNew,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reserve %d ids: %w", n, err)
	}

	var counter struct {
		Next int64 `dynamodbav:"next"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &counter); err != nil {
		return nil, fmt.Errorf("unmarshal counter: %w", err)
	}

	first := s.config.IDOffset + counter.Next - int64(n)
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = first + int64(i)
	}
	return ids, nil
}

// Await polls link id with consistent reads until it is settled, for at
// most Config.AwaitTimeout.
func (s *Store) Await(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.AwaitTimeout)
	defer cancel()

	ticker := time.NewTicker(s.config.AwaitInterval)
	defer ticker.Stop()

	for {
		settled, err := s.isSettled(ctx, id)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if settled {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("link %d: %w", id, ErrAwaitTimeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Store) isSettled(ctx context.Context, id int64) (bool, error) {
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name("id"), expression.Name("settled"))).
		Build()
	if err != nil {
		return false, fmt.Errorf("build projection: %w", err)
	}

	var out *dynamodb.GetItemOutput
	err = s.call(ctx, "await", func(ctx context.Context) error {
		var err error
		out, err = s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:                aws.String(s.config.LinksTable),
			Key:                      LinkKey(id),
			ConsistentRead:           aws.Bool(true),
			ProjectionExpression:     expr.Projection(),
			ExpressionAttributeNames: expr.Names(),
		})
		return err
	})
	if err != nil {
		return false, fmt.Errorf("await link %d: %w", id, err)
	}
	if out.Item == nil {
		return false, fmt.Errorf("link %d: %w", id, ErrNotFound)
	}
	return IsSettled(out.Item), nil
}

// MarkSettled flags link id as settled, releasing Await callers.
func (s *Store) MarkSettled(ctx context.Context, id int64) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("settled"), expression.Value(true))).
		WithCondition(expression.Name("id").AttributeExists()).
		Build()
	if err != nil {
		return fmt.Errorf("build settle update: %w", err)
	}

	err = s.call(ctx, "mark settled", func(ctx context.Context) error {
		_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(s.config.LinksTable),
			Key:                       LinkKey(id),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		return err
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("link %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("mark link %d settled: %w", id, err)
	}
	return nil
}

// getLinks fetches links by id.
func (s *Store) getLinks(ctx context.Context, ids []int64) ([]linkRecord, error) {
	keys := make([]PK, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			keys = append(keys, LinkKey(id))
		}
	}
	items, err := s.batchGet(ctx, s.config.LinksTable, keys)
	if err != nil {
		return nil, err
	}
	return unmarshalLinks(items)
}

// queryIndex lists the links whose attr equals id, narrowed to typeID when
// set, from the from or to index.
func (s *Store) queryIndex(ctx context.Context, index, attr string, id, typeID int64) ([]linkRecord, error) {
	keyCond := expression.Key(attr).Equal(expression.Value(id))
	if typeID != 0 {
		keyCond = keyCond.And(expression.Key("type_id").Equal(expression.Value(typeID)))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", index, err)
	}

	items, err := s.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.LinksTable),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", index, err)
	}
	return unmarshalLinks(items)
}

// queryType lists every link of a type, fanning out over the type shards.
func (s *Store) queryType(ctx context.Context, typeID int64) ([]linkRecord, error) {
	pks := shard.TypeShardPKs(typeID, s.config.NumShards)

	// Fast path for single shard (default)
	if len(pks) == 1 {
		return s.queryTypeShard(ctx, pks[0])
	}

	// Multi-shard fan-out
	var mu sync.Mutex
	var all []linkRecord
	var wg sync.WaitGroup
	errs := make(chan error, len(pks))

	for _, pk := range pks {
		wg.Add(1)
		go func(pk string) {
			defer wg.Done()

			records, err := s.queryTypeShard(ctx, pk)
			if err != nil {
				errs <- fmt.Errorf("shard %s: %w", pk, err)
				return
			}

			mu.Lock()
			all = append(all, records...)
			mu.Unlock()
		}(pk)
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return all, nil
}

func (s *Store) queryTypeShard(ctx context.Context, pk string) ([]linkRecord, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("type_pk").Equal(expression.Value(pk))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build type query: %w", err)
	}

	items, err := s.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.LinksTable),
		IndexName:                 aws.String(IndexByType),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", IndexByType, err)
	}
	return unmarshalLinks(items)
}

// hydrate attaches the value rows of links.
func (s *Store) hydrate(ctx context.Context, links []graph.Link) error {
	if len(links) == 0 {
		return nil
	}
	keys := make([]PK, 0, len(links))
	for _, l := range links {
		keys = append(keys, ValueKey(l.ID))
	}
	items, err := s.batchGet(ctx, s.config.ValuesTable, keys)
	if err != nil {
		return err
	}

	var records []valueRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return fmt.Errorf("unmarshal values: %w", err)
	}
	values := make(map[int64]graph.Value, len(records))
	for _, r := range records {
		values[r.LinkID] = r.Value
	}
	for i := range links {
		links[i].Value = values[links[i].ID]
	}
	return nil
}

// query runs a paginated query and returns every item.
func (s *Store) query(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.client, input)

	for paginator.HasMorePages() {
		var page *dynamodb.QueryOutput
		err := s.call(ctx, "query", func(ctx context.Context) error {
			var err error
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// batchGet fetches items by key in batches, following unprocessed keys.
func (s *Store) batchGet(ctx context.Context, table string, keys []PK) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for start := 0; start < len(keys); start += maxBatchGet {
		batch := keys[start:min(start+maxBatchGet, len(keys))]
		request := types.KeysAndAttributes{ConsistentRead: aws.Bool(true)}
		for _, k := range batch {
			request.Keys = append(request.Keys, map[string]types.AttributeValue(k))
		}

		pending := map[string]types.KeysAndAttributes{table: request}
		for len(pending) > 0 {
			var out *dynamodb.BatchGetItemOutput
			err := s.call(ctx, "batch get", func(ctx context.Context) error {
				var err error
				out, err = s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
				return err
			})
			if err != nil {
				return nil, fmt.Errorf("batch get %s: %w", table, err)
			}
			items = append(items, out.Responses[table]...)
			pending = out.UnprocessedKeys
		}
	}
	return items, nil
}
