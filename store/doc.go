// Package store implements the link graph on DynamoDB.
//
// Links live in one table keyed by id, with three sparse indexes:
//
//   - by_type: type_pk (type id plus shard) and id, for listing a type
//   - by_from: from_id and type_id
//   - by_to: to_id and type_id
//
// Values live in a second table keyed by link id. Values that carry a
// "value" field are indexed by a hash of their table and lookup key in
// by_value, which backs [Store.SelectValues].
//
// Ids come from an atomic counter row: [Store.Reserve] adds n and hands out
// the n ids below the new total, shifted by Config.IDOffset.
//
// # Settling
//
// A link is written unsettled and becomes visible to [Store.Await] once the
// stream handler in package stream calls [Store.MarkSettled]. Set
// Config.InlineSettle to write links settled when no stream is deployed.
//
// # Configuration
//
// Use [DefaultConfig] for small datasets (NumShards=1, single queries).
// Increase NumShards to spread hot types:
//
//	cfg := store.DefaultConfig()
//	cfg.NumShards = 16
//
// Every call runs under Config.CallTimeout behind a circuit breaker that
// opens after Config.BreakerFailures consecutive failures.
//
// # Errors
//
//   - [ErrNotFound] - link doesn't exist
//   - [ErrAlreadyExists] - link or value id already taken
//   - [ErrInvalidFilter] - Select called with an empty filter
//   - [ErrInvalidCount] - Reserve called with n <= 0
//   - [ErrAwaitTimeout] - link not settled within Config.AwaitTimeout
//   - [ErrUnavailable] - circuit breaker open
package store
