package store

import "time"

// Config holds configuration for the Store.
type Config struct {
	// LinksTable is the name of the links table.
	// Default: "linkpkg_links"
	LinksTable string

	// ValuesTable is the name of the table holding link values.
	// Default: "linkpkg_values"
	ValuesTable string

	// CountersTable is the name of the id counter table.
	// Default: "linkpkg_counters"
	CountersTable string

	// NumShards is the number of shards of the by_type index.
	// Higher values spread hot types over more partitions but require more
	// parallel queries to list a type.
	// Default: 1 (no sharding, single query)
	// Max: 256
	NumShards int

	// IDOffset is added to every reserved id so the fixed ids of the
	// reserved links stay free.
	// Default: 100
	IDOffset int64

	// InlineSettle marks links settled on insert, for deployments without
	// the stream settler (tests, DynamoDB Local).
	// Default: false
	InlineSettle bool

	// CallTimeout bounds every DynamoDB call.
	// Default: 5s
	CallTimeout time.Duration

	// AwaitTimeout bounds Await.
	// Default: 30s
	AwaitTimeout time.Duration

	// AwaitInterval is the delay between two Await polls.
	// Default: 100ms
	AwaitInterval time.Duration

	// BreakerFailures is the number of consecutive failures that opens the
	// circuit breaker.
	// Default: 5
	BreakerFailures uint32

	// BreakerCooldown is how long the breaker stays open before letting a
	// trial call through.
	// Default: 30s
	BreakerCooldown time.Duration
}

// DefaultConfig returns sensible defaults for small datasets.
func DefaultConfig() Config {
	return Config{
		LinksTable:      "linkpkg_links",
		ValuesTable:     "linkpkg_values",
		CountersTable:   "linkpkg_counters",
		NumShards:       1,
		IDOffset:        100,
		CallTimeout:     5 * time.Second,
		AwaitTimeout:    30 * time.Second,
		AwaitInterval:   100 * time.Millisecond,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	d := DefaultConfig()
	if c.LinksTable == "" {
		c.LinksTable = d.LinksTable
	}
	if c.ValuesTable == "" {
		c.ValuesTable = d.ValuesTable
	}
	if c.CountersTable == "" {
		c.CountersTable = d.CountersTable
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > 256 {
		c.NumShards = 256
	}
	if c.IDOffset <= 0 {
		c.IDOffset = d.IDOffset
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = d.CallTimeout
	}
	if c.AwaitTimeout <= 0 {
		c.AwaitTimeout = d.AwaitTimeout
	}
	if c.AwaitInterval <= 0 {
		c.AwaitInterval = d.AwaitInterval
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = d.BreakerFailures
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = d.BreakerCooldown
	}
}
