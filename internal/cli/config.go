package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jacentio/linkpkg/store"
)

// Config keys. Each is also read from LINKPKG_<KEY>.
const (
	cfgKeyBackend       = "backend"
	cfgKeyDB            = "db"
	cfgKeyEndpoint      = "endpoint"
	cfgKeyRegion        = "region"
	cfgKeyLinksTable    = "links_table"
	cfgKeyValuesTable   = "values_table"
	cfgKeyCountersTable = "counters_table"
	cfgKeyShards        = "shards"
	cfgKeyInlineSettle  = "inline_settle"
	cfgKeyAwaitTimeout  = "await_timeout"

	backendSQLite   = "sqlite"
	backendDynamoDB = "dynamodb"

	envPrefix = "LINKPKG"
)

// errUnknownBackend is returned for a backend other than sqlite or dynamodb.
var errUnknownBackend = errors.New("unknown backend")

// settings is the resolved CLI configuration.
type settings struct {
	Backend  string
	DB       string
	Endpoint string
	Region   string
	Store    store.Config
}

// newViper returns a viper instance with defaults and environment binding.
func newViper() *viper.Viper {
	d := store.DefaultConfig()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, backendSQLite)
	v.SetDefault(cfgKeyDB, "linkpkg.db")
	v.SetDefault(cfgKeyLinksTable, d.LinksTable)
	v.SetDefault(cfgKeyValuesTable, d.ValuesTable)
	v.SetDefault(cfgKeyCountersTable, d.CountersTable)
	v.SetDefault(cfgKeyShards, d.NumShards)
	v.SetDefault(cfgKeyAwaitTimeout, d.AwaitTimeout)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// bindFlags binds the persistent flags to their config keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{
		cfgKeyBackend, cfgKeyDB, cfgKeyEndpoint, cfgKeyRegion,
		cfgKeyLinksTable, cfgKeyValuesTable, cfgKeyCountersTable,
		cfgKeyShards, cfgKeyInlineSettle,
	} {
		if err := v.BindPFlag(key, flags.Lookup(strings.ReplaceAll(key, "_", "-"))); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// readConfigFile merges path into v. An empty path reads nothing.
func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// loadSettings resolves the settings from v.
func loadSettings(v *viper.Viper) (settings, error) {
	s := settings{
		Backend:  strings.ToLower(v.GetString(cfgKeyBackend)),
		DB:       v.GetString(cfgKeyDB),
		Endpoint: v.GetString(cfgKeyEndpoint),
		Region:   v.GetString(cfgKeyRegion),
	}
	if s.Backend != backendSQLite && s.Backend != backendDynamoDB {
		return settings{}, fmt.Errorf("%w %q (want %s or %s)", errUnknownBackend, s.Backend, backendSQLite, backendDynamoDB)
	}

	s.Store = store.DefaultConfig()
	s.Store.LinksTable = v.GetString(cfgKeyLinksTable)
	s.Store.ValuesTable = v.GetString(cfgKeyValuesTable)
	s.Store.CountersTable = v.GetString(cfgKeyCountersTable)
	s.Store.NumShards = v.GetInt(cfgKeyShards)
	s.Store.InlineSettle = v.GetBool(cfgKeyInlineSettle)
	s.Store.AwaitTimeout = v.GetDuration(cfgKeyAwaitTimeout)
	return s, nil
}
