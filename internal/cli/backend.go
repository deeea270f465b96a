package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/viper"

	"github.com/jacentio/linkpkg/graph"
	"github.com/jacentio/linkpkg/internal/sqlite"
	"github.com/jacentio/linkpkg/store"
)

// backend is an open graph store.
type backend struct {
	client graph.Client
	ddb    *dynamodb.Client // set for the dynamodb backend
	cfg    store.Config
	close  func() error
}

// openBackend opens the graph store selected by v.
func openBackend(ctx context.Context, v *viper.Viper, logger *slog.Logger) (*backend, error) {
	s, err := loadSettings(v)
	if err != nil {
		return nil, err
	}

	switch s.Backend {
	case backendDynamoDB:
		var opts []func(*awsconfig.LoadOptions) error
		if s.Region != "" {
			opts = append(opts, awsconfig.WithRegion(s.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		ddb := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			if s.Endpoint != "" {
				o.BaseEndpoint = aws.String(s.Endpoint)
			}
		})
		st := store.New(ddb, s.Store, logger)
		logger.Debug("opened dynamodb store", "links", st.Config().LinksTable, "shards", st.Config().NumShards)
		return &backend{client: st, ddb: ddb, cfg: st.Config(), close: func() error { return nil }}, nil
	default:
		b, err := sqlite.Open(s.DB)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", s.DB, err)
		}
		logger.Debug("opened sqlite store", "path", s.DB)
		return &backend{client: b, close: b.Close}, nil
	}
}
