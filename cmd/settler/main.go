// Command settler is the Lambda function that settles links inserted into
// the links table. Subscribe it to the table's stream (NEW_IMAGE).
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/linkpkg/store"
	"github.com/jacentio/linkpkg/stream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	storeCfg := store.DefaultConfig()
	if t := os.Getenv("LINKPKG_LINKS_TABLE"); t != "" {
		storeCfg.LinksTable = t
	}

	s := store.New(dynamodb.NewFromConfig(cfg), storeCfg, logger)
	handler := stream.NewHandler(s, logger)

	lambda.Start(handler.HandleLinkEvents)
}
