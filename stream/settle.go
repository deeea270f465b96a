// Package stream provides DynamoDB Streams handlers for the links table.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/linkpkg/store"
)

// Settler marks links settled.
type Settler interface {
	MarkSettled(ctx context.Context, id int64) error
}

// Handler settles newly inserted links.
type Handler struct {
	settler Settler
	logger  *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(s Settler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		settler: s,
		logger:  logger,
	}
}

// HandleLinkEvents marks every link inserted unsettled as settled.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleLinkEvents(ctx context.Context, event events.DynamoDBEvent) error {
	settled := 0
	for _, record := range event.Records {
		ok, err := h.processRecord(ctx, record)
		if err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
		if ok {
			settled++
		}
	}
	if settled > 0 {
		h.logger.Info("settled links", "count", settled, "records", len(event.Records))
	}
	return nil
}

// processRecord settles the link of a single stream record and reports
// whether it did.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) (bool, error) {
	// Only INSERT events carry new links
	if record.EventName != "INSERT" {
		return false, nil
	}

	// Already settled inline or by a previous delivery
	if getBoolAttr(record.Change.NewImage, "settled") {
		return false, nil
	}

	id := store.LinkID(ConvertStreamKey(record.Change.Keys))
	if id == 0 {
		return false, fmt.Errorf("record %s: missing link id", record.EventID)
	}

	if err := h.settler.MarkSettled(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.logger.Warn("settling missing link", "id", id)
			return false, nil
		}
		return false, fmt.Errorf("settle link %d: %w", id, err)
	}

	h.logger.Debug("link settled",
		"id", id,
		"type", getNumberAttr(record.Change.NewImage, "type_id"),
	)
	return true, nil
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}

// getBoolAttr extracts a boolean attribute from a DynamoDB stream image.
func getBoolAttr(image map[string]events.DynamoDBAttributeValue, key string) bool {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeBoolean {
			return v.Boolean()
		}
	}
	return false
}

// ConvertStreamKey converts a DynamoDB stream key to a store.PK.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) store.PK {
	result := make(store.PK)
	for k, v := range streamKey {
		switch v.DataType() {
		case events.DataTypeString:
			result[k] = &types.AttributeValueMemberS{Value: v.String()}
		case events.DataTypeNumber:
			result[k] = &types.AttributeValueMemberN{Value: v.Number()}
		case events.DataTypeBinary:
			result[k] = &types.AttributeValueMemberB{Value: v.Binary()}
		}
	}
	return result
}
