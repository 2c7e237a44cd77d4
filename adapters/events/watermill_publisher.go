package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/veritick/veritick/core"
	"github.com/veritick/veritick/ports"
)

// ScanRecorded is the payload published for every accepted scan.
type ScanRecorded struct {
	ID            uint64 `json:"id"`
	ParticipantID string `json:"participant_id"`
	SourceAddress string `json:"source_address"`
	ServerRecvTs  int64  `json:"server_recv_ts"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     "veritick.scan",
	}
}

// PublishScan publishes a scan-recorded event. The token itself is not
// included; downstream consumers only need the identity and timing.
func (p *WatermillPublisher) PublishScan(ctx context.Context, event core.ScanEvent) error {
	payload, err := json.Marshal(ScanRecorded{
		ID:            event.ID,
		ParticipantID: event.ParticipantID,
		SourceAddress: event.SourceAddress,
		ServerRecvTs:  event.ServerRecvTs,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
