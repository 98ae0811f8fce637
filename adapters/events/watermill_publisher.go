package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
)

// Topics the publisher emits on.
const (
	TopicSignedIn   = "psm.auth.signed_in"
	TopicSignedOut  = "psm.auth.signed_out"
	TopicVideoReady = "psm.video.ready"
)

// SignedInEvent is emitted after a successful wallet verification.
type SignedInEvent struct {
	UserID        string    `json:"user_id"`
	WalletAddress string    `json:"wallet_address"`
	At            time.Time `json:"at"`
}

// SignedOutEvent is emitted after a session token is revoked.
type SignedOutEvent struct {
	UserID  string    `json:"user_id"`
	TokenID string    `json:"token_id"`
	At      time.Time `json:"at"`
}

// VideoReadyEvent is emitted when processing finishes for an upload.
type VideoReadyEvent struct {
	VideoID   string    `json:"video_id"`
	CreatorID string    `json:"creator_id"`
	At        time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishSignedIn publishes a signed-in event.
func (p *WatermillPublisher) PublishSignedIn(ctx context.Context, userID, walletAddress string) error {
	return p.publish(TopicSignedIn, SignedInEvent{
		UserID:        userID,
		WalletAddress: walletAddress,
		At:            time.Now(),
	})
}

// PublishSignedOut publishes a signed-out event.
func (p *WatermillPublisher) PublishSignedOut(ctx context.Context, userID, tokenID string) error {
	return p.publish(TopicSignedOut, SignedOutEvent{
		UserID:  userID,
		TokenID: tokenID,
		At:      time.Now(),
	})
}

// PublishVideoReady publishes a video-ready event.
func (p *WatermillPublisher) PublishVideoReady(ctx context.Context, videoID, creatorID string) error {
	return p.publish(TopicVideoReady, VideoReadyEvent{
		VideoID:   videoID,
		CreatorID: creatorID,
		At:        time.Now(),
	})
}

func (p *WatermillPublisher) publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
