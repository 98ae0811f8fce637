package ports

import "context"

// EventPublisher notifies other components about auth and upload lifecycle
// changes. Publishing is best-effort; callers must not fail their operation
// when an event cannot be delivered.
type EventPublisher interface {
	PublishSignedIn(ctx context.Context, userID, walletAddress string) error
	PublishSignedOut(ctx context.Context, userID, tokenID string) error
	PublishVideoReady(ctx context.Context, videoID, creatorID string) error
}
