package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// VideoStatus is the server-side processing status of a video.
type VideoStatus string

const (
	VideoPending    VideoStatus = "pending"
	VideoUploading  VideoStatus = "uploading"
	VideoProcessing VideoStatus = "processing"
	VideoReady      VideoStatus = "ready"
	VideoFailed     VideoStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s VideoStatus) Terminal() bool {
	return s == VideoReady || s == VideoFailed
}

// Visibility controls who can list a video.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
)

// Video is a catalog entry.
type Video struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Status       VideoStatus `json:"status"`
	Visibility   Visibility  `json:"visibility"`
	HLSURL       string      `json:"hlsUrl,omitempty"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	Duration     int         `json:"duration"`
	SizeBytes    int64       `json:"fileSize,omitempty"`
	Tags         []string    `json:"tags,omitempty"`
	Category     string      `json:"category,omitempty"`
	Likes        int         `json:"likes"`
	Views        int         `json:"views"`
	CreatorID    string      `json:"creatorId"`
	Creator      *User       `json:"creator,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// VideoMeta is the metadata a creator attaches when finishing an upload.
type VideoMeta struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Visibility  Visibility `json:"visibility,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Category    string     `json:"category,omitempty"`
}

// Tip records an on-chain tip sent to a video's creator. The transfer itself
// happens on chain; this is only the platform-side ledger entry.
type Tip struct {
	ID          string          `json:"id"`
	VideoID     string          `json:"videoId"`
	FromUserID  string          `json:"fromUserId"`
	ToUserID    string          `json:"toUserId"`
	AmountSol   decimal.Decimal `json:"amountSol"`
	TxSignature string          `json:"txSignature"`
	CreatedAt   time.Time       `json:"createdAt"`
}
