package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
)

// DefaultUploadURLTTL is how long a stage target stays writable, in seconds.
const DefaultUploadURLTTL = 3600

// UserLookup resolves user records; satisfied by AuthService.
type UserLookup interface {
	UserByID(id string) (*core.User, error)
}

// StagedUpload tracks one registered upload on the authority side.
type StagedUpload struct {
	VideoID     string
	OwnerID     string
	Filename    string
	ContentType string
	SizeBytes   int64
	Staged      bool // Bytes landed on the stage target
	CreatedAt   time.Time
}

// UploadHandle is what a client needs to move bytes: the stage target and the
// job identifier to track processing with.
type UploadHandle struct {
	UploadURL string `json:"uploadUrl"`
	VideoID   string `json:"videoId"`
	ExpiresIn int    `json:"expiresIn"`
}

// StatusReport is the answer to a poll for a processing job.
type StatusReport struct {
	VideoID  string           `json:"videoId"`
	Status   core.VideoStatus `json:"status"`
	Progress int              `json:"progress"`
}

// VideoService owns the catalog, the upload registry and the simulated
// processing jobs of the mock authority.
type VideoService struct {
	users  UserLookup
	events ports.EventPublisher
	log    *zap.Logger

	publicBaseURL   string
	processingDelay time.Duration

	mu      sync.RWMutex
	videos  map[string]*core.Video
	uploads map[string]*StagedUpload
	tips    map[string][]*core.Tip
	timers  []*time.Timer
}

// NewVideoService creates a new video service. publicBaseURL is the address
// clients can reach the server on, used to mint stage-target URLs.
// processingDelay is how long a completed upload sits in "processing" before
// flipping to "ready"; zero flips immediately.
func NewVideoService(users UserLookup, events ports.EventPublisher, log *zap.Logger, publicBaseURL string, processingDelay time.Duration) *VideoService {
	return &VideoService{
		users:           users,
		events:          events,
		log:             log,
		publicBaseURL:   publicBaseURL,
		processingDelay: processingDelay,
		videos:          make(map[string]*core.Video),
		uploads:         make(map[string]*StagedUpload),
		tips:            make(map[string][]*core.Tip),
	}
}

// CreateUpload registers a new upload and returns its stage target. The job
// identifier exists from this point on, before any bytes move.
func (s *VideoService) CreateUpload(ctx context.Context, owner *core.User, filename, contentType string) (*UploadHandle, error) {
	videoID := uuid.New().String()

	s.mu.Lock()
	s.uploads[videoID] = &StagedUpload{
		VideoID:     videoID,
		OwnerID:     owner.ID,
		Filename:    filename,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}
	s.mu.Unlock()

	return &UploadHandle{
		UploadURL: fmt.Sprintf("%s/mock-s3/%s", s.publicBaseURL, videoID),
		VideoID:   videoID,
		ExpiresIn: DefaultUploadURLTTL,
	}, nil
}

// StageBytes records that the asset bytes arrived on the stage target.
func (s *VideoService) StageBytes(videoID string, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	upload, ok := s.uploads[videoID]
	if !ok {
		return core.ErrNotFound
	}
	upload.Staged = true
	upload.SizeBytes = size
	return nil
}

// CompleteUpload attaches final metadata to a staged upload and starts the
// simulated processing job.
func (s *VideoService) CompleteUpload(ctx context.Context, owner *core.User, videoID string, meta core.VideoMeta) (*core.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	upload, ok := s.uploads[videoID]
	if !ok {
		return nil, core.ErrNotFound
	}
	if upload.OwnerID != owner.ID {
		return nil, core.ErrUnauthorized
	}

	title := meta.Title
	if title == "" {
		title = "Untitled Video"
	}
	visibility := meta.Visibility
	if visibility == "" {
		visibility = core.VisibilityPublic
	}

	now := time.Now()
	video := &core.Video{
		ID:           videoID,
		Title:        title,
		Description:  meta.Description,
		Status:       core.VideoProcessing,
		Visibility:   visibility,
		ThumbnailURL: fmt.Sprintf("https://picsum.photos/seed/%s/640/360", videoID),
		SizeBytes:    upload.SizeBytes,
		Tags:         meta.Tags,
		Category:     meta.Category,
		CreatorID:    owner.ID,
		Creator:      owner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.videos[videoID] = video

	if s.processingDelay <= 0 {
		s.finishProcessingLocked(video)
	} else {
		timer := time.AfterFunc(s.processingDelay, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.finishProcessingLocked(video)
		})
		s.timers = append(s.timers, timer)
	}

	return video, nil
}

// finishProcessingLocked flips a video to ready. Callers hold s.mu.
func (s *VideoService) finishProcessingLocked(video *core.Video) {
	if video.Status.Terminal() {
		return
	}
	video.Status = core.VideoReady
	video.HLSURL = "https://test-streams.mux.dev/x36xhzz/x36xhzz.m3u8"
	video.Duration = 60
	video.UpdatedAt = time.Now()

	if s.events != nil {
		if err := s.events.PublishVideoReady(context.Background(), video.ID, video.CreatorID); err != nil {
			s.log.Warn("failed to publish video-ready event", zap.Error(err))
		}
	}
	s.log.Info("video ready", zap.String("video_id", video.ID))
}

// UploadStatus reports the processing status for a job. Unknown jobs report
// "processing": the asset may be staged but not yet registered.
func (s *VideoService) UploadStatus(videoID string) *StatusReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[videoID]
	if !ok {
		return &StatusReport{VideoID: videoID, Status: core.VideoProcessing, Progress: 50}
	}

	progress := 50
	switch video.Status {
	case core.VideoReady:
		progress = 100
	case core.VideoFailed:
		progress = 0
	}
	return &StatusReport{VideoID: videoID, Status: video.Status, Progress: progress}
}

// ListVideos returns the public, ready catalog page, newest first.
func (s *VideoService) ListVideos(page, limit int) ([]*core.Video, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	s.mu.RLock()
	all := make([]*core.Video, 0, len(s.videos))
	for _, v := range s.videos {
		if v.Visibility == core.VisibilityPublic && v.Status == core.VideoReady {
			all = append(all, v)
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total
}

// GetVideo retrieves a catalog entry.
func (s *VideoService) GetVideo(id string) (*core.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.videos[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return video, nil
}

// VideoCount returns how many videos a user has published.
func (s *VideoService) VideoCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, v := range s.videos {
		if v.CreatorID == userID {
			n++
		}
	}
	return n
}

// RecordTip stores the platform-side record of an on-chain tip.
func (s *VideoService) RecordTip(ctx context.Context, from *core.User, videoID string, amount decimal.Decimal, txSignature string) (*core.Tip, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("tip amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[videoID]
	if !ok {
		return nil, core.ErrNotFound
	}

	tip := &core.Tip{
		ID:          uuid.New().String(),
		VideoID:     videoID,
		FromUserID:  from.ID,
		ToUserID:    video.CreatorID,
		AmountSol:   amount,
		TxSignature: txSignature,
		CreatedAt:   time.Now(),
	}
	s.tips[videoID] = append(s.tips[videoID], tip)
	return tip, nil
}

// ListTips returns a video's tips and their total amount.
func (s *VideoService) ListTips(videoID string) ([]*core.Tip, decimal.Decimal) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tips := s.tips[videoID]
	total := decimal.Zero
	for _, t := range tips {
		total = total.Add(t.AmountSol)
	}
	return tips, total
}

// Stop cancels pending processing timers. Used on server shutdown.
func (s *VideoService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

// SeedDemo populates the catalog with the demo creator and a few ready
// videos so a fresh server has something to show.
func (s *VideoService) SeedDemo(users interface{ AddUser(*core.User) }) {
	demo := &core.User{
		ID:            "demo_user_1",
		WalletAddress: "DemoWa11etAddress111111111111111111111111111",
		Username:      "purple_squirrel",
		Bio:           "Demo creator account",
		Role:          core.RoleCreator,
		CreatedAt:     time.Now(),
	}
	users.AddUser(demo)

	samples := []struct {
		title, description string
	}{
		{"Welcome to Purple Squirrel Media", "Introduction to our decentralized video platform"},
		{"Solana Mobile Stack Overview", "Building dApps for Solana Mobile"},
		{"Web3 Video Monetization", "How creators earn on PSM"},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sample := range samples {
		id := uuid.New().String()
		now := time.Now()
		s.videos[id] = &core.Video{
			ID:           id,
			Title:        sample.title,
			Description:  sample.description,
			Status:       core.VideoReady,
			Visibility:   core.VisibilityPublic,
			HLSURL:       "https://test-streams.mux.dev/x36xhzz/x36xhzz.m3u8",
			ThumbnailURL: fmt.Sprintf("https://picsum.photos/seed/%s/640/360", id),
			Duration:     90 + i*120,
			CreatorID:    demo.ID,
			Creator:      demo,
			CreatedAt:    now.Add(-time.Duration(i+1) * 24 * time.Hour),
			UpdatedAt:    now,
		}
	}
}
