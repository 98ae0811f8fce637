package client

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
)

// DefaultPollInterval is the gap between processing-status polls.
const DefaultPollInterval = 5 * time.Second

// Uploader drives one media asset through the upload pipeline: register the
// upload, transfer the bytes to the stage target, attach metadata, then poll
// the processing job to a terminal state.
//
// Every state mutation is tagged with a generation number. Reset bumps the
// generation, so responses belonging to a superseded job can never corrupt
// the state of a later one.
type Uploader struct {
	api *REST
	log *zap.Logger

	interval time.Duration

	mu         sync.Mutex
	job        core.UploadJob
	gen        uint64
	cancelPoll context.CancelFunc
}

// NewUploader creates an upload pipeline. A pollInterval of zero selects the
// default.
func NewUploader(api *REST, log *zap.Logger, pollInterval time.Duration) *Uploader {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Uploader{
		api:      api,
		log:      log,
		interval: pollInterval,
		job:      core.IdleJob(),
	}
}

// State returns a snapshot of the current job.
func (u *Uploader) State() core.UploadJob {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.job
}

// Begin runs the staging steps of an upload and, on success, leaves a
// background poller watching the processing job. It returns once the job has
// reached the processing stage (or failed earlier); the terminal outcome is
// observed through State.
//
// Begin refuses to start while another job is mid-flight; Reset first to
// discard it.
func (u *Uploader) Begin(ctx context.Context, file io.Reader, filename, contentType string, meta core.VideoMeta) error {
	u.mu.Lock()
	if u.job.Stage == core.StageUploading || u.job.Stage == core.StageProcessing {
		u.mu.Unlock()
		return core.ErrUploadBusy
	}
	u.gen++
	gen := u.gen
	u.job = core.UploadJob{Stage: core.StageUploading}
	u.mu.Unlock()

	// Step 1: register the upload. The job identifier is recorded as soon
	// as it is known, before any bytes move, so later failures can still be
	// inspected against it.
	created, err := u.api.CreateUpload(ctx, filename, contentType)
	if err != nil {
		return u.fail(gen, fmt.Errorf("failed to create upload: %w", err))
	}
	u.setVideoID(gen, created.VideoID)

	// Step 2: move the bytes. Progress is coarse: 0 until the transfer
	// lands, then 100.
	if err := u.api.TransferBytes(ctx, created.UploadURL, contentType, file); err != nil {
		return u.fail(gen, fmt.Errorf("upload transfer failed: %w", err))
	}
	u.setProgress(gen, 100)

	// Step 3: attach the final metadata.
	if _, err := u.api.CompleteUpload(ctx, created.VideoID, meta); err != nil {
		return u.fail(gen, fmt.Errorf("failed to complete upload: %w", err))
	}

	// Step 4: hand off to the processing poller. The poll context is
	// detached from the caller's: polling outlives Begin and stops only on
	// a terminal status or Reset.
	pollCtx, cancel := context.WithCancel(context.Background())

	u.mu.Lock()
	if gen != u.gen {
		// Reset won the race while we were staging; drop the job.
		u.mu.Unlock()
		cancel()
		return nil
	}
	u.job.Stage = core.StageProcessing
	u.job.Progress = 0
	u.cancelPoll = cancel
	u.mu.Unlock()

	go u.poll(pollCtx, gen, created.VideoID)
	return nil
}

// poll watches one processing job. Ticks are serialized: the next status
// request only goes out after the previous one resolved, so a slow authority
// can never cause two concurrent polls or double terminal handling.
func (u *Uploader) poll(ctx context.Context, gen uint64, videoID string) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := u.api.UploadStatus(ctx, videoID)
		if err != nil {
			// A missed poll is not a pipeline failure; the job is still
			// processing as far as anyone knows.
			u.log.Debug("status poll failed", zap.String("video_id", videoID), zap.Error(err))
			continue
		}

		switch status.Status {
		case core.VideoReady:
			u.finish(gen)
			return
		case core.VideoFailed:
			u.fail(gen, fmt.Errorf("video processing failed"))
			return
		}
	}
}

// Reset discards the current job from any state: the poll timer is stopped
// synchronously and the state returns to idle. An in-flight byte transfer is
// not interrupted, but its eventual outcome belongs to the old generation
// and is ignored.
func (u *Uploader) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.gen++
	if u.cancelPoll != nil {
		u.cancelPoll()
		u.cancelPoll = nil
	}
	u.job = core.IdleJob()
}

// fail moves the job to the failed terminal state, clearing any active poll
// first so no timer survives the transition.
func (u *Uploader) fail(gen uint64, err error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if gen != u.gen {
		return err
	}
	if u.cancelPoll != nil {
		u.cancelPoll()
		u.cancelPoll = nil
	}
	u.job.Stage = core.StageFailed
	u.job.Err = err.Error()
	u.log.Warn("upload failed", zap.String("video_id", u.job.VideoID), zap.Error(err))
	return err
}

// finish moves the job to ready.
func (u *Uploader) finish(gen uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if gen != u.gen {
		return
	}
	if u.cancelPoll != nil {
		u.cancelPoll()
		u.cancelPoll = nil
	}
	u.job.Stage = core.StageReady
	u.job.Progress = 100
	u.log.Info("upload ready", zap.String("video_id", u.job.VideoID))
}

func (u *Uploader) setVideoID(gen uint64, videoID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if gen != u.gen {
		return
	}
	u.job.VideoID = videoID
}

func (u *Uploader) setProgress(gen uint64, progress int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if gen != u.gen {
		return
	}
	u.job.Progress = progress
}
