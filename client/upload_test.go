package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ExpertVagabond/purplesquirrel-media-app/adapters/credentials"
	"github.com/ExpertVagabond/purplesquirrel-media-app/client"
	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
)

const testPollInterval = 10 * time.Millisecond

// mockAuthority is a scriptable stand-in for the upload endpoints, used to
// drive the pipeline through failure and polling scenarios the real stack
// will not produce on demand.
type mockAuthority struct {
	server *httptest.Server

	createStatus   int
	transferStatus int
	statusFn       func(call int64) (core.VideoStatus, int)

	statusCalls   atomic.Int64
	completeCalls atomic.Int64
}

func newMockAuthority(t *testing.T) *mockAuthority {
	t.Helper()
	m := &mockAuthority{
		createStatus:   http.StatusCreated,
		transferStatus: http.StatusOK,
		statusFn: func(int64) (core.VideoStatus, int) {
			return core.VideoProcessing, 50
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/uploads", func(w http.ResponseWriter, r *http.Request) {
		if m.createStatus >= 300 {
			w.WriteHeader(m.createStatus)
			return
		}
		w.WriteHeader(m.createStatus)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"uploadUrl": fmt.Sprintf("http://%s/mock-s3/v1", r.Host),
			"videoId":   "v1",
			"expiresIn": 3600,
		})
	})
	mux.HandleFunc("PUT /mock-s3/v1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(m.transferStatus)
	})
	mux.HandleFunc("POST /v1/uploads/complete", func(w http.ResponseWriter, r *http.Request) {
		m.completeCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"videoId": "v1",
			"status":  core.VideoProcessing,
		})
	})
	mux.HandleFunc("GET /v1/uploads/v1/status", func(w http.ResponseWriter, r *http.Request) {
		call := m.statusCalls.Add(1)
		status, progress := m.statusFn(call)
		if status == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"videoId":  "v1",
			"status":   status,
			"progress": progress,
		})
	})

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockAuthority) newUploader() *client.Uploader {
	api := client.NewREST(m.server.URL + "/v1")
	return client.NewUploader(api, zap.NewNop(), testPollInterval)
}

func beginUpload(t *testing.T, u *client.Uploader) error {
	t.Helper()
	return u.Begin(context.Background(), bytes.NewReader([]byte("fake video bytes")), "clip.mp4", "video/mp4", core.VideoMeta{Title: "Test"})
}

func waitForStage(t *testing.T, u *client.Uploader, stage core.UploadStage) {
	t.Helper()
	require.Eventually(t, func() bool {
		return u.State().Stage == stage
	}, 2*time.Second, time.Millisecond)
}

func TestUploadPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)
	creds := credentials.NewMemoryStore()
	api := stack.newAPI()
	session, _ := newSession(t, api, creds)
	require.NoError(t, session.SignIn(ctx))

	uploader := client.NewUploader(api, zap.NewNop(), testPollInterval)
	err := uploader.Begin(ctx, bytes.NewReader([]byte("fake video bytes")), "clip.mp4", "video/mp4", core.VideoMeta{
		Title:       "E2E Clip",
		Description: "Uploaded through the full stack",
	})
	require.NoError(t, err)

	waitForStage(t, uploader, core.StageReady)
	job := uploader.State()
	require.Equal(t, 100, job.Progress)
	require.NotEmpty(t, job.VideoID)
	require.Empty(t, job.Err)

	// The finished video is in the public catalog.
	video, err := api.GetVideo(ctx, job.VideoID)
	require.NoError(t, err)
	require.Equal(t, "E2E Clip", video.Title)
	require.Equal(t, core.VideoReady, video.Status)
}

func TestUploadTransferFailure(t *testing.T) {
	m := newMockAuthority(t)
	m.transferStatus = http.StatusInternalServerError
	uploader := m.newUploader()

	err := beginUpload(t, uploader)
	require.Error(t, err)

	job := uploader.State()
	require.Equal(t, core.StageFailed, job.Stage)
	require.NotEmpty(t, job.Err)
	require.Equal(t, "v1", job.VideoID)

	// Metadata is never attached to an upload whose bytes did not land.
	require.EqualValues(t, 0, m.completeCalls.Load())
}

func TestUploadCreateFailure(t *testing.T) {
	m := newMockAuthority(t)
	m.createStatus = http.StatusInternalServerError
	uploader := m.newUploader()

	err := beginUpload(t, uploader)
	require.Error(t, err)

	job := uploader.State()
	require.Equal(t, core.StageFailed, job.Stage)
	require.Empty(t, job.VideoID)
}

func TestUploadProcessingFailure(t *testing.T) {
	m := newMockAuthority(t)
	m.statusFn = func(int64) (core.VideoStatus, int) {
		return core.VideoFailed, 0
	}
	uploader := m.newUploader()

	require.NoError(t, beginUpload(t, uploader))

	waitForStage(t, uploader, core.StageFailed)
	require.NotEmpty(t, uploader.State().Err)
}

func TestPollingStopsAtTerminalStage(t *testing.T) {
	m := newMockAuthority(t)
	m.statusFn = func(int64) (core.VideoStatus, int) {
		return core.VideoReady, 100
	}
	uploader := m.newUploader()

	require.NoError(t, beginUpload(t, uploader))
	waitForStage(t, uploader, core.StageReady)

	// No further polls go out once the job is terminal.
	calls := m.statusCalls.Load()
	time.Sleep(10 * testPollInterval)
	require.Equal(t, calls, m.statusCalls.Load())
}

func TestPollingRetriesAfterError(t *testing.T) {
	m := newMockAuthority(t)
	m.statusFn = func(call int64) (core.VideoStatus, int) {
		if call <= 2 {
			return "", 0 // answered with a 500
		}
		return core.VideoReady, 100
	}
	uploader := m.newUploader()

	require.NoError(t, beginUpload(t, uploader))

	// Failed polls keep the job in processing; the pipeline recovers once
	// the authority answers again.
	waitForStage(t, uploader, core.StageReady)
	require.GreaterOrEqual(t, m.statusCalls.Load(), int64(3))
}

func TestResetCancelsPolling(t *testing.T) {
	m := newMockAuthority(t)
	uploader := m.newUploader()

	require.NoError(t, beginUpload(t, uploader))
	require.Equal(t, core.StageProcessing, uploader.State().Stage)

	uploader.Reset()

	job := uploader.State()
	require.Equal(t, core.StageIdle, job.Stage)
	require.Equal(t, 0, job.Progress)
	require.Empty(t, job.VideoID)
	require.Empty(t, job.Err)

	// The poll loop is gone; the call count settles.
	time.Sleep(2 * testPollInterval)
	calls := m.statusCalls.Load()
	time.Sleep(10 * testPollInterval)
	require.Equal(t, calls, m.statusCalls.Load())
}

func TestBeginWhileBusy(t *testing.T) {
	m := newMockAuthority(t)
	uploader := m.newUploader()

	require.NoError(t, beginUpload(t, uploader))
	require.Equal(t, core.StageProcessing, uploader.State().Stage)

	require.ErrorIs(t, beginUpload(t, uploader), core.ErrUploadBusy)

	// Reset discards the stuck job and frees the pipeline.
	uploader.Reset()
	require.NoError(t, beginUpload(t, uploader))
}
