// Package client implements the application side of the platform: a REST
// client for the authority API, the wallet-auth session controller and the
// upload pipeline state machine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
)

// DefaultTimeout bounds every API round trip.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the authority.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Unauthorized reports whether the error is a 401, meaning the session
// credential is invalid and must be discarded.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// REST talks to the authority API. The session token is cached in memory for
// the process lifetime; persistence is the credential store's job.
type REST struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewREST creates a client for the authority at baseURL (including the /v1
// prefix, e.g. "http://localhost:3000/v1").
func NewREST(baseURL string) *REST {
	return &REST{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// SetToken caches the bearer credential for subsequent requests.
func (r *REST) SetToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = token
}

// Token returns the cached bearer credential, or "".
func (r *REST) Token() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.token
}

// ClearToken drops the cached bearer credential.
func (r *REST) ClearToken() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = ""
}

// do sends one JSON round trip and decodes the answer into out (when non-nil).
func (r *REST) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := r.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		msg := "request failed"
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			if errBody.Message != "" {
				msg = errBody.Message
			} else if errBody.Error != "" {
				msg = errBody.Error
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// NonceResponse is the issued challenge.
type NonceResponse struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

// GetNonce requests a challenge bound to publicKey.
func (r *REST) GetNonce(ctx context.Context, publicKey string) (*NonceResponse, error) {
	var out NonceResponse
	err := r.do(ctx, http.MethodPost, "/auth/nonce", map[string]string{"publicKey": publicKey}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyResponse is a freshly minted session.
type VerifyResponse struct {
	Token string     `json:"token"`
	User  *core.User `json:"user"`
}

// VerifySignature redeems a signed challenge for a session credential.
func (r *REST) VerifySignature(ctx context.Context, publicKey, signature, nonce string) (*VerifyResponse, error) {
	var out VerifyResponse
	err := r.do(ctx, http.MethodPost, "/auth/verify", map[string]string{
		"publicKey": publicKey,
		"signature": signature,
		"nonce":     nonce,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMe fetches the profile behind the current credential.
func (r *REST) GetMe(ctx context.Context) (*core.User, error) {
	var out struct {
		User *core.User `json:"user"`
	}
	if err := r.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout revokes the current credential on the authority.
func (r *REST) Logout(ctx context.Context) error {
	return r.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// CreateUploadResponse is the stage target for a registered upload.
type CreateUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	VideoID   string `json:"videoId"`
	ExpiresIn int    `json:"expiresIn"`
}

// CreateUpload registers an upload and returns its stage target.
func (r *REST) CreateUpload(ctx context.Context, filename, contentType string) (*CreateUploadResponse, error) {
	var out CreateUploadResponse
	err := r.do(ctx, http.MethodPost, "/uploads", map[string]string{
		"filename":    filename,
		"contentType": contentType,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TransferBytes puts the raw asset on the stage target. The target URL is
// absolute and unauthenticated, like a presigned bucket URL.
func (r *REST) TransferBytes(ctx context.Context, uploadURL, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("failed to build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: "transfer rejected"}
	}
	return nil
}

// CompleteUploadResponse acknowledges a finished registration.
type CompleteUploadResponse struct {
	VideoID string           `json:"videoId"`
	Status  core.VideoStatus `json:"status"`
}

// CompleteUpload attaches final metadata to a staged upload.
func (r *REST) CompleteUpload(ctx context.Context, videoID string, meta core.VideoMeta) (*CompleteUploadResponse, error) {
	var out CompleteUploadResponse
	err := r.do(ctx, http.MethodPost, "/uploads/complete", map[string]interface{}{
		"videoId":     videoID,
		"title":       meta.Title,
		"description": meta.Description,
		"visibility":  meta.Visibility,
		"tags":        meta.Tags,
		"category":    meta.Category,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadStatusResponse is one poll answer for a processing job.
type UploadStatusResponse struct {
	VideoID  string           `json:"videoId"`
	Status   core.VideoStatus `json:"status"`
	Progress int              `json:"progress"`
}

// UploadStatus polls the processing status of a job.
func (r *REST) UploadStatus(ctx context.Context, videoID string) (*UploadStatusResponse, error) {
	var out UploadStatusResponse
	if err := r.do(ctx, http.MethodGet, "/uploads/"+videoID+"/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VideoPage is one page of the public catalog.
type VideoPage struct {
	Data       []*core.Video `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		Total      int `json:"total"`
		TotalPages int `json:"totalPages"`
	} `json:"pagination"`
}

// ListVideos fetches a catalog page.
func (r *REST) ListVideos(ctx context.Context, page, limit int) (*VideoPage, error) {
	var out VideoPage
	path := fmt.Sprintf("/videos?page=%d&limit=%d", page, limit)
	if err := r.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetVideo fetches one catalog entry.
func (r *REST) GetVideo(ctx context.Context, id string) (*core.Video, error) {
	var out core.Video
	if err := r.do(ctx, http.MethodGet, "/videos/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordTip records an on-chain tip with the platform.
func (r *REST) RecordTip(ctx context.Context, videoID string, amountSol decimal.Decimal, txSignature string) (*core.Tip, error) {
	var out core.Tip
	err := r.do(ctx, http.MethodPost, "/tips", map[string]interface{}{
		"videoId":     videoID,
		"amountSol":   amountSol,
		"txSignature": txSignature,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
