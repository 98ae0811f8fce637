package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/service"
)

// Handlers contains the HTTP handlers for the mock authority API.
type Handlers struct {
	auth   *service.AuthService
	videos *service.VideoService
}

// NewHandlers creates the handler set.
func NewHandlers(auth *service.AuthService, videos *service.VideoService) *Handlers {
	return &Handlers{auth: auth, videos: videos}
}

// Nonce handles POST /v1/auth/nonce.
func (h *Handlers) Nonce(c *gin.Context) {
	var req struct {
		PublicKey string `json:"publicKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	challenge, err := h.auth.CreateChallenge(c.Request.Context(), req.PublicKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":   challenge.Nonce,
		"message": challenge.Message,
	})
}

// Verify handles POST /v1/auth/verify.
func (h *Handlers) Verify(c *gin.Context) {
	var req struct {
		PublicKey string `json:"publicKey" binding:"required"`
		Signature string `json:"signature" binding:"required"`
		Nonce     string `json:"nonce" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, user, err := h.auth.VerifyChallenge(c.Request.Context(), req.PublicKey, req.Signature, req.Nonce)
	if err != nil {
		// One message for every rejection; callers must not be able to
		// tell a consumed nonce from a bad signature.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired nonce"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me handles GET /v1/auth/me.
func (h *Handlers) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}

// Logout handles POST /v1/auth/logout.
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context(), currentToken(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign out"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// CreateUpload handles POST /v1/uploads.
func (h *Handlers) CreateUpload(c *gin.Context) {
	var req struct {
		Filename    string `json:"filename" binding:"required"`
		ContentType string `json:"contentType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	handle, err := h.videos.CreateUpload(c.Request.Context(), currentUser(c), req.Filename, req.ContentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create upload"})
		return
	}
	c.JSON(http.StatusOK, handle)
}

// StageUpload handles PUT /mock-s3/:id, the presigned-URL stand-in. It
// consumes the raw asset bytes the way a storage bucket would.
func (h *Handlers) StageUpload(c *gin.Context) {
	size, err := io.Copy(io.Discard, c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read body"})
		return
	}

	if err := h.videos.StageBytes(c.Param("id"), size); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown upload"})
		return
	}
	c.Status(http.StatusOK)
}

// CompleteUpload handles POST /v1/uploads/complete.
func (h *Handlers) CompleteUpload(c *gin.Context) {
	var req struct {
		VideoID     string          `json:"videoId" binding:"required"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Visibility  core.Visibility `json:"visibility"`
		Tags        []string        `json:"tags"`
		Category    string          `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	video, err := h.videos.CompleteUpload(c.Request.Context(), currentUser(c), req.VideoID, core.VideoMeta{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		Tags:        req.Tags,
		Category:    req.Category,
	})
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown upload"})
		case errors.Is(err, core.ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not the upload owner"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete upload"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"videoId": video.ID, "status": video.Status})
}

// UploadStatus handles GET /v1/uploads/:id/status.
func (h *Handlers) UploadStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.videos.UploadStatus(c.Param("id")))
}

// ListVideos handles GET /v1/videos. Malformed or out-of-range paging
// parameters fall back to the defaults; the response echoes the values
// actually used.
func (h *Handlers) ListVideos(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	items, total := h.videos.ListVideos(page, limit)
	totalPages := (total + limit - 1) / limit

	c.JSON(http.StatusOK, gin.H{
		"data": items,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}

// GetVideo handles GET /v1/videos/:id.
func (h *Handlers) GetVideo(c *gin.Context) {
	video, err := h.videos.GetVideo(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	c.JSON(http.StatusOK, video)
}

// GetUser handles GET /v1/users/:id.
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.auth.UserByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            user.ID,
		"walletAddress": user.WalletAddress,
		"username":      user.Username,
		"avatar":        user.Avatar,
		"bio":           user.Bio,
		"role":          user.Role,
		"createdAt":     user.CreatedAt,
		"videoCount":    h.videos.VideoCount(user.ID),
	})
}

// RecordTip handles POST /v1/tips.
func (h *Handlers) RecordTip(c *gin.Context) {
	var req struct {
		VideoID     string          `json:"videoId" binding:"required"`
		AmountSol   decimal.Decimal `json:"amountSol"`
		TxSignature string          `json:"txSignature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	tip, err := h.videos.RecordTip(c.Request.Context(), currentUser(c), req.VideoID, req.AmountSol, req.TxSignature)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, tip)
}

// ListTips handles GET /v1/videos/:id/tips.
func (h *Handlers) ListTips(c *gin.Context) {
	tips, total := h.videos.ListTips(c.Param("id"))
	if tips == nil {
		tips = []*core.Tip{}
	}
	c.JSON(http.StatusOK, gin.H{"tips": tips, "total": total})
}

// Health handles GET /health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
