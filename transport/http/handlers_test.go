package http_test

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ExpertVagabond/purplesquirrel-media-app/adapters/store"
	"github.com/ExpertVagabond/purplesquirrel-media-app/adapters/tokenizer"
	"github.com/ExpertVagabond/purplesquirrel-media-app/service"
	transport "github.com/ExpertVagabond/purplesquirrel-media-app/transport/http"
)

func newRouter(t *testing.T) (*gin.Engine, *service.VideoService, *service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := service.NewAuthService(
		store.NewMemoryNonceStore(),
		store.NewMemoryTokenStore(),
		tokenizer.NewJWTTokenizer("test-secret"),
		nil,
		zap.NewNop(),
	)
	videos := service.NewVideoService(auth, nil, zap.NewNop(), "http://localhost:3000", 0)
	t.Cleanup(videos.Stop)
	return transport.SetupRouter(auth, videos), videos, auth
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// signInOverHTTP runs the wallet handshake through the API and returns the
// session token.
func signInOverHTTP(t *testing.T, router *gin.Engine) string {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	address := base58.Encode(pub)

	w := doJSON(router, http.MethodPost, "/v1/auth/nonce", "", map[string]string{"publicKey": address})
	require.Equal(t, http.StatusOK, w.Code)
	nonceBody := decodeBody(t, w)
	message := nonceBody["message"].(string)
	nonce := nonceBody["nonce"].(string)

	signature := base58.Encode(ed25519.Sign(priv, []byte(message)))
	w = doJSON(router, http.MethodPost, "/v1/auth/verify", "", map[string]string{
		"publicKey": address,
		"signature": signature,
		"nonce":     nonce,
	})
	require.Equal(t, http.StatusOK, w.Code)
	return decodeBody(t, w)["token"].(string)
}

func TestHealth(t *testing.T) {
	router, _, _ := newRouter(t)
	w := doJSON(router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestNonceRequiresPublicKey(t *testing.T) {
	router, _, _ := newRouter(t)
	w := doJSON(router, http.MethodPost, "/v1/auth/nonce", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyRejectionsAreOpaque(t *testing.T) {
	router, _, _ := newRouter(t)

	// Unknown nonce and replayed nonce produce the identical rejection.
	w := doJSON(router, http.MethodPost, "/v1/auth/verify", "", map[string]string{
		"publicKey": "anykey",
		"signature": "anysig",
		"nonce":     "neverissued",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	unknownBody := w.Body.String()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	address := base58.Encode(pub)

	w = doJSON(router, http.MethodPost, "/v1/auth/nonce", "", map[string]string{"publicKey": address})
	nonceBody := decodeBody(t, w)
	verifyReq := map[string]string{
		"publicKey": address,
		"signature": base58.Encode(ed25519.Sign(priv, []byte(nonceBody["message"].(string)))),
		"nonce":     nonceBody["nonce"].(string),
	}

	w = doJSON(router, http.MethodPost, "/v1/auth/verify", "", verifyReq)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/v1/auth/verify", "", verifyReq)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, unknownBody, w.Body.String())
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	router, _, _ := newRouter(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/v1/auth/me"},
		{http.MethodPost, "/v1/auth/logout"},
		{http.MethodPost, "/v1/uploads"},
		{http.MethodPost, "/v1/uploads/complete"},
		{http.MethodPost, "/v1/tips"},
	} {
		w := doJSON(router, tc.method, tc.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
		require.Equal(t, "Unauthorized", decodeBody(t, w)["error"])
	}

	w := doJSON(router, http.MethodGet, "/v1/auth/me", "forged-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeAndLogout(t *testing.T) {
	router, _, _ := newRouter(t)
	token := signInOverHTTP(t, router)

	w := doJSON(router, http.MethodGet, "/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decodeBody(t, w)["user"].(map[string]interface{})
	require.NotEmpty(t, user["id"])
	require.True(t, strings.HasPrefix(user["username"].(string), "user_"))

	w = doJSON(router, http.MethodPost, "/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The revoked token no longer works.
	w = doJSON(router, http.MethodGet, "/v1/auth/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadFlowOverHTTP(t *testing.T) {
	router, _, _ := newRouter(t)
	token := signInOverHTTP(t, router)

	w := doJSON(router, http.MethodPost, "/v1/uploads", token, map[string]string{
		"filename":    "clip.mp4",
		"contentType": "video/mp4",
	})
	require.Equal(t, http.StatusOK, w.Code)
	handle := decodeBody(t, w)
	videoID := handle["videoId"].(string)
	require.Contains(t, handle["uploadUrl"].(string), "/mock-s3/"+videoID)

	req := httptest.NewRequest(http.MethodPut, "/mock-s3/"+videoID, strings.NewReader("fake video bytes"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	w = doJSON(router, http.MethodPost, "/v1/uploads/complete", token, map[string]interface{}{
		"videoId": videoID,
		"title":   "HTTP Flow",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ready", decodeBody(t, w)["status"])

	w = doJSON(router, http.MethodGet, "/v1/uploads/"+videoID+"/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decodeBody(t, w)
	require.Equal(t, "ready", status["status"])
	require.EqualValues(t, 100, status["progress"])

	w = doJSON(router, http.MethodGet, "/v1/videos/"+videoID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "HTTP Flow", decodeBody(t, w)["title"])
}

func TestStageUnknownUpload(t *testing.T) {
	router, _, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/mock-s3/no-such-upload", strings.NewReader("bytes"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusForUnknownJob(t *testing.T) {
	router, _, _ := newRouter(t)

	w := doJSON(router, http.MethodGet, "/v1/uploads/mystery/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decodeBody(t, w)
	require.Equal(t, "processing", status["status"])
	require.EqualValues(t, 50, status["progress"])
}

func TestCatalogAndUserProfile(t *testing.T) {
	router, videos, auth := newRouter(t)
	videos.SeedDemo(auth)

	w := doJSON(router, http.MethodGet, "/v1/videos?page=1&limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeBody(t, w)
	require.Len(t, page["data"], 2)
	pagination := page["pagination"].(map[string]interface{})
	require.EqualValues(t, 3, pagination["total"])
	require.EqualValues(t, 2, pagination["totalPages"])

	w = doJSON(router, http.MethodGet, "/v1/users/demo_user_1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decodeBody(t, w)
	require.Equal(t, "purple_squirrel", profile["username"])
	require.EqualValues(t, 3, profile["videoCount"])

	w = doJSON(router, http.MethodGet, "/v1/users/nobody", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListVideosBadPagingParams(t *testing.T) {
	router, videos, auth := newRouter(t)
	videos.SeedDemo(auth)

	// Zero, negative and non-numeric paging values fall back to the
	// defaults instead of erroring.
	for _, query := range []string{
		"limit=0",
		"limit=-3",
		"limit=abc",
		"page=0&limit=0",
		"page=xyz",
	} {
		w := doJSON(router, http.MethodGet, "/v1/videos?"+query, "", nil)
		require.Equal(t, http.StatusOK, w.Code, query)

		pagination := decodeBody(t, w)["pagination"].(map[string]interface{})
		require.GreaterOrEqual(t, pagination["page"].(float64), float64(1), query)
		require.GreaterOrEqual(t, pagination["limit"].(float64), float64(1), query)
		require.EqualValues(t, 3, pagination["total"], query)
	}

	w := doJSON(router, http.MethodGet, "/v1/videos?limit=0", "", nil)
	pagination := decodeBody(t, w)["pagination"].(map[string]interface{})
	require.EqualValues(t, 1, pagination["page"])
	require.EqualValues(t, 20, pagination["limit"])
	require.EqualValues(t, 1, pagination["totalPages"])
}

func TestTipsOverHTTP(t *testing.T) {
	router, videos, auth := newRouter(t)
	videos.SeedDemo(auth)
	token := signInOverHTTP(t, router)

	w := doJSON(router, http.MethodGet, "/v1/videos", "", nil)
	page := decodeBody(t, w)
	videoID := page["data"].([]interface{})[0].(map[string]interface{})["id"].(string)

	w = doJSON(router, http.MethodPost, "/v1/tips", token, map[string]interface{}{
		"videoId":     videoID,
		"amountSol":   "0.5",
		"txSignature": "tx-abc",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodGet, "/v1/videos/"+videoID+"/tips", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Len(t, body["tips"], 1)
	require.Equal(t, "0.5", body["total"])
}

func TestCORSPreflight(t *testing.T) {
	router, _, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/videos", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
