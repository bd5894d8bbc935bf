package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/db/dbtest"
	"github.com/skillhub/skillhub/internal/social"
	"github.com/skillhub/skillhub/internal/storage"
	"github.com/skillhub/skillhub/pkg/config"
)

type rpcResult struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *JSONRPCError   `json:"error"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := dbtest.Open(t)
	store, err := storage.NewLocalStore(t.TempDir(), "http://media.test")
	require.NoError(t, err)

	svc := social.NewService(db.NewRepository(database.DB), nil, store,
		&config.SocialConfig{MaxMediaPerPost: 3, MaxPageSize: 50}, zap.NewNop())

	engine := gin.New()
	NewRouter(database, nil, svc, zap.NewNop()).SetupRoutes(engine)
	return engine
}

func call(t *testing.T, engine *gin.Engine, method string, params interface{}) rpcResult {
	t.Helper()
	body, err := json.Marshal(gin.H{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)
	return post(t, engine, body)
}

func post(t *testing.T, engine *gin.Engine, body []byte) rpcResult {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp rpcResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func register(t *testing.T, engine *gin.Engine, name string) uint {
	t.Helper()
	resp := call(t, engine, "user.register", gin.H{
		"username": name, "email": name + "@example.com", "password": "secret1",
	})
	require.Nil(t, resp.Error)
	var user struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &user))
	require.NotZero(t, user.ID)
	return user.ID
}

func TestHealth(t *testing.T) {
	engine := setupRouter(t)
	for _, path := range []string{"/health", "/.well-known/healthcheck.json"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"status":"OK"`)
	}
}

func TestJSONRPCProtocolErrors(t *testing.T) {
	engine := setupRouter(t)

	resp := post(t, engine, []byte("{not json"))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrParseError, resp.Error.Code)

	resp = post(t, engine, []byte(`{"jsonrpc":"1.0","id":1,"method":"user.get"}`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrInvalidRequest, resp.Error.Code)

	resp = call(t, engine, "user.nope", gin.H{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrMethodNotFound, resp.Error.Code)

	resp = call(t, engine, "user.get", gin.H{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrInvalidParams, resp.Error.Code, "user_id is required")
}

func TestSocialFlowOverRPC(t *testing.T) {
	engine := setupRouter(t)
	alice := register(t, engine, "alice")
	bob := register(t, engine, "bob")

	resp := call(t, engine, "user.register", gin.H{
		"username": "alice", "email": "other@example.com", "password": "secret1",
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrAlreadyExists, resp.Error.Code)

	resp = call(t, engine, "follow.follow", gin.H{"follower": bob, "following": alice})
	require.Nil(t, resp.Error)
	resp = call(t, engine, "follow.follow", gin.H{"follower": bob, "following": alice})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrAlreadyExists, resp.Error.Code)

	resp = call(t, engine, "follow.follow", gin.H{"follower": bob, "following": bob})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrInvalidParams, resp.Error.Code)

	resp = call(t, engine, "follow.get_follow_count", gin.H{"user_id": alice})
	require.Nil(t, resp.Error)
	var counts struct {
		Followers int64 `json:"follower_count"`
		Following int64 `json:"following_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &counts))
	assert.EqualValues(t, 1, counts.Followers)
	assert.EqualValues(t, 0, counts.Following)

	resp = call(t, engine, "post.create", gin.H{
		"author_id":   alice,
		"description": "knots",
		"is_public":   false,
		"media": []gin.H{{
			"file_name":    "knot.png",
			"content_type": "image/png",
			"data":         base64.StdEncoding.EncodeToString([]byte("png-bytes")),
		}},
	})
	require.Nil(t, resp.Error)
	var created struct {
		ID    uint `json:"id"`
		Media []struct {
			MediaType string `json:"media_type"`
			MediaURL  string `json:"media_url"`
		} `json:"media"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &created))
	require.Len(t, created.Media, 1)
	assert.Equal(t, "PHOTO", created.Media[0].MediaType)
	assert.Contains(t, created.Media[0].MediaURL, "http://media.test/")

	resp = call(t, engine, "post.get", gin.H{"post_id": created.ID, "viewer_id": bob})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrForbidden, resp.Error.Code)

	resp = call(t, engine, "post.get", gin.H{"post_id": created.ID, "viewer_id": alice})
	require.Nil(t, resp.Error)

	resp = call(t, engine, "like.add", gin.H{"post_id": created.ID, "user_id": bob})
	require.Nil(t, resp.Error)
	resp = call(t, engine, "like.add", gin.H{"post_id": created.ID, "user_id": bob})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrConflict, resp.Error.Code)

	resp = call(t, engine, "comment.add", gin.H{"post_id": created.ID, "user_id": bob, "text": "nice"})
	require.Nil(t, resp.Error)

	resp = call(t, engine, "notify.list", gin.H{"user_id": alice})
	require.Nil(t, resp.Error)
	var page social.Page
	require.NoError(t, json.Unmarshal(resp.Result, &page))
	// follow, like, comment
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 20, page.PageSize)

	resp = call(t, engine, "notify.mark_all_read", gin.H{"user_id": alice})
	require.Nil(t, resp.Error)
	resp = call(t, engine, "notify.unread_count", gin.H{"user_id": alice})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"user_id":`+jsonNumber(alice)+`,"unread":0}`, string(resp.Result))

	resp = call(t, engine, "post.delete", gin.H{"post_id": created.ID})
	require.Nil(t, resp.Error)
	resp = call(t, engine, "like.count", gin.H{"post_id": created.ID})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrNotFound, resp.Error.Code)

	resp = call(t, engine, "user.delete", gin.H{"user_id": bob})
	require.Nil(t, resp.Error)
	resp = call(t, engine, "user.get", gin.H{"user_id": bob})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrNotFound, resp.Error.Code)
}

func TestCreatePostRejectsBadMedia(t *testing.T) {
	engine := setupRouter(t)
	alice := register(t, engine, "alice")

	resp := call(t, engine, "post.create", gin.H{
		"author_id":   alice,
		"description": "x",
		"media":       []gin.H{{"file_name": "a.png", "content_type": "image/png", "data": "%%%"}},
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrInvalidParams, resp.Error.Code)

	media := make([]gin.H, 4)
	for i := range media {
		media[i] = gin.H{"file_name": "a.png", "content_type": "image/png", "data": "YQ=="}
	}
	resp = call(t, engine, "post.create", gin.H{"author_id": alice, "description": "x", "media": media})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrInvalidParams, resp.Error.Code)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{social.ErrNotFound, ErrNotFound},
		{&social.Error{Kind: social.ErrConflict, Op: "like"}, ErrConflict},
		{&social.Error{Kind: social.ErrUnavailable, Op: "x", Err: errors.New("db down")}, ErrUnavailable},
		{NewError(ErrInternalError, "boom"), ErrInternalError},
		{errors.New("plain"), ErrServerError},
	}
	for _, tt := range tests {
		code, _ := errorCode(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func jsonNumber(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
