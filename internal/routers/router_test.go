package routers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haierkeys/gift-share-service/internal/app"
	"github.com/haierkeys/gift-share-service/internal/dao"
	"github.com/haierkeys/gift-share-service/pkg/validator"

	"github.com/creasty/defaults"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Install()
}

type envelope struct {
	Code   int             `json:"code"`
	Status bool            `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, mutate func(*app.AppConfig)) (*gin.Engine, *app.App) {
	t.Helper()

	cfg := new(app.AppConfig)
	require.NoError(t, defaults.Set(cfg))
	cfg.Database.Path = filepath.Join(t.TempDir(), "api.sqlite3")
	cfg.Database.MaxOpenConns = 1
	cfg.Storage.Type = "none"
	cfg.Share.PublicBaseURL = ""
	cfg.Share.GracePeriod = "0"
	cfg.Tracer.JaegerAgent = ""
	if mutate != nil {
		mutate(cfg)
	}

	db, err := dao.NewDBEngineWithConfig(cfg.GetDatabaseConfig(), zap.NewNop())
	require.NoError(t, err)
	a, err := app.NewApp(cfg, zap.NewNop(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	enLocale := en.New()
	return NewRouter(a, ut.New(enLocale, enLocale)), a
}

func do(r *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestShareLifecycleOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w, env := do(r, http.MethodPost, "/api/gift/submit", `{"recipientName":"Ada","message":"happy birthday"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.True(t, env.Status)

	var created struct {
		Token       string `json:"token"`
		ShareURL    string `json:"shareUrl"`
		AccessLimit int64  `json:"accessLimit"`
		Tier        string `json:"tier"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Len(t, created.Token, 32)
	assert.Equal(t, "http://example.com/gift/view?token="+created.Token, created.ShareURL)
	assert.Equal(t, int64(3), created.AccessLimit)
	assert.Equal(t, "anonymous", created.Tier)

	for i := 3; i > 0; i-- {
		w, env = do(r, http.MethodGet, "/api/gift/share?token="+created.Token, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var view struct {
			Payload struct {
				RecipientName string `json:"recipientName"`
				Message       string `json:"message"`
			} `json:"payload"`
			AccessRemaining int64 `json:"accessRemaining"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &view))
		assert.Equal(t, "Ada", view.Payload.RecipientName)
		assert.Equal(t, int64(i-1), view.AccessRemaining)
	}

	w, env = do(r, http.MethodGet, "/api/gift/share?token="+created.Token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1001, env.Code)

	// 另一种类型的表里查不到
	w, _ = do(r, http.MethodGet, "/api/letter/share?token="+created.Token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmit_InvalidParams(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w, env := do(r, http.MethodPost, "/api/letter/submit", `{"recipient":"Bo"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 401, env.Code)

	w, env = do(r, http.MethodPost, "/api/gift/submit", `{"recipientName":"Ada","message":"x","mediaUrl":"ftp://nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 401, env.Code)
}

func TestConsume_MalformedTokenIsNotFound(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	for _, target := range []string{"/api/gift/share", "/api/gift/share?token=short", "/api/letter/share?token=" + strings.Repeat("!", 43)} {
		w, env := do(r, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Equal(t, 1001, env.Code, target)
	}
}

func TestUnknownArtifact(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w, env := do(r, http.MethodPost, "/api/postcard/submit", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1004, env.Code)

	w, env = do(r, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 404, env.Code)
}

func TestSubmit_RateLimited(t *testing.T) {
	r, _ := newTestRouter(t, func(c *app.AppConfig) {
		c.Limit.FillInterval = "1h"
		c.Limit.SubmitCapacity = 1
	})

	w, _ := do(r, http.MethodPost, "/api/letter/submit", `{"recipient":"Bo","content":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := do(r, http.MethodPost, "/api/letter/submit", `{"recipient":"Bo","content":"hello"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 429, env.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestHealthAndVersion(t *testing.T) {
	r, a := newTestRouter(t, nil)
	require.NoError(t, a.EnsureSchema(context.Background()))

	w, _ := do(r, http.MethodPost, "/api/letter/submit", `{"recipient":"Bo","content":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := do(r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var health struct {
		Status    string `json:"status"`
		Database  string `json:"database"`
		Artifacts map[string]struct {
			Live int64 `json:"live"`
		} `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "connected", health.Database)
	assert.Equal(t, int64(1), health.Artifacts[app.ArtifactLetter].Live)
	assert.Equal(t, int64(0), health.Artifacts[app.ArtifactGift].Live)

	w, env = do(r, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), app.VersionInfo().Version)
	assert.Equal(t, app.VersionInfo().Version, w.Header().Get("X-App-Version"))
}

func TestPrivateRouter_Metrics(t *testing.T) {
	r, a := newTestRouter(t, nil)
	do(r, http.MethodGet, "/api/gift/share?token="+strings.Repeat("a", 32), "")

	pr := NewPrivateRouter(a)
	w := httptest.NewRecorder()
	pr.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), app.MetricsNamespace+"_")

	w = httptest.NewRecorder()
	pr.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memstats")
}
