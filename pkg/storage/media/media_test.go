package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Delete(t *testing.T) {
	var gotToken string
	var gotBody deleteRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotToken = r.Header.Get(UploadTokenHeader)
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewClient(&Config{DeleteEndpoint: srv.URL, UploadSecret: "s3cret"})
	require.NoError(t, err)

	require.NoError(t, c.Delete(context.Background(), "gifts/a.png", "gifts/b.mp4"))
	assert.Equal(t, "s3cret", gotToken)
	assert.Equal(t, []string{"gifts/a.png", "gifts/b.mp4"}, gotBody.Paths)
}

func TestClient_DeleteNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, _ := NewClient(&Config{DeleteEndpoint: srv.URL, UploadSecret: "x"})
	assert.Error(t, c.Delete(context.Background(), "a"))
}

func TestClient_NotConfigured(t *testing.T) {
	c, _ := NewClient(&Config{})
	assert.ErrorIs(t, c.Delete(context.Background(), "a"), ErrNotConfigured)
	assert.NoError(t, c.Delete(context.Background()))
}
