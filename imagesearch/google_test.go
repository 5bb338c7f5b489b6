package imagesearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestGoogle(t *testing.T, h http.HandlerFunc) *Google {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	g, err := NewGoogle(context.Background(), "key", "engine", nil, option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	return g
}

func TestFirstImage(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Bingsu food photography", q.Get("q"))
		assert.Equal(t, "engine", q.Get("cx"))
		assert.Equal(t, "image", q.Get("searchType"))
		assert.Equal(t, "1", q.Get("num"))
		assert.Equal(t, "key", q.Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"link":"https://img.example/bingsu.jpg","title":"Bingsu"}]}`))
	})

	link, err := g.FirstImage(context.Background(), "Bingsu", "en")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/bingsu.jpg", link)
}

func TestFirstImageNoResults(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"searchInformation":{"totalResults":"0"}}`))
	})

	_, err := g.FirstImage(context.Background(), "Bingsu", "ko")
	assert.True(t, errors.Is(err, ErrNoImage))
	assert.Equal(t, NoImage, URLOrFallback(context.Background(), g, "Bingsu", "ko", nil))
}

func TestFirstImageServerError(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota"}}`))
	})

	_, err := g.FirstImage(context.Background(), "Bingsu", "en")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoImage))
	assert.Equal(t, NoImage, URLOrFallback(context.Background(), g, "Bingsu", "en", nil))
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "Hotteok 음식 사진", Query("Hotteok", "ko"))
	assert.Equal(t, "Hotteok food photography", Query("Hotteok", "en"))
}

func TestNewGoogleRequiresCredentials(t *testing.T) {
	_, err := NewGoogle(context.Background(), "", "engine", nil)
	assert.Error(t, err)
	assert.Equal(t, NoImage, URLOrFallback(context.Background(), nil, "x", "en", nil))
}
