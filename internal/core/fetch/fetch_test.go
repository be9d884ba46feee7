package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	f := NewFetcher(config.FetchConfig{UserAgent: "test-agent"})
	page, err := f.FetchText(context.Background(), server.URL+"/recipe")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.Status)
	assert.Equal(t, "text/html", page.Headers.Get("Content-Type"))
	assert.Equal(t, "<html><body>hello</body></html>", page.Body)
}

func TestFetchTextErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(config.FetchConfig{}).FetchText(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.ErrCodeFetchFailed))
	assert.Contains(t, err.Error(), "404")
}

func TestFetchTextBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer server.Close()

	page, err := NewFetcher(config.FetchConfig{MaxBodyBytes: 10}).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, page.Body, 10)
}

func TestFetchTextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := NewFetcher(config.FetchConfig{Timeout: 20 * time.Millisecond}).FetchText(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.ErrCodeFetchFailed))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://example.com/a"))
	assert.NoError(t, ValidateURL("http://example.com"))
	for _, bad := range []string{"", "example.com", "ftp://example.com/x", "https://", "not a url"} {
		err := ValidateURL(bad)
		require.Error(t, err, bad)
		assert.True(t, common.IsCode(err, common.ErrCodeInvalidRequest), bad)
	}
}

func TestReadable(t *testing.T) {
	html := `<html><head><title>Tomato Soup</title></head><body>
<nav>Home | About</nav>
<article>
<h1>Tomato Soup</h1>
<p>This tomato soup is rich, warm and simple to make on a weeknight. It uses pantry staples and takes thirty minutes.</p>
<p>Ingredients: 2 pounds tomatoes, 1 onion, 2 cups stock. Simmer everything together and blend until smooth before serving.</p>
<p>Instructions: Chop the onion, soften it in butter, add the tomatoes and stock, simmer for twenty minutes and blend.</p>
</article>
<script>var tracking = true;</script>
</body></html>`

	title, text := Readable(html, "https://example.com/soup", 0)
	assert.Equal(t, "Tomato Soup", title)
	assert.Contains(t, text, "2 pounds tomatoes")
	assert.NotContains(t, text, "tracking")
}

func TestReadableTruncates(t *testing.T) {
	html := "<html><body><p>" + strings.Repeat("soup ", 50) + "</p></body></html>"
	_, text := Readable(html, "https://example.com", 12)
	assert.Equal(t, 12, len([]rune(text)))
}

func TestReadableEmpty(t *testing.T) {
	title, text := Readable("   ", "https://example.com", 0)
	assert.Empty(t, title)
	assert.Empty(t, text)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b\nc", normalizeText("  a   b \n\n\t\n c  "))
}
