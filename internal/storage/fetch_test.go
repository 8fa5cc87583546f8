package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("resume content"))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	blob, err := client.Fetch(context.Background(), srv.URL+"/resume.txt")
	require.NoError(t, err)

	assert.Equal(t, []byte("resume content"), blob.Content)
	assert.Equal(t, "text/plain; charset=utf-8", blob.ContentType)
	assert.Equal(t, srv.URL+"/resume.txt", blob.URL)
}

func TestFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.Fetch(context.Background(), srv.URL+"/gone.txt")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.URL, "/gone.txt")
}

func TestFetch_Gone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.Fetch(context.Background(), srv.URL)

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.Fetch(context.Background(), srv.URL)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Message, "500")
}

func TestFetch_InvalidURL(t *testing.T) {
	client := NewClient(5 * time.Second)

	for _, url := range []string{"", "not a url", "/relative/path"} {
		_, err := client.Fetch(context.Background(), url)
		var fetchErr *FetchError
		assert.ErrorAs(t, err, &fetchErr, url)
	}
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser(""))
	assert.True(t, ShouldUseBrowser("   \n  "))
	assert.True(t, ShouldUseBrowser("short SPA shell"))
	assert.False(t, ShouldUseBrowser(strings.Repeat("content ", 100)))
}
