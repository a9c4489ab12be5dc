package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettboylen/reddit-feeds/models"
)

var testCreds = Credentials{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	Username:     "alice",
	Password:     "hunter2",
	UserAgent:    "feeds-test/1.0",
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestGetHeaderAsInt(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string][]string
		key      string
		expected int
	}{
		{
			name: "Valid integer header",
			headers: map[string][]string{
				"X-Ratelimit-Remaining": {"42"},
			},
			key:      "X-Ratelimit-Remaining",
			expected: 42,
		},
		{
			name: "Float header value",
			headers: map[string][]string{
				"X-Ratelimit-Remaining": {"596.0"},
			},
			key:      "X-Ratelimit-Remaining",
			expected: 596,
		},
		{
			name: "Empty header value",
			headers: map[string][]string{
				"X-Ratelimit-Remaining": {""},
			},
			key:      "X-Ratelimit-Remaining",
			expected: 0,
		},
		{
			name: "Missing header",
			headers: map[string][]string{
				"X-Ratelimit-Used": {"10"},
			},
			key:      "X-Ratelimit-Remaining",
			expected: 0,
		},
		{
			name: "Non-integer header value",
			headers: map[string][]string{
				"X-Ratelimit-Remaining": {"not-a-number"},
			},
			key:      "X-Ratelimit-Remaining",
			expected: 0,
		},
		{
			name: "Multiple values for same header (should use first)",
			headers: map[string][]string{
				"X-Ratelimit-Remaining": {"100", "200"},
			},
			key:      "X-Ratelimit-Remaining",
			expected: 100,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header(tc.headers)
			result := getHeaderAsInt(header, tc.key)
			if result != tc.expected {
				t.Errorf("getHeaderAsInt(%v, %q) = %d; want %d",
					header, tc.key, result, tc.expected)
			}
		})
	}
}

func TestAcquireToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "feeds-test/1.0", r.Header.Get("User-Agent"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "hunter2", r.PostForm.Get("password"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":86400,"scope":"*"}`))
	}))
	defer server.Close()

	reddit := NewRedditAPI(testCreds, server.URL, server.URL, 5*time.Second, quietLogger())

	token, err := reddit.AcquireToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestAcquireTokenFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Unauthorized","error":401}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"missing access token", http.StatusOK, `{"error":"invalid_grant"}`},
		{"empty access token", http.StatusOK, `{"access_token":"","token_type":"bearer"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			reddit := NewRedditAPI(testCreds, server.URL, server.URL, 5*time.Second, quietLogger())

			token, err := reddit.AcquireToken(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrAuth), "want ErrAuth, got %v", err)
			assert.Empty(t, token)
		})
	}
}

func TestAcquireTokenTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	reddit := NewRedditAPI(testCreds, url, url, time.Second, quietLogger())

	_, err := reddit.AcquireToken(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAuth)
}

func listingBody(children ...map[string]any) string {
	wrapped := make([]map[string]any, 0, len(children))
	for _, c := range children {
		wrapped = append(wrapped, map[string]any{"kind": "t3", "data": c})
	}
	body, _ := json.Marshal(map[string]any{
		"kind": "Listing",
		"data": map[string]any{"after": "t3_next", "children": wrapped},
	})
	return string(body)
}

func TestFetchListing(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")

		w.Header().Set("X-Ratelimit-Used", "3")
		w.Header().Set("X-Ratelimit-Reset", "540")
		w.Write([]byte(listingBody(
			map[string]any{"id": "abc", "title": "First", "ups": 10},
			map[string]any{"id": "def", "title": "Second"},
		)))
	}))
	defer server.Close()

	reddit := NewRedditAPI(testCreds, server.URL, server.URL, 5*time.Second, quietLogger())

	items, err := reddit.FetchListing(context.Background(), "tok-123", "golang", "hot")
	require.NoError(t, err)

	assert.Equal(t, "/r/golang/hot/", gotPath)
	assert.Equal(t, "after=after_key&limit=100", gotQuery)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "feeds-test/1.0", gotUA)

	require.Len(t, items, 2)
	assert.Equal(t, "abc", items[0]["id"])
	assert.Equal(t, "def", items[1]["id"])
	assert.Equal(t, json.Number("10"), items[0]["ups"])
	assert.False(t, items[1].Has("ups"))
}

func TestFetchListingHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"reason":"private"}`))
	}))
	defer server.Close()

	reddit := NewRedditAPI(testCreds, server.URL, server.URL, 5*time.Second, quietLogger())

	_, err := reddit.FetchListing(context.Background(), "tok", "secret_club", "new")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrHTTP)

	var httpErr *models.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "private")
}

func TestFetchListingMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"no data", `{"kind":"Listing"}`},
		{"no children", `{"kind":"Listing","data":{"after":null}}`},
		{"null children", `{"kind":"Listing","data":{"children":null}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			reddit := NewRedditAPI(testCreds, server.URL, server.URL, 5*time.Second, quietLogger())

			_, err := reddit.FetchListing(context.Background(), "tok", "golang", "top")
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrMalformedResponse)
		})
	}
}

func TestFetchListingEmptyAndChildlessEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"children":[{"kind":"t3"},{"kind":"t3","data":{"id":"x"}},{"kind":"more","data":null}]}}`))
	}))
	defer server.Close()

	reddit := NewRedditAPI(testCreds, server.URL, server.URL, 5*time.Second, quietLogger())

	items, err := reddit.FetchListing(context.Background(), "tok", "golang", "new")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "x", items[0]["id"])
}

func TestFetchListingRejectsUnknownListing(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	reddit := NewRedditAPI(testCreds, server.URL, server.URL, 5*time.Second, quietLogger())

	_, err := reddit.FetchListing(context.Background(), "tok", "golang", "rising")
	assert.ErrorIs(t, err, models.ErrInvalidListing)
	assert.False(t, called)
}

func TestDecodeListingPreservesNesting(t *testing.T) {
	items, err := decodeListing(strings.NewReader(
		`{"data":{"children":[{"data":{"secure_media_embed":{"media_domain_url":"https://v/1"},"created_utc":1700000000.0}}]}}`))
	require.NoError(t, err)
	require.Len(t, items, 1)

	embed, ok := items[0].Object("secure_media_embed")
	require.True(t, ok)
	url, ok := embed.String("media_domain_url")
	require.True(t, ok)
	assert.Equal(t, "https://v/1", url)

	created, ok := items[0].Float("created_utc")
	require.True(t, ok)
	assert.Equal(t, 1700000000.0, created)
}
